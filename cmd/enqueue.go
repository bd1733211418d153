package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/llnl/mummi-workflow-core/pkg/bootstrap"
	"github.com/llnl/mummi-workflow-core/pkg/config"
	"github.com/llnl/mummi-workflow-core/pkg/jobtracker"
)

var (
	enqueueJobType string
	enqueueSims    []string
	enqueuePrepend bool
)

var enqueueCmd = &cobra.Command{
	Use:   "enqueue",
	Short: "Add simulations to a job type's queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		if enqueueJobType == "" || len(enqueueSims) == 0 {
			return fmt.Errorf("enqueue: --type and at least one --sim are required")
		}

		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		ctx := context.Background()
		sys, err := bootstrap.Init(ctx, cfg)
		if err != nil {
			return err
		}

		tr, ok := sys.Trackers[enqueueJobType]
		if !ok {
			return fmt.Errorf("enqueue: unknown job type %q", enqueueJobType)
		}

		if err := loadAndRestore(ctx, sys, enqueueJobType, tr); err != nil {
			return err
		}

		added := tr.Enqueue(enqueueSims, enqueuePrepend)
		fmt.Printf("enqueued %d of %d requested sims: %v\n", len(added), len(enqueueSims), added)

		return saveCheckpoint(sys, enqueueJobType, tr)
	},
}

func init() {
	enqueueCmd.Flags().StringVar(&enqueueJobType, "type", "", "job type to enqueue against")
	enqueueCmd.Flags().StringArrayVar(&enqueueSims, "sim", nil, "simulation name to enqueue (repeatable)")
	enqueueCmd.Flags().BoolVar(&enqueuePrepend, "prepend", false, "prepend instead of append")
}

// loadAndRestore hydrates a tracker from its on-disk checkpoint, if
// one exists, before any one-shot CLI operation mutates it.
func loadAndRestore(ctx context.Context, sys *bootstrap.System, jobType string, tr *jobtracker.Tracker) error {
	path := bootstrap.CheckpointPath(sys.Naming, jobType)
	raw := sys.IO.LoadCheckpoint(path)
	if len(raw) == 0 {
		return nil
	}
	state, err := jobtracker.DecodeCheckpointState(raw)
	if err != nil {
		return err
	}
	_, _, err = tr.Restore(ctx, state, true)
	return err
}

func saveCheckpoint(sys *bootstrap.System, jobType string, tr *jobtracker.Tracker) error {
	path := bootstrap.CheckpointPath(sys.Naming, jobType)
	return sys.IO.SaveCheckpoint(path, tr.Checkpoint(), false)
}
