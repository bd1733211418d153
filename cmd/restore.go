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
	restoreJobType             string
	restoreCheckForRunningJobs bool
)

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore a job type's tracker from its on-disk checkpoint and report the result",
	RunE: func(cmd *cobra.Command, args []string) error {
		if restoreJobType == "" {
			return fmt.Errorf("restore: --type is required")
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
		tr, ok := sys.Trackers[restoreJobType]
		if !ok {
			return fmt.Errorf("restore: unknown job type %q", restoreJobType)
		}

		path := bootstrap.CheckpointPath(sys.Naming, restoreJobType)
		raw := sys.IO.LoadCheckpoint(path)
		if len(raw) == 0 {
			fmt.Println("restore: no checkpoint found, nothing to restore")
			return nil
		}
		state, err := jobtracker.DecodeCheckpointState(raw)
		if err != nil {
			return err
		}
		success, failed, err := tr.Restore(ctx, state, restoreCheckForRunningJobs)
		if err != nil {
			return err
		}
		fmt.Printf("restored: %d succeeded, %d failed during downtime\n", len(success), len(failed))
		return saveCheckpoint(sys, restoreJobType, tr)
	},
}

func init() {
	restoreCmd.Flags().StringVar(&restoreJobType, "type", "", "job type to restore")
	restoreCmd.Flags().BoolVar(&restoreCheckForRunningJobs, "check-running", true, "re-query the scheduler for jobs recorded as running")
}
