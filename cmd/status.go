package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/llnl/mummi-workflow-core/pkg/bootstrap"
	"github.com/llnl/mummi-workflow-core/pkg/config"
)

var statusJobType string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the current queued/running state for one or all job types",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		ctx := context.Background()
		sys, err := bootstrap.Init(ctx, cfg)
		if err != nil {
			return err
		}

		if statusJobType != "" {
			tr, ok := sys.Trackers[statusJobType]
			if !ok {
				return fmt.Errorf("status: unknown job type %q", statusJobType)
			}
			if err := loadAndRestore(ctx, sys, statusJobType, tr); err != nil {
				return err
			}
			return printJSON(tr.Status())
		}

		out := make(map[string]interface{}, len(sys.Trackers))
		for name, tr := range sys.Trackers {
			if err := loadAndRestore(ctx, sys, name, tr); err != nil {
				return err
			}
			out[name] = tr.Status()
		}
		return printJSON(out)
	},
}

func init() {
	statusCmd.Flags().StringVar(&statusJobType, "type", "", "restrict output to one job type")
}

func printJSON(v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}
