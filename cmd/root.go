// Package cmd implements the mummi-workflow command-line entry
// points: serve, enqueue, status, and restore, grounded on the
// cobra root/subcommand layout the pack's inference simulator uses.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "mummi-workflow",
	Short: "Workflow execution engine for coupled multiscale simulation pipelines",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "path to the workflow config file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(enqueueCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(restoreCmd)
}
