package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/stepsheet/internal/cli"
)

var describeCmd = &cobra.Command{
	Use:   "describe <analysis>",
	Short: "Replay an analysis and print its steps and resulting datasets",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := options(cmd)
		opts.Rows, _ = cmd.Flags().GetInt("rows")
		return cli.Describe(cmd.Context(), cmd.OutOrStdout(), opts, args[0], cli.CreateLogger(opts))
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
	describeCmd.Flags().Int("rows", 10, "Rows to preview per dataset (0 for all)")
}
