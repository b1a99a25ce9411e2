package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/stepsheet/internal/cli"
)

var validateCmd = &cobra.Command{
	Use:   "validate <analysis>",
	Short: "Check an analysis for consistency",
	Long: `Checks step kinds, versions and parameters without loading any data. When
--data is given, dataset references are checked against it too.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.Validate(cmd.Context(), cmd.OutOrStdout(), options(cmd), args[0])
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
