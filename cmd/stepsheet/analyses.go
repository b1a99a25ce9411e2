package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/stepsheet/internal/cli"
)

var analysesCmd = &cobra.Command{
	Use:   "analyses",
	Short: "Manage saved analyses",
	Long:  `List, inspect, import and remove analyses kept in the configured store.`,
}

var analysesLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all saved analyses",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.ListAnalyses(cmd.Context(), cmd.OutOrStdout(), options(cmd))
	},
}

var analysesShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print a saved analysis as YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.ShowAnalysis(cmd.Context(), cmd.OutOrStdout(), options(cmd), args[0])
	},
}

var analysesImportCmd = &cobra.Command{
	Use:   "import <file> [name]",
	Short: "Save an analysis file into the store",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) > 1 {
			name = args[1]
		}
		return cli.ImportAnalysis(cmd.Context(), cmd.OutOrStdout(), options(cmd), args[0], name)
	},
}

var analysesRmCmd = &cobra.Command{
	Use:   "rm <name>...",
	Short: "Remove one or more analyses",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.RemoveAnalyses(cmd.Context(), cmd.OutOrStdout(), options(cmd), args)
	},
}

func init() {
	rootCmd.AddCommand(analysesCmd)
	analysesCmd.AddCommand(analysesLsCmd)
	analysesCmd.AddCommand(analysesShowCmd)
	analysesCmd.AddCommand(analysesImportCmd)
	analysesCmd.AddCommand(analysesRmCmd)
}
