package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/stepsheet/internal/cli"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <analysis>",
	Short: "Export the analysis as a Mermaid diagram",
	Long:  `Replays the analysis and outputs a Mermaid diagram (graph TD) of its steps, including formula refreshes.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := options(cmd)
		return cli.Graph(cmd.Context(), cmd.OutOrStdout(), opts, args[0], cli.CreateLogger(opts))
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
