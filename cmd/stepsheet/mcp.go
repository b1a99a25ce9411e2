package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/stepsheet/internal/cli"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp [analysis]",
	Short: "Serve an interactive session as an MCP server",
	Long: `Exposes the session as Model Context Protocol tools (apply_step, undo, redo,
get_code, preview_dataset, ...) over stdio, or over SSE when --port is set.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := options(cmd)
		port, _ := cmd.Flags().GetInt("port")
		ref := ""
		if len(args) > 0 {
			ref = args[0]
		}
		return cli.ServeMCP(cmd.Context(), opts, ref, port, cli.CreateLogger(opts))
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().Int("port", 0, "Serve over SSE on this port instead of stdio")
}
