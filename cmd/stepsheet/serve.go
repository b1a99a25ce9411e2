package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/stepsheet/internal/cli"
)

var serveCmd = &cobra.Command{
	Use:   "serve [analysis]",
	Short: "Serve an interactive session over HTTP",
	Long: `Starts an HTTP API over the --data files. Steps can be applied, undone and
redone; the generated script, dataset previews and a graph of the log are
available at any time. When an analysis is given it is replayed first.

Lifecycle events stream on /events (SSE) and Prometheus metrics on /metrics.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := options(cmd)
		addr, _ := cmd.Flags().GetString("addr")
		ref := ""
		if len(args) > 0 {
			ref = args[0]
		}
		return cli.Serve(cmd.Context(), cmd.OutOrStdout(), opts, addr, ref, cli.CreateLogger(opts))
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "localhost:8080", "Address to listen on")
}
