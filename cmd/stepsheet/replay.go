package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/stepsheet/internal/cli"
)

var replayCmd = &cobra.Command{
	Use:   "replay <analysis>",
	Short: "Replay an analysis and print the generated script",
	Long: `Replays a saved analysis (by name) or an analysis file (by path) over the
--data files and prints the equivalent pandas script. Nothing is printed if
any step fails; the whole replay is rolled back.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := options(cmd)
		opts.Comments, _ = cmd.Flags().GetBool("comments")
		return cli.Replay(cmd.Context(), cmd.OutOrStdout(), opts, args[0], cli.CreateLogger(opts))
	},
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().Bool("comments", false, "Prefix each step's code with its description")
}
