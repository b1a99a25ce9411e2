package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/stepsheet/internal/cli"
)

var rootCmd = &cobra.Command{
	Use:   "stepsheet",
	Short: "Stepsheet replays data transformation analyses and generates their code",
	Long: `Stepsheet keeps an analysis as an ordered log of steps (concat, column type
changes, formulas) and replays it over CSV files to produce the equivalent
pandas script, a report or a graph of the steps.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx := cli.NewSignalContext(context.Background())
	defer ctx.Cancel()

	if err := cli.HandleExecutionError(rootCmd.ExecuteContext(ctx)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	flags := rootCmd.PersistentFlags()
	flags.String("dir", ".", "Directory holding the .stepsheet folder")
	flags.String("store", cli.StoreFile, "Analysis store: file or redis")
	flags.String("redis-addr", "", "Redis address (default $"+cli.EnvRedisAddr+" or localhost:6379)")
	flags.StringSlice("data", nil, "CSV files the analysis runs on, in dataset order")
	flags.String("comma", ",", "CSV field delimiter")
	flags.Bool("debug", false, "Log every step to stderr")
	flags.Bool("log-json", false, "Log as JSON instead of text")
}

// options collects the persistent flags of cmd.
func options(cmd *cobra.Command) cli.Options {
	flags := cmd.Flags()
	opts := cli.Options{}
	opts.Dir, _ = flags.GetString("dir")
	opts.Store, _ = flags.GetString("store")
	opts.RedisAddr, _ = flags.GetString("redis-addr")
	opts.Data, _ = flags.GetStringSlice("data")
	opts.Comma, _ = flags.GetString("comma")
	opts.Debug, _ = flags.GetBool("debug")
	opts.LogJSON, _ = flags.GetBool("log-json")
	return opts
}
