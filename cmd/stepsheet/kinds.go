package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/stepsheet/internal/cli"
)

var kindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "List step kinds and their parameters",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.Kinds(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(kindsCmd)
}
