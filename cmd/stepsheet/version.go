package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/stepsheet"
	"github.com/aretw0/stepsheet/internal/presentation/tui"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of stepsheet",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		if f, ok := out.(*os.File); ok && tui.IsTerminal(f) {
			tui.PrintBanner(out)
		}
		fmt.Fprintf(out, "stepsheet version %s\n", strings.TrimSpace(stepsheet.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
