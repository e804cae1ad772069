// Package main implements the bindcell CLI tool.
//
// bindcell works with the conflict dumps written by programs that use
// bindcell cells (BINDCELL_OPTIONS="dump=conflicts.msgpack"):
//
//	bindcell report conflicts.msgpack               # print every conflict
//	bindcell report --modfile go.mod conflicts.*    # highlight your own frames
//	bindcell report --summary conflicts.msgpack     # counts only
//	bindcell demo                                   # show the failure modes
package main

import (
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "bindcell",
	Short: "Inspect borrow conflicts recorded by bindcell cells",
	Long: `bindcell reads the msgpack conflict dumps written by programs built with
bindcell and renders them as reports showing where every conflicting borrow
was acquired.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.Version = version
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")

	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("bindcell version %s\n", version)
	},
}
