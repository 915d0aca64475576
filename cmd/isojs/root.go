package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/isojs/isojs"
)

var rootCmd = &cobra.Command{
	Use:   "isojs [file]",
	Short: "Run JavaScript in embedded isolates",
	Long: `isojs - Execute JavaScript in disposable, terminable isolates.

Scripts run inside a fresh execution sandbox with no ambient host access;
host functionality is only reachable through explicitly planted globals.
Runs are bounded by a deadline and forcibly terminated when they exceed it.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runRun, // default to run command behavior
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().Bool("strict", false, "Evaluate scripts in strict mode")
	addRunFlags(rootCmd)
}

// applyStrict maps the --strict flag onto the engine flag surface.
func applyStrict(cmd *cobra.Command) {
	strict, _ := cmd.Flags().GetBool("strict")
	if strict {
		isojs.SetFlags("--use_strict")
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
