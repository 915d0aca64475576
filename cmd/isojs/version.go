package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/isojs/isojs"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the engine version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(isojs.Version())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
