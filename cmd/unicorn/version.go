package main

import (
	"fmt"

	"github.com/aretw0/unicorn"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of unicorn",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "unicorn version %s\n", unicorn.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
