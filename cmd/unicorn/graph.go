package main

import (
	"fmt"

	"github.com/aretw0/unicorn/internal/presentation/graph"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph [table]",
	Short: "Print the mnemonic trie as a Mermaid flowchart",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, _, err := loadTrie(cmd, args)
		if err != nil {
			return err
		}

		depth, _ := cmd.Flags().GetInt("depth")
		var overlay *graph.GraphOverlay
		if seq, _ := cmd.Flags().GetString("highlight"); seq != "" {
			overlay = &graph.GraphOverlay{Buffer: seq}
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(t, depth, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().Int("depth", 0, "Fold subtrees deeper than this (0 = unlimited)")
	graphCmd.Flags().String("highlight", "", "Highlight the path of this sequence (trigger included)")
}
