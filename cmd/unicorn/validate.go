package main

import (
	"fmt"
	"io"
	"os"

	"github.com/aretw0/unicorn/pkg/trie"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [table]",
	Short: "Check a mnemonic table for errors",
	Long: `Parses the table (and, for JSON, checks it against the schema) and prints its size.
Errors name the offending key path.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		path := cfg.Trie
		if len(args) > 0 {
			path = args[0]
		}
		if err := runValidate(cmd.OutOrStdout(), path); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(w io.Writer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	format := trie.FormatFromPath(path)
	if format == trie.FormatJSON {
		if err := trie.Validate(data); err != nil {
			return err
		}
	}
	t, err := trie.Parse(data, format)
	if err != nil {
		return err
	}

	stats := t.Stats()
	fmt.Fprintf(w, "%s is valid (%s)\n", path, format)
	fmt.Fprintf(w, "  nodes: %d  leaves: %d  candidates: %d  max depth: %d\n",
		stats.Nodes, stats.Leaves, stats.Candidates, stats.MaxDepth)
	return nil
}
