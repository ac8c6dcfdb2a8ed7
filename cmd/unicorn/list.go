package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/unicorn/internal/presentation/tui"
	"github.com/aretw0/unicorn/pkg/trie"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list [table]",
	Short: "List every mnemonic and its candidates",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, _, err := loadTrie(cmd, args)
		if err != nil {
			return err
		}
		raw, _ := cmd.Flags().GetBool("raw")
		prefix, _ := cmd.Flags().GetString("prefix")
		return runList(cmd.OutOrStdout(), t, prefix, raw)
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().Bool("raw", false, "Print plain markdown instead of rendering it")
	listCmd.Flags().String("prefix", "", "Only list sequences starting with this prefix")
}

func runList(w io.Writer, t *trie.Trie, prefix string, raw bool) error {
	var entries []trie.Entry
	for _, e := range t.Entries() {
		if strings.HasPrefix(e.Sequence, prefix) {
			entries = append(entries, e)
		}
	}

	table := tui.MnemonicTable(entries)
	if raw {
		_, err := io.WriteString(w, table)
		return err
	}

	out, err := tui.NewRenderer()(table)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(w, out)
	return err
}
