package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/unicorn/pkg/domain"
	"github.com/aretw0/unicorn/pkg/trie"
	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// RenderAction formats one action for a terminal using profile p.
// Commits are green, candidate prompts yellow, rejections faint.
func RenderAction(p termenv.Profile, a domain.Action) string {
	label := p.String(fmt.Sprintf("%-18s", a.Kind)).Foreground(p.Color(actionColor(a.Kind)))
	switch a.Kind {
	case domain.ActionReject:
		return label.Faint().String()
	case domain.ActionCommit:
		return label.Bold().String() + " " + a.Text
	default:
		return label.String() + " " + a.Text
	}
}

func actionColor(k domain.ActionKind) string {
	switch k {
	case domain.ActionCommit:
		return "#22c55e"
	case domain.ActionShowCandidates:
		return "#eab308"
	case domain.ActionUpdateComposition:
		return "#818cf8"
	default:
		return "#6b7280"
	}
}

// RenderCandidates lists candidates numbered from 1, marking the selected one.
func RenderCandidates(p termenv.Profile, candidates []string, selected int) string {
	var sb strings.Builder
	for i, c := range candidates {
		item := fmt.Sprintf("%d.%s", i+1, c)
		if i == selected {
			item = p.String(item).Reverse().String()
		}
		if i > 0 {
			sb.WriteString("  ")
		}
		sb.WriteString(item)
	}
	return sb.String()
}

// MnemonicTable builds a markdown table of sequences and their candidates.
func MnemonicTable(entries []trie.Entry) string {
	var sb strings.Builder
	sb.WriteString("| Sequence | Candidates |\n")
	sb.WriteString("| --- | --- |\n")
	for _, e := range entries {
		fmt.Fprintf(&sb, "| %s | %s |\n", cell(e.Sequence), cell(strings.Join(e.Candidates, " ")))
	}
	return sb.String()
}

// cell wraps text in a code span; pipes are escaped for the table syntax.
func cell(s string) string {
	return "`" + strings.ReplaceAll(s, "|", `\|`) + "`"
}
