package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/unicorn/pkg/trie"
)

// GraphOverlay marks a composition on the graph.
type GraphOverlay struct {
	// Buffer is the composition text, trigger included; the path it spells is highlighted.
	Buffer string
}

// GenerateMermaid produces a Mermaid flowchart of the trie.
// Shapes:
// - Root: ((Circle))
// - Node with candidates: [[Subroutine]] labelled with its candidates
// - Default: [Rectangle]
// Edges are labelled with the input symbol. Subtrees deeper than maxDepth are
// folded into a single "…" node; maxDepth <= 0 means unlimited.
func GenerateMermaid(t *trie.Trie, maxDepth int, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	sb.WriteString("    n0((\"root\"))\n")

	// The trigger does not traverse an edge: the symbols after it start at the root.
	highlight := map[string]bool{}
	var target string
	if overlay != nil {
		if symbols := []rune(overlay.Buffer); len(symbols) > 0 {
			target = string(symbols[1:])
		}
		path, _ := t.Walk(target)
		prefix := []rune(target)[:len(path)-1]
		for i := range prefix {
			highlight[string(prefix[:i+1])] = true
		}
	}

	next := 1
	var visited []string
	var current string
	if overlay != nil && target == "" {
		current = "n0"
	}

	var walk func(n *trie.Node, id string, seq []rune)
	walk = func(n *trie.Node, id string, seq []rune) {
		for _, sym := range n.Symbols() {
			child, _ := n.Child(sym)
			childID := fmt.Sprintf("n%d", next)
			next++
			childSeq := append(seq[:len(seq):len(seq)], sym)

			if maxDepth > 0 && len(childSeq) > maxDepth {
				sb.WriteString(fmt.Sprintf("    %s[\"…\"]\n", childID))
				sb.WriteString(fmt.Sprintf("    %s -- \"%s\" --> %s\n", id, escape(string(sym)), childID))
				continue
			}

			opener, closer := "[", "]"
			label := escape(string(sym))
			if child.HasCandidates() {
				opener, closer = "[[", "]]"
				label = fmt.Sprintf("%s <br/> %s", label, escape(strings.Join(child.Candidates(), " ")))
			}
			sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", childID, opener, label, closer))
			sb.WriteString(fmt.Sprintf("    %s -- \"%s\" --> %s\n", id, escape(string(sym)), childID))

			if highlight[string(childSeq)] {
				visited = append(visited, childID)
				if string(childSeq) == target {
					current = childID
				}
			}
			walk(child, childID, childSeq)
		}
	}
	walk(t.Root(), "n0", nil)

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		for _, id := range visited {
			if id != current {
				sb.WriteString(fmt.Sprintf("    class %s visited;\n", id))
			}
		}
		if current != "" {
			sb.WriteString(fmt.Sprintf("    class %s current;\n", current))
		}
	}

	return sb.String()
}

// escape makes text safe inside a quoted Mermaid label.
func escape(s string) string {
	r := strings.NewReplacer(`"`, "#quot;", "<", "#lt;", ">", "#gt;")
	return r.Replace(s)
}
