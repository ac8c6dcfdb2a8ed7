package trie

import (
	"slices"
	"sort"
	"strings"
)

// CandidatesKey is the reserved payload key holding a node's candidate list.
const CandidatesKey = ">>"

// Node is one position in the prefix tree. Nodes are never mutated after
// construction, so pointers to them can be held and shared freely.
type Node struct {
	candidates []string
	children   map[rune]*Node
}

// Child returns the child reached by symbol r.
func (n *Node) Child(r rune) (*Node, bool) {
	child, ok := n.children[r]
	return child, ok
}

// Candidates returns a copy of the node's candidate list (nil when it has none).
func (n *Node) Candidates() []string {
	return slices.Clone(n.candidates)
}

// Candidate returns the i-th candidate.
func (n *Node) Candidate(i int) (string, bool) {
	if i < 0 || i >= len(n.candidates) {
		return "", false
	}
	return n.candidates[i], true
}

// NumCandidates returns the number of candidates.
func (n *Node) NumCandidates() int { return len(n.candidates) }

// HasCandidates reports whether the node carries at least one candidate.
func (n *Node) HasCandidates() bool { return len(n.candidates) > 0 }

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool { return len(n.children) == 0 }

// Len returns the number of children.
func (n *Node) Len() int { return len(n.children) }

// Symbols returns the child symbols in ascending order.
func (n *Node) Symbols() []rune {
	keys := make([]rune, 0, len(n.children))
	for r := range n.children {
		keys = append(keys, r)
	}
	slices.Sort(keys)
	return keys
}

// Entry is a reachable sequence that carries candidates.
type Entry struct {
	Sequence   string   `json:"sequence"`
	Candidates []string `json:"candidates"`
}

// Stats summarises a trie.
type Stats struct {
	Nodes      int `json:"nodes"`
	Leaves     int `json:"leaves"`
	Candidates int `json:"candidates"`
	MaxDepth   int `json:"max_depth"`
}

// Trie is an immutable prefix tree. It is safe for concurrent use.
type Trie struct {
	root  *Node
	stats Stats
}

func newTrie(root *Node) *Trie {
	t := &Trie{root: root}
	t.walkAll(func(seq []rune, n *Node) {
		t.stats.Nodes++
		t.stats.Candidates += len(n.candidates)
		if n.IsLeaf() {
			t.stats.Leaves++
		}
		if len(seq) > t.stats.MaxDepth {
			t.stats.MaxDepth = len(seq)
		}
	})
	return t
}

// Root returns the root node.
func (t *Trie) Root() *Node { return t.root }

// Stats returns node, leaf and candidate counts.
func (t *Trie) Stats() Stats { return t.stats }

// Walk follows seq from the root. The returned path starts with the root and has
// one more element than seq has runes. ok is false when a symbol has no child;
// the path then ends at the last node reached.
func (t *Trie) Walk(seq string) (path []*Node, ok bool) {
	path = []*Node{t.root}
	current := t.root
	for _, r := range seq {
		next, found := current.Child(r)
		if !found {
			return path, false
		}
		path = append(path, next)
		current = next
	}
	return path, true
}

// Entries lists every node that carries candidates, sorted by sequence.
func (t *Trie) Entries() []Entry {
	var entries []Entry
	t.walkAll(func(seq []rune, n *Node) {
		if n.HasCandidates() {
			entries = append(entries, Entry{Sequence: string(seq), Candidates: n.Candidates()})
		}
	})
	sort.Slice(entries, func(i, j int) bool {
		return strings.Compare(entries[i].Sequence, entries[j].Sequence) < 0
	})
	return entries
}

// walkAll visits every node depth-first in symbol order.
func (t *Trie) walkAll(visit func(seq []rune, n *Node)) {
	var walk func(seq []rune, n *Node)
	walk = func(seq []rune, n *Node) {
		visit(seq, n)
		for _, r := range n.Symbols() {
			walk(append(slices.Clone(seq), r), n.children[r])
		}
	}
	walk(nil, t.root)
}
