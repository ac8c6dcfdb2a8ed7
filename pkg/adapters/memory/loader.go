package memory

import (
	"context"

	"github.com/aretw0/unicorn/pkg/trie"
)

// Loader implements ports.TrieLoader over an in-memory payload.
// Useful for embedded tables and tests.
type Loader struct {
	data   []byte
	format trie.Format
	doc    map[string]any
}

// NewLoader creates a loader for a raw payload in the given format.
func NewLoader(data []byte, format trie.Format) *Loader {
	return &Loader{data: data, format: format}
}

// NewFromMap creates a loader from an already decoded document.
// The document is validated when Load is called.
func NewFromMap(m map[string]any) *Loader {
	return &Loader{doc: m}
}

// Load parses the payload. Each call builds a fresh trie.
func (l *Loader) Load(ctx context.Context) (*trie.Trie, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.doc != nil {
		return trie.FromMap(l.doc)
	}
	return trie.Parse(l.data, l.format)
}
