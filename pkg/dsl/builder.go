package dsl

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/aretw0/unicorn/pkg/adapters/memory"
	"github.com/aretw0/unicorn/pkg/trie"
)

// Builder collects sequences and their candidates.
type Builder struct {
	entries map[string]*EntryBuilder
}

// New creates an empty table builder.
func New() *Builder {
	return &Builder{
		entries: make(map[string]*EntryBuilder),
	}
}

// Add registers a sequence (without the trigger). Adding it again returns the
// existing builder, so candidates accumulate.
func (b *Builder) Add(sequence string) *EntryBuilder {
	if eb, ok := b.entries[sequence]; ok {
		return eb
	}
	eb := &EntryBuilder{sequence: sequence}
	b.entries[sequence] = eb
	return eb
}

// Map renders the table in the decoded payload shape accepted by trie.FromMap.
func (b *Builder) Map() (map[string]any, error) {
	sequences := make([]string, 0, len(b.entries))
	for seq := range b.entries {
		sequences = append(sequences, seq)
	}
	sort.Strings(sequences)

	root := map[string]any{}
	for _, seq := range sequences {
		if seq == "" {
			return nil, errors.New("empty sequence: the trigger alone cannot carry candidates")
		}
		node := root
		for _, r := range seq {
			key := string(r)
			child, ok := node[key].(map[string]any)
			if !ok {
				child = map[string]any{}
				node[key] = child
			}
			node = child
		}
		if cands := b.entries[seq].candidates; len(cands) > 0 {
			list := make([]any, len(cands))
			for i, c := range cands {
				list[i] = c
			}
			node[trie.CandidatesKey] = list
		}
	}
	return root, nil
}

// Trie builds the immutable trie.
func (b *Builder) Trie() (*trie.Trie, error) {
	m, err := b.Map()
	if err != nil {
		return nil, err
	}
	t, err := trie.FromMap(m)
	if err != nil {
		return nil, fmt.Errorf("failed to build trie: %w", err)
	}
	return t, nil
}

// Build compiles the table into a memory loader.
func (b *Builder) Build() (*memory.Loader, error) {
	m, err := b.Map()
	if err != nil {
		return nil, err
	}
	return memory.NewFromMap(m), nil
}

// EntryBuilder configures one sequence.
type EntryBuilder struct {
	sequence   string
	candidates []string
}

// Candidates appends candidates, keeping their order.
func (eb *EntryBuilder) Candidates(candidates ...string) *EntryBuilder {
	eb.candidates = append(eb.candidates, candidates...)
	return eb
}

// Sequence returns the sequence being configured.
func (eb *EntryBuilder) Sequence() string { return eb.sequence }

// List returns the candidates configured so far.
func (eb *EntryBuilder) List() []string { return slices.Clone(eb.candidates) }
