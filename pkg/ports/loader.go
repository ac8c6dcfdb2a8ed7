package ports

import (
	"context"

	"github.com/aretw0/unicorn/pkg/trie"
)

// TrieLoader defines how the host obtains the trie configuration.
// This keeps file, embedded or remote sources out of the engine.
type TrieLoader interface {
	// Load reads and parses the configuration. Parse failures are *domain.ConfigError.
	Load(ctx context.Context) (*trie.Trie, error)
}

// Watchable defines an interface for loaders that can notify about backend changes.
// This is typically used for hot-reload of the mnemonic table.
type Watchable interface {
	// Watch returns a channel that is signaled when the configuration changes.
	// The channel is closed when ctx is done.
	Watch(ctx context.Context) (<-chan struct{}, error)
}
