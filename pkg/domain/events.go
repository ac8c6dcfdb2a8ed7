package domain

import (
	"context"
	"time"
)

// KeyEvent describes one processed key and its outcome.
type KeyEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Symbol    rune      `json:"symbol"`
	Actions   []Action  `json:"actions"`
	Active    bool      `json:"active"`
	Buffer    string    `json:"buffer"`
	Depth     int       `json:"depth"` // Trie depth after the key; 0 means at the root
}

// CommitEvent is emitted for every Commit action.
type CommitEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Text      string    `json:"text"`
	Sequence  string    `json:"sequence"` // Composition buffer that produced Text
}

// LifecycleHooks defines callbacks for engine observability.
// Hooks run synchronously on the caller's goroutine and must not call back into the engine.
type LifecycleHooks struct {
	OnKey    func(context.Context, *KeyEvent)
	OnCommit func(context.Context, *CommitEvent)
}
