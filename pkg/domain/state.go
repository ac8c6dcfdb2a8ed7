package domain

import "time"

// Composition is a serialisable snapshot of the composition state.
// The trie path is not stored; it is rebuilt from Buffer on restore.
type Composition struct {
	Active   bool   `json:"active"`
	Buffer   string `json:"buffer"`
	Selected int    `json:"selected"`
}

// Session is a composition owned by one host client (editor window, browser tab...).
type Session struct {
	ID          string      `json:"id"`
	Composition Composition `json:"composition"`
	UpdatedAt   time.Time   `json:"updated_at"`

	// Sealed holds the encrypted Composition when the session passed through an
	// encrypting store; Composition is then zero.
	Sealed string `json:"sealed,omitempty"`
}

// NewSession creates an inactive session.
func NewSession(id string) *Session {
	return &Session{ID: id, UpdatedAt: time.Now()}
}
