package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is matched by every *ConfigError.
var ErrInvalidConfig = errors.New("invalid trie configuration")

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrStaleComposition is returned when a saved composition no longer maps onto the trie,
// typically after the configuration was reloaded.
var ErrStaleComposition = errors.New("composition does not match the trie")

// ConfigError describes a malformed configuration payload.
type ConfigError struct {
	Path   string // Dotted key path of the offending node; empty for the root
	Reason string
	Err    error // Underlying decode error, if any
}

func (e *ConfigError) Error() string {
	msg := e.Reason
	if e.Path != "" {
		msg = fmt.Sprintf("at %q: %s", e.Path, e.Reason)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return "config: " + msg
}

// Unwrap exposes both the sentinel and the cause.
func (e *ConfigError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidConfig}
	}
	return []error{ErrInvalidConfig, e.Err}
}

// InitError is returned when an engine cannot be constructed.
type InitError struct {
	Source string // File path or "payload"
	Err    error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("initialization error (%s): %v", e.Source, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }
