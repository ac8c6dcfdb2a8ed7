package domain

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// Reserved input symbols.
const (
	// DefaultTrigger starts (or restarts) a composition.
	DefaultTrigger = '\\'

	// KeyBackspace and KeyDelete both delete backward; they are handled identically.
	KeyBackspace = '\b'
	KeyDelete    = '\x7f'
)

// IsDeleteBackward reports whether r is one of the delete-backward codes.
func IsDeleteBackward(r rune) bool {
	return r == KeyBackspace || r == KeyDelete
}

// Key names accepted by ParseKey for the delete-backward codes.
const (
	KeyNameBackspace = "backspace"
	KeyNameDelete    = "delete"
)

// ParseKey turns a textual key, as sent by JSON-speaking hosts, into an input
// symbol: exactly one character, or one of the key names.
func ParseKey(key string) (rune, error) {
	switch key {
	case KeyNameBackspace:
		return KeyBackspace, nil
	case KeyNameDelete:
		return KeyDelete, nil
	}
	if !utf8.ValidString(key) {
		return 0, errors.New("key is not valid UTF-8")
	}
	if utf8.RuneCountInString(key) != 1 {
		return 0, fmt.Errorf("key must be exactly one character, got %q", key)
	}
	r, _ := utf8.DecodeRuneInString(key)
	return r, nil
}
