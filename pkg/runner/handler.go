package runner

import (
	"context"

	"github.com/aretw0/unicorn/pkg/domain"
)

// EventKind tells the runner what an input event asks for.
type EventKind int

const (
	// EventKey feeds Event.Key to the engine.
	EventKey EventKind = iota
	// EventSelect highlights candidate Event.Index.
	EventSelect
	// EventDeactivate abandons the composition.
	EventDeactivate
	// EventQuit stops the runner.
	EventQuit
)

// Event is one input from the user.
type Event struct {
	Kind  EventKind
	Key   rune
	Index int
}

// Result is what one event produced.
type Result struct {
	Actions     []domain.Action    `json:"actions"`
	Composition domain.Composition `json:"composition"`
	Candidates  []string           `json:"candidates"`
	// Selection is true when the event changed the highlighted candidate.
	Selection bool `json:"selection,omitempty"`
}

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (terminal) and JSON (structured) modes.
type IOHandler interface {
	// Next blocks for the next event. io.EOF ends the session cleanly.
	Next(ctx context.Context) (Event, error)

	// Output presents a result.
	Output(ctx context.Context, res Result) error
}
