package runtime

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/aretw0/unicorn/internal/logging"
	"github.com/aretw0/unicorn/pkg/domain"
	"github.com/aretw0/unicorn/pkg/trie"
)

// Engine is the composition state machine. It is not safe for concurrent use;
// callers serialise access (see the unicorn facade and pkg/session).
type Engine struct {
	root     *trie.Node
	path     []*trie.Node // path[0] is always root
	buffer   []rune
	active   bool
	selected int

	trigger rune
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithTrigger sets the symbol that starts a composition (default '\').
func WithTrigger(r rune) EngineOption {
	return func(e *Engine) {
		e.trigger = r
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// NewEngine creates an inactive engine over t.
func NewEngine(t *trie.Trie, opts ...EngineOption) *Engine {
	e := &Engine{
		root:    t.Root(),
		trigger: domain.DefaultTrigger,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.path = []*trie.Node{e.root}
	return e
}

// Trigger returns the configured trigger symbol.
func (e *Engine) Trigger() rune { return e.trigger }

// Active reports whether a composition is in progress.
func (e *Engine) Active() bool { return e.active }

// Buffer returns the composition text.
func (e *Engine) Buffer() string { return string(e.buffer) }

// Depth returns the length of the traversal path, root included.
func (e *Engine) Depth() int { return len(e.path) }

// Selected returns the highlighted candidate index.
func (e *Engine) Selected() int { return e.selected }

func (e *Engine) current() *trie.Node {
	return e.path[len(e.path)-1]
}

// ProcessKey feeds one input symbol and returns the actions the host must apply, in order.
// An action list containing Reject never comes with a state change.
func (e *Engine) ProcessKey(ctx context.Context, c rune) []domain.Action {
	sequence := e.Buffer()
	if c != e.trigger {
		sequence += string(c)
	}
	actions := e.transition(c)
	e.emit(ctx, c, sequence, actions)
	return actions
}

func (e *Engine) transition(c rune) []domain.Action {
	if !e.active {
		if c == e.trigger {
			e.activate()
			return []domain.Action{domain.UpdateComposition(e.Buffer())}
		}
		return []domain.Action{domain.Reject()}
	}

	switch {
	case c == e.trigger:
		text := e.commitText()
		e.activate()
		return []domain.Action{domain.Commit(text), domain.UpdateComposition(e.Buffer())}

	case domain.IsDeleteBackward(c):
		return e.deleteBackward()
	}

	next, ok := e.current().Child(c)
	if !ok {
		return []domain.Action{domain.Reject()}
	}

	if next.IsLeaf() {
		switch next.NumCandidates() {
		case 0:
			text := e.Buffer() + string(c)
			e.Deactivate()
			return []domain.Action{domain.Commit(text)}
		case 1:
			text, _ := next.Candidate(0)
			e.Deactivate()
			return []domain.Action{domain.Commit(text)}
		}
		// Ambiguous leaf: stay on it so the user can pick a candidate.
	}

	e.push(next, c)
	return []domain.Action{e.presentation()}
}

// commitText resolves what an explicit re-trigger commits.
func (e *Engine) commitText() string {
	if e.atTriggerOnly() {
		return string(e.trigger)
	}
	if candidate, ok := e.current().Candidate(e.selected); ok {
		return candidate
	}
	return e.Buffer()
}

func (e *Engine) deleteBackward() []domain.Action {
	if len(e.buffer) == 0 {
		// Unreachable through ProcessKey: an active buffer always starts with the trigger.
		e.active = false
		return []domain.Action{domain.Reject()}
	}
	if e.atTriggerOnly() {
		e.Deactivate()
		return []domain.Action{domain.UpdateComposition("")}
	}
	e.pop()
	return []domain.Action{e.presentation()}
}

// presentation is the action describing the current position.
func (e *Engine) presentation() domain.Action {
	if e.current().HasCandidates() {
		return domain.ShowCandidates(e.Buffer())
	}
	return domain.UpdateComposition(e.Buffer())
}

func (e *Engine) atTriggerOnly() bool {
	return len(e.buffer) == 1 && e.buffer[0] == e.trigger
}

// SelectCandidate highlights candidate i of the current node. Out-of-range indices
// and nodes without candidates leave the selection unchanged; the return value
// reports whether the selection was applied.
func (e *Engine) SelectCandidate(i int) bool {
	if i < 0 || i >= e.current().NumCandidates() {
		return false
	}
	e.selected = i
	return true
}

// Candidates returns the current node's candidates, or an empty slice.
func (e *Engine) Candidates() []string {
	candidates := e.current().Candidates()
	if candidates == nil {
		return []string{}
	}
	return candidates
}

// Deactivate resets to the canonical inactive state. It is idempotent.
func (e *Engine) Deactivate() {
	e.active = false
	e.buffer = e.buffer[:0]
	e.path = append(e.path[:0], e.root)
	e.selected = 0
}

func (e *Engine) activate() {
	e.active = true
	e.buffer = append(e.buffer[:0], e.trigger)
	e.path = append(e.path[:0], e.root)
	e.selected = 0
}

func (e *Engine) push(n *trie.Node, c rune) {
	e.path = append(e.path, n)
	e.buffer = append(e.buffer, c)
	e.selected = 0
}

func (e *Engine) pop() {
	e.buffer = e.buffer[:len(e.buffer)-1]
	if len(e.path) > 1 {
		e.path = e.path[:len(e.path)-1]
	}
	e.selected = 0
}

// Snapshot captures the composition state.
func (e *Engine) Snapshot() domain.Composition {
	return domain.Composition{
		Active:   e.active,
		Buffer:   e.Buffer(),
		Selected: e.selected,
	}
}

// Restore rebuilds the engine from a snapshot by walking the trie over the
// buffer after the trigger. If the sequence no longer exists the engine is
// deactivated and domain.ErrStaleComposition is returned.
func (e *Engine) Restore(c domain.Composition) error {
	e.Deactivate()
	if !c.Active {
		return nil
	}

	runes := []rune(c.Buffer)
	if len(runes) == 0 || runes[0] != e.trigger {
		return domain.ErrStaleComposition
	}

	e.activate()
	for _, r := range runes[1:] {
		next, ok := e.current().Child(r)
		if !ok {
			e.Deactivate()
			return domain.ErrStaleComposition
		}
		e.push(next, r)
	}
	if !e.SelectCandidate(c.Selected) {
		e.selected = 0
	}
	return nil
}

func (e *Engine) emit(ctx context.Context, c rune, sequence string, actions []domain.Action) {
	if e.logger.Enabled(ctx, slog.LevelDebug) {
		e.logger.DebugContext(ctx, "key processed",
			"symbol", string(c),
			"actions", actions,
			"active", e.active,
			"buffer", e.Buffer(),
		)
	}

	if e.hooks.OnKey == nil && e.hooks.OnCommit == nil {
		return
	}

	now := time.Now()
	if e.hooks.OnKey != nil {
		e.hooks.OnKey(ctx, &domain.KeyEvent{
			Timestamp: now,
			Symbol:    c,
			Actions:   slices.Clone(actions),
			Active:    e.active,
			Buffer:    e.Buffer(),
			Depth:     len(e.path) - 1,
		})
	}
	if e.hooks.OnCommit != nil {
		for _, a := range actions {
			if a.Kind == domain.ActionCommit {
				e.hooks.OnCommit(ctx, &domain.CommitEvent{Timestamp: now, Text: a.Text, Sequence: sequence})
			}
		}
	}
}
