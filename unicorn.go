package unicorn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"unicode/utf8"

	"github.com/aretw0/unicorn/internal/logging"
	"github.com/aretw0/unicorn/internal/runtime"
	"github.com/aretw0/unicorn/pkg/adapters/file"
	"github.com/aretw0/unicorn/pkg/domain"
	"github.com/aretw0/unicorn/pkg/trie"
)

// Engine is the high-level entry point for the unicorn library.
// It wraps the internal runtime behind a mutex, so one Engine may be shared
// between goroutines; operations are applied one at a time.
type Engine struct {
	mu      sync.Mutex
	runtime *runtime.Engine
	trie    *trie.Trie

	format    trie.Format
	formatSet bool
	strict    bool
	trigger   rune
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithTrigger sets the symbol that starts a composition (default '\').
func WithTrigger(r rune) Option {
	return func(e *Engine) {
		e.trigger = r
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithFormat sets the payload encoding used by New (default JSON).
// NewFromPath guesses it from the extension unless this option is given.
func WithFormat(f trie.Format) Option {
	return func(e *Engine) {
		e.format = f
		e.formatSet = true
	}
}

// WithStrict validates JSON payloads against the trie schema before building.
func WithStrict(strict bool) Option {
	return func(e *Engine) {
		e.strict = strict
	}
}

func newEngine(opts []Option) *Engine {
	eng := &Engine{
		format:  trie.FormatJSON,
		trigger: domain.DefaultTrigger,
	}
	for _, opt := range opts {
		opt(eng)
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	return eng
}

// New builds an engine from a configuration payload.
// Any failure is a *domain.InitError wrapping the cause; malformed payloads also
// match domain.ErrInvalidConfig.
func New(payload []byte, opts ...Option) (*Engine, error) {
	eng := newEngine(opts)

	if eng.strict && eng.format == trie.FormatJSON {
		if err := trie.Validate(payload); err != nil {
			return nil, &domain.InitError{Source: "payload", Err: err}
		}
	}
	t, err := trie.Parse(payload, eng.format)
	if err != nil {
		return nil, &domain.InitError{Source: "payload", Err: err}
	}
	eng.install(t)
	return eng, nil
}

// NewFromPath builds an engine from a configuration file.
func NewFromPath(path string, opts ...Option) (*Engine, error) {
	eng := newEngine(opts)

	loaderOpts := []file.LoaderOption{file.WithStrict(eng.strict), file.WithLogger(eng.logger)}
	if eng.formatSet {
		loaderOpts = append(loaderOpts, file.WithFormat(eng.format))
	}
	t, err := file.NewLoader(path, loaderOpts...).Load(context.Background())
	if err != nil {
		return nil, &domain.InitError{Source: path, Err: err}
	}
	eng.logger = eng.logger.With("trie", path)
	eng.install(t)
	return eng, nil
}

// NewFromTrie wraps an already built trie. Format and strict options are ignored.
func NewFromTrie(t *trie.Trie, opts ...Option) (*Engine, error) {
	if t == nil {
		return nil, &domain.InitError{Source: "trie", Err: errors.New("nil trie")}
	}
	eng := newEngine(opts)
	eng.install(t)
	return eng, nil
}

func (e *Engine) install(t *trie.Trie) {
	e.trie = t
	e.runtime = runtime.NewEngine(t,
		runtime.WithTrigger(e.trigger),
		runtime.WithLifecycleHooks(e.hooks),
		runtime.WithLogger(e.logger),
	)
	stats := t.Stats()
	e.logger.Debug("engine ready", "nodes", stats.Nodes, "candidates", stats.Candidates)
}

// ProcessKey feeds one key event, given as a Unicode code point. Values that are
// not valid scalar values (surrogates, > U+10FFFF) are rejected without touching
// the composition.
func (e *Engine) ProcessKey(code uint32) []domain.Action {
	if code > utf8.MaxRune || !utf8.ValidRune(rune(code)) {
		return []domain.Action{domain.Reject()}
	}
	return e.ProcessRune(rune(code))
}

// ProcessRune feeds one input symbol and returns the actions the host must apply, in order.
func (e *Engine) ProcessRune(r rune) []domain.Action {
	return e.ProcessRuneContext(context.Background(), r)
}

// ProcessRuneContext is ProcessRune with a context forwarded to hooks and logs.
func (e *Engine) ProcessRuneContext(ctx context.Context, r rune) []domain.Action {
	if !utf8.ValidRune(r) {
		return []domain.Action{domain.Reject()}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runtime.ProcessKey(ctx, r)
}

// Candidates returns the candidates at the current position, or an empty slice.
func (e *Engine) Candidates() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runtime.Candidates()
}

// SelectCandidate highlights candidate i; it reports whether i was in range.
func (e *Engine) SelectCandidate(i int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runtime.SelectCandidate(i)
}

// Selected returns the highlighted candidate index.
func (e *Engine) Selected() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runtime.Selected()
}

// Deactivate abandons any composition. It is idempotent.
func (e *Engine) Deactivate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.runtime.Deactivate()
}

// Snapshot captures the composition state.
func (e *Engine) Snapshot() domain.Composition {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runtime.Snapshot()
}

// Restore replaces the composition state with c.
// It returns domain.ErrStaleComposition, leaving the engine inactive, when c's
// buffer is not a path of the trie.
func (e *Engine) Restore(c domain.Composition) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runtime.Restore(c)
}

// Trie returns the trie in use.
func (e *Engine) Trie() *trie.Trie {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.trie
}

// Reload swaps the trie and carries the composition over when it still fits.
// A composition that no longer exists in t is dropped.
func (e *Engine) Reload(t *trie.Trie) error {
	if t == nil {
		return fmt.Errorf("reload: nil trie")
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	snapshot := e.runtime.Snapshot()
	e.install(t)
	if err := e.runtime.Restore(snapshot); err != nil {
		e.logger.Info("composition dropped on reload", "buffer", snapshot.Buffer, "err", err)
	}
	return nil
}
