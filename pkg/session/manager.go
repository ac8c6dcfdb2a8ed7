package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/unicorn/internal/logging"
	"github.com/aretw0/unicorn/internal/runtime"
	"github.com/aretw0/unicorn/pkg/domain"
	"github.com/aretw0/unicorn/pkg/ports"
	"github.com/aretw0/unicorn/pkg/trie"
)

// DefaultLockTTL bounds how long a crashed replica can hold a session.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Result is the outcome of one key event on a session.
type Result struct {
	Actions     []domain.Action    `json:"actions"`
	Composition domain.Composition `json:"composition"`
}

// Manager runs per-client compositions over one shared trie.
// Every operation loads the session, replays it into a fresh engine, applies the
// operation and saves the new snapshot, all under the session lock.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.SessionStore
	trie  atomic.Pointer[trie.Trie]

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	trigger rune
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithTrigger sets the composition trigger used by every session.
func WithTrigger(r rune) Option {
	return func(m *Manager) {
		m.trigger = r
	}
}

// WithLifecycleHooks installs hooks on every engine the manager builds.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(m *Manager) {
		m.hooks = hooks
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a Session Manager over t, persisting through store.
func NewManager(t *trie.Trie, store ports.SessionStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		trigger: domain.DefaultTrigger,
		logger:  logging.NewNop(),
	}
	m.trie.Store(t)
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Trie returns the trie currently in use.
func (m *Manager) Trie() *trie.Trie { return m.trie.Load() }

// SetTrie swaps the trie for subsequent operations. Sessions whose buffer no longer
// exists in the new trie are reset the next time they are touched.
func (m *Manager) SetTrie(t *trie.Trie) {
	m.trie.Store(t)
	m.logger.Info("trie reloaded", "nodes", t.Stats().Nodes)
}

// Store returns the underlying session store.
func (m *Manager) Store() ports.SessionStore {
	return m.store
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// engineFor loads the session and replays it into a fresh engine.
// A missing session starts inactive; a stale one is reset.
func (m *Manager) engineFor(ctx context.Context, sessionID string) (*runtime.Engine, *domain.Session, error) {
	engine := runtime.NewEngine(m.Trie(),
		runtime.WithTrigger(m.trigger),
		runtime.WithLifecycleHooks(m.hooks),
		runtime.WithLogger(m.logger.With("session_id", sessionID)),
	)

	session, err := m.store.Load(ctx, sessionID)
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return engine, domain.NewSession(sessionID), nil
	case err != nil:
		return nil, nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}

	if err := engine.Restore(session.Composition); err != nil {
		m.logger.Debug("resetting stale session", "session_id", sessionID, "buffer", session.Composition.Buffer)
	}
	return engine, session, nil
}

func (m *Manager) save(ctx context.Context, session *domain.Session, engine *runtime.Engine) error {
	session.Composition = engine.Snapshot()
	session.UpdatedAt = time.Now()
	if err := m.store.Save(ctx, session); err != nil {
		return fmt.Errorf("failed to save session %s: %w", session.ID, err)
	}
	return nil
}

// ProcessKey feeds one symbol to the session's composition.
func (m *Manager) ProcessKey(ctx context.Context, sessionID string, c rune) (Result, error) {
	var res Result
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		engine, session, err := m.engineFor(ctx, sessionID)
		if err != nil {
			return err
		}
		res.Actions = engine.ProcessKey(ctx, c)
		if err := m.save(ctx, session, engine); err != nil {
			return err
		}
		res.Composition = session.Composition
		return nil
	})
	return res, err
}

// Candidates returns the candidates at the session's position and the highlighted index.
func (m *Manager) Candidates(ctx context.Context, sessionID string) ([]string, int, error) {
	var candidates []string
	var selected int
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		engine, _, err := m.engineFor(ctx, sessionID)
		if err != nil {
			return err
		}
		candidates = engine.Candidates()
		selected = engine.Selected()
		return nil
	})
	return candidates, selected, err
}

// Select highlights candidate i. ok is false when i is out of range; the
// session is then left untouched.
func (m *Manager) Select(ctx context.Context, sessionID string, i int) (ok bool, comp domain.Composition, err error) {
	err = m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		engine, session, err := m.engineFor(ctx, sessionID)
		if err != nil {
			return err
		}
		ok = engine.SelectCandidate(i)
		if ok {
			if err := m.save(ctx, session, engine); err != nil {
				return err
			}
		}
		comp = engine.Snapshot()
		return nil
	})
	return ok, comp, err
}

// Deactivate abandons the session's composition but keeps the session.
func (m *Manager) Deactivate(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		engine, session, err := m.engineFor(ctx, sessionID)
		if err != nil {
			return err
		}
		engine.Deactivate()
		return m.save(ctx, session, engine)
	})
}

// Snapshot returns the stored composition, replayed against the current trie.
func (m *Manager) Snapshot(ctx context.Context, sessionID string) (domain.Composition, error) {
	var comp domain.Composition
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		engine, _, err := m.engineFor(ctx, sessionID)
		if err != nil {
			return err
		}
		comp = engine.Snapshot()
		return nil
	})
	return comp, err
}

// Delete removes the session from the store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}
