package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/unicorn/pkg/adapters/memory"
	"github.com/aretw0/unicorn/pkg/domain"
	"github.com/aretw0/unicorn/pkg/session"
	"github.com/aretw0/unicorn/pkg/trie"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const greek = `{
	"a": {">>": ["α", "Α"]},
	"b": {">>": ["β"], "e": {"t": {"a": {">>": ["β"]}}}},
	"l": {">>": ["λ"], "a": {"m": {}}}
}`

func newTrie(t *testing.T, payload string) *trie.Trie {
	t.Helper()
	tr, err := trie.Parse([]byte(payload), trie.FormatJSON)
	require.NoError(t, err)
	return tr
}

func keys(t *testing.T, m *session.Manager, id, seq string) session.Result {
	t.Helper()
	var res session.Result
	for _, r := range seq {
		var err error
		res, err = m.ProcessKey(context.Background(), id, r)
		require.NoError(t, err)
	}
	return res
}

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	inner *memory.Store
}

func (s *SlowStore) Save(ctx context.Context, session *domain.Session) error {
	time.Sleep(2 * time.Millisecond)
	return s.inner.Save(ctx, session)
}

func (s *SlowStore) Load(ctx context.Context, id string) (*domain.Session, error) {
	time.Sleep(2 * time.Millisecond)
	return s.inner.Load(ctx, id)
}

func (s *SlowStore) Delete(ctx context.Context, id string) error { return s.inner.Delete(ctx, id) }
func (s *SlowStore) List(ctx context.Context) ([]string, error)  { return s.inner.List(ctx) }

func TestManager_PersistsAcrossCalls(t *testing.T) {
	m := session.NewManager(newTrie(t, greek), memory.NewStore())

	res := keys(t, m, "s1", `\b`)
	assert.Equal(t, []domain.Action{domain.ShowCandidates(`\b`)}, res.Actions)
	assert.Equal(t, domain.Composition{Active: true, Buffer: `\b`}, res.Composition)

	res = keys(t, m, "s1", "eta")
	assert.Equal(t, []domain.Action{domain.Commit("β")}, res.Actions)
	assert.False(t, res.Composition.Active)
}

func TestManager_SessionsAreIsolated(t *testing.T) {
	m := session.NewManager(newTrie(t, greek), memory.NewStore())

	keys(t, m, "one", `\a`)
	keys(t, m, "two", `\l`)

	c1, _, err := m.Candidates(context.Background(), "one")
	require.NoError(t, err)
	c2, _, err := m.Candidates(context.Background(), "two")
	require.NoError(t, err)

	assert.Equal(t, []string{"α", "Α"}, c1)
	assert.Equal(t, []string{"λ"}, c2)
}

func TestManager_Select(t *testing.T) {
	ctx := context.Background()
	m := session.NewManager(newTrie(t, greek), memory.NewStore())
	keys(t, m, "s", `\a`)

	ok, comp, err := m.Select(ctx, "s", 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, comp.Selected)

	ok, comp, err = m.Select(ctx, "s", 5)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, comp.Selected, "out of range selection keeps the previous one")

	res := keys(t, m, "s", `\`)
	assert.Equal(t, []domain.Action{domain.Commit("Α"), domain.UpdateComposition(`\`)}, res.Actions)
}

func TestManager_UnknownSessionStartsInactive(t *testing.T) {
	ctx := context.Background()
	m := session.NewManager(newTrie(t, greek), memory.NewStore())

	candidates, selected, err := m.Candidates(ctx, "fresh")
	require.NoError(t, err)
	assert.Empty(t, candidates)
	assert.Zero(t, selected)

	res, err := m.ProcessKey(ctx, "fresh", 'a')
	require.NoError(t, err)
	assert.Equal(t, []domain.Action{domain.Reject()}, res.Actions)
}

func TestManager_DeactivateAndDelete(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	m := session.NewManager(newTrie(t, greek), store)
	keys(t, m, "s", `\l`)

	require.NoError(t, m.Deactivate(ctx, "s"))
	comp, err := m.Snapshot(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, domain.Composition{}, comp)

	ids, err := m.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s"}, ids)

	require.NoError(t, m.Delete(ctx, "s"))
	_, err = store.Load(ctx, "s")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_SetTrieResetsStaleSessions(t *testing.T) {
	ctx := context.Background()
	m := session.NewManager(newTrie(t, greek), memory.NewStore())
	keys(t, m, "stale", `\la`)
	keys(t, m, "live", `\b`)

	m.SetTrie(newTrie(t, `{"b": {">>": ["ϐ"]}}`))

	comp, err := m.Snapshot(ctx, "stale")
	require.NoError(t, err)
	assert.False(t, comp.Active)

	candidates, _, err := m.Candidates(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, []string{"ϐ"}, candidates)
}

func TestManager_Hooks(t *testing.T) {
	var commits []string
	hooks := domain.LifecycleHooks{
		OnCommit: func(_ context.Context, e *domain.CommitEvent) { commits = append(commits, e.Text) },
	}
	m := session.NewManager(newTrie(t, greek), memory.NewStore(), session.WithLifecycleHooks(hooks))

	keys(t, m, "s", `\beta`)
	assert.Equal(t, []string{"β"}, commits)
}

func TestManager_CustomTrigger(t *testing.T) {
	m := session.NewManager(newTrie(t, `{"a": {">>": ["α"]}}`), memory.NewStore(), session.WithTrigger(';'))

	res := keys(t, m, "s", ";;")
	assert.Equal(t, []domain.Action{domain.Commit(";"), domain.UpdateComposition(";")}, res.Actions)

	res = keys(t, m, "s", "a")
	assert.Equal(t, []domain.Action{domain.Commit("α")}, res.Actions)
}

func TestManager_Locking(t *testing.T) {
	store := &SlowStore{inner: memory.NewStore()}
	m := session.NewManager(newTrie(t, `{"a": {"a": {"a": {"a": {"a": {"a": {"a": {"a": {"a": {"a": {}}}}}}}}}}}`), store)
	ctx := context.Background()
	_, err := m.ProcessKey(ctx, "race", '\\')
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 9; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.ProcessKey(ctx, "race", 'a')
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// Without serialisation concurrent read-modify-write cycles would lose keys.
	comp, err := m.Snapshot(ctx, "race")
	require.NoError(t, err)
	assert.Equal(t, `\aaaaaaaaa`, comp.Buffer)
}

func TestManager_DistributedLocker(t *testing.T) {
	locker := memory.NewLocker()
	m := session.NewManager(newTrie(t, greek), memory.NewStore(),
		session.WithLocker(locker),
		session.WithLockTTL(time.Second),
	)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "held", time.Minute)
	require.NoError(t, err)

	timeout, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_, err = m.ProcessKey(timeout, "held", '\\')
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, unlock(ctx))
	_, err = m.ProcessKey(ctx, "held", '\\')
	assert.NoError(t, err)
}

type failingStore struct{ *memory.Store }

var errBackend = errors.New("backend down")

func (*failingStore) Load(context.Context, string) (*domain.Session, error) { return nil, errBackend }

func TestManager_StoreErrors(t *testing.T) {
	m := session.NewManager(newTrie(t, greek), &failingStore{Store: memory.NewStore()})

	_, err := m.ProcessKey(context.Background(), "s", '\\')
	assert.ErrorIs(t, err, errBackend)
}
