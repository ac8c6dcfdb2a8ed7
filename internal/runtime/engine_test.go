package runtime_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/unicorn/internal/runtime"
	"github.com/aretw0/unicorn/pkg/domain"
	"github.com/aretw0/unicorn/pkg/trie"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testJSON covers:
//   - `\`: trigger entry (unreachable as a child, the trigger always restarts)
//   - `\l`: branch with two candidates
//   - `\lam`: leaf auto-commit
//   - `\alpha`: deep traversal
//   - `\b`: intermediate node with a candidate and children
//   - `\ar`: ambiguous leaf
//   - `\x`: dead end (no candidates, no children)
const testJSON = `{
	"\\": { ">>": ["\\"] },
	"=": { "=": { ">>": ["≡"] } },
	"<": { ">>": ["⟨"] },
	">": { ">>": ["⟩"] },
	"l": {
		">>": ["λ", "←"],
		"a": { "m": { ">>": ["λ"] } }
	},
	"a": {
		"l": { "p": { "h": { "a": { ">>": ["α"] } } } },
		"r": { ">>": ["→", "⇒", "↦"] }
	},
	"b": {
		">>": ["β"],
		"e": { "t": { "a": { ">>": ["β"] } } }
	},
	"x": {},
	"(": { "1": { ")": { ">>": ["⑴"] } } }
}`

func newEngine(t *testing.T, opts ...runtime.EngineOption) *runtime.Engine {
	t.Helper()
	tr, err := trie.Parse([]byte(testJSON), trie.FormatJSON)
	require.NoError(t, err)
	return runtime.NewEngine(tr, opts...)
}

func feed(e *runtime.Engine, keys string) []domain.Action {
	var last []domain.Action
	for _, r := range keys {
		last = e.ProcessKey(context.Background(), r)
	}
	return last
}

func assertInactive(t *testing.T, e *runtime.Engine) {
	t.Helper()
	assert.False(t, e.Active())
	assert.Equal(t, "", e.Buffer())
	assert.Equal(t, 1, e.Depth())
	assert.Equal(t, 0, e.Selected())
}

func TestEngine_Activation(t *testing.T) {
	e := newEngine(t)
	assertInactive(t, e)

	res := e.ProcessKey(context.Background(), '\\')
	assert.Equal(t, []domain.Action{domain.UpdateComposition(`\`)}, res)
	assert.True(t, e.Active())
	assert.Equal(t, `\`, e.Buffer())
	assert.Equal(t, 1, e.Depth())
}

func TestEngine_InactiveRejects(t *testing.T) {
	e := newEngine(t)

	res := e.ProcessKey(context.Background(), 'z')
	assert.Equal(t, []domain.Action{domain.Reject()}, res)
	assertInactive(t, e)

	res = e.ProcessKey(context.Background(), domain.KeyBackspace)
	assert.Equal(t, []domain.Action{domain.Reject()}, res)
	assertInactive(t, e)
}

func TestEngine_LeafAutoCommit(t *testing.T) {
	tests := []struct {
		name string
		keys string
		want string
	}{
		{"Deep Mnemonic", `\lam`, "λ"},
		{"Two Symbol Leaf", `\==`, "≡"},
		{"Single Symbol Leaf", `\<`, "⟨"},
		{"Closing Bracket", `\>`, "⟩"},
		{"Long Path", `\alpha`, "α"},
		{"Intermediate Candidate Skipped", `\beta`, "β"},
		{"Parenthesised", `\(1)`, "⑴"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(t)
			res := feed(e, tt.keys)
			assert.Equal(t, []domain.Action{domain.Commit(tt.want)}, res)
			assertInactive(t, e)
		})
	}
}

func TestEngine_RealWorldSequence(t *testing.T) {
	e := newEngine(t)

	feed(e, `\=`)
	assert.Equal(t, []domain.Action{domain.Commit("≡")}, feed(e, "="))
	assert.False(t, e.Active())

	feed(e, `\`)
	assert.Equal(t, []domain.Action{domain.Commit("⟨")}, feed(e, "<"))
	assert.False(t, e.Active())

	feed(e, `\`)
	assert.Equal(t, []domain.Action{domain.Commit("⟩")}, feed(e, ">"))
	assert.False(t, e.Active())
}

func TestEngine_DeadEndCommitsLiteral(t *testing.T) {
	e := newEngine(t)
	res := feed(e, `\x`)
	assert.Equal(t, []domain.Action{domain.Commit(`\x`)}, res)
	assertInactive(t, e)
}

func TestEngine_CandidatesDisplay(t *testing.T) {
	e := newEngine(t)
	res := feed(e, `\l`)

	assert.Equal(t, []domain.Action{domain.ShowCandidates(`\l`)}, res)
	assert.Equal(t, []string{"λ", "←"}, e.Candidates())
}

func TestEngine_IntermediateWithoutCandidates(t *testing.T) {
	e := newEngine(t)
	res := feed(e, `\la`)

	assert.Equal(t, []domain.Action{domain.UpdateComposition(`\la`)}, res)
	assert.Equal(t, []string{}, e.Candidates())
	assert.Equal(t, 3, e.Depth())
}

func TestEngine_AmbiguousLeaf(t *testing.T) {
	e := newEngine(t)
	res := feed(e, `\ar`)

	assert.Equal(t, []domain.Action{domain.ShowCandidates(`\ar`)}, res, "ambiguous leaves are never auto-committed")
	assert.True(t, e.Active())
	assert.Equal(t, []string{"→", "⇒", "↦"}, e.Candidates())

	assert.Equal(t, []domain.Action{domain.Reject()}, feed(e, "z"))

	e.SelectCandidate(2)
	res = feed(e, `\`)
	assert.Equal(t, []domain.Action{domain.Commit("↦"), domain.UpdateComposition(`\`)}, res)
}

func TestEngine_ImplicitCommitRejection(t *testing.T) {
	e := newEngine(t)
	feed(e, `\l`)

	res := e.ProcessKey(context.Background(), 'z')
	assert.Equal(t, []domain.Action{domain.Reject()}, res)
	assert.True(t, e.Active())
	assert.Equal(t, `\l`, e.Buffer())
}

func TestEngine_Backspace(t *testing.T) {
	for _, key := range []rune{domain.KeyBackspace, domain.KeyDelete} {
		t.Run(fmt.Sprintf("0x%02x", key), func(t *testing.T) {
			e := newEngine(t)
			feed(e, `\l`)
			require.Equal(t, `\l`, e.Buffer())

			res := e.ProcessKey(context.Background(), key)
			assert.Equal(t, []domain.Action{domain.UpdateComposition(`\`)}, res)
			assert.Equal(t, `\`, e.Buffer())
			assert.True(t, e.Active())

			res = e.ProcessKey(context.Background(), key)
			assert.Equal(t, []domain.Action{domain.UpdateComposition("")}, res)
			assertInactive(t, e)
		})
	}
}

func TestEngine_BackspaceBackToCandidates(t *testing.T) {
	e := newEngine(t)
	feed(e, `\la`)
	e.SelectCandidate(1) // no candidates at "la": ignored

	res := e.ProcessKey(context.Background(), domain.KeyBackspace)
	assert.Equal(t, []domain.Action{domain.ShowCandidates(`\l`)}, res)
	assert.Equal(t, 0, e.Selected())
	assert.Equal(t, 2, e.Depth())
}

func TestEngine_DoubleTrigger(t *testing.T) {
	e := newEngine(t)
	feed(e, `\`)
	res := e.ProcessKey(context.Background(), '\\')

	assert.Equal(t, []domain.Action{domain.Commit(`\`), domain.UpdateComposition(`\`)}, res)
	assert.True(t, e.Active())
	assert.Equal(t, `\`, e.Buffer())
}

func TestEngine_TriggerCommitsBufferWithoutCandidates(t *testing.T) {
	e := newEngine(t)
	feed(e, `\al`)

	res := e.ProcessKey(context.Background(), '\\')
	assert.Equal(t, []domain.Action{domain.Commit(`\al`), domain.UpdateComposition(`\`)}, res)
}

func TestEngine_SelectionCommit(t *testing.T) {
	e := newEngine(t)
	feed(e, `\l`)

	e.SelectCandidate(1)
	res := e.ProcessKey(context.Background(), '\\')
	assert.Equal(t, []domain.Action{domain.Commit("←"), domain.UpdateComposition(`\`)}, res)
	assert.True(t, e.Active())
	assert.Equal(t, `\`, e.Buffer())
	assert.Equal(t, 0, e.Selected())
}

func TestEngine_SelectionBounds(t *testing.T) {
	e := newEngine(t)
	feed(e, `\l`)

	assert.True(t, e.SelectCandidate(1))
	for _, i := range []int{2, 3, 100, -1} {
		assert.False(t, e.SelectCandidate(i))
		assert.Equal(t, 1, e.Selected(), "out of range index %d must not change the selection", i)
	}

	e.Deactivate()
	assert.False(t, e.SelectCandidate(0), "root has no candidates")
}

func TestEngine_DeactivateIsIdempotent(t *testing.T) {
	e := newEngine(t)
	feed(e, `\l`)
	e.SelectCandidate(1)

	for i := 0; i < 3; i++ {
		e.Deactivate()
		assertInactive(t, e)
	}

	res := e.ProcessKey(context.Background(), '\\')
	assert.Equal(t, []domain.Action{domain.UpdateComposition(`\`)}, res)
}

func TestEngine_CustomTrigger(t *testing.T) {
	e := newEngine(t, runtime.WithTrigger(';'))
	assert.Equal(t, ';', e.Trigger())

	assert.Equal(t, []domain.Action{domain.Reject()}, feed(e, `\`))
	assert.Equal(t, []domain.Action{domain.ShowCandidates(";l")}, feed(e, ";l"))
	assert.Equal(t, []domain.Action{domain.Commit("λ"), domain.UpdateComposition(";")}, feed(e, ";"))
	assert.Equal(t, []domain.Action{domain.Commit(";"), domain.UpdateComposition(";")}, feed(e, ";"))
}

func TestEngine_Hooks(t *testing.T) {
	var keys []*domain.KeyEvent
	var commits []*domain.CommitEvent
	e := newEngine(t, runtime.WithLifecycleHooks(domain.LifecycleHooks{
		OnKey:    func(_ context.Context, ev *domain.KeyEvent) { keys = append(keys, ev) },
		OnCommit: func(_ context.Context, ev *domain.CommitEvent) { commits = append(commits, ev) },
	}))

	feed(e, `\lam`)
	require.Len(t, keys, 4)
	assert.Equal(t, 'l', keys[1].Symbol)
	assert.Equal(t, 1, keys[1].Depth)
	assert.False(t, keys[3].Active)

	require.Len(t, commits, 1)
	assert.Equal(t, "λ", commits[0].Text)
	assert.Equal(t, `\lam`, commits[0].Sequence)

	feed(e, `\l\`)
	require.Len(t, commits, 2)
	assert.Equal(t, "λ", commits[1].Text)
	assert.Equal(t, `\l`, commits[1].Sequence)
}
