package trie_test

import (
	"errors"
	"testing"

	"github.com/aretw0/unicorn/pkg/domain"
	"github.com/aretw0/unicorn/pkg/trie"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const greekJSON = `{
	"\\": { ">>": ["\\"] },
	"l": {
		">>": ["λ", "←"],
		"a": { "m": { ">>": ["λ"] } }
	},
	"b": {
		">>": ["β"],
		"e": { "t": { "a": { ">>": ["β"] } } }
	},
	"(": { "1": { ")": { ">>": ["⑴"] } } }
}`

const greekYAML = `
"\\":
  ">>": ["\\"]
l:
  ">>": ["λ", "←"]
  a:
    m:
      ">>": ["λ"]
b:
  ">>": ["β"]
  e:
    t:
      a:
        ">>": ["β"]
"(":
  "1":
    ")":
      ">>": ["⑴"]
`

const greekTOML = `
["\\"]
">>" = ["\\"]

[l]
">>" = ["λ", "←"]

[l.a.m]
">>" = ["λ"]

[b]
">>" = ["β"]

[b.e.t.a]
">>" = ["β"]

["("."1".")"]
">>" = ["⑴"]
`

func TestParse_Formats(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		format  trie.Format
	}{
		{"JSON", greekJSON, trie.FormatJSON},
		{"YAML", greekYAML, trie.FormatYAML},
		{"TOML", greekTOML, trie.FormatTOML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := trie.Parse([]byte(tt.payload), tt.format)
			require.NoError(t, err)

			path, ok := tr.Walk("l")
			require.True(t, ok)
			require.Len(t, path, 2)
			assert.Equal(t, []string{"λ", "←"}, path[1].Candidates(), "candidate order must be preserved")
			assert.False(t, path[1].IsLeaf())

			path, ok = tr.Walk("lam")
			require.True(t, ok)
			leaf := path[len(path)-1]
			assert.True(t, leaf.IsLeaf())
			assert.Equal(t, []string{"λ"}, leaf.Candidates())

			_, ok = tr.Walk("(1)")
			assert.True(t, ok)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		wantPath string
	}{
		{"Not JSON", `{"l": `, ""},
		{"Root Is A List", `["λ"]`, ""},
		{"Child Is A String", `{"l": "λ"}`, "l"},
		{"Child Is Null", `{"l": null}`, "l"},
		{"Candidates Not A List", `{"l": {">>": "λ"}}`, "l"},
		{"Non String Candidate", `{"l": {"a": {">>": ["α", 1]}}}`, "l.a"},
		{"Null Candidate Entry", `{"l": {">>": [null]}}`, "l"},
		{"Null Among Candidates", `{"l": {">>": [null, "λ"]}}`, "l"},
		{"Multi Character Key", `{"l": {"am": {">>": ["λ"]}}}`, "l.am"},
		{"Empty Key", `{"": {}}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := trie.Parse([]byte(tt.payload), trie.FormatJSON)
			require.Error(t, err)
			assert.Nil(t, tr, "no partial trie may be produced")
			assert.ErrorIs(t, err, domain.ErrInvalidConfig)

			var cfgErr *domain.ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.wantPath, cfgErr.Path)
		})
	}
}

func TestParse_YAMLNullCandidateEntry(t *testing.T) {
	tr, err := trie.Parse([]byte("l:\n  '>>': [~, λ]\n"), trie.FormatYAML)
	assert.Nil(t, tr)

	var cfgErr *domain.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "l", cfgErr.Path)
}

func TestParse_NullAndEmptyCandidates(t *testing.T) {
	tr, err := trie.Parse([]byte(`{"a": {">>": null, "b": {">>": []}}, "z": {}}`), trie.FormatJSON)
	require.NoError(t, err)

	path, ok := tr.Walk("ab")
	require.True(t, ok)
	assert.False(t, path[1].HasCandidates())
	assert.False(t, path[2].HasCandidates())
	assert.Nil(t, path[2].Candidates())

	dead, ok := tr.Root().Child('z')
	require.True(t, ok)
	assert.True(t, dead.IsLeaf())
	assert.False(t, dead.HasCandidates())
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, trie.FormatYAML, trie.FormatFromPath("/etc/unicorn/greek.yml"))
	assert.Equal(t, trie.FormatYAML, trie.FormatFromPath("greek.YAML"))
	assert.Equal(t, trie.FormatTOML, trie.FormatFromPath("greek.toml"))
	assert.Equal(t, trie.FormatJSON, trie.FormatFromPath("greek.json"))
	assert.Equal(t, trie.FormatJSON, trie.FormatFromPath("greek"))

	f, err := trie.ParseFormat("yml")
	require.NoError(t, err)
	assert.Equal(t, trie.FormatYAML, f)
	_, err = trie.ParseFormat("xml")
	assert.Error(t, err)
}
