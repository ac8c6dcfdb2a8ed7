package domain

import (
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionJSON(t *testing.T) {
	tests := []struct {
		name   string
		action Action
		want   string
	}{
		{"Reject Omits Text", Reject(), `{"type":"reject"}`},
		{"Commit", Commit("λ"), `{"type":"commit","text":"λ"}`},
		{"Cleared Composition Keeps Text", UpdateComposition(""), `{"type":"update_composition","text":""}`},
		{"Show Candidates", ShowCandidates(`\l`), `{"type":"show_candidates","text":"\\l"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.action)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))

			var back Action
			require.NoError(t, json.Unmarshal(got, &back))
			assert.Equal(t, tt.action, back)
		})
	}
}

func TestActionKind_UnknownName(t *testing.T) {
	var k ActionKind
	assert.Error(t, k.UnmarshalText([]byte("explode")))
	assert.Equal(t, "ActionKind(42)", ActionKind(42).String())
}

func TestActionString(t *testing.T) {
	assert.Equal(t, "reject", Reject().String())
	assert.Equal(t, `commit("β")`, Commit("β").String())
}

func TestConfigError_Matching(t *testing.T) {
	cause := io.ErrUnexpectedEOF
	err := error(&ConfigError{Path: "l.a", Reason: "candidate list must contain strings", Err: cause})

	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), `"l.a"`)

	wrapped := &InitError{Source: "payload", Err: err}
	assert.ErrorIs(t, wrapped, ErrInvalidConfig)

	var cfgErr *ConfigError
	require.True(t, errors.As(wrapped, &cfgErr))
	assert.Equal(t, "l.a", cfgErr.Path)
}

func TestIsDeleteBackward(t *testing.T) {
	assert.True(t, IsDeleteBackward('\b'))
	assert.True(t, IsDeleteBackward(0x7f))
	assert.False(t, IsDeleteBackward('\\'))
}
