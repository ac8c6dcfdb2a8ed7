package domain_test

import (
	"testing"

	"github.com/aretw0/unicorn/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKey(t *testing.T) {
	tests := []struct {
		in      string
		want    rune
		wantErr bool
	}{
		{"a", 'a', false},
		{"λ", 'λ', false},
		{`\`, '\\', false},
		{"backspace", domain.KeyBackspace, false},
		{"delete", domain.KeyDelete, false},
		{"\b", domain.KeyBackspace, false},
		{"", 0, true},
		{"ab", 0, true},
		{"\xff", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := domain.ParseKey(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
