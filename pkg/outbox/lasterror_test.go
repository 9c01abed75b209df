package outbox

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLastError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		err   error
		limit int
		want  string
	}{
		{"nil", nil, 10, ""},
		{"cut", errors.New("dispatch failed"), 5, "dispa"},
		{"fits", errors.New("short"), 64, "short"},
		{"no room", errors.New("x"), 0, ""},
		// "Ō" is two bytes; a cut inside it drops the whole rune.
		{"inside rune", errors.New("AbŌc"), 3, "Ab"},
		{"after rune", errors.New("AbŌc"), 4, "AbŌ"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, lastError(tc.err, tc.limit))
		})
	}
}
