package retry_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iota-uz/accounts/pkg/retry"
)

func TestPolicy_Backoff(t *testing.T) {
	t.Parallel()

	p := retry.Policy{Base: 50 * time.Millisecond, Max: 300 * time.Millisecond}
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 0},
		{1, 50 * time.Millisecond},
		{2, 100 * time.Millisecond},
		{3, 200 * time.Millisecond},
		{4, 300 * time.Millisecond},
		{80, 300 * time.Millisecond},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, p.Backoff(tc.attempt), "attempt=%d", tc.attempt)
	}

	relay := retry.Policy{Base: time.Second, Max: time.Minute}
	require.Equal(t, 8*time.Second, relay.Backoff(4))
	require.Equal(t, time.Minute, relay.Backoff(7))
}

func TestPolicy_Delay(t *testing.T) {
	t.Parallel()

	p := retry.Policy{Base: 10 * time.Millisecond, Max: time.Second, Jitter: 5 * time.Millisecond}
	got := p.Delay(1, rand.New(rand.NewSource(7)))
	require.GreaterOrEqual(t, got, 10*time.Millisecond)
	require.LessOrEqual(t, got, 15*time.Millisecond)
	require.Equal(t, got, p.Delay(1, rand.New(rand.NewSource(7))), "same seed, same delay")
	require.Equal(t, 10*time.Millisecond, p.Delay(1, nil))

	require.Zero(t, retry.Jitter(rand.New(rand.NewSource(7)), 0))
}
