package http

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRateLimiterRefills(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := newRateLimiter(60)
	rl.now = func() time.Time { return now }
	rl.lastCheck = now

	for range 60 {
		require.True(t, rl.allow())
	}
	require.False(t, rl.allow())

	now = now.Add(time.Second)
	require.True(t, rl.allow(), "one token per second at 60/min")
	require.False(t, rl.allow())

	now = now.Add(time.Hour)
	for range 60 {
		require.True(t, rl.allow())
	}
	require.False(t, rl.allow(), "bucket never exceeds its limit")
}

func TestRateLimiterDisabled(t *testing.T) {
	rl := newRateLimiter(0)
	for range 1000 {
		require.True(t, rl.allow())
	}

	var nilLimiter *rateLimiter
	require.True(t, nilLimiter.allow())
}
