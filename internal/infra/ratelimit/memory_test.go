package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryStoreBurstThenRefill(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewMemoryStore(60, 2)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := store.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		require.True(t, ok)
	}
	ok, _ := store.Allow(ctx, "10.0.0.1")
	require.False(t, ok)

	other, _ := store.Allow(ctx, "10.0.0.2")
	require.True(t, other, "keys are limited independently")

	now = now.Add(time.Second)
	ok, _ = store.Allow(ctx, "10.0.0.1")
	require.True(t, ok, "one token refills per second at 60 rpm")
}

func TestMemoryStoreForgetsIdleVisitors(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewMemoryStore(60, 1)
	store.now = func() time.Time { return now }

	_, _ = store.Allow(context.Background(), "a")
	now = now.Add(10 * time.Minute)
	_, _ = store.Allow(context.Background(), "b")

	require.Len(t, store.visitors, 1)
	require.Contains(t, store.visitors, "b")
}

func TestMemoryStoreSweepsOnInterval(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start
	store := NewMemoryStore(60, 1)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	_, _ = store.Allow(ctx, "a")
	now = start.Add(4*time.Minute + 59*time.Second)
	_, _ = store.Allow(ctx, "b")
	require.Len(t, store.visitors, 2, "a is still within its ttl")

	// a is idle past the ttl, but the last sweep was only 31s ago
	now = start.Add(5*time.Minute + 30*time.Second)
	_, _ = store.Allow(ctx, "c")
	require.Len(t, store.visitors, 3)

	now = start.Add(6 * time.Minute)
	_, _ = store.Allow(ctx, "d")
	require.Len(t, store.visitors, 3)
	require.NotContains(t, store.visitors, "a")
}
