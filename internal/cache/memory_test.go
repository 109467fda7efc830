package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/costgate/costgate/internal/cache"
)

func TestMemory_SetAndGet(t *testing.T) {
	m := cache.NewMemory()
	ctx := context.Background()

	_, found, err := m.Get(ctx, "missing")
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, m.SetWithExpiry(ctx, "k", "v", time.Minute))
	v, found, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "v", v)
}

func TestMemory_ExpiredKeyIsNotFound(t *testing.T) {
	m := cache.NewMemory()
	ctx := context.Background()
	require.NoError(t, m.SetWithExpiry(ctx, "k", "v", time.Nanosecond))
	time.Sleep(time.Millisecond)

	_, found, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, found)
}

func TestMemory_FlushAllClearsEverything(t *testing.T) {
	m := cache.NewMemory()
	ctx := context.Background()
	require.NoError(t, m.SetWithExpiry(ctx, "a", "1", time.Minute))
	require.NoError(t, m.SetWithExpiry(ctx, "b", "2", time.Minute))

	require.NoError(t, m.FlushAll(ctx))

	_, found, _ := m.Get(ctx, "a")
	require.False(t, found)
	_, found, _ = m.Get(ctx, "b")
	require.False(t, found)
}

func TestMemory_ZeroTTLNeverExpires(t *testing.T) {
	m := cache.NewMemory()
	ctx := context.Background()
	require.NoError(t, m.SetWithExpiry(ctx, "k", "v", 0))
	time.Sleep(time.Millisecond)

	v, found, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "v", v)
}
