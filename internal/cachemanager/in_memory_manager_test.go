package cachemanager

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInMemoryCacheManager_SetAndGet(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCacheManager[string, string]("test", DefaultExpiration, DefaultCleanupInterval)

	c.Set(ctx, "alice", "addr1", time.Minute)

	got, found := c.Get(ctx, "alice")
	require.True(t, found)
	require.Equal(t, "addr1", got)
}

func TestInMemoryCacheManager_Miss(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCacheManager[string, int]("test", DefaultExpiration, DefaultCleanupInterval)

	_, found := c.Get(ctx, "absent")
	require.False(t, found)
}

func TestInMemoryCacheManager_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCacheManager[string, string]("test", DefaultExpiration, DefaultCleanupInterval)

	c.Set(ctx, "alice", "addr1", 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	_, found := c.Get(ctx, "alice")
	require.False(t, found, "entry should be expired")
}

func TestInMemoryCacheManager_Delete(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCacheManager[string, string]("test", DefaultExpiration, DefaultCleanupInterval)

	c.Set(ctx, "a", "1", time.Minute)
	c.Set(ctx, "b", "2", time.Minute)

	require.NoError(t, c.Delete(ctx, "a"))

	_, found := c.Get(ctx, "a")
	require.False(t, found)
	_, found = c.Get(ctx, "b")
	require.True(t, found)
}

func TestInMemoryCacheManager_Flush(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCacheManager[string, []string]("test", DefaultExpiration, DefaultCleanupInterval)

	c.Set(ctx, "a", []string{"x"}, time.Minute)
	require.NoError(t, c.Flush(ctx))

	_, found := c.Get(ctx, "a")
	require.False(t, found)
}

func TestInMemoryCacheManager_TypedValues(t *testing.T) {
	ctx := context.Background()

	type entry struct {
		Value    string
		StoredAt time.Time
	}

	c := NewInMemoryCacheManager[string, entry]("test", DefaultExpiration, DefaultCleanupInterval)
	now := time.Now()
	c.Set(ctx, "alice", entry{Value: "addr", StoredAt: now}, time.Minute)

	got, found := c.Get(ctx, "alice")
	require.True(t, found)
	require.Equal(t, "addr", got.Value)
	require.Equal(t, now, got.StoredAt)
}
