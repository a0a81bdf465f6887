package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()

	t.Run("set then get", func(t *testing.T) {
		c := NewMemoryCache()
		require.NoError(t, c.Set(ctx, "videos:list:a", []string{"v1", "v2"}, time.Minute))

		var got []string
		require.NoError(t, c.Get(ctx, "videos:list:a", &got))
		assert.Equal(t, []string{"v1", "v2"}, got)
	})

	t.Run("expired entry is a miss", func(t *testing.T) {
		c := NewMemoryCache()
		now := time.Now()
		c.now = func() time.Time { return now }
		require.NoError(t, c.Set(ctx, "k", 1, time.Second))

		c.now = func() time.Time { return now.Add(2 * time.Second) }
		var got int
		assert.ErrorIs(t, c.Get(ctx, "k", &got), ErrCacheMiss)
		exists, err := c.Exists(ctx, "k")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("invalidate pattern", func(t *testing.T) {
		c := NewMemoryCache()
		require.NoError(t, c.Set(ctx, "videos:list:a", 1, time.Minute))
		require.NoError(t, c.Set(ctx, "videos:list:b", 2, time.Minute))
		require.NoError(t, c.Set(ctx, "users:1", 3, time.Minute))

		require.NoError(t, c.InvalidatePattern(ctx, "videos:list:*"))

		var v int
		assert.ErrorIs(t, c.Get(ctx, "videos:list:a", &v), ErrCacheMiss)
		assert.ErrorIs(t, c.Get(ctx, "videos:list:b", &v), ErrCacheMiss)
		assert.NoError(t, c.Get(ctx, "users:1", &v))
	})
}
