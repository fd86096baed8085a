package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type profile struct {
	Username string `json:"username"`
	Private  bool   `json:"private"`
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()

	t.Run("set then get", func(t *testing.T) {
		c := NewMemoryCache()
		require.NoError(t, c.Set(ctx, "profile:alice", profile{Username: "alice"}, time.Minute))

		var got profile
		require.NoError(t, c.Get(ctx, "profile:alice", &got))
		assert.Equal(t, "alice", got.Username)

		ok, err := c.Exists(ctx, "profile:alice")
		assert.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("miss after expiry", func(t *testing.T) {
		mc := NewMemoryCache().(*MemoryCache)
		now := time.Now()
		mc.now = func() time.Time { return now }
		require.NoError(t, mc.Set(ctx, "k", profile{}, time.Second))

		now = now.Add(2 * time.Second)
		var got profile
		assert.ErrorIs(t, mc.Get(ctx, "k", &got), ErrCacheMiss)
	})

	t.Run("delete removes only the named keys", func(t *testing.T) {
		c := NewMemoryCache()
		require.NoError(t, c.Set(ctx, "profile:a", profile{}, time.Minute))
		require.NoError(t, c.Set(ctx, "profile:b", profile{}, time.Minute))
		require.NoError(t, c.Set(ctx, "other", profile{}, time.Minute))

		require.NoError(t, c.Delete(ctx, "profile:a", "profile:b"))
		ok, _ := c.Exists(ctx, "profile:a")
		assert.False(t, ok)
		ok, _ = c.Exists(ctx, "profile:b")
		assert.False(t, ok)
		ok, _ = c.Exists(ctx, "other")
		assert.True(t, ok)
	})

	t.Run("stored by value", func(t *testing.T) {
		c := NewMemoryCache()
		p := profile{Username: "bob"}
		require.NoError(t, c.Set(ctx, "p", p, time.Minute))
		p.Username = "mutated"

		var got profile
		require.NoError(t, c.Get(ctx, "p", &got))
		assert.Equal(t, "bob", got.Username)
	})
}
