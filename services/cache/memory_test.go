package cachesvc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type snapshot struct {
	Total int      `json:"total"`
	Sedes []string `json:"sedes"`
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute)

	var got snapshot
	found, err := c.Get(ctx, "dashboard:all", &got)
	require.NoError(t, err)
	assert.False(t, found)

	want := snapshot{Total: 3, Sedes: []string{"Centro", "Sin sede"}}
	require.NoError(t, c.Set(ctx, "dashboard:all", want, 0))
	require.NoError(t, c.Set(ctx, "dashboard:sede:1", snapshot{Total: 1}, time.Minute))
	require.NoError(t, c.Set(ctx, "other", snapshot{Total: 9}, time.Minute))

	found, err = c.Get(ctx, "dashboard:all", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, want, got)

	t.Run("values are copies", func(t *testing.T) {
		got.Sedes[0] = "changed"
		var again snapshot
		_, err := c.Get(ctx, "dashboard:all", &again)
		require.NoError(t, err)
		assert.Equal(t, "Centro", again.Sedes[0])
	})

	t.Run("delete prefix", func(t *testing.T) {
		require.NoError(t, c.DeletePrefix(ctx, "dashboard:"))

		var s snapshot
		found, err := c.Get(ctx, "dashboard:all", &s)
		require.NoError(t, err)
		assert.False(t, found)
		found, err = c.Get(ctx, "dashboard:sede:1", &s)
		require.NoError(t, err)
		assert.False(t, found)
		found, err = c.Get(ctx, "other", &s)
		require.NoError(t, err)
		assert.True(t, found)
	})

	t.Run("expiration", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "short", snapshot{}, time.Millisecond))
		time.Sleep(5 * time.Millisecond)
		var s snapshot
		found, err := c.Get(ctx, "short", &s)
		require.NoError(t, err)
		assert.False(t, found)
	})
}
