package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestInMemoryCache_Expiry(t *testing.T) {
	c := NewInMemoryCache()
	defer c.Close()

	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "graph", []byte(`{"nodes":[]}`), 30))
	v, ok := c.Get(ctx, "graph")
	require.True(t, ok)
	assert.JSONEq(t, `{"nodes":[]}`, string(v))

	now = now.Add(31 * time.Second)
	_, ok = c.Get(ctx, "graph")
	assert.False(t, ok)

	c.sweep()
	assert.Zero(t, c.Len())
}

func TestInMemoryCache_ZeroTTLStoresNothing(t *testing.T) {
	c := NewInMemoryCache()
	defer c.Close()

	require.NoError(t, c.Set(context.Background(), "k", []byte("v"), 0))
	assert.Zero(t, c.Len())
}

func TestInMemoryCache_ClearAndDelete(t *testing.T) {
	c := NewInMemoryCache()
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", []byte("1"), 60))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), 60))
	require.NoError(t, c.Delete(ctx, "a"))
	assert.Equal(t, 1, c.Len())

	require.NoError(t, c.Clear(ctx))
	assert.Zero(t, c.Len())
}

func TestInMemoryCache_StoresCopy(t *testing.T) {
	c := NewInMemoryCache()
	defer c.Close()
	ctx := context.Background()

	buf := []byte("abc")
	require.NoError(t, c.Set(ctx, "k", buf, 60))
	buf[0] = 'x'

	v, _ := c.Get(ctx, "k")
	assert.Equal(t, "abc", string(v))
}

func TestInMemoryCache_CloseIsIdempotent(t *testing.T) {
	c := NewInMemoryCache()
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
}
