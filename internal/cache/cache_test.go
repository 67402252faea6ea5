package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return NewRedisCache(mr.Addr()), mr
}

func TestSetGetRoundtrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	module := []byte{0x00, 0x61, 0x73, 0x6d, 0x01}
	require.NoError(t, c.Set(ctx, "abc123", module, time.Hour))

	got, ok := c.Get(ctx, "abc123")
	require.True(t, ok)
	assert.Equal(t, module, got)
}

func TestGetMissingKey(t *testing.T) {
	c, _ := newTestCache(t)

	_, ok := c.Get(context.Background(), "never-stored")
	assert.False(t, ok)
}

func TestKeysAreNamespaced(t *testing.T) {
	c, mr := newTestCache(t)

	require.NoError(t, c.Set(context.Background(), "abc123", []byte("module"), time.Hour))
	assert.True(t, mr.Exists(keyPrefix+"abc123"))
}

func TestEntriesExpire(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "abc123", []byte("module"), time.Hour))
	mr.FastForward(2 * time.Hour)

	_, ok := c.Get(ctx, "abc123")
	assert.False(t, ok)
}
