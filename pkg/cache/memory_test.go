package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "k", "v", time.Minute))

	v, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestMemoryStoreExpiry(t *testing.T) {
	s := NewMemoryStore()
	now := time.Now()
	s.now = func() time.Time { return now }

	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "k", "v", time.Minute))

	now = now.Add(2 * time.Minute)
	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStorePurgeExpired(t *testing.T) {
	s := NewMemoryStore()
	now := time.Now()
	s.now = func() time.Time { return now }

	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "stale", "v", time.Minute))
	require.NoError(t, s.Set(ctx, "fresh", "v", time.Hour))

	now = now.Add(10 * time.Minute)
	assert.Equal(t, 1, s.PurgeExpired())

	_, ok, _ := s.Get(ctx, "fresh")
	assert.True(t, ok)
}
