package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copperhq/copper-client/pkg/cache"
)

func TestMemoryCache_SetAndGet(t *testing.T) {
	t.Parallel()

	memory := cache.NewMemoryCache(10)
	ctx := context.Background()

	entry := &cache.Entry{
		Data:      []byte("test data"),
		ExpiresAt: time.Now().Add(1 * time.Hour),
		ETag:      "abc123",
	}

	err := memory.Set(ctx, "key1", entry)
	require.NoError(t, err)

	retrieved, err := memory.Get(ctx, "key1")
	require.NoError(t, err)
	assert.Equal(t, entry.Data, retrieved.Data)
	assert.Equal(t, entry.ETag, retrieved.ETag)
}

func TestMemoryCache_GetNonExistent(t *testing.T) {
	t.Parallel()

	memory := cache.NewMemoryCache(10)

	_, err := memory.Get(context.Background(), "nonexistent")
	require.ErrorIs(t, err, cache.ErrKeyNotFound)
}

func TestMemoryCache_GetExpired(t *testing.T) {
	t.Parallel()

	memory := cache.NewMemoryCache(10)
	ctx := context.Background()

	entry := &cache.Entry{
		Data:      []byte("test data"),
		ExpiresAt: time.Now().Add(-1 * time.Hour),
	}

	err := memory.Set(ctx, "key1", entry)
	require.NoError(t, err)

	_, err = memory.Get(ctx, "key1")
	require.ErrorIs(t, err, cache.ErrKeyNotFound)
	assert.False(t, memory.Has(ctx, "key1"))
}

func TestMemoryCache_Delete(t *testing.T) {
	t.Parallel()

	memory := cache.NewMemoryCache(10)
	ctx := context.Background()

	entry := &cache.Entry{
		Data:      []byte("test data"),
		ExpiresAt: time.Now().Add(1 * time.Hour),
	}

	err := memory.Set(ctx, "key1", entry)
	require.NoError(t, err)
	assert.True(t, memory.Has(ctx, "key1"))

	err = memory.Delete(ctx, "key1")
	require.NoError(t, err)
	assert.False(t, memory.Has(ctx, "key1"))
}

func TestMemoryCache_Clear(t *testing.T) {
	t.Parallel()

	memory := cache.NewMemoryCache(10)
	ctx := context.Background()

	for i := range 3 {
		entry := &cache.Entry{
			Data:      []byte("test data"),
			ExpiresAt: time.Now().Add(1 * time.Hour),
		}
		_ = memory.Set(ctx, string(rune('a'+i)), entry)
	}

	assert.True(t, memory.Has(ctx, "a"))
	assert.True(t, memory.Has(ctx, "b"))
	assert.True(t, memory.Has(ctx, "c"))

	err := memory.Clear(ctx)
	require.NoError(t, err)

	assert.False(t, memory.Has(ctx, "a"))
	assert.False(t, memory.Has(ctx, "b"))
	assert.False(t, memory.Has(ctx, "c"))
}

func TestMemoryCache_MaxSize(t *testing.T) {
	t.Parallel()

	memory := cache.NewMemoryCache(2)
	ctx := context.Background()

	for i := range 3 {
		entry := &cache.Entry{
			Data:      []byte("test data"),
			ExpiresAt: time.Now().Add(1 * time.Hour),
		}
		_ = memory.Set(ctx, string(rune('a'+i)), entry)
	}

	// The oldest entry was evicted to make room.
	assert.False(t, memory.Has(ctx, "a"))
	assert.True(t, memory.Has(ctx, "b"))
	assert.True(t, memory.Has(ctx, "c"))
}

func TestMemoryCache_OverwriteDoesNotEvict(t *testing.T) {
	t.Parallel()

	memory := cache.NewMemoryCache(2)
	ctx := context.Background()

	entry := &cache.Entry{
		Data:      []byte("v1"),
		ExpiresAt: time.Now().Add(1 * time.Hour),
	}

	require.NoError(t, memory.Set(ctx, "a", entry))
	require.NoError(t, memory.Set(ctx, "b", entry))

	updated := &cache.Entry{
		Data:      []byte("v2"),
		ExpiresAt: time.Now().Add(1 * time.Hour),
	}
	require.NoError(t, memory.Set(ctx, "a", updated))

	assert.True(t, memory.Has(ctx, "a"))
	assert.True(t, memory.Has(ctx, "b"))

	retrieved, err := memory.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), retrieved.Data)
}

func TestNoOpCache(t *testing.T) {
	t.Parallel()

	noop := cache.NewNoOpCache()
	ctx := context.Background()

	entry := &cache.Entry{
		Data:      []byte("test data"),
		ExpiresAt: time.Now().Add(1 * time.Hour),
	}

	err := noop.Set(ctx, "test-key", entry)
	assert.NoError(t, err)

	_, err = noop.Get(ctx, "test-key")
	require.ErrorIs(t, err, cache.ErrCacheDisabled)

	assert.False(t, noop.Has(ctx, "test-key"))
	assert.NoError(t, noop.Delete(ctx, "test-key"))
	assert.NoError(t, noop.Clear(ctx))
}

func TestChain(t *testing.T) {
	t.Parallel()

	l1 := cache.NewMemoryCache(10)
	l2 := cache.NewMemoryCache(100)
	chain := cache.NewChain(l1, l2)

	ctx := context.Background()
	entry := &cache.Entry{
		Data:      []byte("chain test"),
		ExpiresAt: time.Now().Add(1 * time.Hour),
	}

	err := chain.Set(ctx, "chain-key", entry)
	require.NoError(t, err)
	assert.True(t, l1.Has(ctx, "chain-key"))
	assert.True(t, l2.Has(ctx, "chain-key"))

	// A hit in a later layer repopulates the earlier ones.
	err = l1.Delete(ctx, "chain-key")
	require.NoError(t, err)

	retrieved, err := chain.Get(ctx, "chain-key")
	require.NoError(t, err)
	assert.Equal(t, entry.Data, retrieved.Data)
	assert.True(t, l1.Has(ctx, "chain-key"))

	err = chain.Delete(ctx, "chain-key")
	require.NoError(t, err)
	assert.False(t, l1.Has(ctx, "chain-key"))
	assert.False(t, l2.Has(ctx, "chain-key"))
}

func TestChain_Miss(t *testing.T) {
	t.Parallel()

	chain := cache.NewChain(cache.NewMemoryCache(10), cache.NewMemoryCache(10))

	_, err := chain.Get(context.Background(), "missing")
	require.ErrorIs(t, err, cache.ErrKeyNotFoundInAnyCache)
}

func TestNew_Memory(t *testing.T) {
	t.Parallel()

	backend, err := cache.New(&cache.Config{
		Type:   cache.TypeMemory,
		Memory: &cache.MemoryConfig{MaxSize: 100},
	})
	require.NoError(t, err)
	require.NotNil(t, backend)

	ctx := context.Background()
	entry := &cache.Entry{
		Data:      []byte("test data"),
		ExpiresAt: time.Now().Add(1 * time.Hour),
		ETag:      "test-etag",
	}

	err = backend.Set(ctx, "test-key", entry)
	require.NoError(t, err)

	retrieved, err := backend.Get(ctx, "test-key")
	require.NoError(t, err)
	assert.Equal(t, entry.Data, retrieved.Data)
	assert.Equal(t, entry.ETag, retrieved.ETag)
}

func TestNew_None(t *testing.T) {
	t.Parallel()

	backend, err := cache.New(&cache.Config{Type: cache.TypeNone})
	require.NoError(t, err)

	_, err = backend.Get(context.Background(), "anything")
	require.Error(t, err)
}

func TestNew_NilConfigUsesDefaults(t *testing.T) {
	t.Parallel()

	backend, err := cache.New(nil)
	require.NoError(t, err)
	require.NotNil(t, backend)

	ctx := context.Background()
	entry := &cache.Entry{
		Data:      []byte("default test"),
		ExpiresAt: time.Now().Add(1 * time.Hour),
	}

	require.NoError(t, backend.Set(ctx, "default-key", entry))

	retrieved, err := backend.Get(ctx, "default-key")
	require.NoError(t, err)
	assert.Equal(t, entry.Data, retrieved.Data)
}

func TestNew_InvalidType(t *testing.T) {
	t.Parallel()

	backend, err := cache.New(&cache.Config{Type: cache.Type("invalid")})
	require.ErrorIs(t, err, cache.ErrUnsupportedType)
	assert.Nil(t, backend)
}

func TestNew_NATSWithoutConfig(t *testing.T) {
	t.Parallel()

	backend, err := cache.New(&cache.Config{Type: cache.TypeNATS})
	require.ErrorIs(t, err, cache.ErrNATSConfigRequired)
	assert.Nil(t, backend)
}

func TestBuilder(t *testing.T) {
	t.Parallel()

	backend, err := cache.NewBuilder().
		WithType(cache.TypeMemory).
		WithMemoryConfig(50).
		WithOptions(&cache.Options{
			TTL:     10 * time.Minute,
			MaxSize: 50,
		}).
		Build()
	require.NoError(t, err)
	require.NotNil(t, backend)

	ctx := context.Background()
	entry := &cache.Entry{
		Data:      []byte("builder test"),
		ExpiresAt: time.Now().Add(1 * time.Hour),
	}

	require.NoError(t, backend.Set(ctx, "builder-key", entry))

	retrieved, err := backend.Get(ctx, "builder-key")
	require.NoError(t, err)
	assert.Equal(t, entry.Data, retrieved.Data)
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	config := cache.DefaultConfig()
	assert.Equal(t, cache.TypeMemory, config.Type)
	require.NotNil(t, config.Memory)
	assert.Equal(t, 500, config.Memory.MaxSize)
	require.NotNil(t, config.Options)
	assert.Equal(t, 5*time.Minute, config.Options.TTL)
}
