package recall_test

import (
	"context"
	"testing"
	"time"

	"github.com/contamio/recallctl/internal/constants"
	"github.com/contamio/recallctl/pkg/recall"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheFactory_MemoryCache(t *testing.T) {
	t.Parallel()

	config := &recall.CacheConfig{
		Type: recall.CacheTypeMemory,
		Memory: &recall.MemoryCacheConfig{
			MaxSize: 100,
		},
	}

	cache, err := recall.NewCacheFromConfig(config)
	require.NoError(t, err)
	require.NotNil(t, cache)

	// Test basic operations
	ctx := context.Background()
	entry := &recall.CacheEntry{
		Data:      []byte("test data"),
		ExpiresAt: time.Now().Add(1 * time.Hour),
	}

	// Set
	err = cache.Set(ctx, "test-key", entry)
	require.NoError(t, err)

	// Get
	retrieved, err := cache.Get(ctx, "test-key")
	require.NoError(t, err)
	assert.Equal(t, entry.Data, retrieved.Data)

	// Has
	assert.True(t, cache.Has(ctx, "test-key"))

	// Delete
	err = cache.Delete(ctx, "test-key")
	require.NoError(t, err)
	assert.False(t, cache.Has(ctx, "test-key"))
}

func TestCacheFactory_DisabledCache(t *testing.T) {
	t.Parallel()

	config := &recall.CacheConfig{
		Type: recall.CacheTypeNone,
	}

	cache, err := recall.NewCacheFromConfig(config)
	require.NoError(t, err)
	require.NotNil(t, cache)

	ctx := context.Background()
	entry := &recall.CacheEntry{
		Data:      []byte("test data"),
		ExpiresAt: time.Now().Add(1 * time.Hour),
	}

	// Set should succeed but do nothing
	err = cache.Set(ctx, "test-key", entry)
	require.NoError(t, err)

	// Get should always fail
	_, err = cache.Get(ctx, "test-key")
	require.ErrorIs(t, err, recall.ErrCacheDisabled)

	// Has should always return false
	assert.False(t, cache.Has(ctx, "test-key"))

	// Delete should succeed but do nothing
	err = cache.Delete(ctx, "test-key")
	require.NoError(t, err)

	// Clear should succeed but do nothing
	err = cache.Clear(ctx)
	require.NoError(t, err)
}

func TestDefaultCacheConfig(t *testing.T) {
	t.Parallel()

	config := recall.DefaultCacheConfig()
	assert.Equal(t, recall.CacheTypeMemory, config.Type)
	require.NotNil(t, config.Memory)
	assert.Equal(t, constants.DefaultCacheSize, config.Memory.MaxSize)
	assert.Nil(t, config.NATS)
}

func TestCacheFactory_InvalidType(t *testing.T) {
	t.Parallel()

	config := &recall.CacheConfig{
		Type: recall.CacheType("invalid"),
	}

	cache, err := recall.NewCacheFromConfig(config)
	require.ErrorIs(t, err, recall.ErrUnsupportedCacheType)
	assert.Nil(t, cache)
	assert.Contains(t, err.Error(), "unsupported cache type")
}

func TestCacheFactory_NATSRequiresConfig(t *testing.T) {
	t.Parallel()

	cache, err := recall.NewCacheFromConfig(&recall.CacheConfig{Type: recall.CacheTypeNATS})
	require.ErrorIs(t, err, recall.ErrNATSConfigRequired)
	assert.Nil(t, cache)
}

func TestCacheFactory_EmptyTypeIsMemory(t *testing.T) {
	t.Parallel()

	cache, err := recall.NewCacheFromConfig(&recall.CacheConfig{})
	require.NoError(t, err)
	assert.IsType(t, &recall.MemoryCache{}, cache)
}

func TestCacheFactory_NilConfig(t *testing.T) {
	t.Parallel()

	cache, err := recall.NewCacheFromConfig(nil)
	require.NoError(t, err)
	require.NotNil(t, cache)

	// Should use default config (memory cache)
	ctx := context.Background()
	entry := &recall.CacheEntry{
		Data:      []byte("default test"),
		ExpiresAt: time.Now().Add(1 * time.Hour),
	}

	err = cache.Set(ctx, "default-key", entry)
	require.NoError(t, err)

	retrieved, err := cache.Get(ctx, "default-key")
	require.NoError(t, err)
	assert.Equal(t, entry.Data, retrieved.Data)
}
