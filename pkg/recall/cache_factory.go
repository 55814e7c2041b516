package recall

import (
	"context"
	"errors"
	"fmt"

	"github.com/contamio/recallctl/internal/constants"
)

// CacheType names a cache backend as written in the cache.type setting.
type CacheType string

const (
	// CacheTypeMemory keeps entries in a bounded in-process LRU. It is the default.
	CacheTypeMemory CacheType = "memory"
	// CacheTypeNATS keeps entries in a JetStream KV bucket, one key namespace per session.
	CacheTypeNATS CacheType = "nats"
	// CacheTypeNone turns memoization off; every call reaches the API.
	CacheTypeNone CacheType = "none"
)

// Static errors for err113 compliance.
var (
	ErrNATSConfigRequired   = errors.New("cache type nats needs a NATS configuration")
	ErrUnsupportedCacheType = errors.New("unsupported cache type")
	ErrCacheDisabled        = errors.New("cache disabled")
)

// CacheConfig selects and configures the backend of a session cache. Only the
// section matching Type is read.
type CacheConfig struct {
	Type   CacheType
	Memory *MemoryCacheConfig
	NATS   *NATSKVConfig
}

// MemoryCacheConfig bounds the memory backend.
type MemoryCacheConfig struct {
	// MaxSize caps the number of memoized responses. Zero means the default.
	MaxSize int
}

// DefaultCacheConfig is a memory cache of constants.DefaultCacheSize entries.
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		Type:   CacheTypeMemory,
		Memory: &MemoryCacheConfig{MaxSize: constants.DefaultCacheSize},
	}
}

// NewCacheFromConfig builds the backend config names. A nil config or an
// empty Type gives the memory backend.
func NewCacheFromConfig(config *CacheConfig) (Cache, error) {
	if config == nil {
		config = DefaultCacheConfig()
	}

	switch config.Type {
	case "", CacheTypeMemory:
		return NewMemoryCacheFromConfig(config.Memory), nil
	case CacheTypeNone:
		return NewDisabledCache(), nil
	case CacheTypeNATS:
		if config.NATS == nil {
			return nil, ErrNATSConfigRequired
		}

		return NewNATSKVCache(config.NATS)
	}

	return nil, fmt.Errorf("%w: %q (want memory, nats or none)", ErrUnsupportedCacheType, config.Type)
}

// NewMemoryCacheFromConfig builds the memory backend; a nil config uses the
// default size.
func NewMemoryCacheFromConfig(config *MemoryCacheConfig) *MemoryCache {
	if config == nil {
		return NewMemoryCache(constants.DefaultCacheSize)
	}

	return NewMemoryCache(config.MaxSize)
}

// DisabledCache backs cache.type none. Lookups always miss with
// ErrCacheDisabled and writes are dropped.
type DisabledCache struct{}

// NewDisabledCache returns the backend used when caching is off.
func NewDisabledCache() *DisabledCache {
	return &DisabledCache{}
}

func (DisabledCache) Get(context.Context, string) (*CacheEntry, error) {
	return nil, ErrCacheDisabled
}

func (DisabledCache) Set(context.Context, string, *CacheEntry) error { return nil }

func (DisabledCache) Delete(context.Context, string) error { return nil }

func (DisabledCache) Clear(context.Context) error { return nil }

func (DisabledCache) Has(context.Context, string) bool { return false }
