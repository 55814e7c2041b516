package recall

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/contamio/recallctl/internal/constants"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache is a key/value store for memoized responses.
type Cache interface {
	Get(ctx context.Context, key string) (*CacheEntry, error)
	Set(ctx context.Context, key string, entry *CacheEntry) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Has(ctx context.Context, key string) bool
}

// CacheEntry is a cached response body. A zero ExpiresAt never expires.
type CacheEntry struct {
	Data      []byte    `json:"data"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the entry has passed its expiry.
func (e *CacheEntry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

// MemoryCache is an in-process cache bounded by a least-recently-used policy.
type MemoryCache struct {
	entries *lru.Cache[string, *CacheEntry]
}

// NewMemoryCache creates a memory cache holding at most maxSize entries.
func NewMemoryCache(maxSize int) *MemoryCache {
	if maxSize <= 0 {
		maxSize = constants.DefaultCacheSize
	}

	// lru.New only fails for a non-positive size.
	entries, _ := lru.New[string, *CacheEntry](maxSize)

	return &MemoryCache{entries: entries}
}

// Get retrieves an entry.
func (c *MemoryCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	entry, ok := c.entries.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCacheMiss, key)
	}

	if entry.Expired(time.Now()) {
		c.entries.Remove(key)

		return nil, fmt.Errorf("%w: %s", ErrCacheEntryExpired, key)
	}

	return entry, nil
}

// Set stores an entry, evicting the least recently used one when full.
func (c *MemoryCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	c.entries.Add(key, entry)

	return nil
}

// Delete removes an entry.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.entries.Remove(key)

	return nil
}

// Clear removes all entries.
func (c *MemoryCache) Clear(ctx context.Context) error {
	c.entries.Purge()

	return nil
}

// Has reports whether a live entry exists for key.
func (c *MemoryCache) Has(ctx context.Context, key string) bool {
	entry, ok := c.entries.Peek(key)

	return ok && !entry.Expired(time.Now())
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	return c.entries.Len()
}

// CacheStats counts cache traffic.
type CacheStats struct {
	Hits    int64 `json:"hits"    yaml:"hits"`
	Misses  int64 `json:"misses"  yaml:"misses"`
	Sets    int64 `json:"sets"    yaml:"sets"`
	Deletes int64 `json:"deletes" yaml:"deletes"`
}

// GetHitRate returns hits over lookups, or 0 with no lookups.
func (s CacheStats) GetHitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}

	return float64(s.Hits) / float64(total)
}

// CacheManager wraps a Cache with key construction and statistics.
type CacheManager struct {
	cache  Cache
	logger Logger

	mu    sync.Mutex
	stats CacheStats
}

// NewCacheManager creates a manager. A nil cache disables caching.
func NewCacheManager(cache Cache, logger Logger) *CacheManager {
	if cache == nil {
		cache = NewDisabledCache()
	}

	return &CacheManager{
		cache:  cache,
		logger: logger,
	}
}

// GetCacheKey builds the key for a request: its method, path, and sorted params.
func (m *CacheManager) GetCacheKey(method, path string, params map[string]string) string {
	key := method + ":" + path
	if len(params) == 0 {
		return key
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}

	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+"="+params[name])
	}

	return key + ":" + strings.Join(parts, "&")
}

// Get returns the cached bytes for key.
func (m *CacheManager) Get(ctx context.Context, key string) ([]byte, error) {
	entry, err := m.cache.Get(ctx, key)
	if err != nil {
		m.record(func(s *CacheStats) { s.Misses++ })
		m.debug("cache miss", key)

		return nil, fmt.Errorf("cache get %s: %w", key, err)
	}

	m.record(func(s *CacheStats) { s.Hits++ })
	m.debug("cache hit", key)

	return entry.Data, nil
}

// Set stores data under key. A zero ttl keeps the entry until it is deleted.
func (m *CacheManager) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	entry := &CacheEntry{Data: data}

	if ttl > 0 {
		entry.ExpiresAt = time.Now().Add(ttl)
	}

	err := m.cache.Set(ctx, key, entry)
	if err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}

	m.record(func(s *CacheStats) { s.Sets++ })

	return nil
}

// Delete removes the given keys.
func (m *CacheManager) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		err := m.cache.Delete(ctx, key)
		if err != nil {
			return fmt.Errorf("cache delete %s: %w", key, err)
		}

		m.record(func(s *CacheStats) { s.Deletes++ })
		m.debug("cache invalidated", key)
	}

	return nil
}

// Clear removes everything.
func (m *CacheManager) Clear(ctx context.Context) error {
	err := m.cache.Clear(ctx)
	if err != nil {
		return fmt.Errorf("cache clear: %w", err)
	}

	return nil
}

// GetStats returns a snapshot of the statistics.
func (m *CacheManager) GetStats() CacheStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.stats
}

func (m *CacheManager) record(update func(*CacheStats)) {
	m.mu.Lock()
	update(&m.stats)
	m.mu.Unlock()
}

func (m *CacheManager) debug(msg, key string) {
	if m.logger != nil {
		m.logger.Debug(msg, map[string]interface{}{"key": key})
	}
}
