package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/contamio/recallctl/pkg/recall"
)

// CachingClient memoizes List and Get for the life of a session. Update
// always reaches the remote API and, when it succeeds, drops the cached list
// and the cached record for that id.
type CachingClient struct {
	client  recall.Client
	cache   *recall.CacheManager
	baseURL string
	logger  recall.Logger
}

// NewCachingClient wraps client. baseURL is the entity collection URL the
// cache keys are built from.
func NewCachingClient(client recall.Client, cache *recall.CacheManager, baseURL string, logger recall.Logger) *CachingClient {
	if cache == nil {
		cache = recall.NewCacheManager(recall.NewMemoryCache(0), logger)
	}

	return &CachingClient{
		client:  client,
		cache:   cache,
		baseURL: baseURL,
		logger:  logger,
	}
}

func (c *CachingClient) listKey() string {
	return c.cache.GetCacheKey("GET", c.baseURL, nil)
}

func (c *CachingClient) recordKey(id string) string {
	return c.cache.GetCacheKey("GET", c.baseURL+"/"+id, nil)
}

// List implements recall.Client.List.
func (c *CachingClient) List(ctx context.Context) (recall.Collection, error) {
	key := c.listKey()

	data, err := c.cache.Get(ctx, key)
	if err == nil {
		collection, decodeErr := recall.DecodeCollection(data)
		if decodeErr == nil {
			return collection, nil
		}

		c.warn("discarding unreadable cache entry", key, decodeErr)
		_ = c.cache.Delete(ctx, key)
	}

	collection, err := c.client.List(ctx)
	if err != nil {
		return nil, err
	}

	c.store(ctx, key, collection)

	return collection, nil
}

// Get implements recall.Client.Get.
func (c *CachingClient) Get(ctx context.Context, id string) (recall.Record, error) {
	key := c.recordKey(id)

	data, err := c.cache.Get(ctx, key)
	if err == nil {
		record, decodeErr := recall.DecodeRecord(recall.OperationGet, data)
		if decodeErr == nil {
			return record, nil
		}

		c.warn("discarding unreadable cache entry", key, decodeErr)
		_ = c.cache.Delete(ctx, key)
	}

	record, err := c.client.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	c.store(ctx, key, record)

	return record, nil
}

// Update implements recall.Client.Update.
func (c *CachingClient) Update(ctx context.Context, id string, payload recall.UpdatePayload) (recall.Record, error) {
	record, err := c.client.Update(ctx, id, payload)
	if err != nil {
		return nil, err
	}

	err = c.invalidate(ctx, c.listKey(), c.recordKey(id))
	if err != nil {
		return record, fmt.Errorf("update of %s applied but cache invalidation failed: %w", id, err)
	}

	return record, nil
}

// Refresh drops every cached response so the next reads hit the remote API.
func (c *CachingClient) Refresh(ctx context.Context) error {
	err := c.cache.Clear(ctx)
	if err != nil {
		return fmt.Errorf("refreshing cache: %w", err)
	}

	return nil
}

// Stats returns the cache hit and miss counters.
func (c *CachingClient) Stats() recall.CacheStats {
	return c.cache.GetStats()
}

// Metrics returns the wrapped client's request counters, or nil.
func (c *CachingClient) Metrics() *recall.MetricsCollector {
	if provider, ok := c.client.(recall.MetricsProvider); ok {
		return provider.Metrics()
	}

	return nil
}

// invalidate deletes keys, falling back to clearing the whole cache.
func (c *CachingClient) invalidate(ctx context.Context, keys ...string) error {
	err := c.cache.Delete(ctx, keys...)
	if err == nil {
		return nil
	}

	c.warn("targeted invalidation failed, clearing cache", keys[0], err)

	return c.cache.Clear(ctx)
}

func (c *CachingClient) store(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		c.warn("encoding cache entry failed", key, err)

		return
	}

	err = c.cache.Set(ctx, key, data, 0)
	if err != nil {
		c.warn("cache write failed", key, err)
	}
}

func (c *CachingClient) warn(msg, key string, err error) {
	if c.logger == nil {
		return
	}

	c.logger.Warn(msg, map[string]interface{}{
		"key":   key,
		"error": err.Error(),
	})
}
