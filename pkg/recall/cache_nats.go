package recall

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/contamio/recallctl/internal/constants"
	"github.com/nats-io/nats.go"
)

// NATSKVConfig configures the NATS JetStream KV cache backend.
type NATSKVConfig struct {
	// URL of the NATS server. Ignored when Conn is set.
	URL string

	// Bucket is the KV bucket name; it is created when missing.
	Bucket string

	// Namespace prefixes every key so sessions sharing a bucket never see
	// each other's entries.
	Namespace string

	// Conn reuses an existing connection. The cache does not close it.
	Conn *nats.Conn
}

// NATSKVCache stores entries in a NATS JetStream key/value bucket.
type NATSKVCache struct {
	kv        nats.KeyValue
	conn      *nats.Conn
	ownsConn  bool
	namespace string
}

// NewNATSKVCache connects to NATS and binds (or creates) the bucket.
func NewNATSKVCache(config *NATSKVConfig) (*NATSKVCache, error) {
	if config == nil {
		return nil, ErrNATSConfigRequired
	}

	conn := config.Conn
	ownsConn := false

	if conn == nil {
		url := config.URL
		if url == "" {
			url = nats.DefaultURL
		}

		var err error

		conn, err = nats.Connect(url, nats.Name(constants.DefaultUserAgent), nats.Timeout(constants.ShortHTTPTimeout))
		if err != nil {
			return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
		}

		ownsConn = true
	}

	kv, err := bindBucket(conn, config.Bucket)
	if err != nil {
		if ownsConn {
			conn.Close()
		}

		return nil, err
	}

	return &NATSKVCache{
		kv:        kv,
		conn:      conn,
		ownsConn:  ownsConn,
		namespace: config.Namespace,
	}, nil
}

func bindBucket(conn *nats.Conn, bucket string) (nats.KeyValue, error) {
	if bucket == "" {
		bucket = constants.DefaultNATSBucket
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("opening JetStream context: %w", err)
	}

	kv, err := js.KeyValue(bucket)
	if errors.Is(err, nats.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(&nats.KeyValueConfig{
			Bucket:      bucket,
			Description: "recallctl session result cache",
		})
	}

	if err != nil {
		return nil, fmt.Errorf("binding KV bucket %s: %w", bucket, err)
	}

	return kv, nil
}

// Get retrieves an entry.
func (c *NATSKVCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	kvEntry, err := c.kv.Get(c.key(key))
	if errors.Is(err, nats.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrCacheMiss, key)
	}

	if err != nil {
		return nil, fmt.Errorf("reading %s from NATS KV: %w", key, err)
	}

	var entry CacheEntry

	err = json.Unmarshal(kvEntry.Value(), &entry)
	if err != nil {
		return nil, fmt.Errorf("decoding cached %s: %w", key, err)
	}

	if entry.Expired(time.Now()) {
		_ = c.kv.Delete(c.key(key))

		return nil, fmt.Errorf("%w: %s", ErrCacheEntryExpired, key)
	}

	return &entry, nil
}

// Set stores an entry.
func (c *NATSKVCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding cache entry %s: %w", key, err)
	}

	_, err = c.kv.Put(c.key(key), data)
	if err != nil {
		return fmt.Errorf("writing %s to NATS KV: %w", key, err)
	}

	return nil
}

// Delete removes an entry.
func (c *NATSKVCache) Delete(ctx context.Context, key string) error {
	err := c.kv.Delete(c.key(key))
	if err != nil && !errors.Is(err, nats.ErrKeyNotFound) {
		return fmt.Errorf("deleting %s from NATS KV: %w", key, err)
	}

	return nil
}

// Clear removes every entry of this cache's namespace.
func (c *NATSKVCache) Clear(ctx context.Context) error {
	keys, err := c.kv.Keys()
	if errors.Is(err, nats.ErrNoKeysFound) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("listing NATS KV keys: %w", err)
	}

	prefix := c.prefix()

	for _, key := range keys {
		if !strings.HasPrefix(key, prefix) {
			continue
		}

		err = c.kv.Delete(key)
		if err != nil && !errors.Is(err, nats.ErrKeyNotFound) {
			return fmt.Errorf("deleting %s from NATS KV: %w", key, err)
		}
	}

	return nil
}

// Has reports whether a live entry exists for key.
func (c *NATSKVCache) Has(ctx context.Context, key string) bool {
	_, err := c.Get(ctx, key)

	return err == nil
}

// Close releases the connection when the cache opened it.
func (c *NATSKVCache) Close() {
	if c.ownsConn && c.conn != nil {
		c.conn.Close()
	}
}

func (c *NATSKVCache) prefix() string {
	if c.namespace == "" {
		return ""
	}

	return c.namespace + "."
}

// key maps an arbitrary cache key onto the KV key alphabet.
func (c *NATSKVCache) key(key string) string {
	return natsKey(c.namespace, key)
}

func natsKey(namespace, key string) string {
	encoded := hex.EncodeToString([]byte(key))
	if namespace == "" {
		return encoded
	}

	return namespace + "." + encoded
}
