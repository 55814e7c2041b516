package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/contamio/recallctl/pkg/recall"
	"github.com/contamio/recallctl/pkg/recallclient"
	"github.com/nats-io/nats.go"
	"github.com/spf13/viper"
)

// newLogger returns a text logger on stderr. Verbose output lowers the level
// to debug.
func newLogger(level slog.Level) *slog.Logger {
	if viper.GetBool(keyVerbose) {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// buildRecallConfig resolves the client configuration. Request logs are
// attached only when logger reports info or below.
func buildRecallConfig(ctx context.Context, logger *slog.Logger) *recall.Config {
	config := loadConfig()

	var recallLogger recall.Logger
	if logger.Enabled(ctx, slog.LevelInfo) {
		recallLogger = recall.NewSlogLogger(logger)
	}

	return &recall.Config{
		BaseURL:      config.BaseURL,
		APIKey:       config.APIKey,
		APIKeyHeader: config.APIKeyHeader,
		UserAgent:    config.UserAgent,
		Timeout:      config.Timeout,
		RetryMax:     config.RetryMax,
		RetryWaitMin: config.RetryWaitMin,
		RetryWaitMax: config.RetryWaitMax,
		Logger:       recallLogger,
		Debug:        viper.GetBool(keyVerbose),
	}
}

// createClient builds the API client from the resolved configuration.
func createClient(ctx context.Context, logger *slog.Logger) (recall.Client, error) {
	return recallclient.New(ctx, buildRecallConfig(ctx, logger))
}

// baseURLOf returns the entity URL client talks to.
func baseURLOf(client recall.Client) string {
	if located, ok := client.(interface{ BaseURL() string }); ok {
		return located.BaseURL()
	}

	return loadConfig().BaseURL
}

// reportMetrics logs the request counters of client at debug level.
func reportMetrics(logger *slog.Logger, client recall.Client) {
	provider, ok := client.(recall.MetricsProvider)
	if !ok {
		return
	}

	metrics := provider.Metrics()
	for _, endpoint := range metrics.Endpoints() {
		snapshot := metrics.GetMetrics(endpoint)
		logger.Debug("api requests",
			"endpoint", endpoint,
			"requests", snapshot.TotalRequests,
			"errors", snapshot.TotalErrors,
			"average_latency", snapshot.AverageLatency)
	}
}

// cacheFactory builds one cache per session. NATS sessions share a single
// connection and are kept apart by their key namespace.
type cacheFactory struct {
	config *recall.CacheConfig
	conn   *nats.Conn
	logger recall.Logger
}

func newCacheFactory(logger *slog.Logger) (*cacheFactory, error) {
	config := loadConfig()

	cacheConfig := &recall.CacheConfig{
		Type:   recall.CacheType(config.Cache.Type),
		Memory: &recall.MemoryCacheConfig{MaxSize: config.Cache.MaxSize},
	}

	factory := &cacheFactory{
		config: cacheConfig,
		logger: recall.NewSlogLogger(logger),
	}

	if cacheConfig.Type != recall.CacheTypeNATS {
		return factory, nil
	}

	url := config.NATS.URL
	if url == "" {
		url = nats.DefaultURL
	}

	conn, err := nats.Connect(url, nats.Name("recallctl"))
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}

	factory.conn = conn
	cacheConfig.NATS = &recall.NATSKVConfig{
		Bucket: config.NATS.Bucket,
		Conn:   conn,
	}

	return factory, nil
}

// New returns the cache of one session and a function releasing it.
func (f *cacheFactory) New(namespace string) (*recall.CacheManager, func(), error) {
	config := *f.config
	if config.NATS != nil {
		natsConfig := *config.NATS
		natsConfig.Namespace = namespace
		config.NATS = &natsConfig
	}

	cache, err := recall.NewCacheFromConfig(&config)
	if err != nil {
		return nil, nil, fmt.Errorf("creating cache: %w", err)
	}

	release := func() {}

	if natsCache, ok := cache.(*recall.NATSKVCache); ok {
		release = func() {
			_ = natsCache.Clear(context.Background())
			natsCache.Close()
		}
	}

	return recall.NewCacheManager(cache, f.logger), release, nil
}

// Close drops the shared NATS connection.
func (f *cacheFactory) Close() {
	if f.conn != nil {
		f.conn.Close()
	}
}
