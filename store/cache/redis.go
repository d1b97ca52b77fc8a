package cache

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisConfig holds the Redis connection configuration.
// Redis is OPTIONAL and only needed for:
//   - Multi-instance deployments
//   - Cross-process cache sharing
//   - Cache that survives restarts
type RedisConfig struct {
	// URL accepts redis:// URLs or bare host:port addresses.
	// Comma-separated values configure a cluster.
	URL          string
	Password     string
	DB           int
	KeyPrefix    string
	DefaultTTL   time.Duration
	PoolSize     int
	MinIdleConns int
	ScanCount    int64
}

// DefaultRedisConfig returns the default Redis configuration.
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		URL:          "localhost:6379",
		KeyPrefix:    "prefcache:",
		DefaultTTL:   30 * time.Minute,
		PoolSize:     10,
		MinIdleConns: 2,
		ScanCount:    500,
	}
}

// RedisCache is a Redis-backed Engine. All keys live under KeyPrefix.
type RedisCache struct {
	client     redis.UniversalClient
	keyPrefix  string
	defaultTTL time.Duration
	scanCount  int64
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(ctx context.Context, config *RedisConfig) (*RedisCache, error) {
	if config == nil {
		config = DefaultRedisConfig()
	}
	if config.KeyPrefix == "" {
		return nil, errors.New("redis key prefix must not be empty")
	}

	opts, err := buildUniversalOptions(config.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse Redis URL")
	}
	if config.Password != "" {
		opts.Password = config.Password
	}
	if config.DB != 0 {
		opts.DB = config.DB
	}
	if len(opts.Addrs) > 1 && opts.DB != 0 {
		slog.Warn("ignoring non-zero Redis DB for cluster configuration", slog.Int("db", opts.DB))
		opts.DB = 0
	}
	if config.PoolSize > 0 {
		opts.PoolSize = config.PoolSize
	}
	if config.MinIdleConns > 0 {
		opts.MinIdleConns = config.MinIdleConns
	}

	client := redis.NewUniversalClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "failed to connect to Redis")
	}

	slog.Info("Redis cache connected", slog.Any("addrs", opts.Addrs))

	return NewRedisCacheFromClient(client, config), nil
}

// NewRedisCacheFromClient wraps an existing client.
func NewRedisCacheFromClient(client redis.UniversalClient, config *RedisConfig) *RedisCache {
	if config == nil {
		config = DefaultRedisConfig()
	}
	scanCount := config.ScanCount
	if scanCount <= 0 {
		scanCount = 500
	}
	return &RedisCache{
		client:     client,
		keyPrefix:  config.KeyPrefix,
		defaultTTL: config.DefaultTTL,
		scanCount:  scanCount,
	}
}

func buildUniversalOptions(raw string) (*redis.UniversalOptions, error) {
	opts := &redis.UniversalOptions{}

	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !strings.Contains(part, "://") {
			opts.Addrs = append(opts.Addrs, part)
			continue
		}

		parsed, err := redis.ParseURL(part)
		if err != nil {
			return nil, err
		}
		opts.Addrs = append(opts.Addrs, parsed.Addr)
		if opts.Username == "" {
			opts.Username = parsed.Username
		}
		if opts.Password == "" {
			opts.Password = parsed.Password
		}
		if opts.DB == 0 {
			opts.DB = parsed.DB
		}
		if opts.TLSConfig == nil {
			opts.TLSConfig = parsed.TLSConfig
		}
	}

	if len(opts.Addrs) == 0 {
		return nil, errors.New("no Redis addresses provided")
	}
	return opts, nil
}

func (r *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, r.fullKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, errors.Wrapf(err, "failed to get cache value %s", key)
	}
	return value, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.fullKey(key), value, r.defaultTTL).Err(); err != nil {
		return errors.Wrapf(err, "failed to set cache value %s", key)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, key string) error {
	if err := r.client.Unlink(ctx, r.fullKey(key)).Err(); err != nil {
		return errors.Wrapf(err, "failed to delete cache value %s", key)
	}
	return nil
}

// Keys walks the prefix with SCAN. The result is a point-in-time view;
// keys written during the walk may or may not be included.
func (r *RedisCache) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	err := r.scan(ctx, func(batch []string) error {
		for _, k := range batch {
			keys = append(keys, strings.TrimPrefix(k, r.keyPrefix))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

func (r *RedisCache) Len(ctx context.Context) (int, error) {
	count := 0
	err := r.scan(ctx, func(batch []string) error {
		count += len(batch)
		return nil
	})
	return count, err
}

// Clear unlinks every key under the prefix.
func (r *RedisCache) Clear(ctx context.Context) error {
	return r.scan(ctx, func(batch []string) error {
		pipe := r.client.Pipeline()
		for _, k := range batch {
			pipe.Unlink(ctx, k)
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return errors.Wrap(err, "failed to unlink keys")
		}
		return nil
	})
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}

func (r *RedisCache) scan(ctx context.Context, fn func(batch []string) error) error {
	var cursor uint64
	for {
		batch, next, err := r.client.Scan(ctx, cursor, r.keyPrefix+"*", r.scanCount).Result()
		if err != nil {
			return errors.Wrap(err, "failed to scan keys")
		}
		if len(batch) > 0 {
			if err := fn(batch); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (r *RedisCache) fullKey(key string) string {
	return r.keyPrefix + key
}

// NilCache is a no-op Engine.
// This allows the tiered cache to work without Redis.
type NilCache struct{}

// NewNilCache creates a no-op cache.
func NewNilCache() *NilCache {
	return &NilCache{}
}

func (n *NilCache) Get(context.Context, string) (string, bool, error) { return "", false, nil }

func (n *NilCache) Set(context.Context, string, string) error { return nil }

func (n *NilCache) Delete(context.Context, string) error { return nil }

func (n *NilCache) Keys(context.Context) ([]string, error) { return nil, nil }

func (n *NilCache) Len(context.Context) (int, error) { return 0, nil }

func (n *NilCache) Clear(context.Context) error { return nil }

func (n *NilCache) Close() error { return nil }

var (
	_ Engine = (*RedisCache)(nil)
	_ Engine = (*NilCache)(nil)
)
