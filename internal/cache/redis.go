package cache

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/deskmetrics/zendesk-dashboard/internal/config"
)

// RedisClient is a thin wrapper around the go-redis connection pool. It is
// the only type in the codebase holding a raw backend handle.
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient builds a pooled client from the Redis configuration. The
// connection is lazy; callers probe liveness through Ping.
func NewRedisClient(cfg config.RedisConfig) *RedisClient {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.Timeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})

	return &RedisClient{client: rdb}
}

func (r *RedisClient) Get(ctx context.Context, key string) (string, error) {
	return r.client.Get(ctx, key).Result()
}

func (r *RedisClient) SetEx(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

// Del removes a key and reports whether it existed.
func (r *RedisClient) Del(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Del(ctx, key).Result()
	return n > 0, err
}

// TTL returns the remaining lifetime of a key. go-redis maps the protocol
// sentinels to -1 (no expiry) and -2 (missing key) durations.
func (r *RedisClient) TTL(ctx context.Context, key string) (time.Duration, error) {
	return r.client.TTL(ctx, key).Result()
}

func (r *RedisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// KeyspaceStats reads the server's cumulative keyspace hit/miss counters
// from INFO stats.
func (r *RedisClient) KeyspaceStats(ctx context.Context) (hits, misses int64, err error) {
	info, err := r.client.Info(ctx, "stats").Result()
	if err != nil {
		return 0, 0, err
	}
	for _, line := range strings.Split(info, "\n") {
		line = strings.TrimSpace(line)
		if v, ok := strings.CutPrefix(line, "keyspace_hits:"); ok {
			hits, _ = strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		}
		if v, ok := strings.CutPrefix(line, "keyspace_misses:"); ok {
			misses, _ = strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		}
	}
	return hits, misses, nil
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}
