package cache

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/deskmetrics/zendesk-dashboard/internal/config"
)

// Manager is the cache backend adapter. It owns the Redis connection and is
// the sole boundary where backend failures are absorbed: every method
// degrades to a safe default (false, zero, untouched dest) instead of
// returning an error. Failures are logged with the key and operation.
type Manager struct {
	client *RedisClient
	log    *logrus.Logger

	Keys Keys
	TTL  TTLPolicy
}

// NewManager wires a Manager from configuration. Connectivity is probed
// immediately so startup logs show the cache state, but a down backend is
// not an error: the manager simply reports disconnected until Redis
// becomes reachable.
func NewManager(cfg *config.Config, log *logrus.Logger) *Manager {
	m := &Manager{
		client: NewRedisClient(cfg.Redis),
		log:    log,
		TTL:    NewTTLPolicy(cfg.Cache, cfg.RateLimit),
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Redis.Timeout)
	defer cancel()

	if err := m.client.Ping(ctx); err != nil {
		log.WithError(err).WithField("addr", cfg.Redis.Addr()).
			Warn("Redis unreachable, caching degraded until it recovers")
	} else {
		log.WithField("addr", cfg.Redis.Addr()).Info("Redis connection established")
	}

	return m
}

// IsConnected probes backend liveness. Any error, including a transient
// network failure, reads as disconnected.
func (m *Manager) IsConnected(ctx context.Context) bool {
	return m.client.Ping(ctx) == nil
}

// GetDeserialized loads the JSON value under key into dest. It returns
// false when the backend is down, the key is absent, or the payload does
// not deserialize; dest is left untouched in all of those cases.
func (m *Manager) GetDeserialized(ctx context.Context, key string, dest any) bool {
	if !m.IsConnected(ctx) {
		return false
	}

	data, err := m.client.Get(ctx, key)
	if err != nil {
		if err != redis.Nil {
			m.log.WithError(err).WithField("key", key).Error("cache get failed")
		}
		return false
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		m.log.WithError(err).WithField("key", key).Error("cache payload failed to deserialize")
		return false
	}
	return true
}

// SetSerialized writes value under key with the given TTL, JSON-encoded.
// Time values and other non-primitive types end up as strings through the
// standard encoding. Returns false on any failure.
func (m *Manager) SetSerialized(ctx context.Context, key string, value any, ttl time.Duration) bool {
	if !m.IsConnected(ctx) {
		return false
	}

	data, err := json.Marshal(value)
	if err != nil {
		m.log.WithError(err).WithField("key", key).Error("cache value failed to serialize")
		return false
	}

	if err := m.client.SetEx(ctx, key, string(data), ttl); err != nil {
		m.log.WithError(err).WithField("key", key).Error("cache set failed")
		return false
	}
	return true
}

// Delete removes key, reporting true only when an entry was actually
// removed. A disconnected backend or absent key reads as false.
func (m *Manager) Delete(ctx context.Context, key string) bool {
	if !m.IsConnected(ctx) {
		return false
	}

	removed, err := m.client.Del(ctx, key)
	if err != nil {
		m.log.WithError(err).WithField("key", key).Error("cache delete failed")
		return false
	}
	return removed
}

// RemainingTTL reports the remaining lifetime of a key, or a negative
// duration when the key is absent or the backend is down.
func (m *Manager) RemainingTTL(ctx context.Context, key string) time.Duration {
	if !m.IsConnected(ctx) {
		return -2 * time.Second
	}

	ttl, err := m.client.TTL(ctx, key)
	if err != nil {
		m.log.WithError(err).WithField("key", key).Error("cache ttl lookup failed")
		return -2 * time.Second
	}
	return ttl
}

// HitRate reports the backend's cumulative keyspace hit ratio in percent,
// 0.0 when disconnected or before any key has been read.
func (m *Manager) HitRate(ctx context.Context) float64 {
	if !m.IsConnected(ctx) {
		return 0.0
	}

	hits, misses, err := m.client.KeyspaceStats(ctx)
	if err != nil {
		m.log.WithError(err).Error("cache stats lookup failed")
		return 0.0
	}

	total := hits + misses
	if total == 0 {
		return 0.0
	}
	return float64(hits) / float64(total) * 100
}

// GenerateKey derives a deterministic key from prefix and params. Parameter
// names are canonicalized by sorting before hashing, so identical params
// produce identical keys regardless of insertion order. Without params the
// prefix is returned unchanged.
func (m *Manager) GenerateKey(prefix string, params map[string]any) string {
	if len(params) == 0 {
		return prefix
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	canonical := make([]byte, 0, 64)
	for _, name := range names {
		encoded, err := json.Marshal(params[name])
		if err != nil {
			encoded = []byte(fmt.Sprintf("%q", fmt.Sprint(params[name])))
		}
		canonical = append(canonical, name...)
		canonical = append(canonical, '=')
		canonical = append(canonical, encoded...)
		canonical = append(canonical, ';')
	}

	sum := md5.Sum(canonical)
	return fmt.Sprintf("%s:%x", prefix, sum[:4])
}

// Close releases the backend connection pool.
func (m *Manager) Close() error {
	return m.client.Close()
}
