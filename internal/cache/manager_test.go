package cache

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskmetrics/zendesk-dashboard/internal/config"
)

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func newTestManager(t *testing.T) (*Manager, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	host, port, err := net.SplitHostPort(mr.Addr())
	require.NoError(t, err)

	cfg := config.Load()
	cfg.Redis.Host = host
	cfg.Redis.Port = port

	m := NewManager(cfg, newTestLogger())
	t.Cleanup(func() { _ = m.Close() })
	return m, mr
}

// newDisconnectedManager points at a port nothing listens on.
func newDisconnectedManager(t *testing.T) *Manager {
	t.Helper()

	cfg := config.Load()
	cfg.Redis.Host = "127.0.0.1"
	cfg.Redis.Port = "1"
	cfg.Redis.Timeout = 200 * time.Millisecond

	m := NewManager(cfg, newTestLogger())
	t.Cleanup(func() { _ = m.Close() })
	return m
}

type samplePayload struct {
	ID      int64     `json:"id"`
	Subject string    `json:"subject"`
	Created time.Time `json:"created"`
	Tags    []string  `json:"tags"`
}

func TestSetThenGetRoundTrip(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	in := samplePayload{
		ID:      42,
		Subject: "printer on fire",
		Created: time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC),
		Tags:    []string{"urgent", "hardware"},
	}

	require.True(t, m.SetSerialized(ctx, "zendesk:test:roundtrip", in, time.Minute))

	var out samplePayload
	require.True(t, m.GetDeserialized(ctx, "zendesk:test:roundtrip", &out))
	assert.Equal(t, in, out)
}

func TestGetMissingKey(t *testing.T) {
	m, _ := newTestManager(t)

	var out samplePayload
	assert.False(t, m.GetDeserialized(context.Background(), "zendesk:test:absent", &out))
	assert.Zero(t, out)
}

func TestGetCorruptPayload(t *testing.T) {
	m, mr := newTestManager(t)

	mr.Set("zendesk:test:corrupt", "{not json")

	var out samplePayload
	assert.False(t, m.GetDeserialized(context.Background(), "zendesk:test:corrupt", &out))
}

func TestDeleteClearsKey(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	require.True(t, m.SetSerialized(ctx, "zendesk:test:del", "payload", time.Minute))
	assert.True(t, m.Delete(ctx, "zendesk:test:del"))

	var out string
	assert.False(t, m.GetDeserialized(ctx, "zendesk:test:del", &out))

	// Deleting again reports that nothing was removed.
	assert.False(t, m.Delete(ctx, "zendesk:test:del"))
}

func TestEntryExpiresAfterTTL(t *testing.T) {
	m, mr := newTestManager(t)
	ctx := context.Background()

	require.True(t, m.SetSerialized(ctx, "zendesk:test:ttl", "v", 5*time.Minute))

	remaining := m.RemainingTTL(ctx, "zendesk:test:ttl")
	assert.InDelta(t, (5 * time.Minute).Seconds(), remaining.Seconds(), 1)

	mr.FastForward(5*time.Minute + time.Second)

	var out string
	assert.False(t, m.GetDeserialized(ctx, "zendesk:test:ttl", &out))
}

func TestDisconnectedSafeDefaults(t *testing.T) {
	m := newDisconnectedManager(t)
	ctx := context.Background()

	assert.False(t, m.IsConnected(ctx))

	var out samplePayload
	assert.False(t, m.GetDeserialized(ctx, "k", &out))
	assert.False(t, m.SetSerialized(ctx, "k", out, time.Minute))
	assert.False(t, m.Delete(ctx, "k"))
	assert.Equal(t, 0.0, m.HitRate(ctx))
	assert.Negative(t, m.RemainingTTL(ctx, "k"))
}

func TestGenerateKeyOrderIndependent(t *testing.T) {
	m, _ := newTestManager(t)

	a := m.GenerateKey("zendesk:dashboard:stats", map[string]any{"a": 1, "b": 2, "c": "x"})
	b := m.GenerateKey("zendesk:dashboard:stats", map[string]any{"c": "x", "b": 2, "a": 1})
	assert.Equal(t, a, b)

	// Different params must land on a different key.
	c := m.GenerateKey("zendesk:dashboard:stats", map[string]any{"a": 1, "b": 3, "c": "x"})
	assert.NotEqual(t, a, c)
}

func TestGenerateKeyNoParams(t *testing.T) {
	m, _ := newTestManager(t)

	assert.Equal(t, "zendesk:tickets:recent:10",
		m.GenerateKey("zendesk:tickets:recent:10", nil))
	assert.Equal(t, "prefix", m.GenerateKey("prefix", map[string]any{}))
}

func TestGenerateKeyFixedSuffixLength(t *testing.T) {
	m, _ := newTestManager(t)

	key := m.GenerateKey("p", map[string]any{"range": "2024-01-01:2024-03-15"})
	// prefix + ":" + 8 hex chars
	assert.Len(t, key, len("p")+1+8)
}
