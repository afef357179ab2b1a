package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration, loaded once in main and injected
// into every component that needs it.
type Config struct {
	Server    ServerConfig
	Zendesk   ZendeskConfig
	Redis     RedisConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Display   DisplayConfig
	LogLevel  string
}

type ServerConfig struct {
	Host         string
	Port         string
	Mode         string // "debug" or "release"
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// ZendeskConfig carries the upstream API credentials. None of these have a
// usable default: when any of them is missing the app still starts and the
// routes render an "Incomplete" configuration status instead of failing.
type ZendeskConfig struct {
	Subdomain     string // base domain, e.g. "example.zendesk.com"
	User          string // agent email; auth user becomes "<email>/token"
	APIKey        string
	LookupTimeout time.Duration // single-entity lookups (comments, users)
	SearchTimeout time.Duration // bulk ticket list / search calls
}

// Configured reports whether all required Zendesk credentials are present.
func (z ZendeskConfig) Configured() bool {
	return z.Subdomain != "" && z.User != "" && z.APIKey != ""
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	PoolSize int
	Timeout  time.Duration
}

func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

// CacheConfig holds the per-resource TTLs and the knobs of the read-through
// layer. Defaults match the values the system has always shipped with.
type CacheConfig struct {
	RecentTicketsTTL  time.Duration
	TicketCommentsTTL time.Duration
	UserBatchTTL      time.Duration
	DashboardStatsTTL time.Duration
	RecentCount       int // tickets shown on the index page
	SearchChunkDays   int // date-range chunk size for the search API
}

type RateLimitConfig struct {
	WebhookCeiling int           // events allowed per identity per window
	WebhookWindow  time.Duration // counter TTL
	APICeiling     int
	APIWindow      time.Duration
}

// DisplayConfig controls how tickets are formatted for rendering.
type DisplayConfig struct {
	SubjectMaxLen     int
	DescriptionMaxLen int
	TimezoneOffsetH   int    // hours east of UTC
	TimezoneLabel     string // suffix appended to formatted timestamps
}

// Load builds a Config from the environment. Credentials are read through
// getSecret so a Docker secret file takes precedence over the plain env var.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnv("PORT", "5000"),
			Mode:         getEnv("GIN_MODE", "release"),
			ReadTimeout:  getDurationEnv("READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getDurationEnv("WRITE_TIMEOUT", 60*time.Second),
			IdleTimeout:  getDurationEnv("IDLE_TIMEOUT", 120*time.Second),
		},
		Zendesk: ZendeskConfig{
			Subdomain:     normalizeBaseDomain(getSecret("SUBDOMAIN")),
			User:          getSecret("ZENDESK_USER"),
			APIKey:        getSecret("ZENDESK_API_KEY"),
			LookupTimeout: getDurationEnv("ZENDESK_LOOKUP_TIMEOUT", 5*time.Second),
			SearchTimeout: getDurationEnv("ZENDESK_SEARCH_TIMEOUT", 30*time.Second),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getSecret("REDIS_PASSWORD"),
			DB:       getIntEnv("REDIS_DB", 0),
			PoolSize: getIntEnv("REDIS_POOL_SIZE", 20),
			Timeout:  getDurationEnv("REDIS_TIMEOUT", 5*time.Second),
		},
		Cache: CacheConfig{
			RecentTicketsTTL:  getDurationEnv("CACHE_RECENT_TICKETS_TTL", 300*time.Second),
			TicketCommentsTTL: getDurationEnv("CACHE_TICKET_COMMENTS_TTL", 1800*time.Second),
			UserBatchTTL:      getDurationEnv("CACHE_USER_BATCH_TTL", 86400*time.Second),
			DashboardStatsTTL: getDurationEnv("CACHE_DASHBOARD_STATS_TTL", 600*time.Second),
			RecentCount:       getIntEnv("RECENT_TICKET_COUNT", 10),
			SearchChunkDays:   getIntEnv("SEARCH_CHUNK_DAYS", 59),
		},
		RateLimit: RateLimitConfig{
			WebhookCeiling: getIntEnv("WEBHOOK_RATE_CEILING", 30),
			WebhookWindow:  getDurationEnv("WEBHOOK_RATE_WINDOW", 60*time.Second),
			APICeiling:     getIntEnv("API_RATE_CEILING", 700),
			APIWindow:      getDurationEnv("API_RATE_WINDOW", time.Hour),
		},
		Display: DisplayConfig{
			SubjectMaxLen:     getIntEnv("DISPLAY_SUBJECT_MAX", 80),
			DescriptionMaxLen: getIntEnv("DISPLAY_DESCRIPTION_MAX", 150),
			TimezoneOffsetH:   getIntEnv("DISPLAY_TZ_OFFSET_HOURS", -4),
			TimezoneLabel:     getEnv("DISPLAY_TZ_LABEL", "EST"),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// normalizeBaseDomain accepts either "sub.zendesk.com" or a full
// "https://sub.zendesk.com" and returns the bare host.
func normalizeBaseDomain(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	return strings.TrimSuffix(s, "/")
}

// secretsDir is where Docker mounts secret files inside the container.
var secretsDir = "/run/secrets"

// getSecret reads a credential from the Docker secrets mount when present,
// falling back to the environment variable of the same name. Secret files
// written on Windows may carry a BOM; strip it along with whitespace.
func getSecret(name string) string {
	if data, err := os.ReadFile(secretsDir + "/" + name); err == nil {
		return strings.TrimSpace(strings.TrimPrefix(string(data), "\ufeff"))
	}
	return os.Getenv(name)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		// Bare integers are treated as seconds, matching the historic
		// TTL configuration format.
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}
