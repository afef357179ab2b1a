// Package cache implements the Redis-backed caching layer: a failure
// absorbing backend adapter, the per-resource key templates and TTL policy,
// and deterministic key derivation for parameterized lookups.
package cache
