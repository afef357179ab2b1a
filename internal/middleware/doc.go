// Package middleware holds the gin middleware: the Redis-backed webhook
// rate limiter and request-ID tagging.
package middleware
