package fetch

// Origin tags how a fetch result was obtained, the cache provenance the
// HTTP surface reports alongside the data.
type Origin string

const (
	// CacheHit: served from Redis, no upstream call.
	CacheHit Origin = "cache_hit"
	// APICall: cache miss, fetched fresh from Zendesk.
	APICall Origin = "api_call"
	// APIError: Zendesk rejected the call (non-2xx).
	APIError Origin = "api_error"
	// BackendUnavailable: Redis is down; the fetch was not attempted so a
	// cold cache cannot turn into an upstream stampede.
	BackendUnavailable Origin = "backend_unavailable"
	// UnexpectedError: transport or decoding failure.
	UnexpectedError Origin = "unexpected_error"
)

// OK reports whether the origin carries usable data.
func (o Origin) OK() bool {
	return o == CacheHit || o == APICall
}
