package helix

import (
	"net/url"
	"strconv"
)

// Rate-limit header families by endpoint group. General Helix responses carry
// Ratelimit-Limit/-Remaining/-Reset; some endpoint groups use their own
// prefix.
const rateLimitHeaderPrefix = "Ratelimit-"

// requestOptions shapes a single dispatch. The zero value is a plain
// authorized GET/POST with no query, no body, and the Session's own limiter.
type requestOptions struct {
	// query parameters; keys and values are percent-encoded individually and
	// repeated values become repeated query entries.
	query url.Values

	// body is JSON-encoded when non-nil.
	body any

	// skipRefresh disables the 401-triggered refresh-and-retry. Set on the
	// retry itself and on the refresh protocol's own calls to prevent
	// refresh loops.
	skipRefresh bool

	// limiter overrides the Session limiter for endpoints throttled by a
	// shared global bucket (clip creation).
	limiter *RateLimiter

	// headerPrefix overrides the rate-limit header family for this endpoint
	// group. Empty means the general "Ratelimit-" triplet.
	headerPrefix string
}

// buildURL joins base, path and the encoded query. url.Values.Encode
// percent-encodes each key and value individually and repeats multi-valued
// keys as separate entries, so the result parses back to the same pairs.
func buildURL(base, path string, query url.Values) string {
	u := base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// addString sets a query parameter when the value is non-empty.
func addString(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}

// addStrings appends one query entry per value.
func addStrings(q url.Values, key string, values []string) {
	for _, v := range values {
		q.Add(key, v)
	}
}

// addInt sets a query parameter when the value is positive.
func addInt(q url.Values, key string, value int) {
	if value > 0 {
		q.Set(key, strconv.Itoa(value))
	}
}

// addBool sets a query parameter only when true.
func addBool(q url.Values, key string, value bool) {
	if value {
		q.Set(key, "true")
	}
}
