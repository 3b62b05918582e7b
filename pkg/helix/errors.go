package helix

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ============================================================================
// Precondition errors (raised before any network I/O)
// ============================================================================

// ArgumentError reports a missing, blank, or out-of-range request parameter.
// It is always raised before a request is sent.
type ArgumentError struct {
	// Param is the name of the offending parameter
	Param string

	// Reason describes why the parameter was rejected
	Reason string
}

// Error implements the error interface.
func (e *ArgumentError) Error() string {
	return fmt.Sprintf("helix: invalid argument %q: %s", e.Param, e.Reason)
}

// StateError reports that a Session is not in a usable state for the
// requested operation (e.g. no access token, no refresh token).
type StateError struct {
	// Reason describes the invalid state
	Reason string
}

// Error implements the error interface.
func (e *StateError) Error() string {
	return "helix: " + e.Reason
}

var (
	// ErrMissingToken is returned when an authorized call is attempted on a
	// Session that has no access token.
	ErrMissingToken = &StateError{Reason: "session has no access token"}

	// ErrMissingRefreshToken is returned when a refresh is attempted but the
	// Session holds no refresh token.
	ErrMissingRefreshToken = &StateError{Reason: "session has no refresh token"}

	// ErrSessionClosed is returned when an operation is attempted on a
	// Session after Close.
	ErrSessionClosed = &StateError{Reason: "session is closed"}
)

// ScopeError reports that the Session's token lacks a required authorization
// scope. Missing carries the scopes that would have satisfied the check.
type ScopeError struct {
	Missing []Scope
}

// Error implements the error interface.
func (e *ScopeError) Error() string {
	parts := make([]string, len(e.Missing))
	for i, s := range e.Missing {
		parts[i] = string(s)
	}
	return "helix: token is missing required scope(s): " + strings.Join(parts, ", ")
}

// ============================================================================
// Runtime errors
// ============================================================================

// RateLimitError is returned when rate-limit capacity could not be acquired
// before the bounded wait elapsed. The request was never sent.
type RateLimitError struct {
	// Wait is how long the dispatcher was willing to wait for capacity
	Wait time.Duration
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	return fmt.Sprintf("helix: rate limit capacity not available within %s", e.Wait)
}

// TransportError wraps a network-level fault (DNS, connection reset, timeout).
// The dispatcher never retries these; idempotent retries are the caller's call.
type TransportError struct {
	Op  string
	URL string
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("helix: %s %s: %v", e.Op, e.URL, e.Err)
}

// Unwrap exposes the underlying network error for errors.Is/As.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// ============================================================================
// APIError - decoded Twitch error envelope
// ============================================================================

// APIError represents a decoded Twitch error response body, e.g.
// {"error": "Unauthorized", "status": 401, "message": "Invalid OAuth token"}.
// Endpoint responses surface non-2xx statuses as data; APIError is used where
// a call cannot produce a typed envelope at all (token grants, revocation).
type APIError struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int `json:"status"`

	// Code is the short error name (e.g. "Unauthorized", "Bad Request")
	Code string `json:"error"`

	// Message is a human-readable description of the error
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("helix: API error %d %s", e.StatusCode, e.Code)
	}
	return fmt.Sprintf("helix: API error %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// parseAPIError builds an APIError from an error response body, falling back
// to the transport status when the body cannot be parsed.
func parseAPIError(statusCode int, body []byte) *APIError {
	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && (apiErr.Code != "" || apiErr.Message != "") {
		if apiErr.StatusCode == 0 {
			apiErr.StatusCode = statusCode
		}
		return &apiErr
	}

	return &APIError{
		StatusCode: statusCode,
		Code:       http.StatusText(statusCode),
	}
}
