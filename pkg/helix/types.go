package helix

// ============================================================================
// Response envelope
// ============================================================================

// ResponseCommon is embedded in every typed response. The dispatcher merges
// the transport status into it: Twitch error bodies carry their own "status"
// field, and when the body omits it (or fails to parse at all) the HTTP
// status code is back-filled, so callers can always inspect StatusCode.
type ResponseCommon struct {
	// StatusCode is the HTTP status of the response
	StatusCode int `json:"status"`

	// ErrorName is the short error name for non-2xx responses (e.g.
	// "Unauthorized")
	ErrorName string `json:"error"`

	// ErrorMessage is the server's description for non-2xx responses
	ErrorMessage string `json:"message"`
}

// backfillStatus records the transport status unless the decoded body already
// carried one.
func (rc *ResponseCommon) backfillStatus(code int) {
	if rc.StatusCode == 0 {
		rc.StatusCode = code
	}
}

// Ok reports whether the response carries a 2xx status.
func (rc *ResponseCommon) Ok() bool {
	return rc.StatusCode >= 200 && rc.StatusCode < 300
}

// AsError converts a non-2xx envelope into a typed APIError, or nil for
// success responses. The dispatcher itself never raises this; surfacing
// non-2xx statuses is the caller's retry-policy decision.
func (rc *ResponseCommon) AsError() *APIError {
	if rc.Ok() {
		return nil
	}
	return &APIError{
		StatusCode: rc.StatusCode,
		Code:       rc.ErrorName,
		Message:    rc.ErrorMessage,
	}
}

// statusBackfiller is implemented by every response embedding ResponseCommon.
type statusBackfiller interface {
	backfillStatus(code int)
}

// Pagination is the Helix cursor envelope shared by list endpoints.
type Pagination struct {
	Cursor string `json:"cursor"`
}
