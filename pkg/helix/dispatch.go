package helix

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/oklog/ulid/v2"

	"github.com/aussiebroadwan/twitchkit/pkg/slogx"
)

// do is the request dispatch core. One logical call moves through
// Pending -> Sent -> {Success | NeedsRefresh -> Refreshing -> Retried ->
// {Success|Failure} | TransportError | RateLimited}:
//
//  1. acquire rate-limit capacity (bounded wait; RateLimitError on expiry),
//  2. send with bearer auth and client identification attached,
//  3. resync the limiter from response headers,
//  4. on 401, coordinate a single refresh across concurrent callers and
//     retry the original request exactly once with skipRefresh set,
//  5. decode the body into out, normalizing the embedded status code.
//
// Transport faults are returned as TransportError without retry; every other
// non-2xx status is handed back as data inside the decoded envelope.
func (c *Client) do(ctx context.Context, method, path string, sess *Session, opts requestOptions, out any) error {
	reqID := ulid.Make().String()
	log := slogx.FromContext(ctx)
	if log == nil {
		log = c.logger()
	}
	log = log.With("req_id", reqID, "method", method, "path", path)

	limiter := opts.limiter
	if limiter == nil {
		limiter = sess.Limiter()
	}

	if err := c.waitForCapacity(ctx, limiter); err != nil {
		log.Warn("rate limit capacity not acquired", "error", err)
		return err
	}

	prefix := opts.headerPrefix
	if prefix == "" {
		prefix = rateLimitHeaderPrefix
	}

	// Capture the token before sending; the refresh double-check compares
	// against this value to detect a refresh that raced ahead of us.
	token := sess.AccessToken()

	status, header, body, err := c.send(ctx, method, path, token, opts, reqID)
	if err != nil {
		return err
	}
	if limit, remaining, resetAt, ok := parseRateLimitHeaders(header, prefix); ok {
		limiter.Resync(limit, remaining, resetAt)
	}

	if status == http.StatusUnauthorized && !opts.skipRefresh && sess.RefreshToken() != "" {
		refreshed, err := c.refreshForRetry(ctx, sess, token)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			// Persistent auth failure is the caller's to inspect: hand back
			// the original 401 envelope rather than masking it.
			log.Warn("token refresh failed, returning original response", "error", err)
			return decodeEnvelope(body, status, out)
		}
		if refreshed {
			log.Debug("token refreshed, retrying request")
		} else {
			log.Debug("token already refreshed by concurrent caller, retrying request")
		}

		opts.skipRefresh = true
		if err := c.waitForCapacity(ctx, limiter); err != nil {
			return err
		}
		status, header, body, err = c.send(ctx, method, path, sess.AccessToken(), opts, reqID)
		if err != nil {
			return err
		}
		if limit, remaining, resetAt, ok := parseRateLimitHeaders(header, prefix); ok {
			limiter.Resync(limit, remaining, resetAt)
		}
	}

	if status >= 400 {
		log.Debug("request completed with error status", "status", status)
	}
	return decodeEnvelope(body, status, out)
}

// waitForCapacity waits for one rate-limit credit inside the configured
// bound. A wait that expires on its own deadline (rather than the caller's
// context) becomes a RateLimitError; the request is never sent.
func (c *Client) waitForCapacity(ctx context.Context, limiter *RateLimiter) error {
	wait := c.rateLimitWait()
	waitCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	err := limiter.Wait(waitCtx, 1)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &RateLimitError{Wait: wait}
	}
	return err
}

// send performs one HTTP round-trip with auth and identification headers
// attached. Any network-level fault comes back as a TransportError.
func (c *Client) send(ctx context.Context, method, path, token string, opts requestOptions, reqID string) (int, http.Header, []byte, error) {
	urlStr := buildURL(c.apiBaseURL(), path, opts.query)

	var bodyReader io.Reader
	if opts.body != nil {
		encoded, err := json.Marshal(opts.body)
		if err != nil {
			return 0, nil, nil, fmt.Errorf("helix: failed to encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, urlStr, bodyReader)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("helix: failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Client-Id", c.ClientID)
	req.Header.Set("Client-Request-Id", reqID)
	if opts.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return 0, nil, nil, &TransportError{Op: method, URL: urlStr, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, nil, &TransportError{Op: method, URL: urlStr, Err: err}
	}

	return resp.StatusCode, resp.Header, body, nil
}

// refreshForRetry coordinates the single refresh behind a 401. All concurrent
// callers that hit 401 during the window block on the Session's refresh lock;
// whoever wins re-checks whether the token already changed while it waited
// (classic double-checked locking) and only refreshes if it is still the one
// that triggered the 401. Reports whether this caller performed the refresh.
func (c *Client) refreshForRetry(ctx context.Context, sess *Session, staleToken string) (bool, error) {
	if err := sess.acquireRefreshLock(ctx); err != nil {
		return false, err
	}
	defer sess.releaseRefreshLock()

	if sess.AccessToken() != staleToken {
		// A concurrent caller refreshed while we waited for the lock; the
		// current token is at least as fresh as the one that 401'd.
		return false, nil
	}

	token, err := c.refreshGrant(ctx, sess.RefreshToken())
	if err != nil {
		return false, err
	}

	sess.SetTokenState(token)
	c.notifyTokenRefreshed(ctx, sess, *token)
	return true, nil
}

// decodeEnvelope parses the response body into the caller's typed shape and
// normalizes the embedded status code. A body that is empty or fails to parse
// produces a status-only envelope instead of an error, so callers can always
// inspect a status.
func decodeEnvelope(body []byte, status int, out any) error {
	if out == nil {
		return nil
	}

	if len(bytes.TrimSpace(body)) > 0 {
		// Parse failures intentionally fall through to the synthetic
		// status-only envelope.
		_ = json.Unmarshal(body, out)
	}

	if bf, ok := out.(statusBackfiller); ok {
		bf.backfillStatus(status)
	}
	return nil
}
