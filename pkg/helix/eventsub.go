package helix

import (
	"context"
	"net/http"
	"net/url"
)

// EventSubTransport describes where EventSub notifications are delivered.
// Method is one of "webhook", "websocket", or "conduit"; the matching fields
// accompany it.
type EventSubTransport struct {
	Method    string `json:"method"`
	Callback  string `json:"callback,omitempty"`
	Secret    string `json:"secret,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	ConduitID string `json:"conduit_id,omitempty"`
}

// EventSubSubscription is one record of the subscription endpoints.
type EventSubSubscription struct {
	ID        string            `json:"id"`
	Status    string            `json:"status"`
	Type      string            `json:"type"`
	Version   string            `json:"version"`
	Condition map[string]string `json:"condition"`
	Transport EventSubTransport `json:"transport"`
	CreatedAt string            `json:"created_at"`
	Cost      int               `json:"cost"`
}

// CreateEventSubSubscriptionParams is the Create EventSub Subscription body.
type CreateEventSubSubscriptionParams struct {
	Type      string            `json:"type"`
	Version   string            `json:"version"`
	Condition map[string]string `json:"condition"`
	Transport EventSubTransport `json:"transport"`
}

// EventSubSubscriptionsResponse is shared by the subscription CRUD endpoints.
type EventSubSubscriptionsResponse struct {
	ResponseCommon
	Data         []EventSubSubscription `json:"data"`
	Total        int                    `json:"total"`
	TotalCost    int                    `json:"total_cost"`
	MaxTotalCost int                    `json:"max_total_cost"`
	Pagination   Pagination             `json:"pagination"`
}

// CreateEventSubSubscription registers an EventSub subscription. Webhook and
// conduit transports require an app token; websocket transports a user token.
func (c *Client) CreateEventSubSubscription(ctx context.Context, sess *Session, params CreateEventSubSubscriptionParams) (*EventSubSubscriptionsResponse, error) {
	if params.Type == "" {
		return nil, &ArgumentError{Param: "type", Reason: "must not be blank"}
	}
	if params.Version == "" {
		return nil, &ArgumentError{Param: "version", Reason: "must not be blank"}
	}
	if params.Transport.Method == "" {
		return nil, &ArgumentError{Param: "transport.method", Reason: "must not be blank"}
	}
	if err := c.requireScopes(sess, true); err != nil {
		return nil, err
	}

	var resp EventSubSubscriptionsResponse
	if err := c.do(ctx, http.MethodPost, "/eventsub/subscriptions", sess, requestOptions{body: params}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetEventSubSubscriptionsParams filters Get EventSub Subscriptions. The
// filters are mutually exclusive per the API.
type GetEventSubSubscriptionsParams struct {
	Status string
	Type   string
	UserID string
	After  string
}

// GetEventSubSubscriptions lists the app's EventSub subscriptions.
func (c *Client) GetEventSubSubscriptions(ctx context.Context, sess *Session, params GetEventSubSubscriptionsParams) (*EventSubSubscriptionsResponse, error) {
	selectors := 0
	for _, v := range []string{params.Status, params.Type, params.UserID} {
		if v != "" {
			selectors++
		}
	}
	if selectors > 1 {
		return nil, &ArgumentError{Param: "status/type/userID", Reason: "filters are mutually exclusive"}
	}
	if err := c.requireScopes(sess, true); err != nil {
		return nil, err
	}

	q := url.Values{}
	addString(q, "status", params.Status)
	addString(q, "type", params.Type)
	addString(q, "user_id", params.UserID)
	addString(q, "after", params.After)

	var resp EventSubSubscriptionsResponse
	if err := c.do(ctx, http.MethodGet, "/eventsub/subscriptions", sess, requestOptions{query: q}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteEventSubSubscription removes a subscription by id. Success is a 204
// status in the returned envelope.
func (c *Client) DeleteEventSubSubscription(ctx context.Context, sess *Session, id string) (*ResponseCommon, error) {
	if id == "" {
		return nil, &ArgumentError{Param: "id", Reason: "must not be blank"}
	}
	if err := c.requireScopes(sess, true); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("id", id)

	var resp struct{ ResponseCommon }
	if err := c.do(ctx, http.MethodDelete, "/eventsub/subscriptions", sess, requestOptions{query: q}, &resp); err != nil {
		return nil, err
	}
	return &resp.ResponseCommon, nil
}
