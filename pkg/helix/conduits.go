package helix

import (
	"context"
	"net/http"
	"net/url"
)

// Conduit is one record of the conduit endpoints.
type Conduit struct {
	ID         string `json:"id"`
	ShardCount int    `json:"shard_count"`
}

// ConduitsResponse is shared by the conduit CRUD endpoints.
type ConduitsResponse struct {
	ResponseCommon
	Data []Conduit `json:"data"`
}

// GetConduits lists the conduits owned by the app. Requires an app token.
func (c *Client) GetConduits(ctx context.Context, sess *Session) (*ConduitsResponse, error) {
	if err := c.requireScopes(sess, true); err != nil {
		return nil, err
	}

	var resp ConduitsResponse
	if err := c.do(ctx, http.MethodGet, "/eventsub/conduits", sess, requestOptions{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateConduit creates a conduit with the given shard count.
func (c *Client) CreateConduit(ctx context.Context, sess *Session, shardCount int) (*ConduitsResponse, error) {
	if shardCount < 1 {
		return nil, &ArgumentError{Param: "shardCount", Reason: "must be at least 1"}
	}
	if err := c.requireScopes(sess, true); err != nil {
		return nil, err
	}

	body := map[string]int{"shard_count": shardCount}

	var resp ConduitsResponse
	if err := c.do(ctx, http.MethodPost, "/eventsub/conduits", sess, requestOptions{body: body}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateConduit resizes an existing conduit.
func (c *Client) UpdateConduit(ctx context.Context, sess *Session, conduitID string, shardCount int) (*ConduitsResponse, error) {
	if conduitID == "" {
		return nil, &ArgumentError{Param: "conduitID", Reason: "must not be blank"}
	}
	if shardCount < 1 {
		return nil, &ArgumentError{Param: "shardCount", Reason: "must be at least 1"}
	}
	if err := c.requireScopes(sess, true); err != nil {
		return nil, err
	}

	body := map[string]any{"id": conduitID, "shard_count": shardCount}

	var resp ConduitsResponse
	if err := c.do(ctx, http.MethodPatch, "/eventsub/conduits", sess, requestOptions{body: body}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteConduit deletes a conduit; its subscriptions become revoked.
func (c *Client) DeleteConduit(ctx context.Context, sess *Session, conduitID string) (*ResponseCommon, error) {
	if conduitID == "" {
		return nil, &ArgumentError{Param: "conduitID", Reason: "must not be blank"}
	}
	if err := c.requireScopes(sess, true); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("id", conduitID)

	var resp struct{ ResponseCommon }
	if err := c.do(ctx, http.MethodDelete, "/eventsub/conduits", sess, requestOptions{query: q}, &resp); err != nil {
		return nil, err
	}
	return &resp.ResponseCommon, nil
}

// ConduitShard configures delivery for one shard of a conduit.
type ConduitShard struct {
	ID        string            `json:"id"`
	Status    string            `json:"status,omitempty"`
	Transport EventSubTransport `json:"transport"`
}

// UpdateConduitShardsResponse carries the accepted shards plus any the server
// rejected.
type UpdateConduitShardsResponse struct {
	ResponseCommon
	Data   []ConduitShard `json:"data"`
	Errors []struct {
		ID      string `json:"id"`
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"errors"`
}

// UpdateConduitShards assigns transports to conduit shards.
func (c *Client) UpdateConduitShards(ctx context.Context, sess *Session, conduitID string, shards []ConduitShard) (*UpdateConduitShardsResponse, error) {
	if conduitID == "" {
		return nil, &ArgumentError{Param: "conduitID", Reason: "must not be blank"}
	}
	if len(shards) == 0 {
		return nil, &ArgumentError{Param: "shards", Reason: "must not be empty"}
	}
	if err := c.requireScopes(sess, true); err != nil {
		return nil, err
	}

	body := map[string]any{"conduit_id": conduitID, "shards": shards}

	var resp UpdateConduitShardsResponse
	if err := c.do(ctx, http.MethodPatch, "/eventsub/conduits/shards", sess, requestOptions{body: body}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
