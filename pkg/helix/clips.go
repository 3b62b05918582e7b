package helix

import (
	"context"
	"net/http"
	"net/url"
)

// CreatedClip is one record of the Create Clip response.
type CreatedClip struct {
	ID      string `json:"id"`
	EditURL string `json:"edit_url"`
}

// CreateClipResponse is the typed Create Clip envelope.
type CreateClipResponse struct {
	ResponseCommon
	Data []CreatedClip `json:"data"`
}

// CreateClip captures a clip from the broadcaster's live stream. Requires the
// clips:edit scope. Clip creation is throttled by the process-wide shared
// limiter rather than the Session's own bucket.
func (c *Client) CreateClip(ctx context.Context, sess *Session, broadcasterID string, hasDelay bool) (*CreateClipResponse, error) {
	if broadcasterID == "" {
		return nil, &ArgumentError{Param: "broadcasterID", Reason: "must not be blank"}
	}
	if err := c.requireScopes(sess, false, ScopeClipsEdit); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("broadcaster_id", broadcasterID)
	addBool(q, "has_delay", hasDelay)

	opts := requestOptions{query: q, limiter: clipLimiter}

	var resp CreateClipResponse
	if err := c.do(ctx, http.MethodPost, "/clips", sess, opts, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Clip is one record of the Get Clips response.
type Clip struct {
	ID              string  `json:"id"`
	URL             string  `json:"url"`
	EmbedURL        string  `json:"embed_url"`
	BroadcasterID   string  `json:"broadcaster_id"`
	BroadcasterName string  `json:"broadcaster_name"`
	CreatorID       string  `json:"creator_id"`
	CreatorName     string  `json:"creator_name"`
	VideoID         string  `json:"video_id"`
	GameID          string  `json:"game_id"`
	Language        string  `json:"language"`
	Title           string  `json:"title"`
	ViewCount       int     `json:"view_count"`
	CreatedAt       string  `json:"created_at"`
	ThumbnailURL    string  `json:"thumbnail_url"`
	Duration        float64 `json:"duration"`
	VODOffset       int     `json:"vod_offset"`
	IsFeatured      bool    `json:"is_featured"`
}

// GetClipsParams filters Get Clips. Exactly one of IDs, BroadcasterID, or
// GameID must be set.
type GetClipsParams struct {
	IDs           []string
	BroadcasterID string
	GameID        string

	StartedAt  string // RFC3339
	EndedAt    string // RFC3339
	First      int
	After      string
	Before     string
	IsFeatured bool
}

// GetClipsResponse is the typed Get Clips envelope.
type GetClipsResponse struct {
	ResponseCommon
	Data       []Clip     `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// GetClips fetches clips by id, broadcaster, or game.
func (c *Client) GetClips(ctx context.Context, sess *Session, params GetClipsParams) (*GetClipsResponse, error) {
	selectors := 0
	if len(params.IDs) > 0 {
		selectors++
	}
	if params.BroadcasterID != "" {
		selectors++
	}
	if params.GameID != "" {
		selectors++
	}
	if selectors != 1 {
		return nil, &ArgumentError{Param: "ids/broadcasterID/gameID", Reason: "exactly one selector is required"}
	}
	if err := c.requireScopes(sess, true); err != nil {
		return nil, err
	}

	q := url.Values{}
	addStrings(q, "id", params.IDs)
	addString(q, "broadcaster_id", params.BroadcasterID)
	addString(q, "game_id", params.GameID)
	addString(q, "started_at", params.StartedAt)
	addString(q, "ended_at", params.EndedAt)
	addInt(q, "first", params.First)
	addString(q, "after", params.After)
	addString(q, "before", params.Before)
	addBool(q, "is_featured", params.IsFeatured)

	var resp GetClipsResponse
	if err := c.do(ctx, http.MethodGet, "/clips", sess, requestOptions{query: q}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
