package helix

import (
	"context"
	"net/http"
	"net/url"
)

// Valid values for the Get Videos filter enums.
var (
	videoPeriods = map[string]bool{"all": true, "day": true, "week": true, "month": true}
	videoSorts   = map[string]bool{"time": true, "trending": true, "views": true}
	videoTypes   = map[string]bool{"all": true, "upload": true, "archive": true, "highlight": true}
)

// Video is one record of the Get Videos response.
type Video struct {
	ID            string `json:"id"`
	StreamID      string `json:"stream_id"`
	UserID        string `json:"user_id"`
	UserLogin     string `json:"user_login"`
	UserName      string `json:"user_name"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	CreatedAt     string `json:"created_at"`
	PublishedAt   string `json:"published_at"`
	URL           string `json:"url"`
	ThumbnailURL  string `json:"thumbnail_url"`
	Viewable      string `json:"viewable"`
	ViewCount     int    `json:"view_count"`
	Language      string `json:"language"`
	Type          string `json:"type"`
	Duration      string `json:"duration"`
	MutedSegments []struct {
		Duration int `json:"duration"`
		Offset   int `json:"offset"`
	} `json:"muted_segments"`
}

// GetVideosParams filters Get Videos. Exactly one of IDs, UserID, or GameID
// must be set; the remaining fields only apply to UserID/GameID queries.
type GetVideosParams struct {
	IDs    []string
	UserID string
	GameID string

	Language string
	Period   string // all, day, week, month
	Sort     string // time, trending, views
	Type     string // all, upload, archive, highlight
	First    int    // page size, 1-100
	After    string
	Before   string
}

// GetVideosResponse is the typed Get Videos envelope.
type GetVideosResponse struct {
	ResponseCommon
	Data       []Video    `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// GetVideos fetches videos by id, user, or game. Mutually exclusive selectors
// are rejected before any request is sent.
func (c *Client) GetVideos(ctx context.Context, sess *Session, params GetVideosParams) (*GetVideosResponse, error) {
	if err := validateGetVideosParams(&params); err != nil {
		return nil, err
	}
	if err := c.requireScopes(sess, true); err != nil {
		return nil, err
	}

	q := url.Values{}
	addStrings(q, "id", params.IDs)
	addString(q, "user_id", params.UserID)
	addString(q, "game_id", params.GameID)
	addString(q, "language", params.Language)
	addString(q, "period", params.Period)
	addString(q, "sort", params.Sort)
	addString(q, "type", params.Type)
	addInt(q, "first", params.First)
	addString(q, "after", params.After)
	addString(q, "before", params.Before)

	var resp GetVideosResponse
	if err := c.do(ctx, http.MethodGet, "/videos", sess, requestOptions{query: q}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func validateGetVideosParams(params *GetVideosParams) error {
	selectors := 0
	if len(params.IDs) > 0 {
		selectors++
	}
	if params.UserID != "" {
		selectors++
	}
	if params.GameID != "" {
		selectors++
	}
	if selectors == 0 {
		return &ArgumentError{Param: "ids/userID/gameID", Reason: "one selector is required"}
	}
	if selectors > 1 {
		return &ArgumentError{Param: "ids/userID/gameID", Reason: "selectors are mutually exclusive"}
	}

	if len(params.IDs) > 100 {
		return &ArgumentError{Param: "ids", Reason: "at most 100 ids per request"}
	}
	if params.Period != "" && !videoPeriods[params.Period] {
		return &ArgumentError{Param: "period", Reason: "must be one of all, day, week, month"}
	}
	if params.Sort != "" && !videoSorts[params.Sort] {
		return &ArgumentError{Param: "sort", Reason: "must be one of time, trending, views"}
	}
	if params.Type != "" && !videoTypes[params.Type] {
		return &ArgumentError{Param: "type", Reason: "must be one of all, upload, archive, highlight"}
	}
	if params.First < 0 || params.First > 100 {
		return &ArgumentError{Param: "first", Reason: "must be between 1 and 100"}
	}
	return nil
}
