package helix

import (
	"context"
	"net/http"
	"net/url"
)

// User is one record of the Get Users response.
type User struct {
	ID              string `json:"id"`
	Login           string `json:"login"`
	DisplayName     string `json:"display_name"`
	Type            string `json:"type"`
	BroadcasterType string `json:"broadcaster_type"`
	Description     string `json:"description"`
	ProfileImageURL string `json:"profile_image_url"`
	OfflineImageURL string `json:"offline_image_url"`
	CreatedAt       string `json:"created_at"`

	// Email is only populated when the token carries user:read:email.
	Email string `json:"email,omitempty"`
}

// GetUsersParams filters Get Users. With no filters the endpoint returns the
// user the token belongs to.
type GetUsersParams struct {
	IDs    []string
	Logins []string
}

// GetUsersResponse is the typed Get Users envelope.
type GetUsersResponse struct {
	ResponseCommon
	Data []User `json:"data"`
}

// GetUsers fetches user records by id and/or login, up to 100 combined.
func (c *Client) GetUsers(ctx context.Context, sess *Session, params GetUsersParams) (*GetUsersResponse, error) {
	if len(params.IDs)+len(params.Logins) > 100 {
		return nil, &ArgumentError{Param: "ids/logins", Reason: "at most 100 combined lookups per request"}
	}
	if err := c.requireScopes(sess, true); err != nil {
		return nil, err
	}

	q := url.Values{}
	addStrings(q, "id", params.IDs)
	addStrings(q, "login", params.Logins)

	var resp GetUsersResponse
	if err := c.do(ctx, http.MethodGet, "/users", sess, requestOptions{query: q}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
