package helix

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateEventSubSubscription(t *testing.T) {
	t.Parallel()

	var gotBody CreateEventSubSubscriptionParams
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/eventsub/subscriptions", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{
			"data": [{
				"id": "sub-1",
				"status": "webhook_callback_verification_pending",
				"type": "stream.online",
				"version": "1",
				"cost": 1
			}],
			"total": 1, "total_cost": 1, "max_total_cost": 10000
		}`))
	}))
	defer api.Close()

	client := newTestClient(api.URL, "http://unused.invalid")
	sess := NewSession(&TokenState{AccessToken: "app-token"})

	resp, err := client.CreateEventSubSubscription(context.Background(), sess, CreateEventSubSubscriptionParams{
		Type:      "stream.online",
		Version:   "1",
		Condition: map[string]string{"broadcaster_user_id": "42"},
		Transport: EventSubTransport{Method: "conduit", ConduitID: "conduit-1"},
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "sub-1", resp.Data[0].ID)
	assert.Equal(t, 1, resp.TotalCost)

	assert.Equal(t, "stream.online", gotBody.Type)
	assert.Equal(t, "conduit", gotBody.Transport.Method)
	assert.Equal(t, "conduit-1", gotBody.Transport.ConduitID)
	assert.Equal(t, "42", gotBody.Condition["broadcaster_user_id"])
}

func TestCreateEventSubSubscriptionValidation(t *testing.T) {
	t.Parallel()

	client := NewClient("client-id", "secret")
	sess := NewSession(&TokenState{AccessToken: "abc"})

	cases := []struct {
		name   string
		params CreateEventSubSubscriptionParams
	}{
		{"missing type", CreateEventSubSubscriptionParams{Version: "1", Transport: EventSubTransport{Method: "webhook"}}},
		{"missing version", CreateEventSubSubscriptionParams{Type: "stream.online", Transport: EventSubTransport{Method: "webhook"}}},
		{"missing transport method", CreateEventSubSubscriptionParams{Type: "stream.online", Version: "1"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := client.CreateEventSubSubscription(context.Background(), sess, tc.params)

			var argErr *ArgumentError
			require.ErrorAs(t, err, &argErr)
		})
	}
}

func TestGetEventSubSubscriptionsFiltersAreExclusive(t *testing.T) {
	t.Parallel()

	client := NewClient("client-id", "secret")
	sess := NewSession(&TokenState{AccessToken: "abc"})

	_, err := client.GetEventSubSubscriptions(context.Background(), sess, GetEventSubSubscriptionsParams{
		Status: "enabled",
		Type:   "stream.online",
	})

	var argErr *ArgumentError
	require.ErrorAs(t, err, &argErr)
}

func TestDeleteEventSubSubscription(t *testing.T) {
	t.Parallel()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "sub-1", r.URL.Query().Get("id"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer api.Close()

	client := newTestClient(api.URL, "http://unused.invalid")
	sess := NewSession(&TokenState{AccessToken: "app-token"})

	resp, err := client.DeleteEventSubSubscription(context.Background(), sess, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.True(t, resp.Ok())
}

func TestUpdateConduitShards(t *testing.T) {
	t.Parallel()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/eventsub/conduits/shards", r.URL.Path)

		var body struct {
			ConduitID string         `json:"conduit_id"`
			Shards    []ConduitShard `json:"shards"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "conduit-1", body.ConduitID)
		require.Len(t, body.Shards, 2)

		_, _ = w.Write([]byte(`{
			"data": [{"id": "0", "status": "enabled"}],
			"errors": [{"id": "1", "message": "invalid callback", "code": "invalid_parameter"}]
		}`))
	}))
	defer api.Close()

	client := newTestClient(api.URL, "http://unused.invalid")
	sess := NewSession(&TokenState{AccessToken: "app-token"})

	resp, err := client.UpdateConduitShards(context.Background(), sess, "conduit-1", []ConduitShard{
		{ID: "0", Transport: EventSubTransport{Method: "webhook", Callback: "https://example.com/hook", Secret: "s3cret"}},
		{ID: "1", Transport: EventSubTransport{Method: "webhook", Callback: "not-a-url"}},
	})
	require.NoError(t, err)

	require.Len(t, resp.Data, 1)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "invalid_parameter", resp.Errors[0].Code)
}

func TestConduitLifecycle(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/eventsub/conduits", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			var body map[string]int
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Equal(t, 5, body["shard_count"])
			_, _ = w.Write([]byte(`{"data":[{"id":"conduit-1","shard_count":5}]}`))
		case http.MethodPatch:
			_, _ = w.Write([]byte(`{"data":[{"id":"conduit-1","shard_count":10}]}`))
		case http.MethodDelete:
			require.Equal(t, "conduit-1", r.URL.Query().Get("id"))
			w.WriteHeader(http.StatusNoContent)
		case http.MethodGet:
			_, _ = w.Write([]byte(`{"data":[{"id":"conduit-1","shard_count":5}]}`))
		}
	})
	api := httptest.NewServer(mux)
	defer api.Close()

	client := newTestClient(api.URL, "http://unused.invalid")
	sess := NewSession(&TokenState{AccessToken: "app-token"})
	ctx := context.Background()

	created, err := client.CreateConduit(ctx, sess, 5)
	require.NoError(t, err)
	require.Len(t, created.Data, 1)
	assert.Equal(t, "conduit-1", created.Data[0].ID)

	listed, err := client.GetConduits(ctx, sess)
	require.NoError(t, err)
	require.Len(t, listed.Data, 1)

	updated, err := client.UpdateConduit(ctx, sess, "conduit-1", 10)
	require.NoError(t, err)
	assert.Equal(t, 10, updated.Data[0].ShardCount)

	deleted, err := client.DeleteConduit(ctx, sess, "conduit-1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, deleted.StatusCode)
}
