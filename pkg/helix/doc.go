/*
Package helix is a client for the Twitch Helix REST and EventSub APIs.

# Client and Session

The package is organized around two types:

  - Client: process-wide configuration (client identification, endpoints,
    transport) and the token grant operations that mint credentials
  - Session: the authorization and rate-limit context for one credential,
    passed into every API call

Create a Client once and authenticate to obtain Sessions:

	client := helix.NewClient(clientID, clientSecret)

	// User token via the authorization code flow
	authURL, state, _ := client.AuthorizeURL(redirectURI, scopes, "")
	// ... user visits authURL, callback delivers code ...
	session, err := client.ExchangeCode(ctx, code, redirectURI)

	// App token via client credentials
	appSession, err := client.AppAccessToken(ctx, nil)

API calls take both:

	users, err := client.GetUsers(ctx, session, helix.GetUsersParams{
		Logins: []string{"somestreamer"},
	})

# Token refresh

When a request comes back 401 and the Session holds a refresh token, the
dispatcher refreshes the token and retries the original request exactly once.
Concurrent callers hitting 401 at the same time are serialized on the
Session's refresh lock and perform a single shared refresh. Set
Client.OnTokenRefreshed to persist renewed tokens; the tokenstore package
provides a ready-made hook.

# Rate limiting

Each Session owns a token-bucket limiter that resyncs itself from the
Ratelimit-* headers of every response, so the local view converges on the
server's. Dispatches wait a bounded time for capacity and fail with a
RateLimitError instead of sending when the bucket stays empty. Endpoints
Twitch throttles globally (clip creation) share one process-wide bucket.

# Errors

Precondition failures are typed and raised before any I/O: ArgumentError for
bad parameters, StateError for an unusable Session, ScopeError for a missing
scope. Network faults surface as TransportError without retry. Non-2xx
responses are data, not errors: every typed response embeds ResponseCommon
with the HTTP status back-filled by the dispatcher, even when the body fails
to parse.
*/
package helix
