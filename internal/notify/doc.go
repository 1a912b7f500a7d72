// Package notify streams server-pushed notifications over a websocket.
//
// The stream authenticates with the session's bearer token and follows
// the same forced-teardown rule as the REST client: a rejected handshake
// invalidates the session. Read-only notification queries (lists, counts)
// go through the generic REST client instead; this package only carries
// the live feed.
package notify
