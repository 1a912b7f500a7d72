// Package auth owns the authenticated identity and its lifecycle.
//
// The Manager is the only component that establishes, persists, and tears
// down a session. Everything else observes the session through read-only
// queries (IsAuthenticated, AuthToken, CurrentIdentity) and must never
// mutate it directly.
//
// Sessions survive process restarts through a SessionStore: the identity
// and the bearer token are written to durable local storage together and
// cleared together, never independently.
package auth
