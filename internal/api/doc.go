// Package api is the generic authenticated data-access client.
//
// Views and tools go through it for every REST call: it attaches the
// current bearer token when one is held, tags requests for tracing, and
// enforces the forced-teardown rule. A 401 from any endpoint means the
// token is dead everywhere, so the session is invalidated before the
// error reaches the caller.
package api
