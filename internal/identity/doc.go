// Package identity is the HTTP client for the remote identity service.
//
// It is the single real implementation of auth.IdentityService: it speaks
// the service's wire contract (POST /login, /register, /logout, GET /me)
// and translates raw user payloads, including the backend's integer role
// codes, into auth.Identity values. The identitytest subpackage provides
// an in-process fake of the same contract for tests.
package identity
