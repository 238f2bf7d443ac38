// Package session identifies browser sessions and keeps per-session state
// in memory.
//
// Middleware issues a random session ID in a cookie and exposes it through
// the request context:
//
//	h = session.Middleware(session.DefaultCookieConfig())(h)
//	...
//	id := session.ID(r.Context())
//
// Manager is a bounded, least-recently-used set of session values keyed by
// that ID. Evicted sessions are handed to a callback so their resources
// can be released.
package session
