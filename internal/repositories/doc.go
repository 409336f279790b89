// Package repositories provides the persistence layer for authentication state.
//
// [SessionRepository] owns the single durable session record. A stored record
// that fails to parse is purged and reported as absence, never as an error, so
// a corrupt local database self-heals into the anonymous state.
//
// [ScratchRepository] holds transient per-flow values that must survive the
// round trip through the OAuth provider: the pending language selection and
// the anti-forgery state nonce. Clearing the session also clears scratch.
package repositories
