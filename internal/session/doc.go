// Package session owns the client's authentication state and its
// reconciliation against the backend.
//
// [Manager] drives the lifecycle: restore a persisted session, validate it,
// refresh tokens inside the refresh window, reconcile cached profile data
// against the remote subscription record, and complete OAuth callbacks into
// new sessions. The durable store is read once per run and cached in memory;
// every mutation is written through.
//
// [Reconcile] is the view reconciler: given the current session it picks
// exactly one of the three mutually exclusive view modes (anonymous,
// authenticated-unsubscribed, authenticated-subscribed) that the CLI and the
// wizard TUI render from. The decision is driven by data, not scattered
// across handlers.
package session
