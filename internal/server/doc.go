// Package server runs the temporary loopback HTTP server that receives the
// Kakao OAuth redirect.
//
// When the user runs the login or subscribe flow, a server starts on the
// configured host/port, serves exactly one callback, and shuts down. The
// [CallbackHandler] parses the redirect into a [services.CallbackResult] and
// forwards it through a channel; it does not exchange the authorization code
// itself, since the backend owns the exchange and the app secret.
//
// A replayed or duplicate callback is rejected, which stands in for the web
// client's habit of stripping query parameters after processing so a refresh
// cannot re-trigger the flow.
package server
