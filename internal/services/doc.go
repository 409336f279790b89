// Package services implements the client side of the word subscription backend
// and the Kakao OAuth redirect contract.
//
// # Kakao Redirect Handling
//
// [KakaoAuth] builds authorization URLs via [oauth2.Config] and parses provider
// callbacks into a [CallbackResult] tagged union: an authorization code, a
// provider error, or no callback at all. State verification is an exact string
// comparison and its failure ([shared.ErrStateMismatch]) is distinct from
// provider errors: it aborts the flow with no session created.
//
// # Backend Gateway
//
// [SubscriptionGateway] wraps every backend action as a single POST with a
// JSON body of the form {action, ...fields}. The backend answers in two
// shapes: a flat {success, ...} object or an API-gateway envelope
// {statusCode, body: "<json>"} with the real payload JSON-encoded in body.
// decodeBody unwraps the envelope in one place so callers only ever see the
// flat payload.
//
// The gateway never retries. Transport failures and backend-reported failures
// are surfaced exactly once; [Friendly] converts them to user-facing text.
// Mutating actions are guarded so only one is in flight per process.
package services
