package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrRefreshFailed    = fmt.Errorf("token refresh failed")
	ErrNoRefreshToken   = fmt.Errorf("no refresh token available")
	ErrStateMismatch    = fmt.Errorf("state verification failed")
	ErrLoginCancelled   = fmt.Errorf("login cancelled by user")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// Gateway errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrRequestInFlight    = fmt.Errorf("another request is already in flight")
	ErrUserNotFound       = fmt.Errorf("user not found")

	// Subscription errors
	ErrNotSubscribed    = fmt.Errorf("no active subscription")
	ErrNoChanges        = fmt.Errorf("selection is identical to the current subscription")
	ErrInvalidSelection = fmt.Errorf("invalid language selection")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
