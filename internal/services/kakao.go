// Kakao OAuth authorization-code flow, client side only.
//
// The backend exchanges the code; this client never holds the app secret.
package services

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/nullisdefined/worlds-subscription/internal/shared"
	"golang.org/x/oauth2"
)

const (
	kakaoAuthURL  = "https://kauth.kakao.com/oauth/authorize"
	kakaoTokenURL = "https://kauth.kakao.com/oauth/token"
)

// KakaoAuth builds Kakao authorization URLs and interprets redirect callbacks.
type KakaoAuth struct {
	config *oauth2.Config
}

// NewKakaoAuth creates a [KakaoAuth] for the given app key and redirect URI.
//
// The app key is the OAuth client_id. No client secret is configured because
// the code exchange happens on the backend.
func NewKakaoAuth(appKey, redirectURI string) (*KakaoAuth, error) {
	if appKey == "" {
		return nil, fmt.Errorf("%w: kakao app key is not set", shared.ErrInvalidConfig)
	}
	if redirectURI == "" {
		return nil, fmt.Errorf("%w: redirect URI is not set", shared.ErrInvalidConfig)
	}

	config := &oauth2.Config{
		ClientID:    appKey,
		RedirectURL: redirectURI,
		Endpoint: oauth2.Endpoint{
			AuthURL:  kakaoAuthURL,
			TokenURL: kakaoTokenURL,
		},
	}

	return &KakaoAuth{config: config}, nil
}

// AuthorizeURL returns the provider authorization URL for the given state nonce.
//
// The subscription flow always passes a state; a bare login may pass "".
func (k *KakaoAuth) AuthorizeURL(state string) string {
	return k.config.AuthCodeURL(state)
}

// RedirectURI returns the configured redirect URI.
func (k *KakaoAuth) RedirectURI() string {
	return k.config.RedirectURL
}

// CallbackKind discriminates the three outcomes of parsing a redirect URL.
type CallbackKind int

const (
	// NoCallback means the URL carries neither a code nor an error. Not a failure.
	NoCallback CallbackKind = iota
	// CallbackCode means the provider returned an authorization code.
	CallbackCode
	// CallbackError means the provider reported an error.
	CallbackError
)

// CallbackResult is the parsed form of a provider redirect.
type CallbackResult struct {
	Kind             CallbackKind
	Code             string
	State            string
	ErrorCode        string
	ErrorDescription string
}

// ParseCallback extracts the OAuth callback parameters from a redirect URL.
func ParseCallback(rawURL string) (*CallbackResult, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse callback URL: %w", err)
	}

	q := u.Query()
	result := &CallbackResult{State: q.Get("state")}

	if errCode := q.Get("error"); errCode != "" {
		result.Kind = CallbackError
		result.ErrorCode = errCode
		result.ErrorDescription = q.Get("error_description")
		return result, nil
	}

	if code := q.Get("code"); code != "" {
		result.Kind = CallbackCode
		result.Code = code
		return result, nil
	}

	return result, nil
}

// UserMessage maps a provider error to user-facing text.
//
// Unrecognized error codes fall back to a generic message.
func (c *CallbackResult) UserMessage() string {
	if c.Kind != CallbackError {
		return ""
	}

	switch c.ErrorCode {
	case "access_denied":
		return "Login was cancelled."
	case "invalid_request":
		return "The login request was malformed. Please try again."
	case "server_error":
		return "Kakao is having temporary trouble. Please try again shortly."
	}

	if strings.Contains(c.ErrorDescription, "Redirect URI") {
		return "The redirect URI is misconfigured. Please contact the administrator."
	}

	return "Kakao login failed. Please try again."
}

// VerifyState compares the state echoed by the provider against the stored nonce.
//
// A mismatch is a security-validation failure, distinct from provider errors.
func VerifyState(received, expected string) error {
	if received != expected {
		return fmt.Errorf("%w: state parameter does not match", shared.ErrStateMismatch)
	}
	return nil
}
