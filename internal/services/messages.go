package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nullisdefined/worlds-subscription/internal/shared"
)

// GatewayError carries a backend-reported failure: the HTTP (or envelope)
// status and the error text the backend returned, when it returned any.
type GatewayError struct {
	Status int
	Text   string
}

func (e *GatewayError) Error() string {
	if e.Text == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.Status, e.Text)
}

// transport failure markers, matched case-insensitively against error text.
var networkMarkers = []string{
	"connection refused",
	"no such host",
	"network is unreachable",
	"connection reset",
	"client.timeout",
	"context deadline exceeded",
	"eof",
}

// Friendly converts any error from the gateway or the OAuth flow into a
// user-facing message. The flow never shows raw error text to the user.
func Friendly(err error) string {
	if err == nil {
		return ""
	}

	if errors.Is(err, shared.ErrStateMismatch) {
		return "Login security verification failed. Please start over from the beginning."
	}
	if errors.Is(err, shared.ErrRequestInFlight) {
		return "A previous request is still being processed. Please wait for it to finish."
	}
	if errors.Is(err, shared.ErrNoChanges) {
		return "Your selection matches your current subscription. Nothing to update."
	}
	if errors.Is(err, shared.ErrTimeout) {
		return "The request timed out. Please try again."
	}

	var gw *GatewayError
	if errors.As(err, &gw) {
		return friendlyBackend(gw.Text, gw.Status)
	}

	lower := strings.ToLower(err.Error())
	for _, marker := range networkMarkers {
		if strings.Contains(lower, marker) {
			return "Check your internet connection and try again."
		}
	}

	return "Processing failed. Please try again in a moment."
}

// friendlyBackend maps backend error text to a user-facing message using a
// curated substring table, falling back to the HTTP status code.
func friendlyBackend(text string, status int) string {
	lower := strings.ToLower(text)

	switch {
	case strings.Contains(lower, "token"), strings.Contains(lower, "access"):
		return "Your Kakao login has expired. Please log in again."
	case strings.Contains(lower, "duplicate"), strings.Contains(lower, "already"):
		return "You are already subscribed."
	case strings.Contains(lower, "invalid"), strings.Contains(lower, "failed"):
		return "The submitted information was not accepted. Please try again."
	}

	switch {
	case status == 400:
		return "Invalid request. Please try again."
	case status == 401:
		return "Kakao authentication failed. Please log in again."
	case status == 403:
		return "Access denied. Please try again later."
	case status == 404:
		return "User not found."
	case status >= 500:
		return "The server is having temporary trouble. Please try again shortly."
	}

	return "Processing failed. Please try again in a moment."
}
