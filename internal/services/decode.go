package services

import (
	"encoding/json"
)

// gatewayEnvelope is the API-gateway response shape: an HTTP-like status code
// with the real payload JSON-encoded in Body.
type gatewayEnvelope struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// decodeBody normalizes the two backend response shapes.
//
// When the body is an envelope, the embedded status code and inner payload are
// returned; otherwise the transport status and body pass through unchanged.
// A non-JSON body is returned as-is so callers can surface the raw text.
func decodeBody(status int, body []byte) (int, []byte) {
	var envelope gatewayEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.StatusCode != 0 && envelope.Body != "" {
		return envelope.StatusCode, []byte(envelope.Body)
	}
	return status, body
}

// statusPayload is the common discriminator carried by flat backend payloads.
type statusPayload struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}
