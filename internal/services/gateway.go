// HTTP client for the subscription backend (API-gateway + Lambda style).
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/nullisdefined/worlds-subscription/internal/models"
	"github.com/nullisdefined/worlds-subscription/internal/shared"
	"golang.org/x/time/rate"
)

// Gateway defines the backend actions the client depends on.
//
// Implemented by [SubscriptionGateway]; tests substitute a mock.
type Gateway interface {
	Login(ctx context.Context, code, redirectURI string) (*LoginPayload, error)
	CheckSession(ctx context.Context, accessToken string) (*LoginPayload, error)
	Refresh(ctx context.Context, refreshToken string) (*LoginPayload, error)
	Logout(ctx context.Context, accessToken string) error

	Subscribe(ctx context.Context, req SubscribeRequest) (*SubscriptionPayload, error)
	UpdateSubscription(ctx context.Context, userID int64, languages []models.Language) error
	Unsubscribe(ctx context.Context, userID int64) error
	GetSubscription(ctx context.Context, userID int64) (*SubscriptionPayload, error)
	UpdateTimezone(ctx context.Context, userID int64, timezone string) error
	UpdateDifficulty(ctx context.Context, userID int64, difficulty models.Difficulty) error
	DeleteAccount(ctx context.Context, userID int64) error

	UserProfile(ctx context.Context, userID int64) (*SubscriptionPayload, error)
}

// SubscribeRequest carries the accumulated wizard selections for a new subscription.
type SubscribeRequest struct {
	UserID     int64
	Languages  []models.Language
	Timezone   string
	Difficulty models.Difficulty
}

// LoginPayload is the flat response shape of the /login endpoint family.
type LoginPayload struct {
	Success            bool     `json:"success"`
	Error              string   `json:"error,omitempty"`
	AccessToken        string   `json:"access_token,omitempty"`
	RefreshToken       string   `json:"refresh_token,omitempty"`
	ExpiresIn          int64    `json:"expires_in,omitempty"`
	UserID             int64    `json:"user_id,omitempty"`
	Nickname           string   `json:"nickname,omitempty"`
	Email              string   `json:"email,omitempty"`
	ProfileImage       string   `json:"profile_image,omitempty"`
	IsSubscribed       bool     `json:"is_subscribed,omitempty"`
	SelectedLanguages  []string `json:"selected_languages,omitempty"`
	SubscriptionStatus string   `json:"subscription_status,omitempty"`
	SubscriptionDate   string   `json:"subscription_date,omitempty"`
	Timezone           string   `json:"timezone,omitempty"`
	Difficulty         string   `json:"difficulty,omitempty"`
}

// UserInfo converts the payload's profile fields into a [models.UserInfo].
func (p *LoginPayload) UserInfo() models.UserInfo {
	info := models.UserInfo{
		ID:                 p.UserID,
		Nickname:           p.Nickname,
		Email:              p.Email,
		ProfileImage:       p.ProfileImage,
		IsSubscribed:       p.IsSubscribed,
		Languages:          models.ParseLanguages(p.SelectedLanguages),
		SubscriptionStatus: p.SubscriptionStatus,
		Timezone:           p.Timezone,
	}
	if d, err := models.ParseDifficulty(p.Difficulty); err == nil {
		info.Difficulty = d
	}
	if t, err := time.Parse(time.RFC3339, p.SubscriptionDate); err == nil {
		info.SubscriptionDate = t
	}
	return info
}

// SubscriptionPayload is the flat response shape of the /subscribe endpoint
// family and the legacy /user/{id} endpoint.
type SubscriptionPayload struct {
	Success            bool     `json:"success"`
	Error              string   `json:"error,omitempty"`
	Message            string   `json:"message,omitempty"`
	UserID             int64    `json:"user_id,omitempty"`
	Nickname           string   `json:"nickname,omitempty"`
	IsSubscribed       bool     `json:"is_subscribed,omitempty"`
	Languages          []string `json:"languages,omitempty"`
	SubscriptionStatus string   `json:"subscription_status,omitempty"`
	SubscriptionDate   string   `json:"subscription_date,omitempty"`
	Timezone           string   `json:"timezone,omitempty"`
	Difficulty         string   `json:"difficulty,omitempty"`
}

// SubscriptionGateway implements [Gateway] over HTTP.
//
// No retries are attempted anywhere; every failure is surfaced once to the
// caller. At most one mutating call may be in flight per process.
type SubscriptionGateway struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger

	mu       sync.Mutex
	inFlight bool
}

// NewSubscriptionGateway creates a gateway client for the given backend base URL.
func NewSubscriptionGateway(baseURL string, client *http.Client, logger *log.Logger) *SubscriptionGateway {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &SubscriptionGateway{
		baseURL:    baseURL,
		httpClient: client,
		// Keeps bursts of wizard clicks from hammering the Lambda cold path.
		limiter: rate.NewLimiter(rate.Every(200*time.Millisecond), 3),
		logger:  logger,
	}
}

// SetLogger replaces the gateway's logger.
func (g *SubscriptionGateway) SetLogger(logger *log.Logger) {
	if logger != nil {
		g.logger = logger
	}
}

// Login exchanges an authorization code for a backend session.
func (g *SubscriptionGateway) Login(ctx context.Context, code, redirectURI string) (*LoginPayload, error) {
	body := map[string]any{"action": "login", "code": code, "redirect_uri": redirectURI}
	return g.postLogin(ctx, body)
}

// CheckSession validates an access token and returns the current user record.
func (g *SubscriptionGateway) CheckSession(ctx context.Context, accessToken string) (*LoginPayload, error) {
	body := map[string]any{"action": "check_session", "access_token": accessToken}
	return g.postLogin(ctx, body)
}

// Refresh exchanges a refresh token for new access credentials.
func (g *SubscriptionGateway) Refresh(ctx context.Context, refreshToken string) (*LoginPayload, error) {
	body := map[string]any{"action": "refresh", "refresh_token": refreshToken}
	payload, err := g.postLogin(ctx, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}
	return payload, nil
}

// Logout invalidates the backend session. Best effort; the caller clears
// local state regardless.
func (g *SubscriptionGateway) Logout(ctx context.Context, accessToken string) error {
	body := map[string]any{"action": "logout", "access_token": accessToken}
	_, err := g.postLogin(ctx, body)
	return err
}

// Subscribe creates a subscription from the accumulated wizard selections.
func (g *SubscriptionGateway) Subscribe(ctx context.Context, req SubscribeRequest) (*SubscriptionPayload, error) {
	if err := g.beginMutation(); err != nil {
		return nil, err
	}
	defer g.endMutation()

	body := map[string]any{
		"action":    "subscribe",
		"user_id":   req.UserID,
		"languages": models.LanguageStrings(req.Languages),
	}
	if req.Timezone != "" {
		body["timezone"] = req.Timezone
	}
	if req.Difficulty != "" {
		body["difficulty"] = string(req.Difficulty)
	}

	return g.postSubscribe(ctx, body)
}

// UpdateSubscription replaces the language selection of an active subscription.
func (g *SubscriptionGateway) UpdateSubscription(ctx context.Context, userID int64, languages []models.Language) error {
	if err := g.beginMutation(); err != nil {
		return err
	}
	defer g.endMutation()

	body := map[string]any{
		"action":    "update_subscription",
		"user_id":   userID,
		"languages": models.LanguageStrings(languages),
	}
	_, err := g.postSubscribe(ctx, body)
	return err
}

// Unsubscribe cancels an active subscription.
func (g *SubscriptionGateway) Unsubscribe(ctx context.Context, userID int64) error {
	if err := g.beginMutation(); err != nil {
		return err
	}
	defer g.endMutation()

	body := map[string]any{"action": "unsubscribe", "user_id": userID}
	_, err := g.postSubscribe(ctx, body)
	return err
}

// GetSubscription fetches the remote subscription record.
func (g *SubscriptionGateway) GetSubscription(ctx context.Context, userID int64) (*SubscriptionPayload, error) {
	body := map[string]any{"action": "get_subscription", "user_id": userID}
	return g.postSubscribe(ctx, body)
}

// UpdateTimezone changes the delivery timezone of an active subscription.
func (g *SubscriptionGateway) UpdateTimezone(ctx context.Context, userID int64, timezone string) error {
	if err := g.beginMutation(); err != nil {
		return err
	}
	defer g.endMutation()

	body := map[string]any{"action": "update_timezone", "user_id": userID, "timezone": timezone}
	_, err := g.postSubscribe(ctx, body)
	return err
}

// UpdateDifficulty changes the difficulty tier of an active subscription.
func (g *SubscriptionGateway) UpdateDifficulty(ctx context.Context, userID int64, difficulty models.Difficulty) error {
	if err := g.beginMutation(); err != nil {
		return err
	}
	defer g.endMutation()

	body := map[string]any{"action": "update_difficulty", "user_id": userID, "difficulty": string(difficulty)}
	_, err := g.postSubscribe(ctx, body)
	return err
}

// DeleteAccount removes the user and their subscription entirely.
func (g *SubscriptionGateway) DeleteAccount(ctx context.Context, userID int64) error {
	if err := g.beginMutation(); err != nil {
		return err
	}
	defer g.endMutation()

	body := map[string]any{"action": "delete_account", "user_id": userID}
	_, err := g.postSubscribe(ctx, body)
	return err
}

// UserProfile fetches a user record from the legacy REST endpoint, where the
// HTTP status is the primary error signal.
func (g *SubscriptionGateway) UserProfile(ctx context.Context, userID int64) (*SubscriptionPayload, error) {
	status, raw, err := g.do(ctx, http.MethodGet, fmt.Sprintf("/user/%d", userID), nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, shared.ErrUserNotFound
	}
	if status < 200 || status >= 300 {
		return nil, &GatewayError{Status: status}
	}

	var payload SubscriptionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: malformed user payload: %v", shared.ErrAPIRequest, err)
	}
	return &payload, nil
}

// postLogin posts to the /login endpoint family. Success requires well-formed
// JSON carrying an explicit success flag.
func (g *SubscriptionGateway) postLogin(ctx context.Context, body map[string]any) (*LoginPayload, error) {
	status, raw, err := g.do(ctx, http.MethodPost, "/login", body)
	if err != nil {
		return nil, err
	}

	status, raw = decodeBody(status, raw)

	var payload LoginPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &GatewayError{Status: status}
	}
	if !payload.Success {
		return nil, &GatewayError{Status: status, Text: payload.Error}
	}

	return &payload, nil
}

// postSubscribe posts to the /subscribe endpoint family. The response may be
// flat or enveloped; success requires a 2xx effective status and the success flag.
func (g *SubscriptionGateway) postSubscribe(ctx context.Context, body map[string]any) (*SubscriptionPayload, error) {
	status, raw, err := g.do(ctx, http.MethodPost, "/subscribe", body)
	if err != nil {
		return nil, err
	}

	status, raw = decodeBody(status, raw)

	var payload SubscriptionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &GatewayError{Status: status}
	}
	if status < 200 || status >= 300 || !payload.Success {
		text := payload.Error
		if text == "" {
			text = payload.Message
		}
		return nil, &GatewayError{Status: status, Text: text}
	}

	return &payload, nil
}

// do issues a single request and reads the body. Transport failures are
// wrapped in [shared.ErrAPIRequest]; no retries.
func (g *SubscriptionGateway) do(ctx context.Context, method, path string, body map[string]any) (int, []byte, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return 0, nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if body != nil {
		g.logger.Debug("gateway request", "path", path, "action", body["action"])
	} else {
		g.logger.Debug("gateway request", "path", path)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: failed to read response: %v", shared.ErrAPIRequest, err)
	}

	return resp.StatusCode, raw, nil
}

// beginMutation acquires the single mutating-request slot.
func (g *SubscriptionGateway) beginMutation() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inFlight {
		return shared.ErrRequestInFlight
	}
	g.inFlight = true
	return nil
}

func (g *SubscriptionGateway) endMutation() {
	g.mu.Lock()
	g.inFlight = false
	g.mu.Unlock()
}
