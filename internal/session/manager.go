package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/nullisdefined/worlds-subscription/internal/models"
	"github.com/nullisdefined/worlds-subscription/internal/repositories"
	"github.com/nullisdefined/worlds-subscription/internal/services"
	"github.com/nullisdefined/worlds-subscription/internal/shared"
	"github.com/nullisdefined/worlds-subscription/internal/wizard"
)

// Manager coordinates the session stores, the Kakao redirect contract, and
// the backend gateway.
type Manager struct {
	sessions *repositories.SessionRepository
	scratch  *repositories.ScratchRepository
	gateway  services.Gateway
	kakao    *services.KakaoAuth
	logger   *log.Logger
	now      func() time.Time

	loaded  bool
	current *models.Session
}

// NewManager creates a [Manager]. The logger defaults to stderr.
func NewManager(sessions *repositories.SessionRepository, scratch *repositories.ScratchRepository, gateway services.Gateway, kakao *services.KakaoAuth, logger *log.Logger) *Manager {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Manager{
		sessions: sessions,
		scratch:  scratch,
		gateway:  gateway,
		kakao:    kakao,
		logger:   logger,
		now:      time.Now,
	}
}

// SetLogger replaces the manager's logger.
func (m *Manager) SetLogger(logger *log.Logger) {
	if logger != nil {
		m.logger = logger
	}
}

// Restore loads the persisted session, validates it, refreshes the token when
// due, and reconciles cached profile data against the remote record.
//
// Returns (nil, nil) for the anonymous state: no stored session, an invalid
// or expired one, or a failed refresh. Those paths clear the store so the
// next run starts clean.
func (m *Manager) Restore(ctx context.Context) (*models.Session, error) {
	session, err := m.load()
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil
	}

	now := m.now()
	if !session.Valid(now) {
		m.logger.Info("stored session expired, clearing")
		return nil, m.discard()
	}

	if session.NeedsRefresh(now) {
		if err := m.refresh(ctx, session); err != nil {
			m.logger.Warn("token refresh failed, falling back to anonymous", "error", err)
			return nil, m.discard()
		}
	}

	return m.sync(ctx, session), nil
}

// ForceRefresh refreshes the access token regardless of how close it is to
// expiry. Fails with [shared.ErrNotAuthenticated] when no session is stored.
func (m *Manager) ForceRefresh(ctx context.Context) (*models.Session, error) {
	session, err := m.require()
	if err != nil {
		return nil, err
	}
	if err := m.refresh(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// refresh exchanges the refresh token for new credentials and persists them.
func (m *Manager) refresh(ctx context.Context, session *models.Session) error {
	if session.RefreshToken == "" {
		return shared.ErrNoRefreshToken
	}

	payload, err := m.gateway.Refresh(ctx, session.RefreshToken)
	if err != nil {
		return err
	}
	if payload.AccessToken == "" {
		return fmt.Errorf("%w: backend returned no access token", shared.ErrRefreshFailed)
	}

	session.AccessToken = payload.AccessToken
	if payload.RefreshToken != "" {
		session.RefreshToken = payload.RefreshToken
	}
	if payload.ExpiresIn > 0 {
		session.ExpiresAt = m.now().Add(time.Duration(payload.ExpiresIn) * time.Second)
	} else {
		session.ExpiresAt = time.Time{}
	}

	return m.save(session)
}

// sync reconciles cached profile data against the remote subscription record.
//
// A backend-reported rejection invalidates the session; a transport failure
// keeps the cached data, matching the web client's offline behavior.
func (m *Manager) sync(ctx context.Context, session *models.Session) *models.Session {
	payload, err := m.gateway.CheckSession(ctx, session.AccessToken)
	if err != nil {
		var gw *services.GatewayError
		if errors.As(err, &gw) {
			m.logger.Info("backend rejected session, clearing", "status", gw.Status)
			if derr := m.discard(); derr != nil {
				m.logger.Warn("failed to clear rejected session", "error", derr)
			}
			return nil
		}
		m.logger.Warn("session sync failed, using cached profile", "error", err)
		return session
	}

	session.User = payload.UserInfo()
	if err := m.save(session); err != nil {
		m.logger.Warn("failed to persist synced session", "error", err)
	}
	return session
}

// BeginLogin stores a fresh state nonce and returns the provider authorization URL.
func (m *Manager) BeginLogin() (string, error) {
	state := shared.GenerateState()
	if err := m.scratch.Set(repositories.KeyOAuthState, state); err != nil {
		return "", fmt.Errorf("failed to store state nonce: %w", err)
	}
	return m.kakao.AuthorizeURL(state), nil
}

// StashSelection persists the pending language selection across the OAuth redirect.
func (m *Manager) StashSelection(langs []models.Language) error {
	data, err := json.Marshal(models.LanguageStrings(langs))
	if err != nil {
		return fmt.Errorf("failed to encode selection: %w", err)
	}
	return m.scratch.Set(repositories.KeySelectedLanguages, string(data))
}

// PendingSelection restores a stashed language selection, if any.
func (m *Manager) PendingSelection() ([]models.Language, error) {
	raw, err := m.scratch.Get(repositories.KeySelectedLanguages)
	if err != nil || raw == "" {
		return nil, err
	}

	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		// Corrupt scratch data heals the same way a corrupt session does.
		return nil, m.scratch.Delete(repositories.KeySelectedLanguages)
	}
	return models.ParseLanguages(values), nil
}

// CompleteLogin turns a parsed provider callback into a persisted session.
//
// The state nonce is consumed regardless of outcome. A state mismatch or a
// provider error never results in a saved session.
func (m *Manager) CompleteLogin(ctx context.Context, result *services.CallbackResult) (*models.Session, error) {
	expected, err := m.scratch.Get(repositories.KeyOAuthState)
	if err != nil {
		return nil, err
	}
	if derr := m.scratch.Delete(repositories.KeyOAuthState); derr != nil {
		m.logger.Warn("failed to consume state nonce", "error", derr)
	}

	switch result.Kind {
	case services.NoCallback:
		return nil, fmt.Errorf("%w: no callback parameters received", shared.ErrAuthFailed)
	case services.CallbackError:
		if result.ErrorCode == "access_denied" {
			return nil, fmt.Errorf("%w: %s", shared.ErrLoginCancelled, result.UserMessage())
		}
		return nil, fmt.Errorf("%w: %s", shared.ErrAuthFailed, result.UserMessage())
	}

	if err := services.VerifyState(result.State, expected); err != nil {
		return nil, err
	}

	payload, err := m.gateway.Login(ctx, result.Code, m.kakao.RedirectURI())
	if err != nil {
		return nil, err
	}
	if payload.AccessToken == "" {
		// A session without an access token is never valid, so never save one.
		return nil, fmt.Errorf("%w: backend returned no access token", shared.ErrAuthFailed)
	}

	session := &models.Session{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		User:         payload.UserInfo(),
	}
	if payload.ExpiresIn > 0 {
		session.ExpiresAt = m.now().Add(time.Duration(payload.ExpiresIn) * time.Second)
	}

	if err := m.save(session); err != nil {
		return nil, err
	}

	m.logger.Info("session established", "user_id", session.User.ID, "nickname", session.User.Nickname)
	return session, nil
}

// Commit applies the wizard's terminal change set against the backend and
// updates the persisted session to match.
func (m *Manager) Commit(ctx context.Context, change *wizard.ChangeSet) error {
	session, err := m.require()
	if err != nil {
		return err
	}

	if change.New {
		payload, err := m.gateway.Subscribe(ctx, services.SubscribeRequest{
			UserID:     session.User.ID,
			Languages:  change.Languages,
			Timezone:   change.Timezone,
			Difficulty: change.Difficulty,
		})
		if err != nil {
			return err
		}

		session.User.IsSubscribed = true
		session.User.Languages = change.Languages
		session.User.Timezone = change.Timezone
		session.User.Difficulty = change.Difficulty
		session.User.SubscriptionStatus = "active"
		if t, perr := time.Parse(time.RFC3339, payload.SubscriptionDate); perr == nil {
			session.User.SubscriptionDate = t
		} else if session.User.SubscriptionDate.IsZero() {
			session.User.SubscriptionDate = m.now()
		}
		// A stashed selection has served its purpose once the
		// subscription exists.
		if err := m.scratch.Delete(repositories.KeySelectedLanguages); err != nil {
			m.logger.Warn("failed to clear stashed selection", "error", err)
		}
		return m.save(session)
	}

	// Existing subscription: only the changed fields go over the wire.
	if change.Languages != nil {
		if err := m.gateway.UpdateSubscription(ctx, session.User.ID, change.Languages); err != nil {
			return err
		}
		session.User.Languages = change.Languages
	}
	if change.Timezone != "" {
		if err := m.gateway.UpdateTimezone(ctx, session.User.ID, change.Timezone); err != nil {
			return err
		}
		session.User.Timezone = change.Timezone
	}
	if change.Difficulty != "" {
		if err := m.gateway.UpdateDifficulty(ctx, session.User.ID, change.Difficulty); err != nil {
			return err
		}
		session.User.Difficulty = change.Difficulty
	}

	return m.save(session)
}

// Unsubscribe cancels the subscription but keeps the login.
func (m *Manager) Unsubscribe(ctx context.Context) error {
	session, err := m.require()
	if err != nil {
		return err
	}
	if !session.User.IsSubscribed {
		return shared.ErrNotSubscribed
	}

	if err := m.gateway.Unsubscribe(ctx, session.User.ID); err != nil {
		return err
	}

	session.User.IsSubscribed = false
	session.User.Languages = nil
	session.User.SubscriptionStatus = "cancelled"
	return m.save(session)
}

// Logout invalidates the backend session when possible and always clears
// local state.
func (m *Manager) Logout(ctx context.Context) error {
	session, err := m.load()
	if err != nil {
		return err
	}
	if session == nil {
		return nil
	}

	if err := m.gateway.Logout(ctx, session.AccessToken); err != nil {
		m.logger.Warn("backend logout failed, clearing local session anyway", "error", err)
	}
	return m.discard()
}

// DeleteAccount removes the account on the backend and clears local state.
func (m *Manager) DeleteAccount(ctx context.Context) error {
	session, err := m.require()
	if err != nil {
		return err
	}

	if err := m.gateway.DeleteAccount(ctx, session.User.ID); err != nil {
		return err
	}
	return m.discard()
}

// Current returns the cached session without hitting the network.
func (m *Manager) Current() (*models.Session, error) {
	return m.load()
}

// require returns the cached session or [shared.ErrNotAuthenticated].
func (m *Manager) require() (*models.Session, error) {
	session, err := m.load()
	if err != nil {
		return nil, err
	}
	if session == nil || !session.Valid(m.now()) {
		return nil, shared.ErrNotAuthenticated
	}
	return session, nil
}

// load reads the store at most once per run, then serves the cached copy.
func (m *Manager) load() (*models.Session, error) {
	if m.loaded {
		return m.current, nil
	}

	session, err := m.sessions.Load()
	if err != nil {
		return nil, err
	}
	m.loaded = true
	m.current = session
	return session, nil
}

// save writes through to the store and updates the in-memory copy.
func (m *Manager) save(session *models.Session) error {
	if err := m.sessions.Save(session); err != nil {
		return err
	}
	m.loaded = true
	m.current = session
	return nil
}

// discard clears the store and the in-memory copy. Idempotent.
func (m *Manager) discard() error {
	m.loaded = true
	m.current = nil
	return m.sessions.Clear()
}
