package session

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/nullisdefined/worlds-subscription/internal/models"
	"github.com/nullisdefined/worlds-subscription/internal/repositories"
	"github.com/nullisdefined/worlds-subscription/internal/services"
	"github.com/nullisdefined/worlds-subscription/internal/shared"
	tu "github.com/nullisdefined/worlds-subscription/internal/testing"
	"github.com/nullisdefined/worlds-subscription/internal/wizard"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestManager(t *testing.T, gateway *tu.MockGateway) (*Manager, *repositories.SessionRepository, *repositories.ScratchRepository) {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	sessions := repositories.NewSessionRepository(db)
	scratch := repositories.NewScratchRepository(db)

	kakao, err := services.NewKakaoAuth("appkey", "http://localhost:5500/callback")
	if err != nil {
		t.Fatalf("failed to create kakao auth: %v", err)
	}

	m := NewManager(sessions, scratch, gateway, kakao, nil)
	m.now = func() time.Time { return testNow }
	return m, sessions, scratch
}

func TestRestore(t *testing.T) {
	ctx := context.Background()

	t.Run("empty store yields anonymous", func(t *testing.T) {
		m, _, _ := newTestManager(t, &tu.MockGateway{})

		session, err := m.Restore(ctx)
		if err != nil {
			t.Fatalf("Restore failed: %v", err)
		}
		if session != nil {
			t.Errorf("expected nil session, got %+v", session)
		}
	})

	t.Run("expired session is cleared", func(t *testing.T) {
		gw := &tu.MockGateway{}
		m, sessions, _ := newTestManager(t, gw)
		sessions.Save(&models.Session{AccessToken: "tok", ExpiresAt: testNow.Add(-time.Hour)})

		session, err := m.Restore(ctx)
		if err != nil {
			t.Fatalf("Restore failed: %v", err)
		}
		if session != nil {
			t.Error("expected expired session to yield anonymous")
		}
		if gw.Called("check_session") || gw.Called("refresh") {
			t.Error("expected no network calls for an expired session")
		}

		stored, _ := sessions.Load()
		if stored != nil {
			t.Error("expected the store to be cleared")
		}
	})

	t.Run("valid session syncs the remote profile", func(t *testing.T) {
		gw := &tu.MockGateway{
			SessionPayload: &services.LoginPayload{
				Success:           true,
				UserID:            42,
				Nickname:          "Kim",
				IsSubscribed:      true,
				SelectedLanguages: []string{"japanese"},
				Timezone:          "Asia/Seoul",
				Difficulty:        "beginner",
			},
		}
		m, _, _ := newTestManager(t, gw)
		m.save(&models.Session{AccessToken: "tok", ExpiresAt: testNow.Add(time.Hour)})

		session, err := m.Restore(ctx)
		if err != nil {
			t.Fatalf("Restore failed: %v", err)
		}
		if session == nil {
			t.Fatal("expected a session")
		}
		if session.User.Nickname != "Kim" || !session.User.IsSubscribed {
			t.Errorf("expected synced profile, got %+v", session.User)
		}
		if gw.Called("refresh") {
			t.Error("expected no refresh outside the refresh window")
		}
	})

	t.Run("token inside the refresh window is refreshed", func(t *testing.T) {
		gw := &tu.MockGateway{
			RefreshPayload: &services.LoginPayload{
				Success:     true,
				AccessToken: "fresh",
				ExpiresIn:   3600,
			},
		}
		m, sessions, _ := newTestManager(t, gw)
		sessions.Save(&models.Session{
			AccessToken:  "stale",
			RefreshToken: "ref",
			ExpiresAt:    testNow.Add(5 * time.Minute),
		})

		session, err := m.Restore(ctx)
		if err != nil {
			t.Fatalf("Restore failed: %v", err)
		}
		if !gw.Called("refresh") {
			t.Fatal("expected a refresh call")
		}
		if session.AccessToken != "fresh" {
			t.Errorf("expected refreshed token, got %q", session.AccessToken)
		}
		if !session.ExpiresAt.Equal(testNow.Add(time.Hour)) {
			t.Errorf("unexpected expiry: %v", session.ExpiresAt)
		}
	})

	t.Run("failed refresh falls back to anonymous", func(t *testing.T) {
		gw := &tu.MockGateway{RefreshErr: errors.New("refresh token revoked")}
		m, sessions, _ := newTestManager(t, gw)
		sessions.Save(&models.Session{
			AccessToken:  "stale",
			RefreshToken: "ref",
			ExpiresAt:    testNow.Add(5 * time.Minute),
		})

		session, err := m.Restore(ctx)
		if err != nil {
			t.Fatalf("Restore failed: %v", err)
		}
		if session != nil {
			t.Error("expected anonymous after failed refresh")
		}

		stored, _ := sessions.Load()
		if stored != nil {
			t.Error("expected the store to be cleared")
		}
	})

	t.Run("missing refresh token falls back to anonymous", func(t *testing.T) {
		m, sessions, _ := newTestManager(t, &tu.MockGateway{})
		sessions.Save(&models.Session{AccessToken: "stale", ExpiresAt: testNow.Add(5 * time.Minute)})

		session, err := m.Restore(ctx)
		if err != nil {
			t.Fatalf("Restore failed: %v", err)
		}
		if session != nil {
			t.Error("expected anonymous without a refresh token")
		}
	})

	t.Run("backend rejection during sync clears the session", func(t *testing.T) {
		gw := &tu.MockGateway{SessionErr: &services.GatewayError{Status: 401, Text: "token expired"}}
		m, sessions, _ := newTestManager(t, gw)
		sessions.Save(&models.Session{AccessToken: "tok", ExpiresAt: testNow.Add(time.Hour)})

		session, err := m.Restore(ctx)
		if err != nil {
			t.Fatalf("Restore failed: %v", err)
		}
		if session != nil {
			t.Error("expected rejected session to yield anonymous")
		}

		stored, _ := sessions.Load()
		if stored != nil {
			t.Error("expected the store to be cleared")
		}
	})

	t.Run("transport failure during sync keeps the cached profile", func(t *testing.T) {
		gw := &tu.MockGateway{SessionErr: errors.New("dial tcp: connection refused")}
		m, sessions, _ := newTestManager(t, gw)
		sessions.Save(&models.Session{
			AccessToken: "tok",
			ExpiresAt:   testNow.Add(time.Hour),
			User:        models.UserInfo{Nickname: "Kim"},
		})

		session, err := m.Restore(ctx)
		if err != nil {
			t.Fatalf("Restore failed: %v", err)
		}
		if session == nil || session.User.Nickname != "Kim" {
			t.Errorf("expected cached profile to survive, got %+v", session)
		}
	})
}

func TestBeginLogin(t *testing.T) {
	m, _, scratch := newTestManager(t, &tu.MockGateway{})

	authURL, err := m.BeginLogin()
	if err != nil {
		t.Fatalf("BeginLogin failed: %v", err)
	}

	nonce, err := scratch.Get(repositories.KeyOAuthState)
	if err != nil {
		t.Fatalf("failed to read nonce: %v", err)
	}
	if nonce == "" {
		t.Fatal("expected a stored state nonce")
	}
	if !strings.Contains(authURL, "state="+nonce) {
		t.Errorf("expected authorize URL to carry the nonce, got %s", authURL)
	}
}

func TestCompleteLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("persists the session on success", func(t *testing.T) {
		gw := &tu.MockGateway{
			LoginPayload: &services.LoginPayload{
				Success:      true,
				AccessToken:  "tok",
				RefreshToken: "ref",
				ExpiresIn:    7200,
				UserID:       42,
				Nickname:     "Kim",
			},
		}
		m, sessions, scratch := newTestManager(t, gw)
		scratch.Set(repositories.KeyOAuthState, "nonce")

		session, err := m.CompleteLogin(ctx, &services.CallbackResult{
			Kind:  services.CallbackCode,
			Code:  "abc123",
			State: "nonce",
		})
		if err != nil {
			t.Fatalf("CompleteLogin failed: %v", err)
		}
		if session.AccessToken != "tok" || session.User.Nickname != "Kim" {
			t.Errorf("unexpected session: %+v", session)
		}
		if !session.ExpiresAt.Equal(testNow.Add(2 * time.Hour)) {
			t.Errorf("unexpected expiry: %v", session.ExpiresAt)
		}

		stored, _ := sessions.Load()
		if stored == nil || stored.AccessToken != "tok" {
			t.Error("expected the session to be persisted")
		}

		nonce, _ := scratch.Get(repositories.KeyOAuthState)
		if nonce != "" {
			t.Error("expected the state nonce to be consumed")
		}
	})

	t.Run("state mismatch never reaches the backend", func(t *testing.T) {
		gw := &tu.MockGateway{}
		m, sessions, scratch := newTestManager(t, gw)
		scratch.Set(repositories.KeyOAuthState, "nonce")

		_, err := m.CompleteLogin(ctx, &services.CallbackResult{
			Kind:  services.CallbackCode,
			Code:  "abc123",
			State: "tampered",
		})
		if !errors.Is(err, shared.ErrStateMismatch) {
			t.Errorf("expected ErrStateMismatch, got %v", err)
		}
		if gw.Called("login") {
			t.Error("expected no login call after a state mismatch")
		}

		stored, _ := sessions.Load()
		if stored != nil {
			t.Error("expected no session to be saved")
		}
	})

	t.Run("nonce is consumed even on failure", func(t *testing.T) {
		m, _, scratch := newTestManager(t, &tu.MockGateway{})
		scratch.Set(repositories.KeyOAuthState, "nonce")

		m.CompleteLogin(ctx, &services.CallbackResult{
			Kind:  services.CallbackCode,
			Code:  "abc123",
			State: "tampered",
		})

		nonce, _ := scratch.Get(repositories.KeyOAuthState)
		if nonce != "" {
			t.Error("expected the nonce to be consumed on failure")
		}
	})

	t.Run("denied consent maps to ErrLoginCancelled", func(t *testing.T) {
		m, _, scratch := newTestManager(t, &tu.MockGateway{})
		scratch.Set(repositories.KeyOAuthState, "nonce")

		_, err := m.CompleteLogin(ctx, &services.CallbackResult{
			Kind:      services.CallbackError,
			ErrorCode: "access_denied",
		})
		if !errors.Is(err, shared.ErrLoginCancelled) {
			t.Errorf("expected ErrLoginCancelled, got %v", err)
		}
	})

	t.Run("other provider errors map to ErrAuthFailed", func(t *testing.T) {
		m, _, _ := newTestManager(t, &tu.MockGateway{})

		_, err := m.CompleteLogin(ctx, &services.CallbackResult{
			Kind:      services.CallbackError,
			ErrorCode: "server_error",
		})
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})

	t.Run("missing access token is never saved", func(t *testing.T) {
		gw := &tu.MockGateway{LoginPayload: &services.LoginPayload{Success: true}}
		m, sessions, scratch := newTestManager(t, gw)
		scratch.Set(repositories.KeyOAuthState, "nonce")

		_, err := m.CompleteLogin(ctx, &services.CallbackResult{
			Kind:  services.CallbackCode,
			Code:  "abc123",
			State: "nonce",
		})
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}

		stored, _ := sessions.Load()
		if stored != nil {
			t.Error("expected no session to be saved")
		}
	})
}

func TestCommit(t *testing.T) {
	ctx := context.Background()

	subscribed := func() *models.Session {
		return &models.Session{
			AccessToken: "tok",
			User: models.UserInfo{
				ID:           42,
				IsSubscribed: true,
				Languages:    []models.Language{models.English},
				Timezone:     "Asia/Seoul",
				Difficulty:   models.Beginner,
			},
		}
	}

	t.Run("new subscription issues a subscribe call", func(t *testing.T) {
		gw := &tu.MockGateway{
			SubscribePayload: &services.SubscriptionPayload{
				Success:          true,
				SubscriptionDate: "2025-06-01T00:00:00Z",
			},
		}
		m, sessions, _ := newTestManager(t, gw)
		m.save(&models.Session{AccessToken: "tok", User: models.UserInfo{ID: 42}})

		err := m.Commit(ctx, &wizard.ChangeSet{
			New:        true,
			Languages:  []models.Language{models.Japanese},
			Timezone:   "Asia/Tokyo",
			Difficulty: models.Advanced,
		})
		if err != nil {
			t.Fatalf("Commit failed: %v", err)
		}
		if !gw.Called("subscribe") {
			t.Error("expected a subscribe call")
		}

		stored, _ := sessions.Load()
		if !stored.User.IsSubscribed || stored.User.Timezone != "Asia/Tokyo" {
			t.Errorf("expected updated session, got %+v", stored.User)
		}
		if stored.User.SubscriptionStatus != "active" {
			t.Errorf("expected active status, got %q", stored.User.SubscriptionStatus)
		}
		if stored.User.SubscriptionDate.IsZero() {
			t.Error("expected a subscription date")
		}
	})

	t.Run("new subscription consumes the stashed selection", func(t *testing.T) {
		m, _, scratch := newTestManager(t, &tu.MockGateway{})
		m.save(&models.Session{AccessToken: "tok", User: models.UserInfo{ID: 42}})
		m.StashSelection([]models.Language{models.Japanese})

		err := m.Commit(ctx, &wizard.ChangeSet{
			New:       true,
			Languages: []models.Language{models.Japanese},
		})
		if err != nil {
			t.Fatalf("Commit failed: %v", err)
		}

		value, _ := scratch.Get(repositories.KeySelectedLanguages)
		if value != "" {
			t.Error("expected the stash to be cleared")
		}
	})

	t.Run("only changed fields go over the wire", func(t *testing.T) {
		gw := &tu.MockGateway{}
		m, _, _ := newTestManager(t, gw)
		m.save(subscribed())

		err := m.Commit(ctx, &wizard.ChangeSet{Timezone: "Asia/Tokyo"})
		if err != nil {
			t.Fatalf("Commit failed: %v", err)
		}

		if !gw.Called("update_timezone") {
			t.Error("expected an update_timezone call")
		}
		if gw.Called("update_subscription") || gw.Called("update_difficulty") || gw.Called("subscribe") {
			t.Errorf("expected no other calls, got %v", gw.Calls)
		}
	})

	t.Run("requires authentication", func(t *testing.T) {
		m, _, _ := newTestManager(t, &tu.MockGateway{})

		err := m.Commit(ctx, &wizard.ChangeSet{New: true})
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})
}

func TestUnsubscribe(t *testing.T) {
	ctx := context.Background()

	t.Run("keeps the login", func(t *testing.T) {
		gw := &tu.MockGateway{}
		m, sessions, _ := newTestManager(t, gw)
		m.save(&models.Session{
			AccessToken: "tok",
			User:        models.UserInfo{ID: 42, IsSubscribed: true, Languages: []models.Language{models.English}},
		})

		if err := m.Unsubscribe(ctx); err != nil {
			t.Fatalf("Unsubscribe failed: %v", err)
		}
		if !gw.Called("unsubscribe") {
			t.Error("expected an unsubscribe call")
		}

		stored, _ := sessions.Load()
		if stored == nil || stored.AccessToken != "tok" {
			t.Fatal("expected the login to survive")
		}
		if stored.User.IsSubscribed || len(stored.User.Languages) != 0 {
			t.Errorf("expected subscription cleared, got %+v", stored.User)
		}
		if stored.User.SubscriptionStatus != "cancelled" {
			t.Errorf("expected cancelled status, got %q", stored.User.SubscriptionStatus)
		}
	})

	t.Run("requires an active subscription", func(t *testing.T) {
		m, _, _ := newTestManager(t, &tu.MockGateway{})
		m.save(&models.Session{AccessToken: "tok"})

		if err := m.Unsubscribe(ctx); !errors.Is(err, shared.ErrNotSubscribed) {
			t.Errorf("expected ErrNotSubscribed, got %v", err)
		}
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()

	t.Run("clears local state even when the backend fails", func(t *testing.T) {
		gw := &tu.MockGateway{LogoutErr: errors.New("dial tcp: connection refused")}
		m, sessions, _ := newTestManager(t, gw)
		m.save(&models.Session{AccessToken: "tok"})

		if err := m.Logout(ctx); err != nil {
			t.Fatalf("Logout failed: %v", err)
		}

		stored, _ := sessions.Load()
		if stored != nil {
			t.Error("expected the store to be cleared")
		}
	})

	t.Run("no-op without a session", func(t *testing.T) {
		gw := &tu.MockGateway{}
		m, _, _ := newTestManager(t, gw)

		if err := m.Logout(ctx); err != nil {
			t.Fatalf("Logout failed: %v", err)
		}
		if gw.Called("logout") {
			t.Error("expected no backend call without a session")
		}
	})
}

func TestPendingSelection(t *testing.T) {
	t.Run("round-trips a stashed selection", func(t *testing.T) {
		m, _, _ := newTestManager(t, &tu.MockGateway{})

		if err := m.StashSelection([]models.Language{models.Chinese, models.Japanese}); err != nil {
			t.Fatalf("StashSelection failed: %v", err)
		}

		langs, err := m.PendingSelection()
		if err != nil {
			t.Fatalf("PendingSelection failed: %v", err)
		}
		if len(langs) != 2 || langs[0] != models.Chinese {
			t.Errorf("unexpected selection: %v", langs)
		}
	})

	t.Run("corrupt stash self-heals", func(t *testing.T) {
		m, _, scratch := newTestManager(t, &tu.MockGateway{})
		scratch.Set(repositories.KeySelectedLanguages, "not json")

		langs, err := m.PendingSelection()
		if err != nil {
			t.Fatalf("PendingSelection failed: %v", err)
		}
		if langs != nil {
			t.Errorf("expected nil selection, got %v", langs)
		}

		value, _ := scratch.Get(repositories.KeySelectedLanguages)
		if value != "" {
			t.Error("expected corrupt stash to be deleted")
		}
	})
}

func TestForceRefresh(t *testing.T) {
	ctx := context.Background()

	t.Run("refreshes outside the window", func(t *testing.T) {
		gw := &tu.MockGateway{
			RefreshPayload: &services.LoginPayload{Success: true, AccessToken: "fresh", ExpiresIn: 3600},
		}
		m, _, _ := newTestManager(t, gw)
		m.save(&models.Session{AccessToken: "tok", RefreshToken: "ref", ExpiresAt: testNow.Add(24 * time.Hour)})

		session, err := m.ForceRefresh(ctx)
		if err != nil {
			t.Fatalf("ForceRefresh failed: %v", err)
		}
		if session.AccessToken != "fresh" {
			t.Errorf("expected refreshed token, got %q", session.AccessToken)
		}
	})

	t.Run("requires authentication", func(t *testing.T) {
		m, _, _ := newTestManager(t, &tu.MockGateway{})
		if _, err := m.ForceRefresh(ctx); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("fails without a refresh token", func(t *testing.T) {
		m, _, _ := newTestManager(t, &tu.MockGateway{})
		m.save(&models.Session{AccessToken: "tok"})

		if _, err := m.ForceRefresh(ctx); !errors.Is(err, shared.ErrNoRefreshToken) {
			t.Errorf("expected ErrNoRefreshToken, got %v", err)
		}
	})
}
