// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"net/http"
	"os"
	"testing"

	"github.com/nullisdefined/worlds-subscription/internal/models"
	"github.com/nullisdefined/worlds-subscription/internal/services"
)

// MockGateway is a configurable test double for [services.Gateway]. Every
// method records that it was called and returns the canned payload or error
// set on the corresponding field; zero-value fields mean "succeed with an
// empty payload".
type MockGateway struct {
	LoginPayload   *services.LoginPayload
	LoginErr       error
	SessionPayload *services.LoginPayload
	SessionErr     error
	RefreshPayload *services.LoginPayload
	RefreshErr     error
	LogoutErr      error

	SubscribePayload *services.SubscriptionPayload
	SubscribeErr     error
	UpdateErr        error
	UnsubscribeErr   error
	ProfilePayload   *services.SubscriptionPayload
	ProfileErr       error
	DeleteErr        error

	Calls []string
}

var _ services.Gateway = (*MockGateway)(nil)

func (m *MockGateway) record(name string) {
	m.Calls = append(m.Calls, name)
}

// Called reports whether the named method was invoked.
func (m *MockGateway) Called(name string) bool {
	for _, c := range m.Calls {
		if c == name {
			return true
		}
	}
	return false
}

func (m *MockGateway) Login(ctx context.Context, code, redirectURI string) (*services.LoginPayload, error) {
	m.record("login")
	if m.LoginErr != nil {
		return nil, m.LoginErr
	}
	if m.LoginPayload != nil {
		return m.LoginPayload, nil
	}
	return &services.LoginPayload{Success: true}, nil
}

func (m *MockGateway) CheckSession(ctx context.Context, accessToken string) (*services.LoginPayload, error) {
	m.record("check_session")
	if m.SessionErr != nil {
		return nil, m.SessionErr
	}
	if m.SessionPayload != nil {
		return m.SessionPayload, nil
	}
	return &services.LoginPayload{Success: true}, nil
}

func (m *MockGateway) Refresh(ctx context.Context, refreshToken string) (*services.LoginPayload, error) {
	m.record("refresh")
	if m.RefreshErr != nil {
		return nil, m.RefreshErr
	}
	if m.RefreshPayload != nil {
		return m.RefreshPayload, nil
	}
	return &services.LoginPayload{Success: true}, nil
}

func (m *MockGateway) Logout(ctx context.Context, accessToken string) error {
	m.record("logout")
	return m.LogoutErr
}

func (m *MockGateway) Subscribe(ctx context.Context, req services.SubscribeRequest) (*services.SubscriptionPayload, error) {
	m.record("subscribe")
	if m.SubscribeErr != nil {
		return nil, m.SubscribeErr
	}
	if m.SubscribePayload != nil {
		return m.SubscribePayload, nil
	}
	return &services.SubscriptionPayload{Success: true}, nil
}

func (m *MockGateway) UpdateSubscription(ctx context.Context, userID int64, languages []models.Language) error {
	m.record("update_subscription")
	return m.UpdateErr
}

func (m *MockGateway) Unsubscribe(ctx context.Context, userID int64) error {
	m.record("unsubscribe")
	return m.UnsubscribeErr
}

func (m *MockGateway) GetSubscription(ctx context.Context, userID int64) (*services.SubscriptionPayload, error) {
	m.record("get_subscription")
	if m.ProfileErr != nil {
		return nil, m.ProfileErr
	}
	if m.ProfilePayload != nil {
		return m.ProfilePayload, nil
	}
	return &services.SubscriptionPayload{Success: true}, nil
}

func (m *MockGateway) UpdateTimezone(ctx context.Context, userID int64, timezone string) error {
	m.record("update_timezone")
	return m.UpdateErr
}

func (m *MockGateway) UpdateDifficulty(ctx context.Context, userID int64, difficulty models.Difficulty) error {
	m.record("update_difficulty")
	return m.UpdateErr
}

func (m *MockGateway) DeleteAccount(ctx context.Context, userID int64) error {
	m.record("delete_account")
	return m.DeleteErr
}

func (m *MockGateway) UserProfile(ctx context.Context, userID int64) (*services.SubscriptionPayload, error) {
	m.record("user_profile")
	if m.ProfileErr != nil {
		return nil, m.ProfileErr
	}
	if m.ProfilePayload != nil {
		return m.ProfilePayload, nil
	}
	return &services.SubscriptionPayload{Success: true}, nil
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}
