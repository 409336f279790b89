package session

import (
	"time"

	"github.com/nullisdefined/worlds-subscription/internal/models"
)

// ViewMode is one of the three mutually exclusive states the UI renders.
type ViewMode int

const (
	// Anonymous: no session. Language picker plus a subscribe call-to-action
	// that leads into login.
	Anonymous ViewMode = iota
	// Unsubscribed: authenticated without an active subscription. The picker
	// leads into the onboarding wizard.
	Unsubscribed
	// Subscribed: authenticated with an active subscription. The picker is
	// locked to the current languages and the subscribe action repoints to
	// subscription management.
	Subscribed
)

func (v ViewMode) String() string {
	switch v {
	case Unsubscribed:
		return "unsubscribed"
	case Subscribed:
		return "subscribed"
	}
	return "anonymous"
}

// Reconcile picks exactly one view mode for the given session.
func Reconcile(s *models.Session) ViewMode {
	switch {
	case s == nil || s.AccessToken == "":
		return Anonymous
	case s.User.IsSubscribed:
		return Subscribed
	default:
		return Unsubscribed
	}
}

// Panel carries the subscriber info panel contents.
type Panel struct {
	Nickname       string
	MembershipDays int
	Languages      []models.Language
	Timezone       string
	Difficulty     models.Difficulty
	Status         string
}

// BuildPanel assembles the info panel for a subscribed session.
//
// Returns nil for any other view mode.
func BuildPanel(s *models.Session, now time.Time) *Panel {
	if Reconcile(s) != Subscribed {
		return nil
	}

	status := s.User.SubscriptionStatus
	if status == "" {
		status = "active"
	}

	return &Panel{
		Nickname:       s.User.Nickname,
		MembershipDays: s.MembershipDays(now),
		Languages:      s.User.Languages,
		Timezone:       s.User.Timezone,
		Difficulty:     s.User.Difficulty,
		Status:         status,
	}
}
