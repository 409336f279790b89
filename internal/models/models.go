package models

import (
	"fmt"
	"time"
)

// Language identifies a vocabulary language offered by the service.
type Language string

const (
	English  Language = "english"
	Chinese  Language = "chinese"
	Japanese Language = "japanese"
)

// AllLanguages lists every supported language in display order.
var AllLanguages = []Language{English, Chinese, Japanese}

// ParseLanguage converts a wire value into a [Language].
func ParseLanguage(s string) (Language, error) {
	switch Language(s) {
	case English, Chinese, Japanese:
		return Language(s), nil
	}
	return "", fmt.Errorf("unknown language %q", s)
}

// Display returns the human-readable name for the language.
func (l Language) Display() string {
	switch l {
	case English:
		return "English"
	case Chinese:
		return "Chinese"
	case Japanese:
		return "Japanese"
	}
	return string(l)
}

// ParseLanguages converts wire values into a slice of [Language], skipping
// values the client doesn't recognize so an old client survives new languages.
func ParseLanguages(values []string) []Language {
	var langs []Language
	for _, v := range values {
		if l, err := ParseLanguage(v); err == nil {
			langs = append(langs, l)
		}
	}
	return langs
}

// LanguageStrings converts languages back to their wire values.
func LanguageStrings(langs []Language) []string {
	out := make([]string, len(langs))
	for i, l := range langs {
		out[i] = string(l)
	}
	return out
}

// Difficulty identifies the word difficulty tier of a subscription.
type Difficulty string

const (
	Beginner     Difficulty = "beginner"
	Intermediate Difficulty = "intermediate"
	Advanced     Difficulty = "advanced"
)

// AllDifficulties lists every difficulty tier in display order.
var AllDifficulties = []Difficulty{Beginner, Intermediate, Advanced}

// ParseDifficulty converts a wire value into a [Difficulty].
func ParseDifficulty(s string) (Difficulty, error) {
	switch Difficulty(s) {
	case Beginner, Intermediate, Advanced:
		return Difficulty(s), nil
	}
	return "", fmt.Errorf("unknown difficulty %q", s)
}

// Display returns the human-readable name for the difficulty tier.
func (d Difficulty) Display() string {
	switch d {
	case Beginner:
		return "Beginner"
	case Intermediate:
		return "Intermediate"
	case Advanced:
		return "Advanced"
	}
	return string(d)
}

// UserInfo carries the profile and subscription fields cached inside a [Session].
//
// It is never persisted on its own.
type UserInfo struct {
	ID                 int64      `json:"id"`
	Nickname           string     `json:"nickname"`
	Email              string     `json:"email,omitempty"`
	ProfileImage       string     `json:"profile_image,omitempty"`
	IsSubscribed       bool       `json:"is_subscribed"`
	Languages          []Language `json:"languages,omitempty"`
	SubscriptionStatus string     `json:"subscription_status,omitempty"`
	SubscriptionDate   time.Time  `json:"subscription_date,omitzero"`
	Timezone           string     `json:"timezone,omitempty"`
	Difficulty         Difficulty `json:"difficulty,omitempty"`
}

// refreshWindow is how long before expiry a token is considered due for refresh.
const refreshWindow = 10 * time.Minute

// Session is the durable authentication record.
//
// A zero ExpiresAt means the backend reported no expiry and the token is
// treated as non-expiring.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitzero"`
	User         UserInfo  `json:"user"`
}

// Valid reports whether the session can be used at the given instant.
//
// A session without an access token is never valid.
func (s *Session) Valid(now time.Time) bool {
	if s == nil || s.AccessToken == "" {
		return false
	}
	if s.ExpiresAt.IsZero() {
		return true
	}
	return now.Before(s.ExpiresAt)
}

// NeedsRefresh reports whether the access token is inside the refresh window.
//
// Sessions without a recorded expiry never need a refresh.
func (s *Session) NeedsRefresh(now time.Time) bool {
	if s == nil || s.ExpiresAt.IsZero() {
		return false
	}
	return now.After(s.ExpiresAt.Add(-refreshWindow))
}

// MembershipDays returns the number of days since the subscription started,
// rounded up, with a floor of one day. Mirrors the banner the service shows
// its subscribers.
func (s *Session) MembershipDays(now time.Time) int {
	if s == nil || s.User.SubscriptionDate.IsZero() {
		return 1
	}
	d := now.Sub(s.User.SubscriptionDate)
	if d < 0 {
		d = -d
	}
	days := int((d + 24*time.Hour - 1) / (24 * time.Hour))
	if days < 1 {
		days = 1
	}
	return days
}
