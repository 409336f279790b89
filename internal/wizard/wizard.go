package wizard

import (
	"fmt"
	"slices"

	"github.com/nullisdefined/worlds-subscription/internal/models"
	"github.com/nullisdefined/worlds-subscription/internal/shared"
)

// Step identifies the wizard's current position.
type Step int

const (
	StepLanguage Step = iota
	StepTimezone
	StepDifficulty
	StepConfirm
	StepDone
)

// Mode selects between the current single-language behavior and the legacy
// multi-language behavior.
type Mode int

const (
	SingleSelect Mode = iota
	MultiSelect
)

// DefaultTimezone is pre-selected on the timezone step for new subscribers.
const DefaultTimezone = "Asia/Seoul"

// Timezones lists the delivery timezones offered on the timezone step.
var Timezones = []string{
	"Asia/Seoul",
	"Asia/Tokyo",
	"Asia/Shanghai",
	"America/New_York",
	"America/Los_Angeles",
	"Europe/London",
}

// Wizard accumulates selections across the onboarding steps.
//
// State is in-memory only and is destroyed when the flow completes or is
// abandoned. When the user already holds a subscription, current carries the
// remote record so the terminal step can compute a minimal update.
type Wizard struct {
	mode       Mode
	step       Step
	languages  []models.Language
	timezone   string
	difficulty models.Difficulty
	current    *models.UserInfo
}

// New creates a wizard at the language step.
//
// current may be nil for a first-time subscriber. For an existing subscriber
// the steps are pre-seeded with the active subscription's values.
func New(mode Mode, current *models.UserInfo) *Wizard {
	w := &Wizard{mode: mode, step: StepLanguage, timezone: DefaultTimezone}
	if current != nil {
		w.current = current
		w.languages = slices.Clone(current.Languages)
		if current.Timezone != "" {
			w.timezone = current.Timezone
		}
		if current.Difficulty != "" {
			w.difficulty = current.Difficulty
		}
	}
	return w
}

// Step returns the wizard's current step.
func (w *Wizard) Step() Step { return w.step }

// Languages returns the pending language selection.
func (w *Wizard) Languages() []models.Language { return slices.Clone(w.languages) }

// Timezone returns the pending delivery timezone.
func (w *Wizard) Timezone() string { return w.timezone }

// Difficulty returns the pending difficulty tier.
func (w *Wizard) Difficulty() models.Difficulty { return w.difficulty }

// Selected reports whether the language is in the pending selection.
func (w *Wizard) Selected(lang models.Language) bool {
	return slices.Contains(w.languages, lang)
}

// Toggle flips a language card.
//
// In [SingleSelect] mode, choosing a new language replaces the selection.
// In [MultiSelect] mode, deselecting the last remaining language is a no-op.
func (w *Wizard) Toggle(lang models.Language) {
	if w.step != StepLanguage {
		return
	}

	if w.mode == SingleSelect {
		if !w.Selected(lang) {
			w.languages = []models.Language{lang}
		}
		return
	}

	if w.Selected(lang) {
		if len(w.languages) > 1 {
			w.languages = slices.DeleteFunc(w.languages, func(l models.Language) bool { return l == lang })
		}
		return
	}
	w.languages = append(w.languages, lang)
}

// SetTimezone records the pending delivery timezone.
func (w *Wizard) SetTimezone(tz string) {
	if w.step == StepTimezone && tz != "" {
		w.timezone = tz
	}
}

// SetDifficulty records the pending difficulty tier.
func (w *Wizard) SetDifficulty(d models.Difficulty) {
	if w.step == StepDifficulty {
		w.difficulty = d
	}
}

// Next advances to the following step after validating the current one.
//
// An invalid selection blocks advancement with an error; it is never
// silently coerced into a valid one.
func (w *Wizard) Next() error {
	switch w.step {
	case StepLanguage:
		if len(w.languages) == 0 {
			return fmt.Errorf("%w: select at least one language", shared.ErrInvalidSelection)
		}
		if w.mode == SingleSelect && len(w.languages) > 1 {
			return fmt.Errorf("%w: select exactly one language", shared.ErrInvalidSelection)
		}
		w.step = StepTimezone
	case StepTimezone:
		if w.timezone == "" {
			return fmt.Errorf("%w: select a delivery timezone", shared.ErrInvalidSelection)
		}
		w.step = StepDifficulty
	case StepDifficulty:
		if w.difficulty == "" {
			return fmt.Errorf("%w: select a difficulty", shared.ErrInvalidSelection)
		}
		w.step = StepConfirm
	case StepConfirm:
		w.step = StepDone
	}
	return nil
}

// Back returns to the previous step. Choices already made on later steps are
// preserved, so moving forward again shows the prior picks.
func (w *Wizard) Back() {
	if w.step > StepLanguage && w.step < StepDone {
		w.step--
	}
}

// ChangeSet is the wizard's terminal output.
//
// For a first-time subscriber New is true and every field is populated. For
// an existing subscriber only the changed fields are set; nil/empty means
// "leave as is".
type ChangeSet struct {
	New        bool
	Languages  []models.Language
	Timezone   string
	Difficulty models.Difficulty
}

// Changes computes the terminal change set.
//
// A submission identical to the current subscription is rejected locally
// with [shared.ErrNoChanges]; no network call should follow.
func (w *Wizard) Changes() (*ChangeSet, error) {
	if w.current == nil || !w.current.IsSubscribed {
		return &ChangeSet{
			New:        true,
			Languages:  slices.Clone(w.languages),
			Timezone:   w.timezone,
			Difficulty: w.difficulty,
		}, nil
	}

	cs := &ChangeSet{}
	if !slices.Equal(w.languages, w.current.Languages) {
		cs.Languages = slices.Clone(w.languages)
	}
	if w.timezone != w.current.Timezone && w.timezone != "" {
		cs.Timezone = w.timezone
	}
	if w.difficulty != w.current.Difficulty && w.difficulty != "" {
		cs.Difficulty = w.difficulty
	}

	if cs.Languages == nil && cs.Timezone == "" && cs.Difficulty == "" {
		return nil, shared.ErrNoChanges
	}
	return cs, nil
}

// Reset discards all pending state and returns to the language step.
func (w *Wizard) Reset() {
	*w = *New(w.mode, w.current)
}
