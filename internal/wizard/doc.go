// Package wizard implements the onboarding flow as a pure state machine.
//
// The flow is a linear sequence of selection steps with one back edge per
// step: language → delivery timezone → difficulty → confirm. Events are
// methods on [Wizard]; rendering lives elsewhere (internal/ui) and consumes
// the resulting state, so every transition and validation rule is testable
// without a terminal.
//
// Two selection modes exist. [SingleSelect] replaces the whole selection on
// each toggle, so the committed set is always exactly one language.
// [MultiSelect] is the legacy behavior: any non-empty subset, where
// deselecting the last remaining language is a no-op.
//
// Back navigation preserves choices already made on later steps; re-entering
// a step shows the prior picks, not defaults.
package wizard
