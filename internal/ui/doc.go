// Package ui implements the onboarding wizard as an interactive terminal
// interface using bubbletea's Elm architecture.
//
// The wizard walks the subscription steps in order:
//  1. [LanguageView] : Toggle language cards (single- or multi-select)
//  2. [TimezoneView] : Pick the delivery timezone
//  3. [DifficultyView] : Pick the word difficulty tier
//  4. [ConfirmView] : Review the accumulated selections
//  5. [SubmitView] : Processing indicator while the backend call is in flight
//  6. [ResultView] : Success panel or mapped error message
//
// The [Model] implements the standard Init/Update/View pattern. All
// transition rules live in the wizard package's pure state machine; the UI
// only translates key presses into wizard events and renders the result. The
// processing indicator is guaranteed a paired open/close: SubmitView is
// entered immediately before the request is issued and left on every outcome,
// success or failure.
//
// Keyboard navigation uses vim-style bindings (j/k, space, enter, esc, y/n, q)
// with contextual help displayed via charmbracelet/bubbles/help.
package ui
