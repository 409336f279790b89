package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/nullisdefined/worlds-subscription/internal/models"
	"github.com/nullisdefined/worlds-subscription/internal/wizard"
)

var (
	_ list.Item = languageItem{}
	_ list.Item = timezoneItem{}
	_ list.Item = difficultyItem{}
)

// languageItem wraps [models.Language] to implement [list.Item]. The title
// reads the wizard's current selection so the marker tracks toggles without
// rebuilding the list.
type languageItem struct {
	language models.Language
	wiz      *wizard.Wizard
}

func (i languageItem) FilterValue() string { return string(i.language) }
func (i languageItem) Title() string {
	marker := "[ ]"
	if i.wiz.Selected(i.language) {
		marker = "[x]"
	}
	return fmt.Sprintf("%s %s", marker, i.language.Display())
}
func (i languageItem) Description() string {
	return fmt.Sprintf("daily %s vocabulary", i.language)
}

// timezoneItem wraps an IANA zone name to implement [list.Item].
type timezoneItem struct {
	zone string
}

func (i timezoneItem) FilterValue() string { return i.zone }
func (i timezoneItem) Title() string       { return i.zone }
func (i timezoneItem) Description() string {
	if i.zone == wizard.DefaultTimezone {
		return "delivery timezone (default)"
	}
	return "delivery timezone"
}

// difficultyItem wraps [models.Difficulty] to implement [list.Item].
type difficultyItem struct {
	difficulty models.Difficulty
}

func (i difficultyItem) FilterValue() string { return string(i.difficulty) }
func (i difficultyItem) Title() string       { return i.difficulty.Display() }
func (i difficultyItem) Description() string {
	switch i.difficulty {
	case models.Beginner:
		return "everyday words"
	case models.Intermediate:
		return "news and conversation"
	case models.Advanced:
		return "academic and idiomatic"
	default:
		return ""
	}
}
