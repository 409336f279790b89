package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/nullisdefined/worlds-subscription/internal/models"
	"github.com/nullisdefined/worlds-subscription/internal/services"
	"github.com/nullisdefined/worlds-subscription/internal/session"
	"github.com/nullisdefined/worlds-subscription/internal/shared"
	"github.com/nullisdefined/worlds-subscription/internal/wizard"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LanguageView ViewState = iota
	TimezoneView
	DifficultyView
	ConfirmView
	SubmitView
	ResultView
)

// Model represents the wizard application state.
type Model struct {
	ctx            context.Context
	view           ViewState
	manager        *session.Manager
	wiz            *wizard.Wizard
	width          int
	height         int
	languageList   list.Model
	timezoneList   list.Model
	difficultyList list.Model
	change         *wizard.ChangeSet
	panel          *session.Panel
	notice         string
	err            error
	spin           spinner.Model
	help           help.Model
	keys           keyMap
}

type submitDoneMsg struct {
	err error
}

// NewModel creates a wizard model over the provided session manager. The
// wizard is pre-seeded from the current subscription when one exists, so a
// subscriber editing their settings starts from what they already have.
func NewModel(ctx context.Context, manager *session.Manager, wiz *wizard.Wizard) *Model {
	m := &Model{
		ctx:     ctx,
		view:    LanguageView,
		manager: manager,
		wiz:     wiz,
		help:    help.New(),
		keys:    newKeyMap(),
	}

	m.spin = spinner.New()
	m.spin.Spinner = spinner.Dot
	m.spin.Style = styles.title

	langItems := make([]list.Item, len(models.AllLanguages))
	for i, lang := range models.AllLanguages {
		langItems[i] = languageItem{language: lang, wiz: wiz}
	}
	m.languageList = list.New(langItems, list.NewDefaultDelegate(), 0, 0)
	m.languageList.Title = "Choose a language"
	m.languageList.SetShowHelp(false)

	tzItems := make([]list.Item, len(wizard.Timezones))
	for i, zone := range wizard.Timezones {
		tzItems[i] = timezoneItem{zone: zone}
	}
	m.timezoneList = list.New(tzItems, list.NewDefaultDelegate(), 0, 0)
	m.timezoneList.Title = "Choose a timezone"
	m.timezoneList.SetShowHelp(false)

	diffItems := make([]list.Item, len(models.AllDifficulties))
	for i, d := range models.AllDifficulties {
		diffItems[i] = difficultyItem{difficulty: d}
	}
	m.difficultyList = list.New(diffItems, list.NewDefaultDelegate(), 0, 0)
	m.difficultyList.Title = "Choose a difficulty"
	m.difficultyList.SetShowHelp(false)

	return m
}

// Init is a no-op; every screen is built from local state.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.languageList.SetSize(msg.Width-4, msg.Height-8)
		m.timezoneList.SetSize(msg.Width-4, msg.Height-8)
		m.difficultyList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case LanguageView:
			return m.handleLanguageKeys(msg)
		case TimezoneView:
			return m.handleTimezoneKeys(msg)
		case DifficultyView:
			return m.handleDifficultyKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case SubmitView:
			// Submission cannot be interrupted once it starts.
			return m, nil
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case spinner.TickMsg:
		if m.view != SubmitView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case submitDoneMsg:
		m.err = msg.err
		m.view = ResultView
		if msg.err == nil {
			if current, err := m.manager.Current(); err == nil {
				m.panel = session.BuildPanel(current, time.Now())
			}
		}
		return m, nil
	}

	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case LanguageView:
		return m.renderList(&m.languageList, m.keys.toggle)
	case TimezoneView:
		return m.renderList(&m.timezoneList, m.keys.back)
	case DifficultyView:
		return m.renderList(&m.difficultyList, m.keys.back)
	case ConfirmView:
		return m.renderConfirm()
	case SubmitView:
		return m.renderSubmit()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

// Err reports the submission error, if any, after the program exits.
func (m *Model) Err() error {
	return m.err
}

// Done reports whether a submission completed successfully before exit.
func (m *Model) Done() bool {
	return m.view == ResultView && m.err == nil
}

func (m *Model) handleLanguageKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ":
		if item, ok := m.languageList.SelectedItem().(languageItem); ok {
			m.wiz.Toggle(item.language)
			m.notice = ""
		}
		return m, nil
	case "enter":
		if err := m.wiz.Next(); err != nil {
			if errors.Is(err, shared.ErrInvalidSelection) {
				m.notice = "Pick at least one language first."
			} else {
				m.notice = services.Friendly(err)
			}
			return m, nil
		}
		m.notice = ""
		m.view = TimezoneView
		return m, nil
	}

	var cmd tea.Cmd
	m.languageList, cmd = m.languageList.Update(msg)
	return m, cmd
}

func (m *Model) handleTimezoneKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.wiz.Back()
		m.view = LanguageView
		return m, nil
	case "enter":
		if item, ok := m.timezoneList.SelectedItem().(timezoneItem); ok {
			m.wiz.SetTimezone(item.zone)
		}
		if err := m.wiz.Next(); err != nil {
			m.notice = services.Friendly(err)
			return m, nil
		}
		m.notice = ""
		m.view = DifficultyView
		return m, nil
	}

	var cmd tea.Cmd
	m.timezoneList, cmd = m.timezoneList.Update(msg)
	return m, cmd
}

func (m *Model) handleDifficultyKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.wiz.Back()
		m.view = TimezoneView
		return m, nil
	case "enter":
		if item, ok := m.difficultyList.SelectedItem().(difficultyItem); ok {
			m.wiz.SetDifficulty(item.difficulty)
		}
		if err := m.wiz.Next(); err != nil {
			m.notice = services.Friendly(err)
			return m, nil
		}
		m.notice = ""
		m.view = ConfirmView
		return m, nil
	}

	var cmd tea.Cmd
	m.difficultyList, cmd = m.difficultyList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "n", "esc":
		m.wiz.Back()
		m.notice = ""
		m.view = DifficultyView
		return m, nil
	case "y", "enter":
		change, err := m.wiz.Changes()
		if err != nil {
			if errors.Is(err, shared.ErrNoChanges) {
				m.notice = "Nothing changed. Adjust a setting or press q to quit."
				return m, nil
			}
			m.notice = services.Friendly(err)
			return m, nil
		}
		m.change = change
		m.notice = ""
		m.view = SubmitView
		return m, tea.Batch(m.spin.Tick, m.submit())
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "enter", "esc":
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) submit() tea.Cmd {
	return func() tea.Msg {
		return submitDoneMsg{err: m.manager.Commit(m.ctx, m.change)}
	}
}

func (m *Model) renderList(l *list.Model, extra key.Binding) string {
	helpKeys := []key.Binding{m.keys.next, extra, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	out := fmt.Sprintf("%s\n\n%s", l.View(), helpView)
	if m.notice != "" {
		out = fmt.Sprintf("%s\n%s", out, styles.warn.Render(m.notice))
	}
	return out
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render("Apply these subscription settings?")

	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n\n")

	langs := m.wiz.Languages()
	names := make([]string, len(langs))
	for i, lang := range langs {
		names[i] = lang.Display()
	}
	b.WriteString(fmt.Sprintf("  Languages:  %s\n", strings.Join(names, ", ")))
	b.WriteString(fmt.Sprintf("  Timezone:   %s\n", m.wiz.Timezone()))
	b.WriteString(fmt.Sprintf("  Difficulty: %s\n", m.wiz.Difficulty().Display()))

	if m.notice != "" {
		b.WriteString("\n")
		b.WriteString(styles.warn.Render(m.notice))
	}

	b.WriteString("\n\n")
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no, m.keys.quit}))
	return b.String()
}

func (m *Model) renderSubmit() string {
	return fmt.Sprintf("\n  %s Submitting your subscription...\n", m.spin.View())
}

func (m *Model) renderResult() string {
	var b strings.Builder
	if m.err != nil {
		b.WriteString(styles.err.Render("Something went wrong"))
		b.WriteString("\n\n  ")
		b.WriteString(services.Friendly(m.err))
	} else {
		b.WriteString(styles.ok.Render("Subscription saved"))
		if m.panel != nil {
			b.WriteString("\n\n")
			b.WriteString(fmt.Sprintf("  Member:     %s (day %d)\n", m.panel.Nickname, m.panel.MembershipDays))
			b.WriteString(fmt.Sprintf("  Languages:  %s\n", strings.Join(models.LanguageStrings(m.panel.Languages), ", ")))
			b.WriteString(fmt.Sprintf("  Timezone:   %s\n", m.panel.Timezone))
			b.WriteString(fmt.Sprintf("  Difficulty: %s\n", m.panel.Difficulty))
			b.WriteString(fmt.Sprintf("  Status:     %s", m.panel.Status))
		}
	}
	b.WriteString("\n\n")
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.quit}))
	return b.String()
}
