package main

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/nullisdefined/worlds-subscription/internal/session"
	"github.com/nullisdefined/worlds-subscription/internal/shared"
	"github.com/nullisdefined/worlds-subscription/internal/ui"
	"github.com/nullisdefined/worlds-subscription/internal/wizard"
	"github.com/urfave/cli/v3"
)

// Subscribe launches the onboarding wizard for a first-time subscription.
func (r *Runner) Subscribe(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	manager, err := r.open()
	if err != nil {
		return err
	}

	current, err := manager.Restore(ctx)
	if err != nil {
		return err
	}

	switch session.Reconcile(current) {
	case session.Anonymous:
		r.writePlain("Sign in first: run 'wordsub login'.\n")
		return nil
	case session.Subscribed:
		r.writePlain("You already have a subscription. Run 'wordsub manage' to change it.\n")
		return nil
	}

	wiz := wizard.New(wizard.SingleSelect, nil)
	if langs, perr := manager.PendingSelection(); perr == nil {
		// Resume a selection stashed by an earlier run that lost its login.
		for _, lang := range langs {
			wiz.Toggle(lang)
		}
	}

	done, err := r.runWizard(ctx, manager, wiz)
	if err != nil {
		if errors.Is(err, shared.ErrNotAuthenticated) {
			if serr := manager.StashSelection(wiz.Languages()); serr == nil {
				r.writePlain("Your selection was saved. Run 'wordsub login', then 'wordsub subscribe' to continue.\n")
			}
		}
		return err
	}
	if !done {
		return nil
	}

	r.writePlain("✓ Subscription created\n")
	if r.config.Kakao.ChannelURL != "" {
		r.writePlain("Add the KakaoTalk channel to receive messages: %s\n", r.config.Kakao.ChannelURL)
		if err := shared.OpenBrowser(r.config.Kakao.ChannelURL); err != nil {
			r.logger.Warn("failed to open channel page", "error", err)
		}
	}
	return nil
}

// Manage runs the same wizard against the existing subscription. Only the
// fields that actually changed are sent to the backend.
func (r *Runner) Manage(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	manager, err := r.open()
	if err != nil {
		return err
	}

	current, err := manager.Restore(ctx)
	if err != nil {
		return err
	}

	switch session.Reconcile(current) {
	case session.Anonymous:
		r.writePlain("Sign in first: run 'wordsub login'.\n")
		return nil
	case session.Unsubscribed:
		r.writePlain("No subscription to manage. Run 'wordsub subscribe' first.\n")
		return nil
	}

	wiz := wizard.New(wizard.SingleSelect, &current.User)
	done, err := r.runWizard(ctx, manager, wiz)
	if err != nil || !done {
		return err
	}

	r.writePlain("✓ Subscription updated\n")
	return nil
}

// runWizard drives the bubbletea program and reports whether a submission
// completed. Logs are redirected to a file so they do not tear the TUI.
func (r *Runner) runWizard(ctx context.Context, manager *session.Manager, wiz *wizard.Wizard) (bool, error) {
	fileLogger, err := shared.NewFileLogger("./tmp/wordsub-tui.log")
	if err != nil {
		return false, fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)
	manager.SetLogger(fileLogger)

	model := ui.NewModel(ctx, manager, wiz)
	p := tea.NewProgram(model)

	final, err := p.Run()
	if err != nil {
		return false, fmt.Errorf("error running wizard: %w", err)
	}

	if m, ok := final.(*ui.Model); ok {
		if m.Err() != nil {
			// The result view already showed the friendly message.
			return false, fmt.Errorf("subscription failed: %w", m.Err())
		}
		return m.Done(), nil
	}
	return false, nil
}

// Unsubscribe stops message delivery but keeps the account and login.
func (r *Runner) Unsubscribe(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	manager, err := r.open()
	if err != nil {
		return err
	}

	if err := manager.Unsubscribe(ctx); err != nil {
		switch {
		case errors.Is(err, shared.ErrNotAuthenticated):
			r.writePlain("Not signed in.\n")
			return nil
		case errors.Is(err, shared.ErrNotSubscribed):
			r.writePlain("No active subscription.\n")
			return nil
		}
		return err
	}

	r.writePlain("✓ Unsubscribed. Your account is kept; run 'wordsub subscribe' to come back.\n")
	return nil
}

// DeleteAccount removes the account and all subscription data on the backend.
func (r *Runner) DeleteAccount(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	if !cmd.Bool("yes") {
		r.writePlain("This permanently deletes your account and subscription data.\n")
		r.writePlain("Re-run with --yes to confirm.\n")
		return nil
	}

	manager, err := r.open()
	if err != nil {
		return err
	}

	if err := manager.DeleteAccount(ctx); err != nil {
		if errors.Is(err, shared.ErrNotAuthenticated) {
			r.writePlain("Not signed in.\n")
			return nil
		}
		return err
	}

	r.writePlain("✓ Account deleted\n")
	return nil
}
