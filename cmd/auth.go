package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nullisdefined/worlds-subscription/internal/server"
	"github.com/nullisdefined/worlds-subscription/internal/services"
	"github.com/nullisdefined/worlds-subscription/internal/shared"
	"github.com/urfave/cli/v3"
)

// loginTimeout bounds how long the loopback server waits for the redirect.
const loginTimeout = 2 * time.Minute

// Login runs the Kakao OAuth flow: start the loopback callback server, hand
// the authorization URL to the browser, wait for the redirect, then exchange
// the code through the backend and persist the session.
func (r *Runner) Login(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	manager, err := r.open()
	if err != nil {
		return err
	}

	if current, err := manager.Restore(ctx); err == nil && current != nil {
		r.writePlain("Already signed in as %s. Run 'wordsub logout' first to switch accounts.\n", current.User.Nickname)
		return nil
	}

	authURL, err := manager.BeginLogin()
	if err != nil {
		return fmt.Errorf("failed to begin login: %w", err)
	}

	handler := server.NewCallbackHandler()
	addr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	loopback := server.NewLoopback(addr, handler)
	serverErrs := loopback.Start()
	defer loopback.Shutdown()

	if cmd.Bool("no-browser") {
		r.writePlain("Open this URL in your browser to sign in:\n\n  %s\n\n", authURL)
	} else {
		r.logger.Info("opening browser for Kakao login", "redirect_uri", r.config.RedirectURI())
		if err := shared.OpenBrowser(authURL); err != nil {
			r.logger.Warn("failed to open browser", "error", err)
			r.writePlain("Open this URL in your browser to sign in:\n\n  %s\n\n", authURL)
		}
	}

	var result *services.CallbackResult
	select {
	case result = <-handler.Result():
	case err := <-serverErrs:
		return fmt.Errorf("callback server failed: %w", err)
	case <-time.After(loginTimeout):
		return fmt.Errorf("%w: no callback received within %s", shared.ErrTimeout, loginTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}

	session, err := manager.CompleteLogin(ctx, result)
	if err != nil {
		if errors.Is(err, shared.ErrLoginCancelled) {
			r.writePlain("Login was cancelled.\n")
			return nil
		}
		return err
	}

	r.writePlain("✓ Signed in as %s\n", session.User.Nickname)
	if langs, perr := manager.PendingSelection(); perr == nil && len(langs) > 0 {
		r.writePlain("Your earlier selection is saved. Run 'wordsub subscribe' to finish.\n")
	} else if !session.User.IsSubscribed {
		r.writePlain("Run 'wordsub subscribe' to start receiving daily vocabulary.\n")
	}
	return nil
}

// Logout signs the user out on the backend (best effort) and clears the
// local session either way.
func (r *Runner) Logout(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	manager, err := r.open()
	if err != nil {
		return err
	}

	if current, err := manager.Current(); err != nil {
		return err
	} else if current == nil {
		r.writePlain("Not signed in.\n")
		return nil
	}

	if err := manager.Logout(ctx); err != nil {
		return err
	}

	r.writePlain("✓ Signed out\n")
	return nil
}

// Refresh forces an access token refresh, bypassing the expiry window check.
func (r *Runner) Refresh(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	manager, err := r.open()
	if err != nil {
		return err
	}

	session, err := manager.ForceRefresh(ctx)
	if err != nil {
		if errors.Is(err, shared.ErrNotAuthenticated) {
			r.writePlain("Not signed in. Run 'wordsub login' first.\n")
			return nil
		}
		return err
	}

	if session.ExpiresAt.IsZero() {
		r.writePlain("✓ Token refreshed (no expiry reported)\n")
	} else {
		r.writePlain("✓ Token refreshed, valid until %s\n", session.ExpiresAt.Local().Format(time.RFC1123))
	}
	return nil
}
