package main

import (
	"context"
	"strings"
	"time"

	"github.com/nullisdefined/worlds-subscription/internal/models"
	"github.com/nullisdefined/worlds-subscription/internal/session"
	"github.com/urfave/cli/v3"
)

// Status restores the stored session, reconciles it against the backend and
// renders the matching view.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	manager, err := r.open()
	if err != nil {
		return err
	}

	current, err := manager.Restore(ctx)
	if err != nil {
		return err
	}

	mode := session.Reconcile(current)

	if cmd.Bool("json") {
		out := map[string]any{"view": mode.String()}
		if panel := session.BuildPanel(current, time.Now()); panel != nil {
			out["subscription"] = panel
		} else if current != nil {
			out["nickname"] = current.User.Nickname
		}
		return r.writeJSON(out, cmd.Bool("pretty"))
	}

	switch mode {
	case session.Anonymous:
		r.writePlain("Not signed in.\n")
		r.writePlain("Run 'wordsub login' to sign in with Kakao.\n")

	case session.Unsubscribed:
		r.writePlain("Signed in as %s, no active subscription.\n", current.User.Nickname)
		r.writePlain("Run 'wordsub subscribe' to start receiving daily vocabulary.\n")

	case session.Subscribed:
		panel := session.BuildPanel(current, time.Now())
		r.writePlainHeader("Your subscription")
		r.writePlain("Member:     %s (day %d)\n", panel.Nickname, panel.MembershipDays)
		r.writePlain("Languages:  %s\n", strings.Join(models.LanguageStrings(panel.Languages), ", "))
		r.writePlain("Timezone:   %s\n", panel.Timezone)
		r.writePlain("Difficulty: %s\n", panel.Difficulty)
		r.writePlain("Status:     %s\n", panel.Status)
	}

	return nil
}
