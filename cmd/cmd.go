// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, loginCommand, logoutCommand, statusCommand,
		subscribeCommand, manageCommand, refreshCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// setupCommand handles configuration and database initialization.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config file, initialize database and run migrations",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Setup,
	}
}

// loginCommand runs the Kakao OAuth flow through a loopback callback server.
func loginCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Sign in with Kakao",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "no-browser",
				Usage: "Print the authorization URL instead of opening a browser",
			},
		},
		Action: r.Login,
	}
}

func logoutCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Sign out and clear the local session",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Logout,
	}
}

// statusCommand renders the view matching the current session.
func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show login and subscription status",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
		},
		Action: r.Status,
	}
}

// subscribeCommand launches the onboarding wizard for a new subscription.
func subscribeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "subscribe",
		Aliases: []string{"sub"},
		Usage:   "Start the subscription wizard",
		Flags:   []cli.Flag{configFlag()},
		Action:  r.Subscribe,
	}
}

// manageCommand hosts subscription maintenance operations.
func manageCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "manage",
		Usage:  "Change settings of an existing subscription",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Manage,
		Commands: []*cli.Command{
			{
				Name:   "unsubscribe",
				Usage:  "Stop receiving messages (keeps your account)",
				Flags:  []cli.Flag{configFlag()},
				Action: r.Unsubscribe,
			},
			{
				Name:  "delete-account",
				Usage: "Delete your account and all subscription data",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "yes",
						Usage: "Skip the confirmation prompt",
					},
				},
				Action: r.DeleteAccount,
			},
		},
	}
}

func refreshCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "refresh",
		Usage:  "Force an access token refresh",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Refresh,
	}
}
