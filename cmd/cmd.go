// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func outputFlags(prettyDefault bool) []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
			Value: prettyDefault,
		},
	}
}

// setupCommand handles configuration and database initialization.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a config file from the built-in template",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the sqlite credential store schema",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent credential store migration",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupRollback,
			},
		},
	}
}

// authCommands handles the credential lifecycle.
func authCommands(r *Runner) []*cli.Command {
	return []*cli.Command{
		{
			Name:   "login",
			Usage:  "Authorize with Spotify in the browser and store the credential",
			Flags:  []cli.Flag{configFlag()},
			Action: r.Login,
		},
		{
			Name:   "logout",
			Usage:  "Remove the stored credential",
			Flags:  []cli.Flag{configFlag()},
			Action: r.Logout,
		},
		{
			Name:   "status",
			Usage:  "Show the stored credential's state without refreshing it",
			Flags:  append([]cli.Flag{configFlag()}, outputFlags(false)...),
			Action: r.Status,
		},
	}
}

// playbackCommands reads the current playback.
func playbackCommands(r *Runner) []*cli.Command {
	return []*cli.Command{
		{
			Name:    "current",
			Aliases: []string{"now"},
			Usage:   "Print what is playing right now",
			Flags:   append([]cli.Flag{configFlag()}, outputFlags(false)...),
			Action:  r.Current,
		},
		{
			Name:  "watch",
			Usage: "Poll and print playback changes until interrupted",
			Flags: []cli.Flag{
				configFlag(),
				&cli.DurationFlag{
					Name:    "interval",
					Aliases: []string{"i"},
					Usage:   "Poll interval (defaults to poll.interval_seconds)",
				},
				&cli.BoolFlag{
					Name:  "json",
					Usage: "Output one JSON object per update",
				},
			},
			Action: r.Watch,
		},
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive now-playing view",
		Flags:   []cli.Flag{configFlag()},
		Action:  r.TUI,
	}
}
