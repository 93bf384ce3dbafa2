// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package commands builds the command line interface.
package commands

import (
	"context"
	"io"
	"os"

	"codeberg.org/oliverandrich/assettag/internal/app"
	"codeberg.org/oliverandrich/assettag/internal/config"
	"codeberg.org/oliverandrich/assettag/internal/server"
	"github.com/urfave/cli/v3"
)

// Root returns the assettag command. Without a subcommand it serves the web UI.
func Root(version string) *cli.Command {
	return &cli.Command{
		Name:    "assettag",
		Usage:   "Print QR labels and attach them to assets",
		Version: version,
		Flags:   config.Flags(),
		Action:  server.Run,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the web application",
				Action: server.Run,
			},
			codesCommand(),
			assignCommand(),
			unassignCommand(),
			resolveCommand(),
			scanCommand(),
			migrateCommand(),
		},
	}
}

type action func(ctx context.Context, cmd *cli.Command, a *app.App) error

// withApp opens the database and services for the duration of one command.
// Logs go to stderr so command output stays parseable.
func withApp(fn action) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg := config.NewFromCLI(cmd)
		app.SetupLogger(os.Stderr, cfg.Log.Level, cfg.Log.Format)

		a, err := app.Open(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		return fn(ctx, cmd, a)
	}
}

func out(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}
