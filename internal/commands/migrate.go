// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package commands

import (
	"context"
	"fmt"

	"codeberg.org/oliverandrich/assettag/internal/app"
	"codeberg.org/oliverandrich/assettag/internal/apperr"
	"codeberg.org/oliverandrich/assettag/internal/database"
	"github.com/urfave/cli/v3"
)

// Opening the database applies pending migrations, so "up" only reports.
func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Manage the database schema",
		Commands: []*cli.Command{
			{
				Name:   "up",
				Usage:  "Apply pending migrations",
				Action: withApp(printVersion),
			},
			{
				Name:  "down",
				Usage: "Roll back the last migration",
				Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app.App) error {
					if err := database.MigrateDown(a.DB); err != nil {
						return err
					}
					return printVersion(ctx, cmd, a)
				}),
			},
			{
				Name:  "reset",
				Usage: "Roll back every migration and apply them again",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Usage: "Confirm that all codes and assets are deleted"},
				},
				Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app.App) error {
					if !cmd.Bool("yes") {
						return apperr.Invalid("reset deletes all data, pass --yes to confirm")
					}
					if err := database.MigrateReset(a.DB); err != nil {
						return err
					}
					if err := database.RunMigrations(a.DB); err != nil {
						return err
					}
					return printVersion(ctx, cmd, a)
				}),
			},
			{
				Name:   "status",
				Usage:  "Print the schema version",
				Action: withApp(printVersion),
			},
		},
	}
}

func printVersion(_ context.Context, cmd *cli.Command, a *app.App) error {
	v, err := database.Version(a.DB)
	if err != nil {
		return err
	}
	fmt.Fprintf(out(cmd), "schema version %d\n", v)
	return nil
}
