// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package commands

import (
	"context"
	"fmt"

	"codeberg.org/oliverandrich/assettag/internal/app"
	"codeberg.org/oliverandrich/assettag/internal/apperr"
	"codeberg.org/oliverandrich/assettag/internal/models"
	"github.com/urfave/cli/v3"
)

func assignCommand() *cli.Command {
	return &cli.Command{
		Name:      "assign",
		Usage:     "Attach a code to an existing asset, or to a new one with --name",
		ArgsUsage: "CODE [ASSET-ID]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Usage: "Create a new asset with this name"},
			&cli.StringFlag{Name: "location", Usage: "Location of the new asset"},
			&cli.StringFlag{Name: "project", Usage: "Project of the new asset"},
			&cli.StringFlag{Name: "description", Usage: "Description of the new asset"},
		},
		Action: withApp(assign),
	}
}

func assign(ctx context.Context, cmd *cli.Command, a *app.App) error {
	id := cmd.Args().Get(0)
	if id == "" {
		return apperr.Invalid("code identifier is required")
	}

	if !cmd.IsSet("name") {
		assetID := cmd.Args().Get(1)
		c, err := a.Assignment.AssignToExisting(ctx, id, assetID)
		if err != nil {
			return err
		}
		fmt.Fprintf(out(cmd), "%s -> %s\n", c.ID, assetID)
		return nil
	}

	asset, c, err := a.Assignment.CreateAssetAndAssign(ctx, id, models.AssetDraft{
		Name:        cmd.String("name"),
		Location:    cmd.String("location"),
		ProjectID:   cmd.String("project"),
		Description: cmd.String("description"),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out(cmd), "%s -> %s (%s)\n", c.ID, asset.ID, asset.Name)
	return nil
}

func unassignCommand() *cli.Command {
	return &cli.Command{
		Name:      "unassign",
		Usage:     "Detach a code from its asset",
		ArgsUsage: "CODE",
		Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app.App) error {
			c, err := a.Assignment.Unassign(ctx, cmd.Args().First())
			if err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "%s %s\n", c.ID, c.Status)
			return nil
		}),
	}
}

func resolveCommand() *cli.Command {
	return &cli.Command{
		Name:      "resolve",
		Usage:     "Show what scanning the given text would do",
		ArgsUsage: "TEXT",
		Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app.App) error {
			intent, err := a.Resolver.Resolve(ctx, cmd.Args().First())
			if err != nil {
				return err
			}
			printIntent(out(cmd), intent)
			return nil
		}),
	}
}
