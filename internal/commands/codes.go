// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"codeberg.org/oliverandrich/assettag/internal/app"
	"codeberg.org/oliverandrich/assettag/internal/apperr"
	"codeberg.org/oliverandrich/assettag/internal/models"
	"codeberg.org/oliverandrich/assettag/internal/repository"
	"github.com/urfave/cli/v3"
)

func codesCommand() *cli.Command {
	return &cli.Command{
		Name:  "codes",
		Usage: "Generate, list and export codes",
		Commands: []*cli.Command{
			{
				Name:  "generate",
				Usage: "Generate a batch of unassigned codes",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "count", Aliases: []string{"n"}, Value: 1, Usage: "Number of codes"},
					&cli.BoolFlag{Name: "export", Usage: "Export labels and manifest of the new codes"},
				},
				Action: withApp(generateCodes),
			},
			{
				Name:  "list",
				Usage: "List codes, newest first",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "status", Usage: "assigned or unassigned"},
					&cli.IntFlag{Name: "limit", Usage: "Maximum number of codes"},
				},
				Action: withApp(listCodes),
			},
			{
				Name:  "export",
				Usage: "Write label images and a manifest spreadsheet to the export target",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "status", Usage: "assigned or unassigned"},
				},
				Action: withApp(exportCodes),
			},
		},
	}
}

func generateCodes(ctx context.Context, cmd *cli.Command, a *app.App) error {
	codes, err := a.Codes.GenerateBatch(ctx, int(cmd.Int("count")))
	if err != nil {
		return err
	}

	w := out(cmd)
	for _, c := range codes {
		url, err := a.Renderer.CanonicalURL(c.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\n", c.ID, url)
	}

	if cmd.Bool("export") {
		return export(ctx, cmd, a, codes)
	}
	return nil
}

func codeFilter(cmd *cli.Command) (repository.CodeFilter, error) {
	filter := repository.CodeFilter{
		Status: models.CodeStatus(cmd.String("status")),
		Limit:  int(cmd.Int("limit")),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return filter, apperr.Invalid("status %q", filter.Status)
	}
	return filter, nil
}

func listCodes(ctx context.Context, cmd *cli.Command, a *app.App) error {
	filter, err := codeFilter(cmd)
	if err != nil {
		return err
	}

	codes, err := a.Repo.ListCodes(ctx, filter)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out(cmd), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tASSET\tCREATED")
	for _, c := range codes {
		asset := "-"
		if c.AssignedAssetID != nil {
			asset = *c.AssignedAssetID
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.ID, c.Status, asset, c.CreatedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

func exportCodes(ctx context.Context, cmd *cli.Command, a *app.App) error {
	filter, err := codeFilter(cmd)
	if err != nil {
		return err
	}

	codes, err := a.Repo.ListCodes(ctx, filter)
	if err != nil {
		return err
	}
	return export(ctx, cmd, a, codes)
}

func export(ctx context.Context, cmd *cli.Command, a *app.App, codes []models.Code) error {
	res, err := a.Exporter.Export(ctx, codes)
	if err != nil {
		return err
	}
	fmt.Fprintf(out(cmd), "exported %d labels, manifest %s\n", len(res.Labels), res.Manifest)
	return nil
}
