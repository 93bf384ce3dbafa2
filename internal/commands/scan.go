// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"codeberg.org/oliverandrich/assettag/internal/app"
	"codeberg.org/oliverandrich/assettag/internal/apperr"
	"codeberg.org/oliverandrich/assettag/internal/services/resolver"
	"codeberg.org/oliverandrich/assettag/internal/services/scan"
	"github.com/urfave/cli/v3"
)

func scanCommand() *cli.Command {
	return &cli.Command{
		Name:  "scan",
		Usage: "Decode codes from an image file or a directory frames are dropped into",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "once", Usage: "Stop after the first recognized code"},
		},
		Action: withApp(runScan),
	}
}

func runScan(ctx context.Context, cmd *cli.Command, a *app.App) error {
	cfg := a.Config.Scanner
	if cfg.Source == "" {
		return apperr.Invalid("scanner-source is not set")
	}

	prefs := scan.Preferences{
		Facing:   scan.Facing(cfg.Facing),
		Width:    cfg.Width,
		Height:   cfg.Height,
		Interval: cfg.Interval,
	}
	adapter := scan.NewAdapter(scan.NewDirCamera(cfg.Source), scan.NewZXingDecoder(), prefs)
	pipeline := resolver.NewPipeline(a.Resolver, scan.NewSession[resolver.Outcome]())

	w := out(cmd)
	once := cmd.Bool("once")

	h, err := adapter.Start(ctx, func(raw string) bool {
		intent, accepted, err := pipeline.HandleDecode(ctx, raw)
		if err != nil {
			slog.Error("scan failed", "error", err)
			return false
		}
		if !accepted {
			return false
		}
		printIntent(w, intent)
		if once && intent.Reason != resolver.ReasonUnreadable {
			return true
		}
		pipeline.Reset()
		return false
	})
	if err != nil {
		if reason, ok := apperr.CameraReasonOf(err); ok {
			return fmt.Errorf("camera %s: %w", reason, err)
		}
		return err
	}

	<-h.Done()
	return h.Err()
}

func printIntent(w io.Writer, intent resolver.Intent) {
	switch intent.Kind {
	case resolver.Reject:
		fmt.Fprintf(w, "%s\t%s\t%s\n", intent.Kind, intent.Identifier, intent.Reason)
	default:
		fmt.Fprintf(w, "%s\t%s\t%s\n", intent.Kind, intent.Identifier, intent.Path())
	}
}
