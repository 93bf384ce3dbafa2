// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"codeberg.org/oliverandrich/assettag/internal/commands"
	"github.com/joho/godotenv"
)

// Version information (set via ldflags during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := commands.Root(fmt.Sprintf("%s (built %s)", Version, BuildTime))
	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
