// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package app wires the services shared by the web server and the CLI.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"codeberg.org/oliverandrich/assettag/internal/config"
	"codeberg.org/oliverandrich/assettag/internal/database"
	"codeberg.org/oliverandrich/assettag/internal/repository"
	"codeberg.org/oliverandrich/assettag/internal/services/assignment"
	"codeberg.org/oliverandrich/assettag/internal/services/codegen"
	"codeberg.org/oliverandrich/assettag/internal/services/export"
	"codeberg.org/oliverandrich/assettag/internal/services/qrimage"
	"codeberg.org/oliverandrich/assettag/internal/services/resolver"
	"codeberg.org/oliverandrich/assettag/internal/sse"
	"github.com/vinovest/sqlx"
)

// App holds the open database and the services built on it.
type App struct {
	Config     *config.Config
	DB         *sqlx.DB
	Repo       *repository.Repository
	Codes      *codegen.Service
	Renderer   *qrimage.Renderer
	Resolver   *resolver.Resolver
	Assignment *assignment.Service
	Hub        *sse.Hub
	Exporter   *export.Exporter
}

// Open connects to the database, applies migrations and builds the services.
func Open(cfg *config.Config) (*App, error) {
	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	a, err := build(cfg, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return a, nil
}

func build(cfg *config.Config, db *sqlx.DB) (*App, error) {
	repo := repository.New(db)

	renderer, err := qrimage.New(qrimage.Options{
		Origin: cfg.Server.BaseURL,
		Size:   cfg.Codes.ImageSize,
		Margin: cfg.Codes.Margin,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	sink, err := NewSink(cfg.Export)
	if err != nil {
		return nil, fmt.Errorf("failed to create export sink: %w", err)
	}

	hub := sse.NewHub()

	return &App{
		Config:   cfg,
		DB:       db,
		Repo:     repo,
		Codes:    codegen.NewService(repo, codegen.WithMaxBatch(cfg.Codes.BatchMax)),
		Renderer: renderer,
		Resolver: resolver.New(repo),
		Assignment: assignment.NewService(repo, repo,
			assignment.WithReassign(cfg.Codes.AllowReassign),
			assignment.WithNotifier(hub),
		),
		Hub:      hub,
		Exporter: export.New(renderer, sink, assetNames(repo)),
	}, nil
}

// NewSink returns the S3 sink when a bucket is configured and the directory sink otherwise.
func NewSink(cfg config.ExportConfig) (export.Sink, error) {
	if cfg.UseS3() {
		slog.Debug("exporting to bucket", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
		return export.NewS3Sink(export.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			Prefix:    cfg.S3Prefix,
			UseSSL:    cfg.S3UseSSL,
		})
	}
	return export.NewDirSink(cfg.Dir)
}

func assetNames(repo *repository.Repository) export.AssetNames {
	return func(ctx context.Context, id string) (string, error) {
		a, err := repo.GetAsset(ctx, id)
		if err != nil || a == nil {
			return "", err
		}
		return a.Name, nil
	}
}

// Close closes the database.
func (a *App) Close() {
	if err := a.DB.Close(); err != nil {
		slog.Error("failed to close database", "error", err)
	}
}
