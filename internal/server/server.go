// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"codeberg.org/oliverandrich/assettag/internal/app"
	"codeberg.org/oliverandrich/assettag/internal/assets"
	"codeberg.org/oliverandrich/assettag/internal/config"
	"codeberg.org/oliverandrich/assettag/internal/handlers"
	"codeberg.org/oliverandrich/assettag/internal/i18n"
	"codeberg.org/oliverandrich/assettag/internal/services/resolver"
	"codeberg.org/oliverandrich/assettag/internal/services/scan"
	"codeberg.org/oliverandrich/assettag/internal/services/session"
	"codeberg.org/oliverandrich/assettag/internal/templates"
	"github.com/labstack/echo/v4"
	"github.com/urfave/cli/v3"
)

// Run starts the server with the given CLI command.
func Run(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)
	app.SetupLogger(os.Stdout, cfg.Log.Level, cfg.Log.Format)

	slog.Info("starting server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"base_url", cfg.Server.BaseURL,
	)

	// Database and services
	a, err := app.Open(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	// i18n
	if initErr := i18n.Init(); initErr != nil {
		return fmt.Errorf("failed to init i18n: %w", initErr)
	}

	h, err := newHandlers(cfg, a)
	if err != nil {
		return err
	}

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handlers.HTTPErrorHandler

	// Middleware
	setupMiddleware(e, cfg, findAssets())

	// Routes
	setupRoutes(e, h)

	// Start server
	return startWithGracefulShutdown(ctx, e, cfg)
}

func newHandlers(cfg *config.Config, a *app.App) (*handlers.Handlers, error) {
	sessions, err := session.NewManager(&cfg.Session, strings.HasPrefix(cfg.Server.BaseURL, "https://"))
	if err != nil {
		return nil, fmt.Errorf("failed to create session manager: %w", err)
	}

	return handlers.New(handlers.Deps{
		Repo:       a.Repo,
		Codes:      a.Codes,
		Renderer:   a.Renderer,
		Resolver:   a.Resolver,
		Assignment: a.Assignment,
		Scans:      scan.NewRegistry[resolver.Outcome](cfg.Scanner.MaxSessions, cfg.Scanner.SessionTTL),
		Sessions:   sessions,
		Hub:        a.Hub,
		Exporter:   a.Exporter,
		Scanner: templates.ScanView{
			Facing:     cfg.Scanner.Facing,
			Width:      cfg.Scanner.Width,
			Height:     cfg.Scanner.Height,
			IntervalMS: int(cfg.Scanner.Interval.Milliseconds()),
		},
		Previews: cfg.Codes.PreviewCount,
	}), nil
}

func setupRoutes(e *echo.Echo, h *handlers.Handlers) {
	// Static files
	e.GET("/static/*", echo.WrapHandler(http.StripPrefix("/static/", assets.FileServer())))

	e.GET("/health", h.Health)
	e.GET("/", h.Home)

	// Code management
	e.GET("/codes", h.Codes)
	e.POST("/codes", h.GenerateCodes)
	e.GET("/codes/manifest.xlsx", h.Manifest)
	e.GET("/codes/:id/image.png", h.CodeImage)

	// Printed labels land here
	e.GET("/qr/:id", h.Landing)
	e.POST("/qr/:id/assign", h.Assign)
	e.POST("/qr/:id/assign-new", h.AssignNew)
	e.POST("/qr/:id/unassign", h.Unassign)
	e.GET("/assets/:id", h.Asset)

	// Scanning
	e.GET("/scan", h.ScanPage)
	e.GET("/events", h.Events)

	api := e.Group("/api")
	api.GET("/codes", h.APIListCodes)
	api.POST("/codes", h.APICreateCodes)
	api.GET("/codes/:id", h.APIGetCode)
	api.POST("/scan", h.APIScan)
	api.POST("/scan/reset", h.APIScanReset)
}

func startWithGracefulShutdown(ctx context.Context, e *echo.Echo, cfg *config.Config) error {
	// Setup TLS
	tlsResult, err := SetupTLS(cfg)
	if err != nil {
		return fmt.Errorf("TLS setup failed: %w", err)
	}

	// Channel for server errors
	errChan := make(chan error, 2)

	// HTTP redirect server for ACME mode
	var httpServer *http.Server

	switch tlsResult.Mode {
	case TLSModeOff:
		// Plain HTTP on configured port
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		go func() {
			slog.Info("Server running", "url", cfg.Server.BaseURL)
			if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()

	case TLSModeACME:
		// HTTPS on :443
		go func() {
			slog.Info("Server running", "url", cfg.Server.BaseURL)
			if err := startTLSServer(e, ":443", tlsResult.TLSConfig); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()

		// HTTP redirect server on :80
		httpServer = &http.Server{
			Addr:              ":80",
			Handler:           tlsResult.HTTPHandler,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			slog.Info("HTTP to HTTPS redirect active", "addr", ":80")
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()

	case TLSModeSelfSigned, TLSModeManual:
		// HTTPS on configured port
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		go func() {
			slog.Info("Server running", "url", cfg.Server.BaseURL)
			if err := startTLSServer(e, addr, tlsResult.TLSConfig); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()
	}

	// Wait for interrupt signal or error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		slog.Info("shutting down server")
	case <-ctx.Done():
		slog.Info("shutting down server", "reason", ctx.Err())
	case err := <-errChan:
		slog.Error("server error", "error", err)
		return err
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown main server
	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown main server", "error", err)
	}

	// Shutdown HTTP redirect server if running
	if httpServer != nil {
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shutdown HTTP redirect server", "error", err)
		}
	}

	slog.Info("server stopped")
	return nil
}

// startTLSServer starts the Echo server with a custom TLS configuration.
func startTLSServer(e *echo.Echo, addr string, tlsConfig *tls.Config) error {
	lc := &net.ListenConfig{}
	ln, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return err
	}
	e.TLSListener = tls.NewListener(ln, tlsConfig)
	e.TLSServer.TLSConfig = tlsConfig
	return e.Server.Serve(e.TLSListener)
}
