// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package config

import (
	"fmt"
	"strings"
	"time"

	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli-altsrc/v3/toml"
	"github.com/urfave/cli/v3"
)

var configFile = altsrc.StringSourcer("config.toml")

type Config struct { //nolint:govet // fieldalignment not critical for config structs
	Server   ServerConfig
	Log      LogConfig
	Database DatabaseConfig
	TLS      TLSConfig
	Session  SessionConfig
	Codes    CodesConfig
	Scanner  ScannerConfig
	Export   ExportConfig
}

type TLSConfig struct {
	Mode     string // auto, acme, selfsigned, manual, off
	CertDir  string // Directory for auto-generated certificates
	Email    string // ACME email for Let's Encrypt
	CertFile string // Path to certificate file (manual mode)
	KeyFile  string // Path to private key file (manual mode)
}

type ServerConfig struct { //nolint:govet // fieldalignment not critical for config structs
	Host        string
	Port        int
	BaseURL     string // origin of every printed code URL
	MaxBodySize int    // in MB
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // text, json
}

type DatabaseConfig struct {
	DSN string // sqlite path or postgres:// URL
}

type SessionConfig struct { //nolint:govet // fieldalignment not critical
	CookieName string // Session cookie name
	MaxAge     int    // Session max age in seconds
	HashKey    string // 32-byte hex string for HMAC signing
	BlockKey   string // 32-byte hex string for AES encryption (optional)
}

type CodesConfig struct {
	ImageSize     int // label edge in pixels
	Margin        int // quiet zone in modules
	PreviewCount  int // labels shown on the management page
	BatchMax      int
	AllowReassign bool
}

type ScannerConfig struct { //nolint:govet // fieldalignment not critical
	Facing      string // environment, user
	Width       int
	Height      int
	Interval    time.Duration
	Source      string // image file or drop directory for the scan command
	SessionTTL  time.Duration
	MaxSessions int
}

type ExportConfig struct { //nolint:govet // fieldalignment not critical
	Dir         string
	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3Prefix    string
	S3AccessKey string
	S3SecretKey string
	S3UseSSL    bool
}

// UseS3 reports whether exports go to a bucket instead of Dir.
func (e ExportConfig) UseS3() bool {
	return e.S3Endpoint != "" && e.S3Bucket != ""
}

func NewFromCLI(cmd *cli.Command) *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host:        cmd.String("host"),
			Port:        int(cmd.Int("port")),
			BaseURL:     cmd.String("base-url"),
			MaxBodySize: int(cmd.Int("max-body-size")),
		},
		Log: LogConfig{
			Level:  cmd.String("log-level"),
			Format: cmd.String("log-format"),
		},
		Database: DatabaseConfig{
			DSN: cmd.String("database-dsn"),
		},
		TLS: TLSConfig{
			Mode:     cmd.String("tls-mode"),
			CertDir:  cmd.String("tls-cert-dir"),
			Email:    cmd.String("tls-email"),
			CertFile: cmd.String("tls-cert-file"),
			KeyFile:  cmd.String("tls-key-file"),
		},
		Session: SessionConfig{
			CookieName: cmd.String("session-cookie-name"),
			MaxAge:     int(cmd.Int("session-max-age")),
			HashKey:    cmd.String("session-hash-key"),
			BlockKey:   cmd.String("session-block-key"),
		},
		Codes: CodesConfig{
			ImageSize:     int(cmd.Int("code-image-size")),
			Margin:        int(cmd.Int("code-margin")),
			PreviewCount:  int(cmd.Int("code-preview-count")),
			BatchMax:      int(cmd.Int("code-batch-max")),
			AllowReassign: cmd.Bool("allow-reassign"),
		},
		Scanner: ScannerConfig{
			Facing:      cmd.String("scanner-facing"),
			Width:       int(cmd.Int("scanner-width")),
			Height:      int(cmd.Int("scanner-height")),
			Interval:    cmd.Duration("scanner-interval"),
			Source:      cmd.String("scanner-source"),
			SessionTTL:  cmd.Duration("scan-session-ttl"),
			MaxSessions: int(cmd.Int("scan-session-max")),
		},
		Export: ExportConfig{
			Dir:         cmd.String("export-dir"),
			S3Endpoint:  cmd.String("export-s3-endpoint"),
			S3Region:    cmd.String("export-s3-region"),
			S3Bucket:    cmd.String("export-s3-bucket"),
			S3Prefix:    cmd.String("export-s3-prefix"),
			S3AccessKey: cmd.String("export-s3-access-key"),
			S3SecretKey: cmd.String("export-s3-secret-key"),
			S3UseSSL:    cmd.Bool("export-s3-use-ssl"),
		},
	}

	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = buildBaseURL(cfg)
	}
	cfg.Server.BaseURL = strings.TrimRight(cfg.Server.BaseURL, "/")

	applyCodeDefaults(cfg)

	return cfg
}

// applyCodeDefaults replaces out of range code and scanner settings with defaults.
func applyCodeDefaults(cfg *Config) {
	if cfg.Codes.ImageSize <= 0 {
		cfg.Codes.ImageSize = 256
	}
	if cfg.Codes.Margin < 0 {
		cfg.Codes.Margin = 2
	}
	if cfg.Codes.PreviewCount <= 0 {
		cfg.Codes.PreviewCount = 20
	}
	if cfg.Codes.BatchMax <= 0 || cfg.Codes.BatchMax > 50 {
		cfg.Codes.BatchMax = 50
	}
	switch cfg.Scanner.Facing {
	case "environment", "user":
	default:
		cfg.Scanner.Facing = "environment"
	}
	if cfg.Scanner.Interval <= 0 {
		cfg.Scanner.Interval = 250 * time.Millisecond
	}
	if cfg.Scanner.SessionTTL <= 0 {
		cfg.Scanner.SessionTTL = 30 * time.Minute
	}
	if cfg.Scanner.MaxSessions <= 0 {
		cfg.Scanner.MaxSessions = 1024
	}
}

func buildBaseURL(cfg *Config) string {
	host := cfg.Server.Host
	port := cfg.Server.Port
	mode := strings.ToLower(cfg.TLS.Mode)

	// Determine if TLS will be used
	useTLS := shouldUseTLS(mode, host)

	scheme := "http"
	if useTLS {
		scheme = "https"
	}

	// ACME mode always uses port 443
	if mode == "acme" {
		return fmt.Sprintf("https://%s", host)
	}

	// Hide default ports in URL
	if (scheme == "http" && port == 80) || (scheme == "https" && port == 443) {
		return fmt.Sprintf("%s://%s", scheme, host)
	}
	return fmt.Sprintf("%s://%s:%d", scheme, host, port)
}

func shouldUseTLS(mode, host string) bool {
	switch mode {
	case "off":
		return false
	case "acme", "selfsigned", "manual":
		return true
	default: // "auto" or empty
		return !IsLocalhost(host)
	}
}

// IsLocalhost checks if the host is a localhost address.
func IsLocalhost(host string) bool {
	switch host {
	case "", "localhost", "127.0.0.1", "::1":
		return true
	}
	// Check for *.localhost subdomains (e.g., app.localhost)
	return strings.HasSuffix(host, ".localhost")
}

func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "host",
			Value:   "localhost",
			Usage:   "Host to bind to",
			Sources: cli.NewValueSourceChain(cli.EnvVar("HOST"), toml.TOML("server.host", configFile)),
		},
		&cli.IntFlag{
			Name:    "port",
			Value:   8080,
			Usage:   "Port to listen on",
			Sources: cli.NewValueSourceChain(cli.EnvVar("PORT"), toml.TOML("server.port", configFile)),
		},
		&cli.StringFlag{
			Name:    "base-url",
			Usage:   "Public origin printed into every code URL",
			Sources: cli.NewValueSourceChain(cli.EnvVar("BASE_URL"), toml.TOML("server.base_url", configFile)),
		},
		&cli.IntFlag{
			Name:    "max-body-size",
			Value:   1,
			Usage:   "Maximum request body size in MB",
			Sources: cli.NewValueSourceChain(cli.EnvVar("MAX_BODY_SIZE"), toml.TOML("server.max_body_size", configFile)),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Value:   "info",
			Usage:   "Log level (debug, info, warn, error)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("LOG_LEVEL"), toml.TOML("log.level", configFile)),
		},
		&cli.StringFlag{
			Name:    "log-format",
			Value:   "text",
			Usage:   "Log format (text, json)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("LOG_FORMAT"), toml.TOML("log.format", configFile)),
		},
		&cli.StringFlag{
			Name:    "database-dsn",
			Value:   "./data/app.db",
			Usage:   "Database DSN (sqlite path or postgres:// URL)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("DATABASE_DSN"), toml.TOML("database.dsn", configFile)),
		},
		&cli.StringFlag{
			Name:    "tls-mode",
			Value:   "auto",
			Usage:   "TLS mode (auto, acme, selfsigned, manual, off)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("TLS_MODE"), toml.TOML("tls.mode", configFile)),
		},
		&cli.StringFlag{
			Name:    "tls-cert-dir",
			Value:   "./data/certs",
			Usage:   "Directory for auto-generated certificates",
			Sources: cli.NewValueSourceChain(cli.EnvVar("TLS_CERT_DIR"), toml.TOML("tls.cert_dir", configFile)),
		},
		&cli.StringFlag{
			Name:    "tls-email",
			Usage:   "Email for ACME/Let's Encrypt registration",
			Sources: cli.NewValueSourceChain(cli.EnvVar("TLS_EMAIL"), toml.TOML("tls.email", configFile)),
		},
		&cli.StringFlag{
			Name:    "tls-cert-file",
			Usage:   "Path to TLS certificate file (manual mode)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("TLS_CERT_FILE"), toml.TOML("tls.cert_file", configFile)),
		},
		&cli.StringFlag{
			Name:    "tls-key-file",
			Usage:   "Path to TLS private key file (manual mode)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("TLS_KEY_FILE"), toml.TOML("tls.key_file", configFile)),
		},
		// Session flags
		&cli.StringFlag{
			Name:    "session-cookie-name",
			Value:   "_scan_session",
			Usage:   "Scan session cookie name",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SESSION_COOKIE_NAME"), toml.TOML("session.cookie_name", configFile)),
		},
		&cli.IntFlag{
			Name:    "session-max-age",
			Value:   86400, // 1 day in seconds
			Usage:   "Scan session cookie max age in seconds",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SESSION_MAX_AGE"), toml.TOML("session.max_age", configFile)),
		},
		&cli.StringFlag{
			Name:    "session-hash-key",
			Usage:   "Session hash key (32-byte hex, auto-generated if empty in dev)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SESSION_HASH_KEY"), toml.TOML("session.hash_key", configFile)),
		},
		&cli.StringFlag{
			Name:    "session-block-key",
			Usage:   "Session block key for encryption (32-byte hex, optional)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SESSION_BLOCK_KEY"), toml.TOML("session.block_key", configFile)),
		},
		// Code flags
		&cli.IntFlag{
			Name:    "code-image-size",
			Value:   256,
			Usage:   "Label image size in pixels",
			Sources: cli.NewValueSourceChain(cli.EnvVar("CODE_IMAGE_SIZE"), toml.TOML("codes.image_size", configFile)),
		},
		&cli.IntFlag{
			Name:    "code-margin",
			Value:   2,
			Usage:   "Quiet zone around a label in modules",
			Sources: cli.NewValueSourceChain(cli.EnvVar("CODE_MARGIN"), toml.TOML("codes.margin", configFile)),
		},
		&cli.IntFlag{
			Name:    "code-preview-count",
			Value:   20,
			Usage:   "Number of label previews on the codes page",
			Sources: cli.NewValueSourceChain(cli.EnvVar("CODE_PREVIEW_COUNT"), toml.TOML("codes.preview_count", configFile)),
		},
		&cli.IntFlag{
			Name:    "code-batch-max",
			Value:   50,
			Usage:   "Largest batch a single request may generate (1-50)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("CODE_BATCH_MAX"), toml.TOML("codes.batch_max", configFile)),
		},
		&cli.BoolFlag{
			Name:    "allow-reassign",
			Value:   true,
			Usage:   "Allow pointing an assigned code at another asset",
			Sources: cli.NewValueSourceChain(cli.EnvVar("ALLOW_REASSIGN"), toml.TOML("codes.allow_reassign", configFile)),
		},
		// Scanner flags
		&cli.StringFlag{
			Name:    "scanner-facing",
			Value:   "environment",
			Usage:   "Preferred camera (environment, user)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SCANNER_FACING"), toml.TOML("scanner.facing", configFile)),
		},
		&cli.IntFlag{
			Name:    "scanner-width",
			Value:   1280,
			Usage:   "Preferred frame width",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SCANNER_WIDTH"), toml.TOML("scanner.width", configFile)),
		},
		&cli.IntFlag{
			Name:    "scanner-height",
			Value:   720,
			Usage:   "Preferred frame height",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SCANNER_HEIGHT"), toml.TOML("scanner.height", configFile)),
		},
		&cli.DurationFlag{
			Name:    "scanner-interval",
			Value:   250 * time.Millisecond,
			Usage:   "Pause between frame polls",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SCANNER_INTERVAL"), toml.TOML("scanner.interval", configFile)),
		},
		&cli.StringFlag{
			Name:    "scanner-source",
			Usage:   "Image file or drop directory read by the scan command",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SCANNER_SOURCE"), toml.TOML("scanner.source", configFile)),
		},
		&cli.DurationFlag{
			Name:    "scan-session-ttl",
			Value:   30 * time.Minute,
			Usage:   "Idle lifetime of a browser scan session",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SCAN_SESSION_TTL"), toml.TOML("scanner.session_ttl", configFile)),
		},
		&cli.IntFlag{
			Name:    "scan-session-max",
			Value:   1024,
			Usage:   "Maximum number of live scan sessions",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SCAN_SESSION_MAX"), toml.TOML("scanner.max_sessions", configFile)),
		},
		// Export flags
		&cli.StringFlag{
			Name:    "export-dir",
			Value:   "./data/export",
			Usage:   "Directory for exported labels",
			Sources: cli.NewValueSourceChain(cli.EnvVar("EXPORT_DIR"), toml.TOML("export.dir", configFile)),
		},
		&cli.StringFlag{
			Name:    "export-s3-endpoint",
			Usage:   "S3 endpoint for exports (host:port), disables the export directory",
			Sources: cli.NewValueSourceChain(cli.EnvVar("EXPORT_S3_ENDPOINT"), toml.TOML("export.s3_endpoint", configFile)),
		},
		&cli.StringFlag{
			Name:    "export-s3-region",
			Usage:   "S3 region",
			Sources: cli.NewValueSourceChain(cli.EnvVar("EXPORT_S3_REGION"), toml.TOML("export.s3_region", configFile)),
		},
		&cli.StringFlag{
			Name:    "export-s3-bucket",
			Usage:   "S3 bucket for exports",
			Sources: cli.NewValueSourceChain(cli.EnvVar("EXPORT_S3_BUCKET"), toml.TOML("export.s3_bucket", configFile)),
		},
		&cli.StringFlag{
			Name:    "export-s3-prefix",
			Usage:   "Key prefix inside the bucket",
			Sources: cli.NewValueSourceChain(cli.EnvVar("EXPORT_S3_PREFIX"), toml.TOML("export.s3_prefix", configFile)),
		},
		&cli.StringFlag{
			Name:    "export-s3-access-key",
			Usage:   "S3 access key",
			Sources: cli.NewValueSourceChain(cli.EnvVar("EXPORT_S3_ACCESS_KEY"), toml.TOML("export.s3_access_key", configFile)),
		},
		&cli.StringFlag{
			Name:    "export-s3-secret-key",
			Usage:   "S3 secret key",
			Sources: cli.NewValueSourceChain(cli.EnvVar("EXPORT_S3_SECRET_KEY"), toml.TOML("export.s3_secret_key", configFile)),
		},
		&cli.BoolFlag{
			Name:    "export-s3-use-ssl",
			Value:   true,
			Usage:   "Use TLS for the S3 endpoint",
			Sources: cli.NewValueSourceChain(cli.EnvVar("EXPORT_S3_USE_SSL"), toml.TOML("export.s3_use_ssl", configFile)),
		},
	}
}
