// Package config reads the host's settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/ggoodman/katulong-mcp-host/host"
	"github.com/ggoodman/katulong-mcp-host/internal/logctx"
	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Config holds every setting of the katulong-host command. Defaults are
// provided via struct tags.
type Config struct {
	// Addr is the WebSocket listen address. ENV: KATULONG_ADDR
	Addr string `env:"KATULONG_ADDR,default=127.0.0.1:8888"`
	// WSPath is the handshake path. ENV: KATULONG_WS_PATH
	WSPath string `env:"KATULONG_WS_PATH,default=/"`
	// ControlAddr enables the control HTTP API when set. ENV: KATULONG_CONTROL_ADDR
	ControlAddr string `env:"KATULONG_CONTROL_ADDR"`
	// CatalogDir is a directory of catalog files. ENV: KATULONG_CATALOG_DIR
	CatalogDir string `env:"KATULONG_CATALOG_DIR"`
	// CatalogWatch reloads catalog files on change. ENV: KATULONG_CATALOG_WATCH
	CatalogWatch bool `env:"KATULONG_CATALOG_WATCH,default=true"`
	// ListChanged broadcasts list_changed notifications. ENV: KATULONG_LIST_CHANGED
	ListChanged bool `env:"KATULONG_LIST_CHANGED,default=true"`
	// LogLevel is one of debug, info, warn, error. ENV: KATULONG_LOG_LEVEL
	LogLevel slog.Level `env:"KATULONG_LOG_LEVEL,default=info"`
	// LogFormat is text or json. ENV: KATULONG_LOG_FORMAT
	LogFormat string `env:"KATULONG_LOG_FORMAT,default=text"`
	// ServerName is reported by initialize. ENV: KATULONG_SERVER_NAME
	ServerName string `env:"KATULONG_SERVER_NAME,default=katulong-mcp-host"`
	// ServerVersion is reported by initialize. ENV: KATULONG_SERVER_VERSION
	ServerVersion string `env:"KATULONG_SERVER_VERSION,default=0.1.0"`
}

// Load reads envFiles into the environment (a missing default .env is not
// an error), then decodes Config from it. Variables already present in the
// environment win over file values.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load .env: %w", err)
		}
	} else if err := godotenv.Load(envFiles...); err != nil {
		return Config{}, fmt.Errorf("load env files: %w", err)
	}
	return FromEnv()
}

// FromEnv decodes Config from the process environment.
func FromEnv() (Config, error) {
	var cfg Config
	if err := envdecode.StrictDecode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports settings that cannot be used.
func (c Config) Validate() error {
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q: want text or json", c.LogFormat)
	}
	if c.Addr == "" {
		return errors.New("listen address must not be empty")
	}
	if !strings.HasPrefix(c.WSPath, "/") {
		return fmt.Errorf("invalid websocket path %q: must start with /", c.WSPath)
	}
	return nil
}

// Logger builds the process logger writing to w.
func (c Config) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	var h slog.Handler
	if strings.EqualFold(c.LogFormat, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(logctx.Handler{Handler: h})
}

// HostOptions translates the configuration into host options.
func (c Config) HostOptions(log *slog.Logger) []host.Option {
	opts := []host.Option{
		host.WithLogger(log),
		host.WithAddr(c.Addr),
		host.WithPath(c.WSPath),
		host.WithServerInfo(c.ServerName, c.ServerVersion),
		host.WithListChanged(c.ListChanged),
	}
	if c.ControlAddr != "" {
		opts = append(opts, host.WithControlAddr(c.ControlAddr))
	}
	if c.CatalogDir != "" {
		opts = append(opts, host.WithCatalog(c.CatalogDir, c.CatalogWatch))
	}
	return opts
}
