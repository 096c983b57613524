package main

import (
	"fmt"
	"log/slog"

	"github.com/ggoodman/katulong-mcp-host/catalog"
	"github.com/ggoodman/katulong-mcp-host/host"
	"github.com/ggoodman/katulong-mcp-host/internal/config"
	"github.com/spf13/cobra"
)

type rootFlags struct {
	envFile     string
	addr        string
	wsPath      string
	controlAddr string
	catalogDir  string
	logLevel    string
	logFormat   string
}

func newRootCmd() *cobra.Command {
	var flags rootFlags

	cmd := &cobra.Command{
		Use:   "katulong-host",
		Short: "Serve MCP tools and resources over WebSocket",
		Long: "katulong-host accepts WebSocket connections and answers JSON-RPC requests\n" +
			"for initialize, tools/list, tools/call, resources/list and resources/read.\n" +
			"Settings come from KATULONG_* environment variables (optionally from a .env\n" +
			"file); flags override them.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			log := cfg.Logger(cmd.ErrOrStderr())
			slog.SetDefault(log)

			h := host.New(cfg.HostOptions(log)...)
			log.InfoContext(cmd.Context(), "host.start",
				slog.String("addr", cfg.Addr),
				slog.String("control_addr", cfg.ControlAddr),
				slog.String("catalog_dir", cfg.CatalogDir),
			)
			if err := h.Run(cmd.Context()); err != nil {
				return fmt.Errorf("run host: %w", err)
			}
			log.InfoContext(cmd.Context(), "host.stop")
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.envFile, "env-file", "", "load environment from this file instead of ./.env")
	f.StringVar(&flags.addr, "addr", "", "WebSocket listen address (KATULONG_ADDR)")
	f.StringVar(&flags.wsPath, "ws-path", "", "WebSocket handshake path (KATULONG_WS_PATH)")
	f.StringVar(&flags.controlAddr, "control-addr", "", "enable the control HTTP API on this address (KATULONG_CONTROL_ADDR)")
	f.StringVar(&flags.catalogDir, "catalog-dir", "", "load definitions from this directory (KATULONG_CATALOG_DIR)")
	f.StringVar(&flags.logLevel, "log-level", "", "debug, info, warn or error (KATULONG_LOG_LEVEL)")
	f.StringVar(&flags.logFormat, "log-format", "", "text or json (KATULONG_LOG_FORMAT)")

	cmd.AddCommand(newCatalogSchemaCmd())
	return cmd
}

// loadConfig reads the environment and applies explicitly set flags on top.
func loadConfig(cmd *cobra.Command, flags rootFlags) (config.Config, error) {
	var files []string
	if flags.envFile != "" {
		files = append(files, flags.envFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return config.Config{}, err
	}

	fs := cmd.Flags()
	if fs.Changed("addr") {
		cfg.Addr = flags.addr
	}
	if fs.Changed("ws-path") {
		cfg.WSPath = flags.wsPath
	}
	if fs.Changed("control-addr") {
		cfg.ControlAddr = flags.controlAddr
	}
	if fs.Changed("catalog-dir") {
		cfg.CatalogDir = flags.catalogDir
	}
	if fs.Changed("log-level") {
		if err := cfg.LogLevel.UnmarshalText([]byte(flags.logLevel)); err != nil {
			return config.Config{}, fmt.Errorf("invalid --log-level: %w", err)
		}
	}
	if fs.Changed("log-format") {
		cfg.LogFormat = flags.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newCatalogSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog-schema",
		Short: "Print the JSON Schema of catalog files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := catalog.SchemaJSON()
			if err != nil {
				return fmt.Errorf("render schema: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return err
		},
	}
}
