package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
)

func TestCatalogSchemaCommand(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"catalog-schema"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(out.Bytes(), &doc); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if _, ok := doc["oneOf"]; !ok {
		t.Fatalf("schema lacks oneOf: %v", doc)
	}
}

func TestLoadConfig_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("KATULONG_ADDR", "127.0.0.1:1111")
	t.Setenv("KATULONG_LOG_LEVEL", "info")
	unsetControlAddr(t)

	cmd := newRootCmd()
	if err := cmd.ParseFlags([]string{"--addr", "127.0.0.1:2222", "--log-level", "debug", "--env-file", writeEnvFile(t)}); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	flags := rootFlags{}
	flags.addr, _ = cmd.Flags().GetString("addr")
	flags.logLevel, _ = cmd.Flags().GetString("log-level")
	flags.envFile, _ = cmd.Flags().GetString("env-file")

	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Addr != "127.0.0.1:2222" {
		t.Fatalf("flag did not override env: %q", cfg.Addr)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Fatalf("expected debug level, got %v", cfg.LogLevel)
	}
	if cfg.ControlAddr != "127.0.0.1:3333" {
		t.Fatalf("expected control addr from env file, got %q", cfg.ControlAddr)
	}
}

func TestLoadConfig_InvalidFlag(t *testing.T) {
	unsetControlAddr(t)

	cmd := newRootCmd()
	if err := cmd.ParseFlags([]string{"--log-format", "yaml", "--env-file", writeEnvFile(t)}); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	flags := rootFlags{}
	flags.logFormat, _ = cmd.Flags().GetString("log-format")
	flags.envFile, _ = cmd.Flags().GetString("env-file")

	if _, err := loadConfig(cmd, flags); err == nil {
		t.Fatalf("expected validation error")
	}
}

func writeEnvFile(t *testing.T) string {
	t.Helper()
	p := t.TempDir() + "/test.env"
	if err := os.WriteFile(p, []byte("KATULONG_CONTROL_ADDR=127.0.0.1:3333\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	return p
}

// unsetControlAddr removes the variable the test env file sets, restoring
// it when the test ends.
func unsetControlAddr(t *testing.T) {
	t.Helper()
	t.Setenv("KATULONG_CONTROL_ADDR", "")
	if err := os.Unsetenv("KATULONG_CONTROL_ADDR"); err != nil {
		t.Fatalf("unsetenv: %v", err)
	}
}
