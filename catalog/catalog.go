// Package catalog loads tool and resource definitions from a directory of
// JSON files and keeps them registered as the files change.
//
// Each *.json file holds either a single Entry or an array of entries:
//
//	{"kind": "tool", "name": "echo", "definition": {"name": "echo", "inputSchema": {"type": "object"}}}
//
// Removing a file does not unregister its entries.
package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Kind selects the registry an entry is written to.
type Kind string

const (
	KindTool     Kind = "tool"
	KindResource Kind = "resource"
)

// Entry is one catalog definition.
type Entry struct {
	Kind       Kind            `json:"kind" jsonschema:"enum=tool,enum=resource"`
	Name       string          `json:"name" jsonschema:"minLength=1"`
	Definition json.RawMessage `json:"definition" jsonschema:"description=Definition document returned verbatim to clients"`
}

// ErrInvalidEntry is wrapped by every parse and validation failure.
var ErrInvalidEntry = errors.New("catalog: invalid entry")

// Registrar receives the entries of a catalog.
type Registrar interface {
	RegisterTool(name string, definition json.RawMessage) (string, error)
	RegisterResource(name string, definition json.RawMessage) (string, error)
}

// Parse decodes the contents of one catalog file.
func Parse(data []byte) ([]Entry, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidEntry)
	}

	var entries []Entry
	if data[0] == '[' {
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
		}
	} else {
		var e Entry
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
		}
		entries = []Entry{e}
	}

	for i, e := range entries {
		if err := e.validate(); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
	}
	return entries, nil
}

func (e Entry) validate() error {
	switch e.Kind {
	case KindTool, KindResource:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidEntry, e.Kind)
	}
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidEntry)
	}
	if len(e.Definition) == 0 {
		return fmt.Errorf("%w: missing definition for %q", ErrInvalidEntry, e.Name)
	}
	return nil
}

// Loader applies catalog files to a Registrar.
type Loader struct {
	dir string
	reg Registrar
	log *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets a custom logger for the Loader.
func WithLogger(l *slog.Logger) Option {
	return func(ld *Loader) {
		if l != nil {
			ld.log = l
		}
	}
}

// NewLoader returns a loader reading catalog files from dir.
func NewLoader(dir string, reg Registrar, opts ...Option) *Loader {
	ld := &Loader{dir: dir, reg: reg, log: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(ld)
		}
	}
	return ld
}

// Load registers every entry of every *.json file in the directory, in file
// name order. Invalid files are logged and skipped; only a directory that
// cannot be read is an error. It returns the number of entries registered.
func (ld *Loader) Load() (int, error) {
	if _, err := os.Stat(ld.dir); err != nil {
		return 0, fmt.Errorf("read catalog dir: %w", err)
	}
	matches, err := filepath.Glob(filepath.Join(ld.dir, "*.json"))
	if err != nil {
		return 0, fmt.Errorf("scan catalog: %w", err)
	}
	sort.Strings(matches)

	total := 0
	for _, p := range matches {
		n, err := ld.LoadFile(p)
		if err != nil {
			ld.log.Warn("catalog.load_file.fail", slog.String("path", p), slog.String("err", err.Error()))
			continue
		}
		total += n
	}
	ld.log.Info("catalog.load.ok", slog.String("dir", ld.dir), slog.Int("files", len(matches)), slog.Int("entries", total))
	return total, nil
}

// LoadFile registers the entries of a single file. Nothing is registered if
// any entry in the file is invalid.
func (ld *Loader) LoadFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}
	entries, err := Parse(data)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}

	for _, e := range entries {
		var msg string
		switch e.Kind {
		case KindTool:
			msg, err = ld.reg.RegisterTool(e.Name, e.Definition)
		case KindResource:
			msg, err = ld.reg.RegisterResource(e.Name, e.Definition)
		}
		if err != nil {
			return 0, fmt.Errorf("register %s %q: %w", e.Kind, e.Name, err)
		}
		ld.log.Debug("catalog.register.ok", slog.String("path", path), slog.String("ack", msg))
	}
	return len(entries), nil
}
