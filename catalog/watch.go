package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads catalog files as they are created or written until ctx is
// cancelled. Setup failures are returned; reload failures are logged.
func (ld *Loader) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() {
		_ = w.Close()
	}()

	if err := w.Add(ld.dir); err != nil {
		return fmt.Errorf("watch %s: %w", ld.dir, err)
	}
	ld.log.InfoContext(ctx, "catalog.watch.start", slog.String("dir", ld.dir))

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !strings.EqualFold(filepath.Ext(ev.Name), ".json") {
				continue
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			n, err := ld.LoadFile(ev.Name)
			if err != nil {
				// Editors often write in several steps; the next event retries.
				ld.log.DebugContext(ctx, "catalog.reload.fail", slog.String("path", ev.Name), slog.String("err", err.Error()))
				continue
			}
			ld.log.InfoContext(ctx, "catalog.reload.ok", slog.String("path", ev.Name), slog.Int("entries", n))
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			ld.log.WarnContext(ctx, "catalog.watch.error", slog.String("err", err.Error()))
		}
	}
}
