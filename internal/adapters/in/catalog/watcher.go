package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"artfactory/internal/core/application/usecases/commands"

	"github.com/fsnotify/fsnotify"
)

// Syncer applies a catalog to the machine store.
type Syncer interface {
	Handle(ctx context.Context, cmd commands.SyncMachineCatalogCommand) (commands.SyncMachineCatalogResult, error)
}

// Watcher syncs the catalog file once at start and again whenever it is
// written, renamed into place or recreated.
type Watcher struct {
	path     string
	syncer   Syncer
	debounce time.Duration
	logger   *slog.Logger
}

func NewWatcher(path string, syncer Syncer, logger *slog.Logger) *Watcher {
	return &Watcher{
		path:     filepath.Clean(path),
		syncer:   syncer,
		debounce: 250 * time.Millisecond,
		logger:   logger.With("component", "catalog", "path", path),
	}
}

// Sync loads the file and applies it.
func (w *Watcher) Sync(ctx context.Context) (commands.SyncMachineCatalogResult, error) {
	entries, err := Load(w.path)
	if err != nil {
		return commands.SyncMachineCatalogResult{}, err
	}
	cmd, err := commands.NewSyncMachineCatalogCommand(entries)
	if err != nil {
		return commands.SyncMachineCatalogResult{}, fmt.Errorf("invalid catalog: %w", err)
	}
	res, err := w.syncer.Handle(ctx, cmd)
	if err != nil {
		return commands.SyncMachineCatalogResult{}, err
	}
	w.logger.InfoContext(ctx, "machine catalog synced", "created", res.Created, "updated", res.Updated)
	return res, nil
}

// Watch blocks until ctx is cancelled. The directory is watched rather than
// the file so editors that replace the file are noticed. A failing resync is
// logged and the previous state stays in place.
func (w *Watcher) Watch(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create catalog watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	if err = fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				timer.Reset(w.debounce)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.WarnContext(ctx, "catalog watcher error", "error", err)
		case <-timer.C:
			if _, err := w.Sync(ctx); err != nil && !errors.Is(err, context.Canceled) {
				w.logger.ErrorContext(ctx, "machine catalog resync failed", "error", err)
			}
		}
	}
}
