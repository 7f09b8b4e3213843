package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/specialistvlad/devinit/internal/ctxlog"
	"github.com/specialistvlad/devinit/internal/fsutil"
)

// watchDebounce coalesces the burst of events an editor produces on save.
const watchDebounce = 100 * time.Millisecond

// watch validates the description once and again after every change to a
// .hcl file below the configured paths, until ctx is done. Invalid
// descriptions are reported, never fatal.
func (a *App) watch(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	for _, path := range a.config.Paths {
		if err := addWatchTree(watcher, path); err != nil {
			return err
		}
	}
	logger.Info("👀 Watching description for changes.", "paths", a.config.Paths)

	a.check(ctx)

	debounce := time.NewTimer(watchDebounce)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Watch stopped.")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addWatchTree(watcher, event.Name); err != nil {
						logger.Warn("Failed to watch new directory.", "path", event.Name, "error", err)
					}
					continue
				}
			}
			if !strings.HasSuffix(event.Name, ".hcl") || event.Op == fsnotify.Chmod {
				continue
			}
			logger.Debug("Description changed.", "path", event.Name, "op", event.Op.String())
			debounce.Reset(watchDebounce)

		case <-debounce.C:
			a.check(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("fsnotify error", "error", err)
		}
	}
}

// check rebuilds the graph and prints its order, or logs why it failed.
func (a *App) check(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)
	graph, err := a.load(ctx)
	if err != nil {
		logger.Error("❌ Description is invalid.", "error", err)
		return
	}
	logger.Info("✅ Description is valid.", "components", graph.Len())
	if err := a.writeOrder(graph); err != nil {
		logger.Error("Failed to write order.", "error", err)
	}
}

// addWatchTree watches path. Directories are watched recursively; for a
// file its directory is watched so that editors replacing the file are
// noticed.
func addWatchTree(watcher *fsnotify.Watcher, path string) error {
	dirs, err := fsutil.Dirs(path)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	return nil
}
