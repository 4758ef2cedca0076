package compiler

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounce is the quiet period after the last write before regenerating.
const debounce = 100 * time.Millisecond

// Watch generates the accessor tables of the schema document at path, then
// regenerates them whenever the document changes, until ctx is done.
// Errors after the first generation are logged and watching continues.
func Watch(ctx context.Context, path string, logger *slog.Logger, opts ...Option) error {
	if logger == nil {
		logger = slog.Default()
	}
	path = filepath.Clean(path)
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	// Editors often replace the file, so the directory is watched. It is
	// watched before the first generation so that no edit is missed.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}
	if err := GenerateFile(ctx, path, opts...); err != nil {
		return err
	}
	logger.Info("generated accessors", "schema", path)

	changed := make(chan struct{}, 1)
	var timer *time.Timer
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case changed <- struct{}{}:
				default:
				}
			})
		case <-changed:
			if err := GenerateFile(ctx, path, opts...); err != nil {
				logger.Error("generate accessors", "schema", path, "error", err)
				continue
			}
			logger.Info("regenerated accessors", "schema", path)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch schema", "error", err)
		}
	}
}
