package safety

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// WatchTaxonomy reloads the filter's rule set whenever the taxonomy file
// changes on disk. It watches the parent directory so editor rename-and-swap
// saves are picked up. Blocks until ctx is done.
func (f *Filter) WatchTaxonomy(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return err
	}
	target := filepath.Clean(path)

	f.logger.Info("watching safety taxonomy", zap.String("path", target))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			t, err := LoadTaxonomy(target)
			if err != nil {
				f.logger.Error("taxonomy reload skipped", zap.Error(err))
				continue
			}
			if err := f.Reload(t); err != nil {
				f.logger.Error("taxonomy reload rejected", zap.Error(err))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			f.logger.Warn("taxonomy watcher error", zap.Error(err))
		}
	}
}
