package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"vlab/internal/logging"
)

// Watch reloads the config file on change and applies the logging level.
// Only the log level is hot-reloadable; everything else requires a restart.
// Blocks until ctx is cancelled.
func Watch(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory, not the file: editors replace files on save and
	// the inode-level watch would go stale.
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return err
	}

	target := filepath.Clean(path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			cfg, err := Load(path)
			if err != nil {
				logging.L().Warn("config reload failed",
					zap.String("path", path), zap.Error(err))
				continue
			}
			if err := logging.SetLogLevel(cfg.Logging.Level); err != nil {
				logging.L().Warn("invalid log level in reloaded config",
					zap.String("level", cfg.Logging.Level), zap.Error(err))
				continue
			}
			logging.L().Info("log level reloaded from config",
				zap.String("level", cfg.Logging.Level))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.L().Warn("config watcher error", zap.Error(err))
		}
	}
}
