package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/ajitpratap0/lumen/pkg/errors"
	"github.com/ajitpratap0/lumen/pkg/logger"
)

// Watch reloads filePath whenever it changes and hands each valid
// configuration to fn. Invalid edits are logged and skipped, so fn only ever
// sees configurations that passed Validate. Watch blocks until ctx is done.
//
// The containing directory is watched rather than the file so that editors
// which replace the file on save are still picked up.
func Watch(ctx context.Context, filePath string, fn func(*Config)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to create file watcher")
	}
	defer w.Close()

	abs, err := filepath.Abs(filePath)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to resolve config path")
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to watch config directory").
			WithDetail("path", filepath.Dir(abs))
	}

	log := logger.With(zap.String("component", "config_watcher"), zap.String("path", abs))
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := Load(abs)
			if err != nil {
				log.Warn("ignoring invalid configuration change", errors.Fields(err)...)
				continue
			}
			log.Info("configuration reloaded")
			fn(cfg)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("file watcher error", zap.Error(err))
		}
	}
}
