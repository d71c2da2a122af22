package config

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the file whenever it changes on disk and calls the
// listeners registered for the changed keys. It blocks until ctx is done.
// Editors replace files instead of writing them in place, so the directory
// is watched rather than the file.
func (c *Configurator) Watch(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errWatchConfig.Wrap(err)
	}

	defer fw.Close()

	if err := fw.Add(filepath.Dir(c.path)); err != nil {
		return errWatchConfig.Wrap(err)
	}

	target := filepath.Clean(c.path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}

			if filepath.Clean(ev.Name) != target ||
				!ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}

			changed, listeners, err := c.reload()
			if err != nil {
				c.log.Warn("config reload failed", slog.Any("error", err))
				continue
			}

			if len(changed) > 0 {
				c.log.Debug("config changed", slog.Any("keys", changed))
			}

			c.notify(changed, listeners)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}

			c.log.Warn("config watcher error", slog.Any("error", err))
		}
	}
}
