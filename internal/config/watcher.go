// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Ch0c0l4tE/fraud/internal/log"
)

const debounceDelay = 250 * time.Millisecond

// Watch re-loads the configuration file whenever it changes and invokes
// onReload with the new configuration. Invalid files are logged and
// skipped; the previous configuration stays in effect. Watch blocks
// until ctx is done.
func Watch(ctx context.Context, path string, onReload func(Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory, not the file: editors replace files on save.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}

	logger := log.WithComponent("config")
	logger.Info().Str("path", path).Msg("watching configuration file")

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	target := filepath.Clean(path)
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
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDelay, func() {
				cfg, err := Load(path)
				if err != nil {
					logger.Warn().Err(err).Str("path", path).
						Msg("configuration reload failed, keeping previous")
					return
				}
				logger.Info().Str("path", path).Msg("configuration reloaded")
				onReload(cfg)
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Msg("configuration watcher error")
		}
	}
}
