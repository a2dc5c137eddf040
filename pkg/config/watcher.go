// pkg/config/watcher.go
package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Watcher watches the loaded config file and reloads the Manager when
// the file changes. Rapid successive writes are debounced into a single
// reload.
type Watcher struct {
	manager *Manager
	watcher *fsnotify.Watcher

	debounceDelay time.Duration
	logger        zerolog.Logger

	mu            sync.Mutex
	debounceTimer *time.Timer
}

// NewWatcher creates a watcher over the manager's config file. The
// manager must have loaded a config file already.
func NewWatcher(manager *Manager) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		manager:       manager,
		watcher:       fsw,
		debounceDelay: 100 * time.Millisecond,
		logger:        log.With().Str("component", "config.watcher").Logger(),
	}, nil
}

// Start begins watching. It blocks until the context is canceled and
// should run in its own goroutine. fsnotify watches directories, not
// files, so the config file's parent directory is registered and other
// files in it are ignored.
func (w *Watcher) Start(ctx context.Context) error {
	path := w.manager.ConfigFile()
	if path == "" {
		return nil
	}

	dir := filepath.Dir(path)
	name := filepath.Base(path)

	if err := w.watcher.Add(dir); err != nil {
		w.logger.Error().Err(err).Str("dir", dir).Msg("failed to watch config directory")
		return err
	}
	w.logger.Info().Str("file", path).Msg("watching config file")

	defer func() {
		if err := w.watcher.Close(); err != nil {
			w.logger.Warn().Err(err).Msg("error closing watcher")
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			// Editors replace files on save, so create counts as a write.
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				w.logger.Debug().Str("op", event.Op.String()).Msg("config file changed")
				w.scheduleReload()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("file watcher error")
		}
	}
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceDelay, func() {
		if err := w.manager.Reload(); err != nil {
			w.logger.Error().Err(err).Msg("config reload failed")
			return
		}
		w.logger.Info().Msg("config reloaded")
	})
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
