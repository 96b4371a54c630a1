package firewall

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher re-runs a block-list import whenever the list file changes.
type Watcher struct {
	path     string
	debounce time.Duration
	apply    func(ctx context.Context) error
	logger   zerolog.Logger
}

// NewWatcher creates a Watcher for the list at path. apply is called once per
// burst of changes, debounce after the last event.
func NewWatcher(path string, debounce time.Duration, apply func(ctx context.Context) error, logger zerolog.Logger) *Watcher {
	return &Watcher{
		path:     filepath.Clean(path),
		debounce: debounce,
		apply:    apply,
		logger:   logger.With().Str("component", "blocklist_watcher").Str("path", path).Logger(),
	}
}

// Run watches until ctx is cancelled. The parent directory is watched so that
// editors replacing the file are noticed too.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}
	w.logger.Info().Msg("Watching block list for changes")

	// fire stays nil until the first change arms the debounce timer.
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.logger.Debug().Str("op", event.Op.String()).Msg("Block list changed")
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error().Err(err).Msg("Watcher error")
		case <-fire:
			if err := w.apply(ctx); err != nil {
				w.logger.Error().Err(err).Msg("Block list re-import failed")
				continue
			}
			w.logger.Info().Msg("Block list re-imported")
		case <-ctx.Done():
			return nil
		}
	}
}
