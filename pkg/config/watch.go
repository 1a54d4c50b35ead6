package config

import (
	"context"
	"fmt"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the settings file whenever it changes and delivers the result
// to apply. It blocks until ctx is cancelled. Reload failures are delivered
// to onError when provided and otherwise ignored; the previous settings stay
// in effect either way.
func Watch(ctx context.Context, path string, apply func(Settings), onError func(error)) error {
	if apply == nil {
		return fmt.Errorf("config: apply callback is nil")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("config: watch %s: %w", path, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !evt.Op.Has(fsnotify.Write) && !evt.Op.Has(fsnotify.Create) {
				continue
			}
			settings, err := Load(path)
			if err != nil {
				if onError != nil {
					onError(err)
				}
				continue
			}
			apply(settings)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if onError != nil {
				onError(err)
			}
		}
	}
}
