package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultWatchDelay coalesces bursts of file events into one reload.
const DefaultWatchDelay = 150 * time.Millisecond

// WatchOption configures Watch.
type WatchOption func(*watchConfig)

type watchConfig struct {
	delay    time.Duration
	onReload func(ids []string, err error)
}

// WithWatchDelay overrides the debounce delay between an event and reload.
func WithWatchDelay(delay time.Duration) WatchOption {
	return func(cfg *watchConfig) {
		if delay > 0 {
			cfg.delay = delay
		}
	}
}

// OnReload registers a callback invoked after every reload attempt.
func OnReload(fn func(ids []string, err error)) WatchOption {
	return func(cfg *watchConfig) {
		cfg.onReload = fn
	}
}

// LoadDir loads the templates of a directory, using the directory path as
// the source name.
func (c *Catalog) LoadDir(dir string) ([]string, error) {
	return c.LoadFS(dir, os.DirFS(dir))
}

// Watch loads dir and reloads it whenever a template file changes. It blocks
// until ctx is cancelled. A reload that fails keeps the previous records.
func (c *Catalog) Watch(ctx context.Context, dir string, options ...WatchOption) error {
	cfg := watchConfig{delay: DefaultWatchDelay}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("catalog: create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("catalog: watch %s: %w", dir, err)
	}

	reload := func() {
		ids, err := c.LoadDir(dir)
		if cfg.onReload != nil {
			cfg.onReload(ids, err)
		}
	}
	reload()

	var (
		mu    sync.Mutex
		timer *time.Timer
		wg    sync.WaitGroup
	)
	schedule := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil && timer.Stop() {
			wg.Done()
		}
		wg.Add(1)
		timer = time.AfterFunc(cfg.delay, func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			reload()
		})
	}
	defer func() {
		mu.Lock()
		if timer != nil && timer.Stop() {
			wg.Done()
		}
		mu.Unlock()
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isTemplateFile(event.Name) || strings.HasPrefix(filepath.Base(event.Name), ".") {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			c.logger.Debug("template file changed", zap.String("path", event.Name), zap.String("op", event.Op.String()))
			schedule()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.logger.Warn("template watcher error", zap.Error(err))
		}
	}
}
