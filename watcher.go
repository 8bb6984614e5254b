package main

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// levelWatcher reloads the planner when the level file or an obstacle file
// changes. Bursts of events are collapsed into one reload once the files have
// been quiet for the debounce window.
type levelWatcher struct {
	watcher   *fsnotify.Watcher
	levelPath string
	reload    func(ctx context.Context) error
	logger    *zap.Logger
	debounce  time.Duration

	mu      sync.Mutex
	pending time.Time
	done    chan struct{}
}

func newLevelWatcher(cfg *Config, reload func(ctx context.Context) error, logger *zap.Logger) (*levelWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	lw := &levelWatcher{
		watcher:   w,
		levelPath: filepath.Clean(cfg.Level.Path),
		reload:    reload,
		logger:    logger.Named("watcher"),
		debounce:  500 * time.Millisecond,
		done:      make(chan struct{}),
	}

	// Watch directories: editors replace files by rename.
	dirs := []string{filepath.Dir(lw.levelPath)}
	if cfg.Level.ObstaclesDir != "" {
		dirs = append(dirs, filepath.Clean(cfg.Level.ObstaclesDir))
	}
	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return nil, err
		}
		lw.logger.Info("watching", zap.String("dir", dir))
	}
	return lw, nil
}

// Run handles events until ctx is done, then closes the watcher.
func (lw *levelWatcher) Run(ctx context.Context) {
	defer close(lw.done)
	defer lw.watcher.Close()

	tick := time.NewTicker(lw.debounce / 5)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-lw.watcher.Events:
			if !ok {
				return
			}
			lw.handleEvent(event)
		case err, ok := <-lw.watcher.Errors:
			if !ok {
				return
			}
			lw.logger.Warn("watch error", zap.Error(err))
		case <-tick.C:
			lw.flush(ctx)
		}
	}
}

// Done is closed when Run returns.
func (lw *levelWatcher) Done() <-chan struct{} {
	return lw.done
}

func (lw *levelWatcher) relevant(name string) bool {
	name = filepath.Clean(name)
	return name == lw.levelPath || strings.EqualFold(filepath.Ext(name), ".geojson")
}

func (lw *levelWatcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}
	if !lw.relevant(event.Name) {
		return
	}
	lw.logger.Debug("level change", zap.String("file", event.Name), zap.Stringer("op", event.Op))
	lw.mu.Lock()
	lw.pending = time.Now()
	lw.mu.Unlock()
}

func (lw *levelWatcher) flush(ctx context.Context) {
	lw.mu.Lock()
	if lw.pending.IsZero() || time.Since(lw.pending) < lw.debounce {
		lw.mu.Unlock()
		return
	}
	lw.pending = time.Time{}
	lw.mu.Unlock()

	if err := lw.reload(ctx); err != nil {
		lw.logger.Error("reload after change failed; keeping current level", zap.Error(err))
		return
	}
	lw.logger.Info("level reloaded after change")
}
