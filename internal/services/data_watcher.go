package services

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"bikeshare/internal/config"
	"bikeshare/internal/infrastructure"
)

// Reloader rebuilds the dataset snapshot
type Reloader interface {
	Reload(ctx context.Context) (*ReloadSummary, error)
}

// DataWatcher reloads the dataset when a source file changes. Bursts of
// events (editors and copy tools write in several steps) collapse into a
// single reload once the files have been quiet for the debounce interval.
type DataWatcher struct {
	reloader Reloader
	files    map[string]bool
	dirs     []string
	debounce time.Duration
	logger   *slog.Logger

	running atomic.Bool
	reloads atomic.Int64
}

// NewDataWatcher watches the day and hour files of paths
func NewDataWatcher(reloader Reloader, paths *config.Paths, debounce time.Duration, logger *slog.Logger) *DataWatcher {
	if logger == nil {
		logger = slog.Default()
	}

	w := &DataWatcher{
		reloader: reloader,
		files:    make(map[string]bool),
		debounce: debounce,
		logger:   logger.With(slog.String("component", "data_watcher")),
	}

	// watch directories, not files, so atomic replace-by-rename is seen
	seen := make(map[string]bool)
	for _, f := range []string{paths.DayFile, paths.HourFile} {
		f = filepath.Clean(f)
		w.files[f] = true
		dir := filepath.Dir(f)
		if !seen[dir] {
			seen[dir] = true
			w.dirs = append(w.dirs, dir)
		}
	}
	return w
}

// Reloads returns how many reloads the watcher has triggered
func (w *DataWatcher) Reloads() int64 {
	return w.reloads.Load()
}

func (w *DataWatcher) relevant(ev fsnotify.Event) bool {
	if !w.files[filepath.Clean(ev.Name)] {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}

// Run watches until ctx is cancelled
func (w *DataWatcher) Run(ctx context.Context) error {
	if !w.running.CompareAndSwap(false, true) {
		return ErrWatcherRunning
	}
	defer w.running.Store(false)

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fw.Close()

	for _, dir := range w.dirs {
		if err := fw.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	w.logger.InfoContext(ctx, "watching data files",
		slog.Any("dirs", w.dirs),
		slog.Duration("debounce", w.debounce))

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("data watcher stopped")
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			w.logger.DebugContext(ctx, "data file changed",
				slog.String("file", ev.Name),
				slog.String("op", ev.Op.String()))
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.WarnContext(ctx, "file watcher error", slog.String("error", err.Error()))

		case <-fire:
			fire = nil
			w.reloads.Add(1)
			// failures are logged and broadcast by the reloader; the old
			// snapshot stays in service
			rctx := infrastructure.EnsureTraceID(ctx)
			if _, err := w.reloader.Reload(rctx); err != nil {
				w.logger.WarnContext(rctx, "reload after file change failed", slog.String("error", err.Error()))
			}
		}
	}
}
