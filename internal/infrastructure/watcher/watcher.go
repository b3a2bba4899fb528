// Package watcher imports activity export files as they appear in a directory.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ersonp/activity-core/internal/domain/ports"
	"github.com/ersonp/activity-core/internal/infrastructure/parsers"
)

// DefaultDebounce is how long a file must stay quiet before it is handled.
const DefaultDebounce = 500 * time.Millisecond

// HandleFunc is called once per settled export file.
type HandleFunc func(ctx context.Context, path string) error

// Options configures a Watcher.
type Options struct {
	Debounce        time.Duration
	IncludeExisting bool // also handle exports already in the directory at start
	Logger          ports.Logger
}

// Watcher watches one directory for export files.
type Watcher struct {
	watcher  *fsnotify.Watcher
	dir      string
	debounce time.Duration
	existing bool
	logger   ports.Logger
}

// New starts watching dir.
func New(dir string, opts Options) (*Watcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("checking watch directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}

	w := &Watcher{
		watcher:  fsw,
		dir:      dir,
		debounce: opts.Debounce,
		existing: opts.IncludeExisting,
		logger:   opts.Logger,
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	if w.logger == nil {
		w.logger = ports.NopLogger{}
	}
	return w, nil
}

// Dir returns the watched directory.
func (w *Watcher) Dir() string {
	return w.dir
}

// Close stops the underlying fsnotify watcher. Run returns once it is closed.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// Run dispatches settled export files to handle until ctx is cancelled or the
// watcher is closed. Handler errors are logged and do not stop the loop.
func (w *Watcher) Run(ctx context.Context, handle HandleFunc) error {
	if w.existing {
		files, err := w.existingFiles()
		if err != nil {
			return err
		}
		for _, path := range files {
			w.dispatch(ctx, handle, path)
		}
	}

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !parsers.Supported(event.Name) {
				continue
			}
			w.logger.Debug("export changed", "path", event.Name, "op", event.Op.String())
			pending[event.Name] = time.Now()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			// Log error but continue running
			w.logger.Error("watch error", "err", err)

		case now := <-ticker.C:
			for _, path := range settled(pending, now, w.debounce) {
				delete(pending, path)
				w.dispatch(ctx, handle, path)
			}
		}
	}
}

func (w *Watcher) dispatch(ctx context.Context, handle HandleFunc, path string) {
	if err := handle(ctx, path); err != nil {
		w.logger.Error("handling export", "path", path, "err", err)
	}
}

func (w *Watcher) existingFiles() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, fmt.Errorf("reading watch directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !parsers.Supported(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(w.dir, entry.Name()))
	}
	return files, nil
}

// settled returns the pending paths quiet for at least debounce, sorted.
func settled(pending map[string]time.Time, now time.Time, debounce time.Duration) []string {
	var ready []string
	for path, last := range pending {
		if now.Sub(last) >= debounce {
			ready = append(ready, path)
		}
	}
	sort.Strings(ready)
	return ready
}
