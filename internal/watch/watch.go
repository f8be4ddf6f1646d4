// Package watch turns bursts of new photos in a directory into batches.
package watch

import (
	"context"
	"log/slog"
	"os"
	"sort"
	"time"

	"geostamp/internal/fsutil"

	"github.com/fsnotify/fsnotify"
)

// DefaultSettle is how long a directory must be quiet before a burst is
// handed off as a batch.
const DefaultSettle = 2 * time.Second

// Watcher collects created or rewritten images under one directory.
type Watcher struct {
	watcher *fsnotify.Watcher
	dir     string
	settle  time.Duration
	log     *slog.Logger

	// Batches delivers each burst, sorted by path. It is closed when Run returns.
	Batches chan []string
}

// New watches dir. A non-positive settle uses DefaultSettle.
func New(dir string, settle time.Duration, logger *slog.Logger) (*Watcher, error) {
	if settle <= 0 {
		settle = DefaultSettle
	}
	if logger == nil {
		logger = slog.Default()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}
	return &Watcher{
		watcher: fw,
		dir:     dir,
		settle:  settle,
		log:     logger,
		Batches: make(chan []string, 4),
	}, nil
}

// Run processes events until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.Batches)
	defer w.watcher.Close()

	w.log.Info("watching directory", "dir", w.dir, "settle", w.settle)

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.settle)
	if !timer.Stop() {
		<-timer.C
	}

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
			if !fsutil.IsImageFile(event.Name) {
				continue
			}
			pending[event.Name] = struct{}{}
			timer.Reset(w.settle)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("filesystem watcher error", "error", err)

		case <-timer.C:
			batch := flush(pending)
			if len(batch) == 0 {
				continue
			}
			select {
			case w.Batches <- batch:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// flush empties pending and returns the paths that still exist.
func flush(pending map[string]struct{}) []string {
	batch := make([]string, 0, len(pending))
	for p := range pending {
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			batch = append(batch, p)
		}
		delete(pending, p)
	}
	sort.Strings(batch)
	return batch
}
