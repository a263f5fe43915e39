package libsync

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dupewatch/dupewatch/library"
)

// ImportWatcher watches a hot-folder for CSV drops. Any *.csv created or
// written in the directory is imported into the library; existing files
// are imported once at startup.
type ImportWatcher struct {
	dir             string
	defaultPlatform string
	store           *library.Store
	logger          *slog.Logger

	mu       sync.Mutex
	lastSeen map[string]time.Time
}

// NewImportWatcher creates a hot-folder watcher. defaultPlatform is used
// for rows without a platform column (e.g. a plain GOG export).
func NewImportWatcher(dir, defaultPlatform string, store *library.Store, logger *slog.Logger) *ImportWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImportWatcher{
		dir:             dir,
		defaultPlatform: defaultPlatform,
		store:           store,
		logger:          logger,
		lastSeen:        make(map[string]time.Time),
	}
}

// Run imports existing files, then blocks watching for new ones until ctx
// is cancelled.
func (w *ImportWatcher) Run(ctx context.Context) error {
	w.importExisting(ctx)

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return err
	}
	w.logger.Info("libsync: watching import dir", "dir", w.dir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if !strings.EqualFold(filepath.Ext(ev.Name), ".csv") {
				continue
			}
			if w.debounced(ev.Name) {
				continue
			}
			w.importFile(ctx, ev.Name)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("libsync: import watcher error", "error", err)
		}
	}
}

// debounced suppresses the burst of Write events a single file copy
// produces. One import per file per second is plenty.
func (w *ImportWatcher) debounced(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	now := time.Now()
	if last, ok := w.lastSeen[path]; ok && now.Sub(last) < time.Second {
		return true
	}
	w.lastSeen[path] = now
	return false
}

func (w *ImportWatcher) importExisting(ctx context.Context) {
	files, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.Warn("libsync: read import dir", "dir", w.dir, "error", err)
		return
	}
	for _, f := range files {
		if f.IsDir() || !strings.EqualFold(filepath.Ext(f.Name()), ".csv") {
			continue
		}
		w.importFile(ctx, filepath.Join(w.dir, f.Name()))
	}
}

func (w *ImportWatcher) importFile(ctx context.Context, path string) {
	f, err := os.Open(path)
	if err != nil {
		w.logger.Warn("libsync: open import file", "path", path, "error", err)
		return
	}
	defer f.Close()

	entries, stats, err := ImportCSV(f, w.defaultPlatform)
	if err != nil {
		w.logger.Warn("libsync: import failed", "path", path, "error", err)
		return
	}

	for platform, list := range GroupByPlatform(entries) {
		if err := w.store.ReplacePlatform(ctx, platform, list); err != nil {
			w.logger.Error("libsync: store import", "platform", platform, "error", err)
		}
	}

	w.logger.Info("libsync: imported csv",
		"path", path, "imported", stats.Imported, "skipped", stats.Skipped)
}
