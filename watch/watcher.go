// Package watch rebuilds a composed artifact whenever its template or any
// fragment changes.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// Config configures a Watcher.
type Config struct {
	// Root is the agent module directory to watch.
	Root string

	// SkipFiles are file names whose changes are ignored, typically the
	// build output itself to avoid rebuild loops.
	SkipFiles []string

	// Ignore is a list of glob patterns matched against module-relative
	// paths.
	Ignore []string

	// Debounce is how long to wait for more changes before rebuilding.
	Debounce time.Duration

	// Logger for logging events.
	Logger *slog.Logger
}

// Watcher watches an agent module and emits debounced change batches.
type Watcher struct {
	config  Config
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	// Debouncing: collect changed paths before emitting
	pendingMu sync.Mutex
	pending   map[string]struct{}

	changes  chan []string
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a watcher for the given module directory.
func New(config Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if config.Debounce == 0 {
		config.Debounce = 200 * time.Millisecond
	}

	return &Watcher{
		config:  config,
		watcher: fsw,
		logger:  logger,
		pending: make(map[string]struct{}),
		changes: make(chan []string, 16),
		done:    make(chan struct{}),
	}, nil
}

// Changes returns the channel of debounced change batches. Each batch is
// a list of module-relative paths.
func (w *Watcher) Changes() <-chan []string {
	return w.changes
}

// Start begins watching the module directory for changes.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addWatchesRecursive(w.config.Root); err != nil {
		return err
	}

	go w.processEvents(ctx)

	w.logger.Info("File watcher started",
		"root", w.config.Root,
		"debounce", w.config.Debounce)

	return nil
}

// Stop stops the watcher. The changes channel is never closed; a pending
// flush may still be racing the shutdown, and sending on a closed channel
// would panic the event goroutine.
func (w *Watcher) Stop() error {
	w.stopOnce.Do(func() { close(w.done) })
	return w.watcher.Close()
}

// addWatchesRecursive adds watches to the module directory tree.
func (w *Watcher) addWatchesRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}

		if base := filepath.Base(path); strings.HasPrefix(base, ".") && path != root {
			return filepath.SkipDir
		}

		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("Failed to watch directory",
				"path", path,
				"error", err)
		} else {
			w.logger.Debug("Watching directory", "path", path)
		}

		return nil
	})
}

// processEvents handles fsnotify events with debouncing.
func (w *Watcher) processEvents(ctx context.Context) {
	ticker := time.NewTicker(w.config.Debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			w.flushPending(ctx)
		}
	}
}

// handleFSEvent records a single fsnotify event for the next flush.
func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	path := event.Name

	// New directories need their own watch.
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := w.watcher.Add(path); err != nil {
				w.logger.Warn("Failed to watch new directory",
					"path", path,
					"error", err)
			}
			return
		}
	}

	rel, err := filepath.Rel(w.config.Root, path)
	if err != nil {
		return
	}
	if w.skip(rel) {
		return
	}

	w.pendingMu.Lock()
	w.pending[rel] = struct{}{}
	w.pendingMu.Unlock()

	w.logger.Debug("File change detected",
		"path", rel,
		"op", event.Op.String())
}

// skip reports whether a module-relative path is excluded from rebuilds.
func (w *Watcher) skip(rel string) bool {
	base := filepath.Base(rel)
	for _, name := range w.config.SkipFiles {
		if base == name {
			return true
		}
	}

	slashed := filepath.ToSlash(rel)
	for _, pattern := range w.config.Ignore {
		if ok, err := doublestar.Match(pattern, slashed); err == nil && ok {
			return true
		}
	}

	return false
}

// flushPending emits the accumulated change batch.
func (w *Watcher) flushPending(ctx context.Context) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	batch := make([]string, 0, len(w.pending))
	for path := range w.pending {
		batch = append(batch, path)
	}
	w.pending = make(map[string]struct{})
	w.pendingMu.Unlock()

	select {
	case w.changes <- batch:
	case <-ctx.Done():
	case <-w.done:
	}
}
