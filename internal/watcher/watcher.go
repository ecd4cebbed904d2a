// Package watcher feeds new and changed scans to the processing pipeline.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/partsbin/partsbin/internal/config"
	"github.com/partsbin/partsbin/internal/fs"
	"github.com/partsbin/partsbin/internal/pipeline"
)

// Processor handles a single document. *pipeline.Pipeline satisfies it.
type Processor interface {
	ProcessFile(ctx context.Context, path string) (pipeline.Result, error)
}

var _ Processor = (*pipeline.Pipeline)(nil)

// EventFunc is called after each processed document.
type EventFunc func(relPath string, res pipeline.Result, err error)

// Watcher watches a directory tree and processes documents as they appear.
type Watcher struct {
	root      string
	processor Processor
	cfg       config.PipelineConfig
	extSet    map[string]bool
	ignorer   fs.Ignorer

	// pending holds paths waiting out the debounce window
	pending      map[string]fsnotify.Op
	pendingMu    sync.Mutex
	debounceTime time.Duration

	onEvent EventFunc
}

// Option configures the watcher.
type Option func(*Watcher)

// WithDebounceTime sets the debounce duration for batching events.
func WithDebounceTime(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounceTime = d
		}
	}
}

// WithEventCallback sets a callback for processed documents.
func WithEventCallback(fn EventFunc) Option {
	return func(w *Watcher) {
		w.onEvent = fn
	}
}

// New creates a watcher for root. Extension, size and ignore rules come
// from cfg, matching what a directory run would pick up.
func New(root string, processor Processor, cfg config.PipelineConfig, opts ...Option) (*Watcher, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", absRoot)
	}

	w := &Watcher{
		root:         absRoot,
		processor:    processor,
		cfg:          cfg,
		extSet:       fs.NormalizeExtensions(cfg.Extensions),
		ignorer:      fs.NewIgnorer(absRoot, cfg.Ignore, true),
		pending:      make(map[string]fsnotify.Op),
		debounceTime: time.Duration(config.DefaultWatchDebounceMS) * time.Millisecond,
		onEvent:      func(string, pipeline.Result, error) {},
	}

	for _, opt := range opts {
		opt(w)
	}

	return w, nil
}

// Root returns the watched directory.
func (w *Watcher) Root() string {
	return w.root
}

// Start begins watching for file changes. Blocks until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := w.addDirectories(watcher, w.root); err != nil {
		return err
	}

	log.Info("Watching for new scans", "root", w.root)

	go w.processDebounced(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event, watcher)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error("Watcher error", "error", err)
		}
	}
}

// addDirectories recursively adds dir and its subdirectories to the watcher.
func (w *Watcher) addDirectories(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && w.shouldSkipDir(path) {
			return filepath.SkipDir
		}

		if err := watcher.Add(path); err != nil {
			log.Debug("Failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

// shouldSkipDir returns true for hidden and ignored directories.
func (w *Watcher) shouldSkipDir(path string) bool {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return true
	}
	return w.ignorer.MatchesPath(w.rel(path) + "/")
}

// handleEvent queues document creates and writes. Removes and renames are
// dropped: stored records outlive their scans.
func (w *Watcher) handleEvent(event fsnotify.Event, watcher *fsnotify.Watcher) {
	path := event.Name

	if strings.HasPrefix(filepath.Base(path), ".") {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		return
	}
	if info.IsDir() {
		if event.Has(fsnotify.Create) && watcher != nil && !w.shouldSkipDir(path) {
			if err := w.addDirectories(watcher, path); err != nil {
				log.Debug("Failed to watch new directory", "path", path, "error", err)
			}
			// Files copied in along with the directory raise no events.
			w.queueExisting(path)
			log.Debug("Added directory to watch", "path", w.rel(path))
		}
		return
	}

	if !w.isDocument(path, info.Size()) {
		return
	}

	w.enqueue(path, event.Op)
}

// queueExisting queues documents already present under dir.
func (w *Watcher) queueExisting(dir string) {
	_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if w.isDocument(path, info.Size()) {
			w.enqueue(path, fsnotify.Create)
		}
		return nil
	})
}

// isDocument checks extension, size and ignore rules.
func (w *Watcher) isDocument(path string, size int64) bool {
	if !fs.Accepts(path, w.extSet) {
		return false
	}
	if w.cfg.MaxFileSize > 0 && size > w.cfg.MaxFileSize {
		return false
	}
	return !w.ignorer.MatchesPath(w.rel(path))
}

func (w *Watcher) enqueue(path string, op fsnotify.Op) {
	w.pendingMu.Lock()
	w.pending[path] |= op
	w.pendingMu.Unlock()
}

// processDebounced processes pending events periodically.
func (w *Watcher) processDebounced(ctx context.Context) {
	ticker := time.NewTicker(w.debounceTime)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.flushPending(ctx)
		}
	}
}

// flushPending processes all pending paths.
func (w *Watcher) flushPending(ctx context.Context) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		paths = append(paths, path)
	}
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()
	sort.Strings(paths)

	for _, path := range paths {
		select {
		case <-ctx.Done():
			return
		default:
		}

		relPath := w.rel(path)
		res, err := w.processor.ProcessFile(ctx, path)
		if err != nil {
			log.Error("Failed to process scan", "path", relPath, "error", err)
		} else if res.Added > 0 {
			log.Info("Added component", "file", relPath)
		} else {
			log.Debug("Scan produced no new component", "file", relPath)
		}
		w.onEvent(relPath, res, err)
	}
}

func (w *Watcher) rel(path string) string {
	relPath, err := filepath.Rel(w.root, path)
	if err != nil {
		return path
	}
	return relPath
}
