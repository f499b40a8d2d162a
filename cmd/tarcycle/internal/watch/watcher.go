package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// BackupFunc runs one backup and returns the created archive filename
// and whether it founded a new chain.
type BackupFunc func(ctx context.Context) (archive string, newChain bool, err error)

// Config configures the watcher.
type Config struct {
	Targets  []string // watched filesystem roots
	Ignore   []string // doublestar patterns that never trigger a backup
	Debounce int      // debounce window in milliseconds
	Verbose  bool
	NoColor  bool
	JSON     bool
	Backup   BackupFunc
}

// Watcher watches backup targets and triggers a backup run when their
// content changes.
type Watcher struct {
	config    Config
	fsWatcher *fsnotify.Watcher
	tracker   *tracker
	debouncer *Debouncer
	logger    *Logger

	// backupMu prevents overlapping backup runs
	backupMu sync.Mutex
}

// New creates a new watcher with the given configuration.
func New(cfg Config) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	logger := NewLogger(LoggerConfig{
		Verbose: cfg.Verbose,
		NoColor: cfg.NoColor,
		JSON:    cfg.JSON,
	})

	return &Watcher{
		config:    cfg,
		fsWatcher: fsWatcher,
		tracker:   newTracker(),
		logger:    logger,
	}, nil
}

// Run starts the watch loop. It blocks until the context is cancelled.
func (w *Watcher) Run(ctx context.Context, backupDir string) error {
	debounceWindow := time.Duration(w.config.Debounce) * time.Millisecond
	if debounceWindow <= 0 {
		debounceWindow = 2 * time.Second
	}
	w.debouncer = NewDebouncer(debounceWindow, func(paths []string) {
		w.runBackup(ctx, paths)
	})
	defer w.debouncer.Stop()

	for _, target := range w.config.Targets {
		if err := w.addRecursive(target); err != nil {
			return fmt.Errorf("failed to watch %s: %w", target, err)
		}
	}

	w.logger.Ready(w.config.Targets, backupDir)

	for {
		select {
		case <-ctx.Done():
			w.logger.Shutdown()
			return nil

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error(err)
		}
	}
}

// addRecursive adds a path and all subdirectories to the watcher.
func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsPermission(err) {
				if w.config.Verbose {
					w.logger.Error(fmt.Errorf("permission denied: %s", path))
				}
				return nil
			}
			w.logger.Error(fmt.Errorf("walk error at %s: %w", path, err))
			return nil
		}

		if !d.IsDir() {
			return nil
		}
		if path != root && w.ignored(path) {
			return filepath.SkipDir
		}

		if err := w.fsWatcher.Add(path); err != nil {
			if isWatchLimitError(err) {
				return fmt.Errorf("inotify watch limit reached for %s: %w\n"+
					"Increase limit with: sudo sysctl fs.inotify.max_user_watches=524288", path, err)
			}
			if w.config.Verbose {
				w.logger.Error(fmt.Errorf("failed to watch %s: %w", path, err))
			}
			return nil
		}
		return nil
	})
}

// isWatchLimitError checks if an error is due to inotify watch limits.
func isWatchLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "no space left on device") ||
		strings.Contains(errStr, "too many open files")
}

// ignored reports whether a path matches any ignore pattern. Patterns
// are tested against the slash form of the full path and the base name.
func (w *Watcher) ignored(path string) bool {
	slashed := filepath.ToSlash(path)
	base := filepath.Base(path)
	for _, pattern := range w.config.Ignore {
		if ok, _ := doublestar.Match(pattern, slashed); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, base); ok {
			return true
		}
	}
	return false
}

// handleEvent processes a single filesystem event.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	if w.ignored(path) {
		return
	}

	// New directories need watches of their own.
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := w.addRecursive(path); err != nil {
				w.logger.Error(fmt.Errorf("failed to watch new directory %s: %w", path, err))
			}
			return
		}
	}

	var changeType ChangeType
	switch {
	case event.Has(fsnotify.Create):
		changeType = ChangeAdded
	case event.Has(fsnotify.Write):
		changeType = ChangeModified
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		changeType = ChangeDeleted
	default:
		return // Ignore chmod events
	}

	if changeType == ChangeDeleted {
		w.tracker.forget(path)
	} else if !w.tracker.changed(path) {
		// Touched but byte-identical; nothing worth archiving.
		return
	}

	w.logger.FileChanged(path, changeType)
	w.debouncer.Add(path)
}

// runBackup is called when the debouncer flushes.
func (w *Watcher) runBackup(ctx context.Context, paths []string) {
	if len(paths) == 0 || ctx.Err() != nil {
		return
	}

	// Prevent overlapping runs
	w.backupMu.Lock()
	defer w.backupMu.Unlock()

	w.logger.BackupStarted(len(paths))
	archive, newChain, err := w.config.Backup(ctx)
	if err != nil {
		w.logger.Error(err)
		return
	}
	w.logger.BackupDone(archive, newChain)
}

// Close closes the watcher and releases resources.
func (w *Watcher) Close() error {
	if w.fsWatcher != nil {
		return w.fsWatcher.Close()
	}
	return nil
}
