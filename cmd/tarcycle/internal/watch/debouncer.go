// Package watch implements file watching for automatic backup runs.
package watch

import (
	"sync"
	"time"
)

// MaxPendingPaths is the maximum number of changed paths held before a
// flush is forced, bounding memory during mass file churn (unpacking a
// tree into a watched target, for example).
const MaxPendingPaths = 1000

// Debouncer coalesces rapid file change events into one backup trigger.
// Events within the window are grouped so editor save storms or rsync
// runs produce a single archive instead of one per file.
type Debouncer struct {
	mu      sync.Mutex
	pending map[string]struct{} // set of changed paths
	timer   *time.Timer
	window  time.Duration
	onFlush func(paths []string)
	stopped bool
}

// NewDebouncer creates a debouncer with the given window duration.
// The onFlush callback receives the changed paths after the window
// expires with no new events.
func NewDebouncer(window time.Duration, onFlush func(paths []string)) *Debouncer {
	return &Debouncer{
		pending: make(map[string]struct{}),
		window:  window,
		onFlush: onFlush,
	}
}

// Add records a changed path. Repeated changes to the same path within
// the window are coalesced.
func (d *Debouncer) Add(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	d.pending[path] = struct{}{}

	if len(d.pending) >= MaxPendingPaths {
		if d.timer != nil {
			d.timer.Stop()
			d.timer = nil
		}
		d.flushLocked()
		return
	}

	// Note: timer.Stop() may return false if the timer already fired,
	// meaning flush() may already be queued. That is safe because
	// flush() exits early when pending is empty.
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.flush)
}

// flush is called when the timer expires.
func (d *Debouncer) flush() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.flushLocked()
}

// flushLocked performs the flush while holding the lock.
// Caller must hold d.mu.
func (d *Debouncer) flushLocked() {
	if d.stopped || len(d.pending) == 0 {
		return
	}

	paths := make([]string, 0, len(d.pending))
	for p := range d.pending {
		paths = append(paths, p)
	}
	d.pending = make(map[string]struct{})

	// Release lock before calling the handler to prevent deadlocks.
	d.mu.Unlock()
	if d.onFlush != nil {
		d.onFlush(paths)
	}
	// Re-acquire (caller expects it held via defer).
	d.mu.Lock()
}

// FlushNow immediately flushes pending paths without waiting for the
// timer. Useful for graceful shutdown.
func (d *Debouncer) FlushNow() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.stopped || len(d.pending) == 0 {
		d.mu.Unlock()
		return
	}

	paths := make([]string, 0, len(d.pending))
	for p := range d.pending {
		paths = append(paths, p)
	}
	d.pending = make(map[string]struct{})
	d.mu.Unlock()

	if d.onFlush != nil {
		d.onFlush(paths)
	}
}

// Stop stops the debouncer. Any pending paths are flushed.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	paths := make([]string, 0, len(d.pending))
	for p := range d.pending {
		paths = append(paths, p)
	}
	d.pending = make(map[string]struct{})
	d.mu.Unlock()

	if len(paths) > 0 && d.onFlush != nil {
		d.onFlush(paths)
	}
}

// PendingCount returns the number of paths waiting to be flushed.
func (d *Debouncer) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}
