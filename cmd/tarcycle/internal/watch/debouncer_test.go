package watch

import (
	"slices"
	"strconv"
	"sync"
	"testing"
	"time"
)

func TestDebouncer_SingleEvent(t *testing.T) {
	var (
		mu     sync.Mutex
		result []string
	)

	d := NewDebouncer(50*time.Millisecond, func(paths []string) {
		mu.Lock()
		result = paths
		mu.Unlock()
	})
	defer d.Stop()

	d.Add("data/report.txt")

	// Wait for debounce window to expire
	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(result) != 1 || result[0] != "data/report.txt" {
		t.Errorf("expected [data/report.txt], got %v", result)
	}
}

func TestDebouncer_MultipleEvents(t *testing.T) {
	var (
		mu     sync.Mutex
		result []string
	)

	d := NewDebouncer(100*time.Millisecond, func(paths []string) {
		mu.Lock()
		result = paths
		mu.Unlock()
	})
	defer d.Stop()

	// Add multiple paths rapidly
	d.Add("a")
	time.Sleep(20 * time.Millisecond)
	d.Add("b")
	time.Sleep(20 * time.Millisecond)
	d.Add("c")

	// Wait for debounce window to expire
	time.Sleep(150 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()

	slices.Sort(result)
	expected := []string{"a", "b", "c"}
	if !slices.Equal(result, expected) {
		t.Errorf("expected %v, got %v", expected, result)
	}
}

func TestDebouncer_Deduplication(t *testing.T) {
	var (
		mu     sync.Mutex
		result []string
	)

	d := NewDebouncer(50*time.Millisecond, func(paths []string) {
		mu.Lock()
		result = paths
		mu.Unlock()
	})
	defer d.Stop()

	// Same path changed repeatedly within the window
	d.Add("data/db.sqlite")
	d.Add("data/db.sqlite")
	d.Add("data/db.sqlite")

	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()

	if len(result) != 1 || result[0] != "data/db.sqlite" {
		t.Errorf("expected single [data/db.sqlite], got %v", result)
	}
}

func TestDebouncer_ResetOnNewEvent(t *testing.T) {
	var (
		mu        sync.Mutex
		callCount int
	)

	d := NewDebouncer(50*time.Millisecond, func(paths []string) {
		mu.Lock()
		callCount++
		mu.Unlock()
	})
	defer d.Stop()

	// Each new event inside the window pushes the flush out
	d.Add("a")
	time.Sleep(30 * time.Millisecond)
	d.Add("b")
	time.Sleep(30 * time.Millisecond)
	d.Add("c")

	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if callCount != 1 {
		t.Errorf("expected exactly 1 flush, got %d", callCount)
	}
}

func TestDebouncer_FlushNow(t *testing.T) {
	var (
		mu     sync.Mutex
		result []string
	)

	d := NewDebouncer(time.Hour, func(paths []string) {
		mu.Lock()
		result = paths
		mu.Unlock()
	})
	defer d.Stop()

	d.Add("a")
	d.FlushNow()

	mu.Lock()
	defer mu.Unlock()
	if len(result) != 1 {
		t.Errorf("FlushNow should flush immediately, got %v", result)
	}
	if d.PendingCount() != 0 {
		t.Errorf("PendingCount() = %d after FlushNow, want 0", d.PendingCount())
	}
}

func TestDebouncer_StopFlushesPending(t *testing.T) {
	var (
		mu     sync.Mutex
		result []string
	)

	d := NewDebouncer(time.Hour, func(paths []string) {
		mu.Lock()
		result = paths
		mu.Unlock()
	})

	d.Add("a")
	d.Stop()

	mu.Lock()
	defer mu.Unlock()
	if len(result) != 1 {
		t.Errorf("Stop should flush pending paths, got %v", result)
	}
}

func TestDebouncer_AddAfterStop(t *testing.T) {
	d := NewDebouncer(10*time.Millisecond, func([]string) {
		t.Error("flush should not run for events added after Stop")
	})
	d.Stop()

	d.Add("a")
	time.Sleep(50 * time.Millisecond)
}

func TestDebouncer_MaxPendingForcesFlush(t *testing.T) {
	var (
		mu        sync.Mutex
		callCount int
	)

	d := NewDebouncer(time.Hour, func(paths []string) {
		mu.Lock()
		callCount++
		mu.Unlock()
	})
	defer d.Stop()

	for i := 0; i < MaxPendingPaths; i++ {
		d.Add("dir/file" + strconv.Itoa(i))
	}

	mu.Lock()
	defer mu.Unlock()
	if callCount == 0 {
		t.Error("hitting MaxPendingPaths should force an immediate flush")
	}
}
