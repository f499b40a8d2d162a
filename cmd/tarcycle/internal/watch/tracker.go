package watch

import (
	"encoding/hex"
	"io"
	"os"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// tracker remembers content hashes of watched files so that events
// which do not change content (editor touch, checkout with identical
// bytes) never trigger a backup.
type tracker struct {
	mu     sync.Mutex
	hashes map[string]string
}

func newTracker() *tracker {
	return &tracker{hashes: make(map[string]string)}
}

// changed reports whether path's content differs from the last
// observation, updating the record. Unreadable files count as changed;
// the archiver will surface the real problem if there is one.
func (t *tracker) changed(path string) bool {
	h, err := hashFile(path)
	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		delete(t.hashes, path)
		return true
	}
	if prev, ok := t.hashes[path]; ok && prev == h {
		return false
	}
	t.hashes[path] = h
	return true
}

// forget drops the record for a deleted path.
func (t *tracker) forget(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.hashes, path)
}

// size returns the number of tracked files.
func (t *tracker) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.hashes)
}

// hashFile computes xxHash64 of file contents, returns hex string.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
