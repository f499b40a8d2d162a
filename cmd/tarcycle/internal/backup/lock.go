package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/tarcycle/tarcycle/internal/log"
)

// LockFileName is the pid file guarding a backup directory. The chain
// logic itself is lock-free; this is the additive mutual exclusion for
// the at-most-one-invocation-per-directory precondition.
const LockFileName = ".tarcycle.lock"

// Lock is a held backup-directory lock.
type Lock struct {
	path string
}

// Acquire takes the directory lock, replacing a stale lock left behind
// by a dead process. It fails when another live invocation holds it.
func Acquire(dir string) (*Lock, error) {
	path := filepath.Join(dir, LockFileName)

	if data, err := os.ReadFile(path); err == nil {
		pid, perr := strconv.Atoi(strings.TrimSpace(string(data)))
		if perr == nil && isProcessRunning(pid) && pid != os.Getpid() {
			return nil, fmt.Errorf("backup directory %s is locked by running process %d", dir, pid)
		}
		log.Debug("replacing stale lock", "path", path, "pid", pid)
	}

	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		return nil, fmt.Errorf("writing lock file: %w", err)
	}
	return &Lock{path: path}, nil
}

// Release removes the lock file.
func (l *Lock) Release() {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		log.Warn("failed to remove lock file", "path", l.path, "error", err)
	}
}

// isProcessRunning checks liveness with signal 0.
func isProcessRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}
