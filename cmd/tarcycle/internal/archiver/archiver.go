package archiver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/tarcycle/tarcycle/internal/log"
)

// ErrTargetMissing is returned when a backup target does not exist.
// This is a caller error caught before the tool runs.
var ErrTargetMissing = errors.New("backup target does not exist")

// ToolError reports a nonzero exit from the archive tool. The captured
// stderr is surfaced to the user; a partially written archive is left in
// place for inspection.
type ToolError struct {
	ExitCode int
	Stderr   string
}

func (e *ToolError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("archive tool exited with status %d", e.ExitCode)
	}
	return fmt.Sprintf("archive tool exited with status %d: %s", e.ExitCode, e.Stderr)
}

// Create produces one compressed archive of targets at archivePath,
// incremental against the snapshot state in markerPath. If markerPath
// does not exist yet the tool creates it, founding a new chain.
//
// Every target must exist; a missing target fails fast without invoking
// the tool. A nonzero exit becomes a *ToolError. No retries: a partial
// archive must never be mistaken for a complete one.
func (t *Tool) Create(ctx context.Context, archivePath, markerPath string, targets, excludes []string) error {
	if len(targets) == 0 {
		return errors.New("no backup targets given")
	}
	for _, target := range targets {
		if _, err := os.Stat(target); err != nil {
			return fmt.Errorf("%w: %s", ErrTargetMissing, target)
		}
	}

	args := []string{
		"--create",
		"--gzip",
		"--file=" + archivePath,
		incrementalFlag + "=" + markerPath,
	}
	for _, pattern := range excludes {
		args = append(args, "--exclude="+pattern)
	}
	args = append(args, targets...)

	log.Debug("invoking archive tool", "path", t.path, "args", args)

	cmd := exec.CommandContext(ctx, t.path, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ToolError{
				ExitCode: exitErr.ExitCode(),
				Stderr:   strings.TrimSpace(stderr.String()),
			}
		}
		return fmt.Errorf("running %s: %w", t.path, err)
	}
	return nil
}
