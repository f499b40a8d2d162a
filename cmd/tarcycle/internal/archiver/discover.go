// Package archiver wraps the external tar-compatible tool that produces
// incremental archives. The tool is an opaque capability: "archive these
// targets against this snapshot-state file". Archive format internals,
// compression, and restore stay on the tool's side of the fence.
package archiver

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"

	"github.com/tarcycle/tarcycle/internal/log"
)

// ErrNoArchiver is returned when no candidate tool supports incremental
// snapshots. This is a one-time environment precondition checked at
// startup, not per invocation.
var ErrNoArchiver = errors.New("no archive tool with incremental support found")

// incrementalFlag is the capability probed for in the tool's help text.
const incrementalFlag = "--listed-incremental"

// DefaultCandidates are the executable names and well-known locations
// probed in order. GNU tar ships as gtar on BSDs and macOS.
var DefaultCandidates = []string{
	"tar",
	"gtar",
	"gnutar",
	"/usr/local/bin/gtar",
	"/opt/homebrew/bin/gtar",
}

// Tool is a discovered archive tool.
type Tool struct {
	path string
}

// Path returns the resolved executable path.
func (t *Tool) Path() string { return t.path }

type discoverer struct {
	candidates []string
	probe      func(path string) ([]byte, error)
}

// DiscoverOption configures discovery.
type DiscoverOption func(*discoverer)

// WithCandidates overrides the probed executable list.
// Used for configuration overrides and testing.
func WithCandidates(candidates ...string) DiscoverOption {
	return func(d *discoverer) {
		if len(candidates) > 0 {
			d.candidates = candidates
		}
	}
}

// WithProbe overrides how a candidate's help text is obtained.
// Used primarily for testing.
func WithProbe(probe func(path string) ([]byte, error)) DiscoverOption {
	return func(d *discoverer) {
		d.probe = probe
	}
}

// Discover locates an archive tool with incremental support by running
// each candidate's --help and inspecting the output for the
// listed-incremental capability. The first hit wins.
func Discover(opts ...DiscoverOption) (*Tool, error) {
	d := &discoverer{
		candidates: DefaultCandidates,
		probe:      probeHelp,
	}
	for _, opt := range opts {
		opt(d)
	}

	for _, cand := range d.candidates {
		path, err := exec.LookPath(cand)
		if err != nil {
			log.Debug("archiver candidate not found", "candidate", cand)
			continue
		}
		out, err := d.probe(path)
		if err != nil && len(out) == 0 {
			log.Debug("archiver candidate probe failed", "candidate", path, "error", err)
			continue
		}
		if bytes.Contains(out, []byte(incrementalFlag)) {
			log.Info("archive tool found", "path", path)
			return &Tool{path: path}, nil
		}
		log.Debug("archiver candidate lacks incremental support", "candidate", path)
	}
	return nil, fmt.Errorf("%w (probed %d candidates)", ErrNoArchiver, len(d.candidates))
}

// probeHelp runs `<path> --help`. Some tar flavors print help to stderr
// or exit nonzero, so combined output is inspected regardless.
func probeHelp(path string) ([]byte, error) {
	return exec.Command(path, "--help").CombinedOutput()
}
