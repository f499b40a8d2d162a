// Package backup orchestrates one backup invocation: inventory the
// directory, resolve the chain state, invoke the archive tool, and prune
// retired chains when a new one starts.
package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tarcycle/tarcycle/cmd/tarcycle/internal/chain"
	"github.com/tarcycle/tarcycle/internal/log"
)

// Archiver creates one incremental archive against a snapshot marker.
// Implemented by archiver.Tool.
type Archiver interface {
	Create(ctx context.Context, archivePath, markerPath string, targets, excludes []string) error
}

// Job describes one backup invocation.
type Job struct {
	// Dir is the backup directory holding markers and archives.
	Dir string

	// Targets are the filesystem paths to archive. All must exist.
	Targets []string

	// MaxIncrements bounds the chain length before a new full snapshot
	// is forced. Negative means unlimited; zero means every run is full.
	MaxIncrements int

	// MaxSnapshots bounds the number of retained chains. Negative means
	// unlimited; zero keeps only the chain being created.
	MaxSnapshots int

	// Excludes are patterns passed through to the archive tool.
	Excludes []string

	// Tool is the discovered archive tool.
	Tool Archiver

	// Clock defaults to the system clock. Injectable for tests.
	Clock chain.Clock
}

// Result reports what one run did.
type Result struct {
	Archive  string // archive filename created this run
	Marker   string // marker filename the archive was diffed against
	NewChain bool   // true when this run founded a new chain
	Pruned   int    // files removed by retention pruning
}

// Run performs the invocation. Strictly sequential: the only blocking
// operations are the tool run and filesystem calls. Correctness assumes
// at most one invocation per backup directory at a time; Run enforces
// that with a pid lock file.
func (j *Job) Run(ctx context.Context) (*Result, error) {
	if err := os.MkdirAll(j.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating backup directory: %w", err)
	}

	lock, err := Acquire(j.Dir)
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	inv, err := chain.List(j.Dir)
	if err != nil {
		return nil, err
	}

	clock := j.Clock
	if clock == nil {
		clock = chain.SystemClock()
	}
	stamp := clock.Next(inv.LatestStamp())

	res := &Result{Archive: stamp.ArchiveName()}
	marker, ok := chain.Resolve(inv, j.MaxIncrements)
	if ok {
		log.Info("continuing chain", "marker", marker, "archive", res.Archive)
	} else {
		marker = stamp.MarkerName()
		res.NewChain = true
		log.Info("starting new chain", "marker", marker, "archive", res.Archive)

		// Pruning runs only when a new chain starts, and only ever
		// removes artifacts strictly older than this run's stamp.
		pruned, err := chain.Prune(j.Dir, inv, j.MaxSnapshots, stamp)
		if err != nil {
			return nil, err
		}
		res.Pruned = pruned
		if pruned > 0 {
			log.Info("pruned retired chains", "files", pruned)
		}
	}
	res.Marker = marker

	err = j.Tool.Create(ctx,
		filepath.Join(j.Dir, res.Archive),
		filepath.Join(j.Dir, marker),
		j.Targets, j.Excludes)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// errNilTool guards against a Job built without discovery.
var errNilTool = errors.New("backup job has no archive tool")

// Validate reports obvious Job construction errors before Run.
func (j *Job) Validate() error {
	if j.Tool == nil {
		return errNilTool
	}
	if j.Dir == "" {
		return errors.New("backup job has no backup directory")
	}
	if len(j.Targets) == 0 {
		return errors.New("backup job has no targets")
	}
	return nil
}
