// Package chain implements backup-chain bookkeeping for a backup directory.
//
// # State Model
//
// All chain state is inferred from filenames; there is no index file.
// A snapshot marker `snapshot_<STAMP>` is the incremental baseline owned by
// the archive tool, and every archive `backup_<STAMP>.tar.gz` belongs to the
// chain founded at the marker that was active when it was created.
//
// # Filename Grammar
//
// STAMP is `YYYYMMDD_HHMMSS`: fixed width and zero padded, so lexicographic
// order of filenames equals chronological order. This is an interoperability
// invariant, not an implementation detail — pre-existing backup directories
// are read by the same rule.
package chain

import (
	"strings"
	"time"
)

const (
	// StampLayout is the time layout for artifact stamps.
	StampLayout = "20060102_150405"

	// MarkerPrefix prefixes snapshot marker filenames.
	MarkerPrefix = "snapshot_"

	// ArchivePrefix and ArchiveSuffix bracket archive filenames.
	ArchivePrefix = "backup_"
	ArchiveSuffix = ".tar.gz"
)

// Stamp is a fixed-width, second-resolution timestamp string.
// Stamps compare correctly with the < operator.
type Stamp string

// NewStamp formats t as a stamp.
func NewStamp(t time.Time) Stamp {
	return Stamp(t.Format(StampLayout))
}

// MarkerName returns the snapshot marker filename for this stamp.
func (s Stamp) MarkerName() string {
	return MarkerPrefix + string(s)
}

// ArchiveName returns the archive filename for this stamp.
func (s Stamp) ArchiveName() string {
	return ArchivePrefix + string(s) + ArchiveSuffix
}

// MarkerStamp extracts the stamp from a marker filename.
func MarkerStamp(name string) Stamp {
	return Stamp(strings.TrimPrefix(name, MarkerPrefix))
}

// ArchiveStamp extracts the stamp from an archive filename.
func ArchiveStamp(name string) Stamp {
	return Stamp(strings.TrimSuffix(strings.TrimPrefix(name, ArchivePrefix), ArchiveSuffix))
}

// Clock produces stamps for backup operations.
type Clock interface {
	// Next returns a stamp strictly greater than after. The system clock
	// waits out the current second when needed, which serializes
	// back-to-back invocations and guarantees filename uniqueness.
	Next(after Stamp) Stamp
}

type systemClock struct {
	now   func() time.Time
	sleep func(time.Duration)
}

// SystemClock returns the wall-clock backed Clock.
func SystemClock() Clock {
	return &systemClock{now: time.Now, sleep: time.Sleep}
}

func (c *systemClock) Next(after Stamp) Stamp {
	s := NewStamp(c.now())
	for after != "" && s <= after {
		c.sleep(time.Second)
		s = NewStamp(c.now())
	}
	return s
}
