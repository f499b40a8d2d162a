package chain

import (
	"fmt"
	"os"
	"slices"
	"strings"
)

// Inventory is the derived view of a backup directory: marker and archive
// filenames, each sorted ascending. Sorted by name means sorted by time,
// by construction of the stamp grammar.
type Inventory struct {
	Archives []string
	Markers  []string
}

// List reads the backup directory and classifies its entries.
// It has no side effects and is safe to call repeatedly within one
// invocation (the pruner re-reads after deleting).
func List(dir string) (*Inventory, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing backup directory: %w", err)
	}

	inv := &Inventory{}
	// os.ReadDir returns entries sorted by filename, so both slices
	// come out in chronological order.
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasPrefix(name, ArchivePrefix):
			inv.Archives = append(inv.Archives, name)
		case strings.HasPrefix(name, MarkerPrefix):
			inv.Markers = append(inv.Markers, name)
		}
	}
	return inv, nil
}

// LatestMarker returns the most recent marker filename.
func (inv *Inventory) LatestMarker() (string, bool) {
	if len(inv.Markers) == 0 {
		return "", false
	}
	return inv.Markers[len(inv.Markers)-1], true
}

// LatestStamp returns the greatest stamp present in the directory,
// considering both markers and archives. Empty when the directory holds
// no chain artifacts.
func (inv *Inventory) LatestStamp() Stamp {
	var latest Stamp
	if n := len(inv.Markers); n > 0 {
		latest = MarkerStamp(inv.Markers[n-1])
	}
	if n := len(inv.Archives); n > 0 {
		if s := ArchiveStamp(inv.Archives[n-1]); s > latest {
			latest = s
		}
	}
	return latest
}

// Chain is one snapshot generation: a marker and the archives diffed
// against it, oldest first.
type Chain struct {
	Marker   string
	Archives []string
}

// Chains groups the inventory's archives by the marker they were created
// under. Archives older than the oldest marker's founding archive are not
// part of any chain and are omitted.
func (inv *Inventory) Chains() []Chain {
	chains := make([]Chain, 0, len(inv.Markers))
	for i, m := range inv.Markers {
		start := inv.foundingIndex(MarkerStamp(m))
		end := len(inv.Archives)
		if i+1 < len(inv.Markers) {
			// An orphaned successor marker has no founding archive;
			// everything up to the end still belongs to this chain.
			if next := inv.foundingIndex(MarkerStamp(inv.Markers[i+1])); next >= 0 {
				end = next
			}
		}
		c := Chain{Marker: m}
		if start >= 0 && start <= end {
			c.Archives = inv.Archives[start:end]
		}
		chains = append(chains, c)
	}
	return chains
}

// foundingIndex returns the position of the chain-founding archive for a
// marker stamp, or -1 when the marker has no matching archive.
func (inv *Inventory) foundingIndex(s Stamp) int {
	return slices.IndexFunc(inv.Archives, func(name string) bool {
		return ArchiveStamp(name) == s
	})
}
