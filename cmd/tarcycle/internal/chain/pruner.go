package chain

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tarcycle/tarcycle/internal/log"
)

// Prune deletes markers and archives belonging to chains that fall
// outside the retention window. It must only be called when a new chain
// founded at pending is about to be created this run; pruning therefore
// never touches artifacts the active chain still references.
//
// Retention policy by maxSnapshots:
//
//	< 0  unlimited retention, nothing is deleted
//	 0   keep only the chain about to be created
//	 N   keep the N most recent existing chains plus the new one
//
// Returns the number of files removed. A deletion failure aborts the
// prune immediately; artifacts already removed stay removed, which
// leaves extra old chains behind but never harms the live one.
func Prune(dir string, inv *Inventory, maxSnapshots int, pending Stamp) (int, error) {
	if maxSnapshots < 0 {
		return 0, nil
	}

	// The cut threshold is the stamp of the oldest chain that survives.
	// Everything strictly older goes away. For maxSnapshots == 0 that is
	// the pending stamp itself: every existing artifact predates it.
	threshold := pending
	if maxSnapshots > 0 {
		if len(inv.Markers) <= maxSnapshots {
			return 0, nil
		}
		threshold = MarkerStamp(inv.Markers[len(inv.Markers)-maxSnapshots])
	}

	removed := 0
	for _, name := range inv.Markers {
		if MarkerStamp(name) >= threshold {
			break
		}
		if err := remove(dir, name); err != nil {
			return removed, err
		}
		removed++
	}
	for _, name := range inv.Archives {
		if ArchiveStamp(name) >= threshold {
			break
		}
		if err := remove(dir, name); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func remove(dir, name string) error {
	log.Debug("pruning stale artifact", "name", name)
	if err := os.Remove(filepath.Join(dir, name)); err != nil {
		return fmt.Errorf("pruning %s: %w", name, err)
	}
	return nil
}
