package chain

// Resolve decides whether the existing chain continues or a new one must
// be started. It returns the active marker filename when the chain is
// still within its increment budget, and ok=false when the caller has to
// found a new chain (first run, or chain exhausted).
//
// The decision is a pure function of the inventory and the configured
// limit; it runs once per invocation, before the archiver is touched.
func Resolve(inv *Inventory, maxIncrements int) (marker string, ok bool) {
	latest, ok := inv.LatestMarker()
	if !ok {
		return "", false
	}

	// Chain length counts archives created since (and including) the
	// founding archive of the latest marker. A marker without a matching
	// archive (tool created the marker, then failed) counts the whole
	// archive list, which errs toward starting a new chain.
	start := inv.foundingIndex(MarkerStamp(latest))
	if start < 0 {
		start = 0
	}
	chainLen := len(inv.Archives) - start

	// Negative budget means unlimited increments.
	if maxIncrements >= 0 && chainLen > maxIncrements {
		return "", false
	}
	return latest, true
}
