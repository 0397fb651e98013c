//go:build debug

package allocator

import "log"

// In debug builds, checker failures are always logged (SPEC_FULL.md §5.2:
// "debug builds wire it to log.Printf"), and every public operation is
// followed by a full CheckHeap pass that panics immediately on the first
// invariant it finds broken rather than letting corruption propagate into
// later calls.

func init() {
	defaultCheckLogger = log.Printf
}

func debugAssertHeap(a *Allocator, line int) {
	if !a.checkHeapLocked(line) {
		panic("allocator: heap consistency check failed")
	}
}
