//go:build !debug

package allocator

// debugAssertHeap is a no-op outside debug builds; WithDebugChecks governs
// the runtime-configurable checker instead.
func debugAssertHeap(a *Allocator, line int) {}
