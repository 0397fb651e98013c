package allocator

import "testing"

// writeBlock installs a 32-byte standard block's header (and, if free, its
// duplicate footer) at addr.
func writeBlock(addr uintptr, free bool, prevAlloc, prevMini bool) {
	w := packWord(32, !free, prevAlloc, prevMini)
	setHeader(addr, w)

	if free {
		setFooter(addr, 32, w)
	}
}

func TestCoalesceNeitherNeighbourFree(t *testing.T) {
	arena := newTestArena(256)
	left, b, right, after := arena.addr(0), arena.addr(32), arena.addr(64), arena.addr(96)

	writeBlock(left, false, true, false)
	writeBlock(right, false, false, false)
	setHeader(after, packWord(16, true, false, false))

	// b is about to be freed: header already rewritten free, preserving
	// its own prev-allocated/prev-mini flags (left is allocated).
	writeBlock(b, true, true, false)

	a := &Allocator{}
	merged := a.coalesce(b)

	if merged != b {
		t.Fatalf("coalesce() = %#x, want %#x (no merge)", merged, b)
	}

	if blockSize(merged) != 32 {
		t.Fatalf("blockSize(merged) = %d, want 32", blockSize(merged))
	}

	if a.lists.heads[classOf(32)] != b {
		t.Fatalf("b was not inserted into its free list")
	}

	if extractPrevAlloc(header(right)) {
		t.Fatalf("right's prev-allocated flag should now be false (b is free)")
	}
}

func TestCoalesceNextFree(t *testing.T) {
	arena := newTestArena(256)
	left, b, right, after := arena.addr(0), arena.addr(32), arena.addr(64), arena.addr(96)

	writeBlock(left, false, true, false)
	writeBlock(right, true, false, false)
	setHeader(after, packWord(16, true, false, false))
	writeBlock(b, true, true, false)

	a := &Allocator{}
	a.lists.insert(right)

	merged := a.coalesce(b)

	if merged != b {
		t.Fatalf("coalesce() = %#x, want %#x", merged, b)
	}

	if got := blockSize(merged); got != 64 {
		t.Fatalf("blockSize(merged) = %d, want 64", got)
	}

	if a.lists.heads[classOf(32)] == right {
		t.Fatalf("right should have been removed from its old free list")
	}

	if a.lists.heads[classOf(64)] != b {
		t.Fatalf("merged block not found in its new free list")
	}

	if extractPrevAlloc(header(after)) {
		t.Fatalf("after's prev-allocated flag should be false (merged block is free)")
	}
}

func TestCoalescePrevFree(t *testing.T) {
	arena := newTestArena(256)
	left, b, right, after := arena.addr(0), arena.addr(32), arena.addr(64), arena.addr(96)

	writeBlock(left, true, true, false)
	writeBlock(right, false, true, false)
	setHeader(after, packWord(16, true, false, false))
	writeBlock(b, true, false, false)

	a := &Allocator{}
	a.lists.insert(left)

	merged := a.coalesce(b)

	if merged != left {
		t.Fatalf("coalesce() = %#x, want %#x (merge into left)", merged, left)
	}

	if got := blockSize(merged); got != 64 {
		t.Fatalf("blockSize(merged) = %d, want 64", got)
	}

	if a.lists.heads[classOf(64)] != left {
		t.Fatalf("merged block not re-inserted under left's address")
	}

	if extractPrevAlloc(header(right)) {
		t.Fatalf("right's prev-allocated flag should be false after merge")
	}
}

func TestCoalesceBothNeighboursFree(t *testing.T) {
	arena := newTestArena(256)
	left, b, right, after := arena.addr(0), arena.addr(32), arena.addr(64), arena.addr(96)

	writeBlock(left, true, true, false)
	writeBlock(right, true, true, false)
	setHeader(after, packWord(16, true, false, false))
	writeBlock(b, true, false, false)

	a := &Allocator{}
	a.lists.insert(left)
	a.lists.insert(right)

	merged := a.coalesce(b)

	if merged != left {
		t.Fatalf("coalesce() = %#x, want %#x", merged, left)
	}

	if got := blockSize(merged); got != 96 {
		t.Fatalf("blockSize(merged) = %d, want 96", got)
	}

	if a.lists.heads[classOf(96)] != left {
		t.Fatalf("merged block not found in its free list")
	}

	if extractPrevAlloc(header(after)) {
		t.Fatalf("after's prev-allocated flag should be false after merge")
	}
}
