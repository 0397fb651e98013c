package allocator

// coalesce merges the about-to-be-free block b with any free heap
// neighbours, re-indexes the survivor, and fixes up the following block's
// prev-allocated/prev-mini flags (spec.md §4.4).
//
// Precondition: b's header already encodes (free, its own size, its own
// prev-allocated/prev-mini flags); the neighbours' flags have not yet been
// touched.
func (a *Allocator) coalesce(b uintptr) uintptr {
	prevFree := !extractPrevAlloc(header(b))

	next := nextInHeap(b)
	nextFree := !isAllocated(next)

	bSize := blockSize(b)

	switch {
	case !prevFree && !nextFree:
		a.lists.insert(b)
	case !prevFree && nextFree:
		nextSize := blockSize(next)
		a.lists.remove(next)

		newSize := bSize + nextSize
		h := header(b)
		rewriteFreeBlock(b, newSize, extractPrevAlloc(h), extractPrevMini(h))
		a.lists.insert(b)
	case prevFree && !nextFree:
		prev := prevInHeap(b)
		prevSize := blockSize(prev)
		a.lists.remove(prev)

		ph := header(prev)
		newSize := prevSize + bSize
		rewriteFreeBlock(prev, newSize, extractPrevAlloc(ph), extractPrevMini(ph))
		a.lists.insert(prev)
		b = prev
	default: // prevFree && nextFree
		prev := prevInHeap(b)
		prevSize := blockSize(prev)
		nextSize := blockSize(next)

		a.lists.remove(prev)
		a.lists.remove(next)

		ph := header(prev)
		newSize := prevSize + bSize + nextSize
		rewriteFreeBlock(prev, newSize, extractPrevAlloc(ph), extractPrevMini(ph))
		a.lists.insert(prev)
		b = prev
	}

	propagateFlagsToNext(b)

	return b
}

// rewriteFreeBlock writes a free block's header (and, unless it is a mini
// block, its duplicate footer) with a new size, preserving the supplied
// prev-allocated/prev-mini flags.
func rewriteFreeBlock(addr uintptr, size uintptr, prevAlloc, prevMini bool) {
	w := packWord(size, false, prevAlloc, prevMini)
	setHeader(addr, w)

	if !isMini(size) {
		setFooter(addr, size, w)
	}
}

// propagateFlagsToNext rewrites next_in_heap(b)'s header so its
// prev-allocated and prev-mini bits reflect b's current (already written)
// size and allocated bit, preserving that next block's own size and
// allocated bit.
func propagateFlagsToNext(b uintptr) {
	h := header(b)
	size := extractSize(h)
	alloc := extractAlloc(h)

	next := nextInHeap(b)
	nh := header(next)

	setHeader(next, packWord(extractSize(nh), extractAlloc(nh), alloc, isMini(size)))
}
