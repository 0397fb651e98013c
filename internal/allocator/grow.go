package allocator

// alignUp16 rounds n up to the next multiple of 16, the heap's block
// alignment unit.
func alignUp16(n uintptr) uintptr {
	return (n + 15) &^ 15
}

// extend asks the heap provider for more memory, installs a new free block
// over it plus a fresh epilogue, coalesces the new block with whatever
// free block (if any) used to border the old epilogue, and returns the
// (possibly merged) surviving block. It fails with out-of-memory if the
// heap provider refuses (spec.md §4.6).
func (a *Allocator) extend(n uintptr) (uintptr, error) {
	size := alignUp16(n)

	bp, ok := a.heap.Extend(size)
	if !ok {
		return 0, outOfMemoryErr(size)
	}

	// bp is the first newly granted byte; the word immediately before it
	// is the heap's old epilogue, which becomes the new block's header in
	// place (its prev-allocated/prev-mini flags already describe the
	// block to its left and remain valid).
	newBlock := bp - wordSize

	oldEpilogue := header(newBlock)
	prevAlloc := extractPrevAlloc(oldEpilogue)
	prevMini := extractPrevMini(oldEpilogue)

	w := packWord(size, false, prevAlloc, prevMini)
	setHeader(newBlock, w)

	if !isMini(size) {
		setFooter(newBlock, size, w)
	}

	epilogueAddr := newBlock + size
	setHeader(epilogueAddr, packWord(0, true, false, isMini(size)))

	return a.coalesce(newBlock), nil
}
