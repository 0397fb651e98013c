package allocator

import segerrors "github.com/orizon-lang/segheap/internal/errors"

// checkHeapLocked implements spec.md §4.8's heap consistency checker: an
// implicit, address-order walk of every block cross-checked against an
// independent walk of the free lists. Callers must already hold a.mu.
func (a *Allocator) checkHeapLocked(line int) bool {
	ok := true

	report := func(reason string) {
		ok = false

		if a.config.CheckLogger != nil {
			a.config.CheckLogger("%s", segerrors.HeapCorruption(line, reason).Error())
		}
	}

	// reportInvalidSize is used for the subset of violations that are
	// about a block's size field specifically, rather than a structural
	// corruption between blocks.
	reportInvalidSize := func(size uintptr, context string) {
		ok = false

		if a.config.CheckLogger != nil {
			a.config.CheckLogger("%s", segerrors.InvalidSize(size, context).Error())
		}
	}

	low := a.heap.Low()
	high := a.heap.High()

	var freeCountWalk uint64
	var freeBytesWalk uintptr

	// Pass 1: implicit heap walk. a.base is the prologue word itself
	// (bootstrap's Extend(2*wordSize) return value); the first real block
	// starts one word past it, matching the reference implementation's
	// heap_start = &start[1] convention.
	cur := a.base + wordSize
	prevWasFree := false

	for {
		h := header(cur)
		size := extractSize(h)

		if size == 0 {
			// Epilogue reached.
			if !extractAlloc(h) {
				report("epilogue is not marked allocated")
			}

			break
		}

		if payloadOf(cur)%16 != 0 {
			reportInvalidSize(size, "block payload is not 16-byte aligned")
		}

		if cur < low || cur > high {
			report("block address out of heap bounds")
		}

		if size < minBlockSize {
			reportInvalidSize(size, "block smaller than minimum block size")
		}

		alloc := extractAlloc(h)

		if !alloc {
			if !isMini(size) {
				footer := readWord(footerAddr(cur, size))
				if footer != h {
					report("free block header and footer disagree")
				}
			}

			if prevWasFree {
				report("two free blocks are adjacent in the heap: a coalesce was missed")
			}

			freeCountWalk++
			freeBytesWalk += size
		}

		next := cur + size
		nh := header(next)

		if extractPrevAlloc(nh) != alloc {
			report("next block's prev-allocated flag disagrees with this block's allocated bit")
		}

		if extractPrevMini(nh) != isMini(size) {
			report("next block's prev-mini flag disagrees with this block's actual size")
		}

		prevWasFree = !alloc
		cur = next
	}

	// Pass 2: explicit free-list walk, one class at a time.
	var freeCountLists uint64
	var freeBytesLists uintptr

	for class := 0; class < numClasses; class++ {
		mini := class == 0
		node := a.lists.heads[class]
		prevNode := uintptr(0)

		for node != 0 {
			h := header(node)

			if extractAlloc(h) {
				report("free list contains a block marked allocated")
			}

			size := extractSize(h)
			if classOf(size) != class {
				report("block is in the wrong size class's free list")
			}

			if node < low || node > high {
				report("free-list block address out of heap bounds")
			}

			if !mini {
				prevPtr := readPtr(prevPtrAddr(node))
				if prevPtr != prevNode {
					report("free list prev pointer does not match actual predecessor")
				}
			}

			freeCountLists++
			freeBytesLists += size

			prevNode = node
			node = readPtr(nextPtrAddr(node))
		}
	}

	// The two passes must agree on how much is free. spec.md §9's Open
	// Question (c) asks whether a count mismatch alone, with sizes still
	// agreeing, should trip the checker; we promote the original AND to
	// an OR, since sizes agreeing while counts disagree is itself already
	// a sign of a corrupt or double-linked block.
	if freeCountWalk != freeCountLists || freeBytesWalk != freeBytesLists {
		report("free block count/size mismatch between heap walk and free lists")
	}

	return ok
}
