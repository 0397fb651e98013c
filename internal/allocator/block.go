package allocator

// A block is addressed by the absolute address of its header word. This
// file implements the "block navigator": given a block address, find its
// header, footer, payload, and heap-adjacent neighbours (spec.md §4.2).

// header reads the header word of the block at addr.
func header(addr uintptr) uint64 {
	return readWord(addr)
}

// setHeader writes the header word of the block at addr.
func setHeader(addr uintptr, w uint64) {
	writeWord(addr, w)
}

// blockSize returns the size, in bytes, of the block at addr.
func blockSize(addr uintptr) uintptr {
	return extractSize(header(addr))
}

// isAllocated reports whether the block at addr is marked allocated.
func isAllocated(addr uintptr) bool {
	return extractAlloc(header(addr))
}

// isMini reports whether a block of the given size is a mini block:
// exactly one word-pair (16 bytes).
func isMini(size uintptr) bool {
	return size == 2*wordSize
}

// footerAddr returns the address of the footer word of the (non-mini,
// free) block at addr: header_to_footer(b) = b + b.size - 8.
func footerAddr(addr uintptr, size uintptr) uintptr {
	return addr + size - wordSize
}

// setFooter writes the footer word of a non-mini free block. Mini blocks
// and allocated blocks never carry a footer.
func setFooter(addr uintptr, size uintptr, w uint64) {
	writeWord(footerAddr(addr, size), w)
}

// nextInHeap returns the address of the block immediately following addr
// in the linear (implicit) heap walk: next_in_heap(b) = b + b.size.
func nextInHeap(addr uintptr) uintptr {
	return addr + blockSize(addr)
}

// prevInHeap returns the address of the block immediately preceding addr
// in the linear heap walk. A mini left neighbour has no footer to read,
// so its size is inferred from the prev-mini flag instead; otherwise the
// left neighbour's footer (which duplicates its header) gives its size.
func prevInHeap(addr uintptr) uintptr {
	h := header(addr)
	if extractPrevMini(h) {
		return addr - 2*wordSize
	}

	prevFooter := readWord(addr - wordSize)

	return addr - extractSize(prevFooter)
}

// payloadOf returns the address of the first payload byte of the
// (allocated) block at addr.
func payloadOf(addr uintptr) uintptr {
	return addr + wordSize
}

// payloadToHeader returns the header address for a payload pointer
// previously returned by Allocate/Reallocate/ZeroedAllocate.
func payloadToHeader(p uintptr) uintptr {
	return p - wordSize
}

// nextPtrAddr / prevPtrAddr locate the free-list pointer slots that alias
// the payload of a free block while it sits in a free list. Mini blocks
// only ever store "next"; standard free blocks store "next" then "prev".
func nextPtrAddr(addr uintptr) uintptr {
	return addr + wordSize
}

func prevPtrAddr(addr uintptr) uintptr {
	return addr + 2*wordSize
}
