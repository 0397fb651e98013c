package allocator

import (
	"runtime"
	"unsafe"

	segerrors "github.com/orizon-lang/segheap/internal/errors"
)

// HeapProvider is the external collaborator this allocator is built on top
// of (spec.md §6). It owns the raw memory backing the managed heap; the
// allocator never allocates or frees memory through any channel other than
// Extend.
type HeapProvider interface {
	// Extend grows the managed region by delta bytes and returns the
	// address of the first new byte. ok is false if the provider refuses
	// (out of memory).
	Extend(delta uintptr) (addr uintptr, ok bool)

	// Low returns the first address of the managed region.
	Low() uintptr

	// High returns the last valid address of the managed region
	// (inclusive). Before the first Extend call this is meaningless.
	High() uintptr

	// Fill writes n copies of b starting at dst.
	Fill(dst uintptr, b byte, n uintptr)

	// Copy copies n bytes from src to dst. The ranges must not overlap.
	Copy(dst, src uintptr, n uintptr)
}

// ByteHeap is a HeapProvider backed by a single, pre-reserved Go byte
// slice. The slice's capacity is fixed at construction time and never
// reallocated: Extend only ever grows the slice's length, so addresses
// handed out earlier stay valid for the provider's whole lifetime. This
// mirrors the teacher's ArenaAllocatorImpl, whose buffer is likewise a
// single pre-sized []byte that a running offset is bumped into.
type ByteHeap struct {
	buffer []byte
	used   uintptr
}

// NewByteHeap creates a provider able to grow up to capacity bytes.
func NewByteHeap(capacity uintptr) *ByteHeap {
	return &ByteHeap{buffer: make([]byte, 0, capacity)}
}

func (h *ByteHeap) base() uintptr {
	if cap(h.buffer) == 0 {
		return 0
	}

	return uintptr(unsafe.Pointer(&h.buffer[:1][0]))
}

// Extend implements HeapProvider.
func (h *ByteHeap) Extend(delta uintptr) (uintptr, bool) {
	if delta == 0 {
		return h.Low() + h.used, true
	}

	newUsed := h.used + delta
	if int(newUsed) > cap(h.buffer) {
		return 0, false
	}

	h.buffer = h.buffer[:newUsed]
	old := h.base() + h.used
	h.used = newUsed

	runtime.KeepAlive(h.buffer)

	return old, true
}

// Low implements HeapProvider.
func (h *ByteHeap) Low() uintptr {
	return h.base()
}

// High implements HeapProvider.
func (h *ByteHeap) High() uintptr {
	if h.used == 0 {
		return h.base()
	}

	return h.base() + h.used - 1
}

// Fill implements HeapProvider.
func (h *ByteHeap) Fill(dst uintptr, b byte, n uintptr) {
	if n == 0 {
		return
	}

	s := (*[1 << 30]byte)(unsafe.Pointer(dst))[:n:n]
	for i := range s {
		s[i] = b
	}

	runtime.KeepAlive(h.buffer)
}

// Copy implements HeapProvider.
func (h *ByteHeap) Copy(dst, src uintptr, n uintptr) {
	if n == 0 {
		return
	}

	dstSlice := (*[1 << 30]byte)(unsafe.Pointer(dst))[:n:n]
	srcSlice := (*[1 << 30]byte)(unsafe.Pointer(src))[:n:n]
	copy(dstSlice, srcSlice)

	runtime.KeepAlive(h.buffer)
}

// readWord reads the 64-bit header/footer/list-pointer word at addr.
func readWord(addr uintptr) uint64 {
	return *(*uint64)(unsafe.Pointer(addr))
}

// writeWord writes the 64-bit header/footer/list-pointer word at addr.
func writeWord(addr uintptr, w uint64) {
	*(*uint64)(unsafe.Pointer(addr)) = w
}

// readPtr reads a free-list next/prev pointer stored at addr. A stored
// value of 0 means nil.
func readPtr(addr uintptr) uintptr {
	return uintptr(*(*uint64)(unsafe.Pointer(addr)))
}

// writePtr writes a free-list next/prev pointer at addr.
func writePtr(addr uintptr, v uintptr) {
	*(*uint64)(unsafe.Pointer(addr)) = uint64(v)
}

func outOfMemoryErr(requested uintptr) error {
	return segerrors.OutOfMemory(requested)
}
