//go:build unix
// +build unix

package allocator

import (
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// MmapHeap is a HeapProvider backed by a single anonymous mapping,
// reserved up front with PROT_NONE and committed page-by-page with
// mprotect as Extend is called. This gives the allocator a stable address
// range for its whole lifetime (like ByteHeap) while only touching the
// pages it actually uses, the way a real process heap grows via brk.
type MmapHeap struct {
	mu sync.Mutex

	region   []byte
	pageSize uintptr
	used     uintptr
	reserved uintptr
}

// NewMmapHeap reserves a virtual address range of at least reserveBytes,
// rounded up to a whole number of pages. The reservation carries no
// physical backing until Extend commits it.
func NewMmapHeap(reserveBytes uintptr) (*MmapHeap, error) {
	pageSize := uintptr(unix.Getpagesize())
	reserved := alignUpTo(reserveBytes, pageSize)

	region, err := unix.Mmap(-1, 0, int(reserved), unix.PROT_NONE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, err
	}

	return &MmapHeap{region: region, pageSize: pageSize, reserved: reserved}, nil
}

// Close releases the entire reservation, committed or not.
func (h *MmapHeap) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	return unix.Munmap(h.region)
}

func alignUpTo(n, unit uintptr) uintptr {
	if unit == 0 {
		return n
	}

	return (n + unit - 1) &^ (unit - 1)
}

func (h *MmapHeap) base() uintptr {
	if len(h.region) == 0 {
		return 0
	}

	return uintptr(unsafe.Pointer(&h.region[0]))
}

// Extend implements HeapProvider.
func (h *MmapHeap) Extend(delta uintptr) (uintptr, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if delta == 0 {
		return h.base() + h.used, true
	}

	newUsed := h.used + delta
	if newUsed > h.reserved {
		return 0, false
	}

	committedPages := alignUpTo(h.used, h.pageSize)
	neededPages := alignUpTo(newUsed, h.pageSize)

	if neededPages > committedPages {
		grownRegion := h.region[committedPages:neededPages]
		if err := unix.Mprotect(grownRegion, unix.PROT_READ|unix.PROT_WRITE); err != nil {
			return 0, false
		}
	}

	old := h.base() + h.used
	h.used = newUsed

	return old, true
}

// Low implements HeapProvider.
func (h *MmapHeap) Low() uintptr {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.base()
}

// High implements HeapProvider.
func (h *MmapHeap) High() uintptr {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.used == 0 {
		return h.base()
	}

	return h.base() + h.used - 1
}

// Fill implements HeapProvider.
func (h *MmapHeap) Fill(dst uintptr, b byte, n uintptr) {
	if n == 0 {
		return
	}

	s := (*[1 << 30]byte)(unsafe.Pointer(dst))[:n:n]
	for i := range s {
		s[i] = b
	}
}

// Copy implements HeapProvider.
func (h *MmapHeap) Copy(dst, src uintptr, n uintptr) {
	if n == 0 {
		return
	}

	dstSlice := (*[1 << 30]byte)(unsafe.Pointer(dst))[:n:n]
	srcSlice := (*[1 << 30]byte)(unsafe.Pointer(src))[:n:n]
	copy(dstSlice, srcSlice)
}
