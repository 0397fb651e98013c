package allocator

import (
	"sync"
	"unsafe"

	segerrors "github.com/orizon-lang/segheap/internal/errors"
)

// minBlockSize is the smallest block the allocator ever hands out: a mini
// block, header word plus one payload/list-pointer word.
const minBlockSize = 2 * wordSize

// Allocator is a segregated-free-list, boundary-tag, immediate-coalescing
// heap manager built on top of a HeapProvider (spec.md §1-§7). The zero
// value is not usable; construct one with New.
type Allocator struct {
	mu sync.Mutex

	heap  HeapProvider
	lists freeLists
	base  uintptr

	config *Config

	stats Stats
}

// Stats reports cumulative allocator activity, mirroring the teacher's
// AllocatorStats (internal/allocator.Config's sibling type) in spirit: a
// plain counters struct read back for diagnostics, not an invariant the
// allocator itself depends on.
type Stats struct {
	Allocations   uint64
	Frees         uint64
	Reallocations uint64
	BytesInUse    uintptr
	HeapExtends   uint64
}

// New builds an Allocator and performs the one-time heap bootstrap: a
// 16-byte prologue/epilogue pair followed by an initial extension of
// config.ChunkSize bytes (spec.md §4.7 "initialize").
func New(options ...Option) (*Allocator, error) {
	cfg := defaultConfig()
	for _, opt := range options {
		opt(cfg)
	}

	if cfg.HeapProvider == nil {
		cfg.HeapProvider = NewByteHeap(defaultByteHeapCapacity)
	}

	a := &Allocator{
		heap:   cfg.HeapProvider,
		config: cfg,
	}

	if err := a.bootstrap(); err != nil {
		return nil, err
	}

	return a, nil
}

// bootstrap installs the prologue/epilogue sentinel pair and requests the
// allocator's first chunk of heap.
func (a *Allocator) bootstrap() error {
	bp, ok := a.heap.Extend(2 * wordSize)
	if !ok {
		return outOfMemoryErr(2 * wordSize)
	}

	a.base = bp

	// Prologue: a zero-size allocated block whose prev-allocated bit is
	// set so the first real block never tries to coalesce left.
	setHeader(bp, packWord(0, true, true, false))

	// Epilogue: the sentinel extend() will treat as "the old epilogue"
	// the first time it runs.
	setHeader(bp+wordSize, packWord(0, true, true, false))

	if _, err := a.extend(a.config.ChunkSize); err != nil {
		return err
	}

	a.stats.HeapExtends++

	return nil
}

// requiredBlockSize converts a requested payload size into the smallest
// 16-byte-aligned block size that can hold it plus a header
// (spec.md §4.7: max(16, round_up(size + 8, 16))).
func requiredBlockSize(size uintptr) uintptr {
	need := alignUp16(size + wordSize)
	if need < minBlockSize {
		need = minBlockSize
	}

	return need
}

// Allocate reserves size bytes and returns a pointer to the first payload
// byte, or nil if size is 0 or the heap cannot be grown far enough
// (spec.md §4.7 "allocate").
func (a *Allocator) Allocate(size uintptr) unsafe.Pointer {
	if size == 0 {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	asize := requiredBlockSize(size)

	b := a.findFit(asize)
	if b == 0 {
		grow := asize
		if a.config.ChunkSize > grow {
			grow = a.config.ChunkSize
		}

		grown, err := a.extend(grow)
		if err != nil {
			return nil
		}

		a.stats.HeapExtends++
		b = grown
	}

	a.place(b, asize)

	a.stats.Allocations++
	a.stats.BytesInUse += asize

	a.checkIfEnabled()
	debugAssertHeap(a, 0)

	return unsafe.Pointer(payloadOf(b))
}

// Free releases a pointer previously returned by Allocate, Reallocate, or
// ZeroedAllocate. Freeing nil is a no-op (spec.md §4.7 "free").
func (a *Allocator) Free(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	b := payloadToHeader(uintptr(ptr))
	h := header(b)
	size := extractSize(h)

	rewriteFreeBlock(b, size, extractPrevAlloc(h), extractPrevMini(h))
	a.coalesce(b)

	a.stats.Frees++
	a.stats.BytesInUse -= size

	a.checkIfEnabled()
	debugAssertHeap(a, 0)
}

// Reallocate resizes the allocation at ptr to size bytes, copying the
// lesser of the old and new sizes' worth of payload. A nil ptr behaves as
// Allocate; a size of 0 behaves as Free and returns nil
// (spec.md §4.7 "reallocate").
func (a *Allocator) Reallocate(ptr unsafe.Pointer, size uintptr) unsafe.Pointer {
	if ptr == nil {
		return a.Allocate(size)
	}

	if size == 0 {
		a.Free(ptr)
		return nil
	}

	a.mu.Lock()
	oldBlock := payloadToHeader(uintptr(ptr))
	oldPayloadSize := blockSize(oldBlock) - wordSize
	a.mu.Unlock()

	newPtr := a.Allocate(size)
	if newPtr == nil {
		return nil
	}

	copySize := size
	if oldPayloadSize < copySize {
		copySize = oldPayloadSize
	}

	a.heap.Copy(uintptr(newPtr), uintptr(ptr), copySize)
	a.Free(ptr)

	a.mu.Lock()
	a.stats.Reallocations++
	a.mu.Unlock()

	return newPtr
}

// ZeroedAllocate allocates space for n elements of size bytes each,
// zero-filled, returning nil if n*size overflows uintptr or either is 0
// (spec.md §4.7 "zeroed_allocate").
func (a *Allocator) ZeroedAllocate(n, size uintptr) unsafe.Pointer {
	if n == 0 || size == 0 {
		return nil
	}

	total := n * size
	if total/n != size {
		a.mu.Lock()
		logger := a.config.CheckLogger
		a.mu.Unlock()

		if logger != nil {
			logger("%s", segerrors.IntegerOverflow("zeroed_allocate", n, size).Error())
		}

		return nil
	}

	ptr := a.Allocate(total)
	if ptr == nil {
		return nil
	}

	a.mu.Lock()
	a.heap.Fill(uintptr(ptr), 0, total)
	a.mu.Unlock()

	return ptr
}

// CheckHeap walks the heap and the free lists and reports whether every
// invariant in spec.md §4.8 holds. line is carried into the HeapCorruption
// errors the checker logs purely for diagnostics, matching the reference
// implementation's mm_checkheap(int line) signature.
func (a *Allocator) CheckHeap(line int) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.checkHeapLocked(line)
}

// checkIfEnabled runs the checker when the allocator was configured with
// WithDebugChecks, routing a failure to the configured CheckLogger (or
// discarding it if none was set). Callers already hold a.mu.
func (a *Allocator) checkIfEnabled() {
	if !a.config.DebugChecks {
		return
	}

	if ok := a.checkHeapLocked(0); !ok && a.config.CheckLogger != nil {
		a.config.CheckLogger("heap consistency check failed")
	}
}

// Stats returns a snapshot of the allocator's cumulative counters.
func (a *Allocator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.stats
}
