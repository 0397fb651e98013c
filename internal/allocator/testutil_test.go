package allocator

import (
	"runtime"
	"unsafe"
)

// testArena pins a byte slice for the lifetime of a test so that uintptr
// addresses derived from it stay valid; callers must keep a reference to
// the returned slice alive (via closing over it or storing it) for as
// long as they use the returned base address.
type testArena struct {
	buf []byte
}

func newTestArena(size int) *testArena {
	return &testArena{buf: make([]byte, size)}
}

func (a *testArena) base() uintptr {
	p := uintptr(unsafe.Pointer(&a.buf[0]))
	runtime.KeepAlive(a.buf)

	return p
}

func (a *testArena) addr(offset uintptr) uintptr {
	return a.base() + offset
}
