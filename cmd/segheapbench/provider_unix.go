//go:build unix
// +build unix

package main

import "github.com/orizon-lang/segheap/internal/allocator"

func newMmapProvider(reserveBytes int) (allocator.HeapProvider, error) {
	return allocator.NewMmapHeap(uintptr(reserveBytes))
}
