//go:build !unix
// +build !unix

package main

import (
	"fmt"

	"github.com/orizon-lang/segheap/internal/allocator"
)

func newMmapProvider(reserveBytes int) (allocator.HeapProvider, error) {
	return nil, fmt.Errorf("mmap heap provider is not available on this platform")
}
