// Command segheapbench drives the allocator through a synthetic
// allocate/free/reallocate workload and reports heap statistics and a
// final consistency check.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"
	"unsafe"

	"github.com/orizon-lang/segheap/internal/allocator"
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "show version information")
		ops         = flag.Int("ops", 100000, "number of allocate/free operations to perform")
		maxSize     = flag.Int("max-size", 4096, "largest single allocation, in bytes")
		seed        = flag.Int64("seed", 1, "random seed driving the workload")
		heapBytes   = flag.Int("heap", 64<<20, "capacity of the backing heap, in bytes")
		provider    = flag.String("provider", "byte", "heap provider: byte (growable []byte) or mmap (reserve/commit via mmap+mprotect)")
		debugChecks = flag.Bool("check", true, "run the heap checker after every operation")
		verbose     = flag.Bool("verbose", false, "print per-operation detail")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "segheapbench drives the segregated free-list allocator through a\n")
		fmt.Fprintf(os.Stderr, "synthetic allocate/free/reallocate workload.\n\n")
		fmt.Fprintf(os.Stderr, "OPTIONS:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if *showVersion {
		fmt.Println("segheapbench (segheap allocator benchmark harness)")
		os.Exit(0)
	}

	b := &bench{
		ops:     *ops,
		maxSize: *maxSize,
		rng:     rand.New(rand.NewSource(*seed)),
		verbose: *verbose,
	}

	var heap allocator.HeapProvider

	switch *provider {
	case "byte":
		heap = allocator.NewByteHeap(uintptr(*heapBytes))
	case "mmap":
		mmapHeap, err := newMmapProvider(*heapBytes)
		if err != nil {
			fmt.Fprintf(os.Stderr, "segheapbench: %v\n", err)
			os.Exit(1)
		}

		heap = mmapHeap
	default:
		fmt.Fprintf(os.Stderr, "segheapbench: unknown provider %q (want byte or mmap)\n", *provider)
		os.Exit(1)
	}

	a, err := allocator.New(
		allocator.WithHeapProvider(heap),
		allocator.WithDebugChecks(*debugChecks),
		allocator.WithCheckLogger(func(format string, args ...interface{}) {
			fmt.Fprintf(os.Stderr, "checker: "+format+"\n", args...)
		}),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "segheapbench: failed to initialize allocator: %v\n", err)
		os.Exit(1)
	}

	start := time.Now()
	b.run(a)
	elapsed := time.Since(start)

	if ok := a.CheckHeap(0); !ok {
		fmt.Fprintln(os.Stderr, "segheapbench: final heap check failed")
		os.Exit(1)
	}

	stats := a.Stats()
	fmt.Printf("operations:     %d\n", b.ops)
	fmt.Printf("elapsed:        %v\n", elapsed)
	fmt.Printf("allocations:    %d\n", stats.Allocations)
	fmt.Printf("frees:          %d\n", stats.Frees)
	fmt.Printf("reallocations:  %d\n", stats.Reallocations)
	fmt.Printf("heap extends:   %d\n", stats.HeapExtends)
	fmt.Printf("bytes in use:   %d\n", stats.BytesInUse)
	fmt.Printf("final check:    ok\n")
}

type bench struct {
	ops     int
	maxSize int
	rng     *rand.Rand
	verbose bool

	live []unsafe.Pointer
}

func (b *bench) run(a *allocator.Allocator) {
	for i := 0; i < b.ops; i++ {
		switch {
		case len(b.live) == 0 || b.rng.Intn(3) != 0:
			size := uintptr(1 + b.rng.Intn(b.maxSize))
			p := a.Allocate(size)

			if p == nil {
				if b.verbose {
					fmt.Printf("op %d: allocate(%d) failed\n", i, size)
				}

				continue
			}

			b.live = append(b.live, p)

			if b.verbose {
				fmt.Printf("op %d: allocate(%d) -> %p\n", i, size, p)
			}
		default:
			idx := b.rng.Intn(len(b.live))
			p := b.live[idx]
			b.live[idx] = b.live[len(b.live)-1]
			b.live = b.live[:len(b.live)-1]

			a.Free(p)

			if b.verbose {
				fmt.Printf("op %d: free(%p)\n", i, p)
			}
		}
	}

	for _, p := range b.live {
		a.Free(p)
	}
}
