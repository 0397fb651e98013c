package allocator

// defaultChunkSize is the number of bytes requested from the heap provider
// by the initial extension in New, and the minimum requested whenever
// find_fit misses (spec.md §4.7).
const defaultChunkSize = 64

// defaultByteHeapCapacity bounds the default in-process ByteHeap provider.
// Modeled on the teacher's arena-allocator default (internal/allocator's
// 64MB ArenaSize).
const defaultByteHeapCapacity = 64 * 1024 * 1024

// Config controls how New builds an Allocator. Modeled directly on
// the teacher's internal/allocator.Config / Option functional-options
// pair.
type Config struct {
	// HeapProvider backs the managed heap. Defaults to a ByteHeap capped
	// at defaultByteHeapCapacity.
	HeapProvider HeapProvider

	// ChunkSize is the minimum number of bytes requested on each Extend
	// call (spec.md's "chunksize").
	ChunkSize uintptr

	// DebugChecks enables CheckHeap calls at the end of every public API
	// operation; a release build should leave this off.
	DebugChecks bool

	// CheckLogger receives a message when CheckHeap fails while
	// DebugChecks is enabled. Nil discards the message.
	CheckLogger func(format string, args ...interface{})
}

// Option mutates a Config during New.
type Option func(*Config)

// defaultCheckLogger is the CheckLogger a fresh Config starts with. It is
// nil in normal builds (checker failures are silent unless the caller
// installs WithCheckLogger) and set by debug_on.go's init to a
// log.Printf-backed sink in debug builds.
var defaultCheckLogger func(format string, args ...interface{})

func defaultConfig() *Config {
	return &Config{
		ChunkSize:   defaultChunkSize,
		CheckLogger: defaultCheckLogger,
	}
}

// WithHeapProvider overrides the heap provider used by the allocator.
func WithHeapProvider(p HeapProvider) Option {
	return func(c *Config) { c.HeapProvider = p }
}

// WithChunkSize overrides the minimum per-Extend growth amount.
func WithChunkSize(n uintptr) Option {
	return func(c *Config) { c.ChunkSize = n }
}

// WithDebugChecks enables or disables the post-operation consistency
// checker.
func WithDebugChecks(enabled bool) Option {
	return func(c *Config) { c.DebugChecks = enabled }
}

// WithCheckLogger installs a sink for checker failure messages.
func WithCheckLogger(logger func(format string, args ...interface{})) Option {
	return func(c *Config) { c.CheckLogger = logger }
}
