// Package lzmachunk is the chunked, multi-threaded LZMA compress/decompress
// driver. Each chunk of the input is compressed (or, if compression does not
// help, stored verbatim) independently, and framed with the fixed-width
// header from internal/container so the chunk boundaries are recoverable
// without having compressed the whole file up front.
package lzmachunk

// minDictSize is a conservative floor for the LZMA dictionary size,
// matching the lower bound the codec itself enforces internally.
const minDictSize = 1 << 12

// Options holds the tunables for the chunk driver, mirroring
// internal/blockcipher.Options but scoped to compression: how much raw
// input each worker may hold at once, how many workers run per batch, and
// the LZMA dictionary size used for both directions.
type Options struct {
	// MaxBytesPerThread bounds the raw (pre-compression) size of a
	// single chunk. Defaults to 128 MiB, matching the original
	// COMP_THREAD_MAX_MEM.
	MaxBytesPerThread int64
	// MaxThreads caps the number of workers spawned per batch. Defaults
	// to 4, matching the original COMP_MAX_THREADS.
	MaxThreads int
	// DictSize is the LZMA dictionary size used by both the writer and
	// the reader. Defaults to 16 MiB.
	DictSize int
}

// DefaultOptions returns the tunables the original C compression layer
// used, plus the spec's default LZMA dictionary size.
func DefaultOptions() Options {
	return Options{
		MaxBytesPerThread: 128 * 1024 * 1024,
		MaxThreads:        4,
		DictSize:          16 << 20,
	}
}

func (o Options) withDefaults() Options {
	if o.MaxBytesPerThread <= 0 {
		o.MaxBytesPerThread = DefaultOptions().MaxBytesPerThread
	}
	if o.MaxThreads <= 0 {
		o.MaxThreads = DefaultOptions().MaxThreads
	}
	if o.DictSize <= 0 {
		o.DictSize = DefaultOptions().DictSize
	}
	if o.DictSize < minDictSize {
		o.DictSize = minDictSize
	}
	return o
}

func resolveOptions(opts []Options) Options {
	if len(opts) == 0 {
		return DefaultOptions()
	}
	return opts[0]
}
