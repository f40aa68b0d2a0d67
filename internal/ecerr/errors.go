// Package ecerr defines the failure taxonomy shared by every layer of the
// ec-ftp payload pipeline (blockcipher, container, lzmachunk, pipeline,
// kex). Callers should use errors.Is against these sentinels; the
// layer that detects the failure wraps one of them with context via
// fmt.Errorf("...: %w", err).
package ecerr

import "errors"

var (
	// ErrIO covers read/write/stat/seek failure at the file layer.
	ErrIO = errors.New("ecerr: io failure")

	// ErrShortRead means the file ended before the requested number of
	// bytes could be read.
	ErrShortRead = errors.New("ecerr: short read")

	// ErrAlloc means a buffer allocation failed (surfaced for parity with
	// the spec's taxonomy; Go's allocator panics rather than returning an
	// error, and no layer of this module returns this sentinel).
	ErrAlloc = errors.New("ecerr: allocation failure")

	// ErrCompressFailure means the LZMA encoder returned a non-OK status.
	ErrCompressFailure = errors.New("ecerr: compression failure")

	// ErrDecompressFailure means the LZMA decoder returned a non-OK status.
	ErrDecompressFailure = errors.New("ecerr: decompression failure")

	// ErrMalformedContainer means a chunk header could not be parsed, or
	// the chunk sizes recorded in the container are internally
	// inconsistent.
	ErrMalformedContainer = errors.New("ecerr: malformed container")

	// ErrMalformedCiphertext means the ciphertext length was not a
	// multiple of 16, or its trailing padding byte was out of range.
	ErrMalformedCiphertext = errors.New("ecerr: malformed ciphertext")

	// ErrWorkerSpawn means a worker goroutine's setup failed before it
	// could even attempt its share of the batch.
	ErrWorkerSpawn = errors.New("ecerr: worker spawn failure")

	// ErrKeyExchangeFailure means the Diffie-Hellman handshake failed,
	// either due to I/O or an out-of-range value.
	ErrKeyExchangeFailure = errors.New("ecerr: key exchange failure")
)
