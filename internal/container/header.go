// Package container implements the processed-chunk header format shared by
// the LZMA chunk driver (internal/lzmachunk): one byte flag followed by two
// fixed-width sizes. The original C source sized the two integers as the
// platform's size_t; this implementation fixes the width to 8 bytes,
// little-endian, so the container is portable across producers and
// consumers (see SPEC_FULL.md §3/§9).
package container

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/JSpeedie/ec-ftp/internal/ecerr"
)

// LZMAPropsSize is the number of bytes of LZMA properties that precede the
// compressed payload of a chunk whose header flag is Compressed.
const LZMAPropsSize = 5

// HeaderSize is the on-disk size of a ChunkHeader: 1 flag byte + 8 + 8.
const HeaderSize = 1 + 8 + 8

// ChunkHeader describes one chunk of the processed-chunk container.
type ChunkHeader struct {
	// Compressed is false for a "stored" chunk (compression did not
	// help) and true for a chunk whose payload is LZMA properties
	// followed by compressed bytes.
	Compressed bool
	// OriginalSize is the size, in bytes, of this chunk before
	// compression.
	OriginalSize uint64
	// ProcessedSize is the size, in bytes, of this chunk's payload on
	// disk (excluding the LZMAPropsSize properties block, if present).
	ProcessedSize uint64
}

// Encode writes the fixed-width on-disk representation of h to w.
func (h ChunkHeader) Encode(w io.Writer) error {
	var buf [HeaderSize]byte
	if h.Compressed {
		buf[0] = 1
	}
	binary.LittleEndian.PutUint64(buf[1:9], h.OriginalSize)
	binary.LittleEndian.PutUint64(buf[9:17], h.ProcessedSize)

	if _, err := w.Write(buf[:]); err != nil {
		return fmt.Errorf("container: write header: %w", ecerr.ErrIO)
	}
	return nil
}

// Decode reads one fixed-width header from r. It returns io.EOF unmodified
// (not wrapped) when r is exhausted before any byte of the header has been
// read, so callers can distinguish "no more chunks" from "a chunk started
// but its header was cut short" (ecerr.ErrMalformedContainer) — this is the
// EOF-check the original C source got backwards (see SPEC_FULL.md §9).
func Decode(r io.Reader) (ChunkHeader, error) {
	var buf [HeaderSize]byte
	n, err := io.ReadFull(r, buf[:])
	if err != nil {
		if n == 0 && err == io.EOF {
			return ChunkHeader{}, io.EOF
		}
		return ChunkHeader{}, fmt.Errorf("container: read header (got %d of %d bytes): %w", n, HeaderSize, ecerr.ErrMalformedContainer)
	}

	h := ChunkHeader{
		Compressed:    buf[0] == 1,
		OriginalSize:  binary.LittleEndian.Uint64(buf[1:9]),
		ProcessedSize: binary.LittleEndian.Uint64(buf[9:17]),
	}
	return h, nil
}
