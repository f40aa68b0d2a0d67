package lzmachunk

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/JSpeedie/ec-ftp/internal/container"
	"github.com/JSpeedie/ec-ftp/internal/ecerr"
	"github.com/ulikunitz/xz/lzma"
)

func lzmaProperties() *lzma.Properties {
	return &lzma.Properties{LC: 3, LP: 0, PB: 2}
}

// compressBytes runs data through the LZMA1 encoder, producing a payload
// that begins with the 5-byte properties header (1 properties byte + 4
// byte little-endian dictionary size) container.LZMAPropsSize describes,
// followed by the compressed stream. The uncompressed size is not written
// to the stream; it travels in the chunk header instead.
func compressBytes(data []byte, dictSize int) ([]byte, error) {
	var buf bytes.Buffer
	cfg := lzma.WriterConfig{
		Properties:   lzmaProperties(),
		DictCap:      dictSize,
		SizeInHeader: false,
	}
	w, err := cfg.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("lzmachunk: create encoder: %w", ecerr.ErrCompressFailure)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("lzmachunk: encode chunk: %w", ecerr.ErrCompressFailure)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("lzmachunk: flush encoder: %w", ecerr.ErrCompressFailure)
	}
	return buf.Bytes(), nil
}

// decompressBytes reverses compressBytes. originalSize must be the exact
// uncompressed size recorded in the chunk's header, since the 5-byte
// properties header carries no size field of its own.
func decompressBytes(payload []byte, originalSize uint64, dictSize int) ([]byte, error) {
	cfg := lzma.ReaderConfig{
		DictCap:      dictSize,
		SizeInHeader: false,
		Size:         int64(originalSize),
	}
	r, err := cfg.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("lzmachunk: create decoder: %w", ecerr.ErrDecompressFailure)
	}
	out := make([]byte, originalSize)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, fmt.Errorf("lzmachunk: decode chunk: %w", ecerr.ErrDecompressFailure)
	}
	return out, nil
}

// compressWorkerArgs is one worker's share of a compress batch: it owns its
// own read handle into the input file and is free of any dependency on the
// other workers in the batch.
type compressWorkerArgs struct {
	inPath      string
	regionStart int64
	regionLen   int64
	dictSize    int

	header  container.ChunkHeader
	payload []byte
}

// runCompressWorker reads its assigned region, compresses it, and decides
// between "compressed" and "stored" framing: stored wins whenever the
// compressed payload (including its 5-byte properties header) would not be
// smaller than just keeping the raw bytes. For a compressed chunk,
// header.ProcessedSize records the compressed data's length alone (the
// properties header is a fixed-size 5 bytes carried alongside it on disk,
// not folded into ProcessedSize); for a stored chunk ProcessedSize equals
// OriginalSize, since there is no properties header to exclude.
func runCompressWorker(a *compressWorkerArgs) error {
	f, err := os.Open(a.inPath)
	if err != nil {
		return fmt.Errorf("lzmachunk: open input for read: %w", ecerr.ErrIO)
	}
	defer f.Close()

	if _, err := f.Seek(a.regionStart, io.SeekStart); err != nil {
		return fmt.Errorf("lzmachunk: seek input: %w", ecerr.ErrIO)
	}

	raw := make([]byte, a.regionLen)
	if _, err := io.ReadFull(f, raw); err != nil {
		return fmt.Errorf("lzmachunk: read region of %d bytes: %w", a.regionLen, ecerr.ErrShortRead)
	}

	compressed, err := compressBytes(raw, a.dictSize)
	if err != nil {
		return err
	}

	if int64(len(compressed)) >= a.regionLen {
		stored := make([]byte, len(raw))
		copy(stored, raw)
		a.header = container.ChunkHeader{
			Compressed:    false,
			OriginalSize:  uint64(a.regionLen),
			ProcessedSize: uint64(len(stored)),
		}
		a.payload = stored
		return nil
	}

	a.header = container.ChunkHeader{
		Compressed:    true,
		OriginalSize:  uint64(a.regionLen),
		ProcessedSize: uint64(len(compressed) - container.LZMAPropsSize),
	}
	a.payload = compressed
	return nil
}

// decompressWorkerArgs is one worker's share of a decompress batch. Unlike
// the compress side, the payload bytes are supplied by the orchestrator,
// which must read the variable-length header/payload pairs sequentially; the
// worker itself performs only the (parallelizable) decode.
type decompressWorkerArgs struct {
	header   container.ChunkHeader
	payload  []byte
	dictSize int

	out []byte
}

// runDecompressWorker reverses runCompressWorker's framing decision: a
// stored chunk's payload is copied out verbatim (never aliased, so callers
// may freely mutate or discard the source buffer), and a compressed chunk is
// run through the LZMA1 decoder.
func runDecompressWorker(a *decompressWorkerArgs) error {
	if !a.header.Compressed {
		if uint64(len(a.payload)) != a.header.OriginalSize {
			return fmt.Errorf("lzmachunk: stored chunk payload is %d bytes, header says %d: %w",
				len(a.payload), a.header.OriginalSize, ecerr.ErrMalformedContainer)
		}
		out := make([]byte, len(a.payload))
		copy(out, a.payload)
		a.out = out
		return nil
	}

	out, err := decompressBytes(a.payload, a.header.OriginalSize, a.dictSize)
	if err != nil {
		return err
	}
	a.out = out
	return nil
}
