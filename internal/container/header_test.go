package container

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/JSpeedie/ec-ftp/internal/ecerr"
)

func TestChunkHeader_EncodeDecodeRoundTrip(t *testing.T) {
	cases := []ChunkHeader{
		{Compressed: false, OriginalSize: 0, ProcessedSize: 0},
		{Compressed: true, OriginalSize: 1, ProcessedSize: 1},
		{Compressed: true, OriginalSize: 1 << 20, ProcessedSize: 12345},
		{Compressed: false, OriginalSize: 1 << 40, ProcessedSize: 1 << 40},
	}

	for _, want := range cases {
		var buf bytes.Buffer
		if err := want.Encode(&buf); err != nil {
			t.Fatalf("Encode: %v", err)
		}
		if buf.Len() != HeaderSize {
			t.Fatalf("encoded header is %d bytes, want %d", buf.Len(), HeaderSize)
		}

		got, err := Decode(&buf)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if got != want {
			t.Fatalf("Decode() = %+v, want %+v", got, want)
		}
	}
}

func TestDecode_EmptyStreamReturnsEOF(t *testing.T) {
	_, err := Decode(bytes.NewReader(nil))
	if !errors.Is(err, io.EOF) {
		t.Fatalf("Decode(empty) = %v, want io.EOF", err)
	}
}

func TestDecode_ShortHeaderIsMalformedContainer(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte{1, 2, 3}))
	if !errors.Is(err, ecerr.ErrMalformedContainer) {
		t.Fatalf("Decode(short) = %v, want ErrMalformedContainer", err)
	}
}
