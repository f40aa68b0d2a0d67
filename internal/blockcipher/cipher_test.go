package blockcipher

import (
	"bytes"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/JSpeedie/ec-ftp/internal/ecerr"
)

func testKey() [4]uint32 {
	return [4]uint32{0x00010203, 0x04050607, 0x08090a0b, 0x0c0d0e0f}
}

func writeTemp(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, data, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return p
}

func TestEncryptDecryptFile_RoundTrip(t *testing.T) {
	sizes := []int{0, 1, 15, 16, 17, 31, 32, 33, 100, 1<<20 + 7}

	dir := t.TempDir()
	key := testKey()
	opt := Options{MaxBytesPerThread: 64, MaxThreads: 3}

	for _, size := range sizes {
		plain := make([]byte, size)
		rand.New(rand.NewSource(int64(size))).Read(plain)

		inPath := writeTemp(t, dir, "plain", plain)
		encPath := filepath.Join(dir, "enc")
		decPath := filepath.Join(dir, "dec")

		if err := EncryptFile(inPath, encPath, key, opt); err != nil {
			t.Fatalf("size %d: EncryptFile: %v", size, err)
		}

		encInfo, err := os.Stat(encPath)
		if err != nil {
			t.Fatalf("size %d: stat ciphertext: %v", size, err)
		}
		if encInfo.Size()%16 != 0 || encInfo.Size() <= int64(size) {
			t.Fatalf("size %d: ciphertext size %d is not a valid padded length", size, encInfo.Size())
		}

		if err := DecryptFile(encPath, decPath, key, opt); err != nil {
			t.Fatalf("size %d: DecryptFile: %v", size, err)
		}

		got, err := os.ReadFile(decPath)
		if err != nil {
			t.Fatalf("size %d: ReadFile: %v", size, err)
		}
		if !bytes.Equal(got, plain) {
			t.Fatalf("size %d: round trip mismatch: got %d bytes, want %d bytes", size, len(got), len(plain))
		}
	}
}

func TestDecryptFile_MalformedLength(t *testing.T) {
	dir := t.TempDir()
	key := testKey()

	inPath := writeTemp(t, dir, "bad", make([]byte, 17))
	outPath := filepath.Join(dir, "out")

	err := DecryptFile(inPath, outPath, key)
	if !errors.Is(err, ecerr.ErrMalformedCiphertext) {
		t.Fatalf("DecryptFile(17 bytes) = %v, want ErrMalformedCiphertext", err)
	}
}

func TestDecryptFile_EmptyInput(t *testing.T) {
	dir := t.TempDir()
	key := testKey()

	inPath := writeTemp(t, dir, "empty", nil)
	outPath := filepath.Join(dir, "out")

	err := DecryptFile(inPath, outPath, key)
	if !errors.Is(err, ecerr.ErrMalformedCiphertext) {
		t.Fatalf("DecryptFile(empty) = %v, want ErrMalformedCiphertext", err)
	}
}

func TestEncryptFile_AlwaysOneFullPaddingBlockWhenBlockAligned(t *testing.T) {
	dir := t.TempDir()
	key := testKey()

	plain := make([]byte, 64)
	inPath := writeTemp(t, dir, "plain", plain)
	encPath := filepath.Join(dir, "enc")

	if err := EncryptFile(inPath, encPath, key, Options{MaxBytesPerThread: 32, MaxThreads: 2}); err != nil {
		t.Fatalf("EncryptFile: %v", err)
	}

	info, err := os.Stat(encPath)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() != int64(len(plain))+16 {
		t.Fatalf("ciphertext size = %d, want %d (exactly one extra padding block)", info.Size(), len(plain)+16)
	}
}
