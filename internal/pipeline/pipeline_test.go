package pipeline

import (
	"bytes"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/JSpeedie/ec-ftp/internal/blockcipher"
	"github.com/JSpeedie/ec-ftp/internal/lzmachunk"
)

func TestPrepareProcessReceived_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	key := [4]uint32{0xdeadbeef, 0x01234567, 0x89abcdef, 0x0f0e0d0c}

	opt := Options{
		Compress: lzmachunk.Options{MaxBytesPerThread: 512, MaxThreads: 3, DictSize: 1 << 16},
		Cipher:   blockcipher.Options{MaxBytesPerThread: 64, MaxThreads: 3},
	}

	cases := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"small", []byte("hello, ec-ftp")},
		{"large-compressible", bytes.Repeat([]byte("ec-ftp payload pipeline test data. "), 500)},
		{"large-random", randomBytes(10000)},
	}

	for _, c := range cases {
		srcPath := filepath.Join(dir, c.name+"-src")
		if err := os.WriteFile(srcPath, c.data, 0o600); err != nil {
			t.Fatalf("%s: WriteFile: %v", c.name, err)
		}

		preparedPath, err := Prepare(srcPath, key, opt)
		if err != nil {
			t.Fatalf("%s: Prepare: %v", c.name, err)
		}

		finalPath := filepath.Join(dir, c.name+"-final")
		if err := ProcessReceived(finalPath, preparedPath, key, opt); err != nil {
			t.Fatalf("%s: ProcessReceived: %v", c.name, err)
		}

		got, err := os.ReadFile(finalPath)
		if err != nil {
			t.Fatalf("%s: ReadFile: %v", c.name, err)
		}
		if !bytes.Equal(got, c.data) {
			t.Fatalf("%s: round trip mismatch: got %d bytes, want %d bytes", c.name, len(got), len(c.data))
		}
	}
}

func TestPrepare_RemovesIntermediateByDefault(t *testing.T) {
	dir := t.TempDir()
	key := [4]uint32{1, 2, 3, 4}

	srcPath := filepath.Join(dir, "src")
	if err := os.WriteFile(srcPath, []byte("some data"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	before, _ := os.ReadDir(dir)
	preparedPath, err := Prepare(srcPath, key)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	after, _ := os.ReadDir(dir)

	if len(after) != len(before)+1 {
		t.Fatalf("dir has %d entries after Prepare, want %d (src + prepared file only)", len(after), len(before)+1)
	}
	if _, err := os.Stat(preparedPath); err != nil {
		t.Fatalf("prepared file missing: %v", err)
	}
}

func randomBytes(n int) []byte {
	b := make([]byte, n)
	rand.New(rand.NewSource(99)).Read(b)
	return b
}
