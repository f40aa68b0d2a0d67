package main

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"

	"github.com/pborman/getopt/v2"

	"github.com/JSpeedie/ec-ftp/internal/blockcipher"
	"github.com/JSpeedie/ec-ftp/internal/lzmachunk"
	"github.com/JSpeedie/ec-ftp/internal/pipeline"
)

// tunables mirrors the teacher's EncryptorOptions: one flat struct holding
// every flag a subcommand might read, populated by getopt and then clamped
// to sane ranges with a warning, rather than rejected outright.
type tunables struct {
	Threads        uint
	BytesPerThread uint
	Level          uint
	DictSizeMB     uint
	KeepTemp       bool
	KeyHex         string
	Listen         string
	Dial           string
}

const (
	ThreadsMin  uint = 1
	ThreadsMax  uint = 64
	LevelMin    uint = 1
	LevelMax    uint = 9
	DictMinMB   uint = 1
	DictMaxMB   uint = 512
	BytesPerMin uint = 16
	BytesPerMax uint = 1 << 30
)

// parseTunables registers the shared flags on a fresh getopt.Set (so
// repeated calls across subcommands never collide with package-level
// state), parses args, clamps out-of-range values with a logged warning
// (teacher's options.go style), and returns the remaining positional
// arguments.
func parseTunables(args []string) (tunables, []string) {
	t := tunables{
		Threads:        4,
		BytesPerThread: 4 * 1024 * 1024,
		Level:          6,
		DictSizeMB:     16,
	}

	set := getopt.New()
	set.FlagLong(&t.Threads, "threads", 0, "number of worker goroutines per batch")
	set.FlagLong(&t.BytesPerThread, "bytes-per-thread", 0, "bytes of input each encryption worker handles per batch (compression workers handle 16 times this)")
	set.FlagLong(&t.Level, "level", 0, "LZMA compression level (1-9, informational only)")
	set.FlagLong(&t.DictSizeMB, "dictsize", 0, "LZMA dictionary size in MiB")
	set.FlagLong(&t.KeepTemp, "keep-temp", 0, "keep intermediate files produced by prepare/receive")
	set.FlagLong(&t.KeyHex, "keyhex", 'k', "32 hex characters of AES-128 key material")
	set.FlagLong(&t.Listen, "listen", 0, "address to listen on for handshake")
	set.FlagLong(&t.Dial, "dial", 0, "address to dial for handshake")

	set.Parse(append([]string{"ecftp"}, args...))

	if t.Threads < ThreadsMin || t.Threads > ThreadsMax {
		gLoggerStdout.Println("threads must be between", ThreadsMin, "and", ThreadsMax)
		t.Threads = uint(math.Max(float64(ThreadsMin), math.Min(float64(t.Threads), float64(ThreadsMax))))
	}
	if t.Level < LevelMin || t.Level > LevelMax {
		gLoggerStdout.Println("level must be between", LevelMin, "and", LevelMax)
		t.Level = uint(math.Max(float64(LevelMin), math.Min(float64(t.Level), float64(LevelMax))))
	}
	if t.DictSizeMB < DictMinMB || t.DictSizeMB > DictMaxMB {
		gLoggerStdout.Println("dictsize (MiB) must be between", DictMinMB, "and", DictMaxMB)
		t.DictSizeMB = uint(math.Max(float64(DictMinMB), math.Min(float64(t.DictSizeMB), float64(DictMaxMB))))
	}
	if t.BytesPerThread < BytesPerMin || t.BytesPerThread > BytesPerMax {
		gLoggerStdout.Println("bytes-per-thread must be between", BytesPerMin, "and", BytesPerMax)
		t.BytesPerThread = uint(math.Max(float64(BytesPerMin), math.Min(float64(t.BytesPerThread), float64(BytesPerMax))))
	}

	return t, set.Args()
}

func (t tunables) cipherOptions() blockcipher.Options {
	return blockcipher.Options{
		MaxBytesPerThread: int64(t.BytesPerThread),
		MaxThreads:        int(t.Threads),
	}
}

func (t tunables) compressOptions() lzmachunk.Options {
	return lzmachunk.Options{
		MaxBytesPerThread: int64(t.BytesPerThread) * 16,
		MaxThreads:        int(t.Threads),
		DictSize:          int(t.DictSizeMB) * 1024 * 1024,
	}
}

func (t tunables) pipelineOptions() pipeline.Options {
	return pipeline.Options{
		Compress: t.compressOptions(),
		Cipher:   t.cipherOptions(),
		KeepTemp: t.KeepTemp,
	}
}

// parseKeyHex decodes exactly 32 hex characters into an AES-128 key,
// packing each 4-byte group little-endian to match aesprim's internal word
// layout (aesprim.splitWord writes the low byte of each word first).
func parseKeyHex(s string) ([4]uint32, error) {
	var key [4]uint32

	raw, err := hex.DecodeString(s)
	if err != nil {
		return key, fmt.Errorf("keyhex: invalid hex: %w", err)
	}
	if len(raw) != 16 {
		return key, fmt.Errorf("keyhex: decoded to %d bytes, want 16", len(raw))
	}

	for i := range key {
		key[i] = binary.LittleEndian.Uint32(raw[i*4 : i*4+4])
	}
	return key, nil
}
