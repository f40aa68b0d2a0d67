package blockcipher

import (
	"fmt"
	"io"
	"os"

	"github.com/JSpeedie/ec-ftp/internal/aesprim"
	"github.com/JSpeedie/ec-ftp/internal/ecerr"
)

// encryptWorkerArgs is the independent work item for one worker's share of
// one encryption batch: its own read handle and offset, its input and
// output buffers, and the shared (read-only) key schedule.
type encryptWorkerArgs struct {
	inPath      string
	regionStart int64
	regionLen   int64

	sbox  [256]byte
	rkeys aesprim.RoundKeys

	out    []byte
	padded bool
}

// runEncryptWorker reads its assigned region, transposes each 16-byte block
// to column-major order, encrypts it, and appends the ciphertext to out. If
// the region's length is not a multiple of 16, the tail is PKCS#7-padded
// (base 16) and the worker flags itself as having absorbed the file's one
// padding event.
func runEncryptWorker(a *encryptWorkerArgs) error {
	f, err := os.Open(a.inPath)
	if err != nil {
		return fmt.Errorf("blockcipher: open input for read: %w", ecerr.ErrIO)
	}
	defer f.Close()

	if _, err := f.Seek(a.regionStart, io.SeekStart); err != nil {
		return fmt.Errorf("blockcipher: seek input: %w", ecerr.ErrIO)
	}

	in := make([]byte, a.regionLen)
	if _, err := io.ReadFull(f, in); err != nil {
		return fmt.Errorf("blockcipher: read region of %d bytes: %w", a.regionLen, ecerr.ErrShortRead)
	}

	fullBlocks := a.regionLen - (a.regionLen % 16)
	a.out = make([]byte, 0, fullBlocks+16)

	var block [16]byte
	for i := int64(0); i < fullBlocks; i += 16 {
		copy(block[:], in[i:i+16])
		aesprim.ToColumnOrder(&block)
		aesprim.EncryptBlock(&block, a.rkeys, a.sbox)
		a.out = append(a.out, block[:]...)
	}

	if tail := a.regionLen - fullBlocks; tail != 0 {
		var text [16]byte
		copy(text[:], in[fullBlocks:])
		padNum := byte(16 - tail)
		for j := tail; j < 16; j++ {
			text[j] = padNum
		}
		aesprim.ToColumnOrder(&text)
		aesprim.EncryptBlock(&text, a.rkeys, a.sbox)
		a.out = append(a.out, text[:]...)
		a.padded = true
	}

	return nil
}

// decryptWorkerArgs is the independent work item for one worker's share of
// one decryption batch.
type decryptWorkerArgs struct {
	inPath      string
	regionStart int64
	regionLen   int64 // always a multiple of 16; validated by the caller
	isFinal     bool  // last worker of the last batch

	sbox    [256]byte
	invSBox [256]byte
	rkeys   aesprim.RoundKeys

	out []byte
}

// runDecryptWorker reads its assigned (block-aligned) region, decrypts each
// 16-byte block and transposes it back to row-major order. If this is the
// final worker of the final batch, it additionally strips the trailing
// PKCS#7 padding recorded in the last decrypted byte.
func runDecryptWorker(a *decryptWorkerArgs) error {
	f, err := os.Open(a.inPath)
	if err != nil {
		return fmt.Errorf("blockcipher: open input for read: %w", ecerr.ErrIO)
	}
	defer f.Close()

	if _, err := f.Seek(a.regionStart, io.SeekStart); err != nil {
		return fmt.Errorf("blockcipher: seek input: %w", ecerr.ErrIO)
	}

	in := make([]byte, a.regionLen)
	if _, err := io.ReadFull(f, in); err != nil {
		return fmt.Errorf("blockcipher: read region of %d bytes: %w", a.regionLen, ecerr.ErrShortRead)
	}

	a.out = make([]byte, a.regionLen)
	var block [16]byte
	for i := int64(0); i < a.regionLen; i += 16 {
		copy(block[:], in[i:i+16])
		aesprim.DecryptBlock(&block, a.rkeys, a.invSBox)
		aesprim.ToRowOrder(&block)
		copy(a.out[i:i+16], block[:])
	}

	if a.isFinal {
		padNum := int(a.out[len(a.out)-1])
		if padNum < 1 || padNum > 16 || padNum > len(a.out) {
			return fmt.Errorf("blockcipher: padding byte %d out of range: %w", padNum, ecerr.ErrMalformedCiphertext)
		}
		a.out = a.out[:len(a.out)-padNum]
	}

	return nil
}
