// Package blockcipher is the chunked, multi-threaded AES-128 file
// encrypt/decrypt driver. It stats the input, plans batches and threads,
// expands the key schedule once per file-level call, and launches workers
// that each own an independent read handle into the input file. Output is
// always written by the orchestrating goroutine, strictly in ascending
// worker index, after every worker in a batch has completed — this
// preserves byte-exact output ordering independent of goroutine scheduling.
package blockcipher

import (
	"fmt"
	"os"
	"sync"

	"github.com/JSpeedie/ec-ftp/internal/aesprim"
	"github.com/JSpeedie/ec-ftp/internal/ecerr"
)

type region struct {
	start, len int64
}

// planRegions partitions totalSize into batches of up to
// opt.MaxBytesPerThread*opt.MaxThreads bytes, and each batch into worker
// regions of up to opt.MaxBytesPerThread bytes. Every batch has at least
// one region, even for a zero-length input, so that the final-worker
// bookkeeping (padding absorption on encrypt, padding removal on decrypt)
// always runs exactly once.
func planRegions(totalSize int64, opt Options) [][]region {
	maxBatchBytes := opt.MaxBytesPerThread * int64(opt.MaxThreads)

	numBatches := totalSize / maxBatchBytes
	if totalSize%maxBatchBytes != 0 {
		numBatches++
	}
	if numBatches < 1 {
		numBatches = 1
	}

	batches := make([][]region, 0, numBatches)
	for b := int64(0); b < numBatches; b++ {
		batchStart := b * maxBatchBytes
		batchLen := totalSize - batchStart
		if batchLen > maxBatchBytes {
			batchLen = maxBatchBytes
		}

		numThreads := batchLen / opt.MaxBytesPerThread
		if batchLen%opt.MaxBytesPerThread != 0 {
			numThreads++
		}
		if numThreads < 1 {
			numThreads = 1
		}

		regions := make([]region, numThreads)
		for t := int64(0); t < numThreads; t++ {
			start := batchStart + t*opt.MaxBytesPerThread
			length := opt.MaxBytesPerThread
			if t == numThreads-1 {
				length = batchLen - t*opt.MaxBytesPerThread
			}
			regions[t] = region{start: start, len: length}
		}
		batches = append(batches, regions)
	}
	return batches
}

// EncryptFile encrypts the file at inPath with key, writing the padded
// ciphertext to outPath. The output is always a positive multiple of 16
// bytes strictly greater than the plaintext length: exactly one padding
// event occurs, always at the end.
func EncryptFile(inPath, outPath string, key [4]uint32, opts ...Options) error {
	opt := resolveOptions(opts).withDefaults()

	info, err := os.Stat(inPath)
	if err != nil {
		return fmt.Errorf("blockcipher: stat input: %w", ecerr.ErrIO)
	}

	sbox, _ := aesprim.GenerateSBoxes()
	rkeys := aesprim.ExpandKey(key, sbox)

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("blockcipher: create output: %w", ecerr.ErrIO)
	}
	defer out.Close()

	batches := planRegions(info.Size(), opt)
	lastAbsorbedPadding := false

	for bi, regions := range batches {
		isLastBatch := bi == len(batches)-1

		args := make([]encryptWorkerArgs, len(regions))
		for i, r := range regions {
			args[i] = encryptWorkerArgs{
				inPath:      inPath,
				regionStart: r.start,
				regionLen:   r.len,
				sbox:        sbox,
				rkeys:       rkeys,
			}
		}

		if err := runEncryptBatch(args); err != nil {
			return err
		}

		for i := range args {
			if _, err := out.Write(args[i].out); err != nil {
				return fmt.Errorf("blockcipher: write ciphertext: %w", ecerr.ErrIO)
			}
		}

		if isLastBatch {
			lastAbsorbedPadding = args[len(args)-1].padded
		}
	}

	if !lastAbsorbedPadding {
		var padBlock [16]byte
		for i := range padBlock {
			padBlock[i] = 16
		}
		aesprim.EncryptBlock(&padBlock, rkeys, sbox)
		if _, err := out.Write(padBlock[:]); err != nil {
			return fmt.Errorf("blockcipher: write padding block: %w", ecerr.ErrIO)
		}
	}

	return nil
}

// runEncryptBatch spawns one goroutine per worker but for the last, which
// runs synchronously on the calling goroutine so it is never left idle
// while the others work.
func runEncryptBatch(args []encryptWorkerArgs) error {
	n := len(args)
	errCh := make(chan error, n)
	var wg sync.WaitGroup

	for i := 0; i < n-1; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errCh <- runEncryptWorker(&args[i])
		}(i)
	}

	if err := runEncryptWorker(&args[n-1]); err != nil {
		errCh <- err
	} else {
		errCh <- nil
	}

	wg.Wait()
	close(errCh)

	var firstErr error
	for err := range errCh {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// DecryptFile decrypts the ciphertext at inPath with key, writing the
// recovered plaintext to outPath. The ciphertext length must be a positive
// multiple of 16; otherwise ErrMalformedCiphertext is returned and outPath
// is not created.
func DecryptFile(inPath, outPath string, key [4]uint32, opts ...Options) error {
	opt := resolveOptions(opts).withDefaults()

	info, err := os.Stat(inPath)
	if err != nil {
		return fmt.Errorf("blockcipher: stat input: %w", ecerr.ErrIO)
	}
	size := info.Size()
	if size == 0 || size%16 != 0 {
		return fmt.Errorf("blockcipher: ciphertext length %d is not a positive multiple of 16: %w", size, ecerr.ErrMalformedCiphertext)
	}

	sbox, invSBox := aesprim.GenerateSBoxes()
	rkeys := aesprim.ExpandKey(key, sbox)

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("blockcipher: create output: %w", ecerr.ErrIO)
	}
	defer out.Close()

	batches := planRegions(size, opt)

	for bi, regions := range batches {
		isLastBatch := bi == len(batches)-1

		args := make([]decryptWorkerArgs, len(regions))
		for i, r := range regions {
			args[i] = decryptWorkerArgs{
				inPath:      inPath,
				regionStart: r.start,
				regionLen:   r.len,
				isFinal:     isLastBatch && i == len(regions)-1,
				sbox:        sbox,
				invSBox:     invSBox,
				rkeys:       rkeys,
			}
		}

		if err := runDecryptBatch(args); err != nil {
			return err
		}

		for i := range args {
			if _, err := out.Write(args[i].out); err != nil {
				return fmt.Errorf("blockcipher: write plaintext: %w", ecerr.ErrIO)
			}
		}
	}

	return nil
}

func runDecryptBatch(args []decryptWorkerArgs) error {
	n := len(args)
	errCh := make(chan error, n)
	var wg sync.WaitGroup

	for i := 0; i < n-1; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errCh <- runDecryptWorker(&args[i])
		}(i)
	}

	if err := runDecryptWorker(&args[n-1]); err != nil {
		errCh <- err
	} else {
		errCh <- nil
	}

	wg.Wait()
	close(errCh)

	var firstErr error
	for err := range errCh {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func resolveOptions(opts []Options) Options {
	if len(opts) == 0 {
		return DefaultOptions()
	}
	return opts[0]
}
