package lzmachunk

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/JSpeedie/ec-ftp/internal/container"
	"github.com/JSpeedie/ec-ftp/internal/ecerr"
)

type region struct {
	start, len int64
}

// planRegions mirrors internal/blockcipher's batch/worker planner: it
// partitions totalSize into batches of up to
// opt.MaxBytesPerThread*opt.MaxThreads raw bytes, each split into up to
// opt.MaxThreads worker regions. A zero-length input still yields one
// (zero-length) region, so an empty file round-trips as a single empty
// chunk rather than zero chunks.
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

// CompressFile reads inPath in batches, compressing each chunk (or storing
// it verbatim when compression does not help) and framing it with a
// container.ChunkHeader, writing the result to outPath.
func CompressFile(inPath, outPath string, opts ...Options) error {
	opt := resolveOptions(opts).withDefaults()

	info, err := os.Stat(inPath)
	if err != nil {
		return fmt.Errorf("lzmachunk: stat input: %w", ecerr.ErrIO)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("lzmachunk: create output: %w", ecerr.ErrIO)
	}
	defer out.Close()

	batches := planRegions(info.Size(), opt)

	for _, regions := range batches {
		args := make([]compressWorkerArgs, len(regions))
		for i, r := range regions {
			args[i] = compressWorkerArgs{
				inPath:      inPath,
				regionStart: r.start,
				regionLen:   r.len,
				dictSize:    opt.DictSize,
			}
		}

		if err := runCompressBatch(args); err != nil {
			return err
		}

		for i := range args {
			if err := args[i].header.Encode(out); err != nil {
				return err
			}
			if _, err := out.Write(args[i].payload); err != nil {
				return fmt.Errorf("lzmachunk: write chunk payload: %w", ecerr.ErrIO)
			}
		}
	}

	return nil
}

func runCompressBatch(args []compressWorkerArgs) error {
	n := len(args)
	errCh := make(chan error, n)
	var wg sync.WaitGroup

	for i := 0; i < n-1; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errCh <- runCompressWorker(&args[i])
		}(i)
	}

	if err := runCompressWorker(&args[n-1]); err != nil {
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

// DecompressFile reverses CompressFile. Because compressed chunk lengths
// are not known ahead of time, the header/payload pairs for each batch are
// read sequentially on the calling goroutine; only the (CPU-bound) decode
// step is parallelized across workers.
func DecompressFile(inPath, outPath string, opts ...Options) error {
	opt := resolveOptions(opts).withDefaults()

	in, err := os.Open(inPath)
	if err != nil {
		return fmt.Errorf("lzmachunk: open input: %w", ecerr.ErrIO)
	}
	defer in.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("lzmachunk: create output: %w", ecerr.ErrIO)
	}
	defer out.Close()

	for {
		args, err := readDecompressBatch(in, opt)
		if err != nil {
			return err
		}
		if len(args) == 0 {
			return nil
		}

		if err := runDecompressBatch(args); err != nil {
			return err
		}

		for i := range args {
			if _, err := out.Write(args[i].out); err != nil {
				return fmt.Errorf("lzmachunk: write decompressed chunk: %w", ecerr.ErrIO)
			}
		}
	}
}

// readDecompressBatch reads up to opt.MaxThreads header/payload pairs from
// in. It returns a short (or empty) batch at end of file: an empty batch
// means the previous batch was the last one.
func readDecompressBatch(in io.Reader, opt Options) ([]decompressWorkerArgs, error) {
	args := make([]decompressWorkerArgs, 0, opt.MaxThreads)

	for i := 0; i < opt.MaxThreads; i++ {
		h, err := container.Decode(in)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}

		// ProcessedSize is the compressed-data length alone for a
		// compressed chunk (the properties header is a fixed 5 bytes on
		// top of it); for a stored chunk it's the whole payload.
		payloadLen := h.ProcessedSize
		if h.Compressed {
			payloadLen += container.LZMAPropsSize
		}

		payload := make([]byte, payloadLen)
		if _, err := io.ReadFull(in, payload); err != nil {
			return nil, fmt.Errorf("lzmachunk: read chunk payload of %d bytes: %w", payloadLen, ecerr.ErrShortRead)
		}

		args = append(args, decompressWorkerArgs{
			header:   h,
			payload:  payload,
			dictSize: opt.DictSize,
		})
	}

	return args, nil
}

func runDecompressBatch(args []decompressWorkerArgs) error {
	n := len(args)
	errCh := make(chan error, n)
	var wg sync.WaitGroup

	for i := 0; i < n-1; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errCh <- runDecompressWorker(&args[i])
		}(i)
	}

	if err := runDecompressWorker(&args[n-1]); err != nil {
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
