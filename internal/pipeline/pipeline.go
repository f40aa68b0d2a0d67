// Package pipeline orchestrates the two payload transforms the rest of the
// module implements: compress-then-encrypt on the sending side (Prepare),
// and decrypt-then-decompress on the receiving side (ProcessReceived).
package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/JSpeedie/ec-ftp/internal/blockcipher"
	"github.com/JSpeedie/ec-ftp/internal/ecerr"
	"github.com/JSpeedie/ec-ftp/internal/lzmachunk"
)

// Options bundles the tunables of the two transform layers, so callers
// configure one struct instead of threading both layers' Options types
// through every call.
type Options struct {
	Compress lzmachunk.Options
	Cipher   blockcipher.Options
	// KeepTemp skips removal of the intermediate compressed-only file,
	// useful for debugging a failed transfer.
	KeepTemp bool
}

// DefaultOptions returns the default tunables for both layers.
func DefaultOptions() Options {
	return Options{
		Compress: lzmachunk.DefaultOptions(),
		Cipher:   blockcipher.DefaultOptions(),
	}
}

// claimTempName atomically reserves a file name of the form
// "<path><ext>-XXXXXX" by opening it with O_CREATE|O_EXCL, so the name is
// guaranteed to still exist (and be ours) when the next stage opens it for
// writing. This is deliberately unlike the original C's
// temp_compression_name/temp_encryption_name, which mkstemp the name and
// then immediately unlink it, reserving the name only for the instant
// between the two calls.
func claimTempName(path, ext string) (string, error) {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	pattern := base + ext + "-*"

	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", fmt.Errorf("pipeline: claim temp name: %w", ecerr.ErrIO)
	}
	name := f.Name()
	f.Close()
	return name, nil
}

// Prepare compresses path, then encrypts the compressed result with key,
// returning the path of the final prepared (".comp-XXXXXX" then
// ".comp-XXXXXX.enc-XXXXXX") file. The intermediate compressed-only file is
// removed unless opt.KeepTemp is set.
func Prepare(path string, key [4]uint32, opts ...Options) (string, error) {
	opt := resolveOptions(opts)

	compPath, err := claimTempName(path, ".comp")
	if err != nil {
		return "", err
	}
	if err := lzmachunk.CompressFile(path, compPath, opt.Compress); err != nil {
		return "", err
	}
	if !opt.KeepTemp {
		defer os.Remove(compPath)
	}

	encPath, err := claimTempName(compPath, ".enc")
	if err != nil {
		return "", err
	}
	if err := blockcipher.EncryptFile(compPath, encPath, key, opt.Cipher); err != nil {
		os.Remove(encPath)
		return "", err
	}

	return encPath, nil
}

// ProcessReceived decrypts receivedPath with key, decompresses the result,
// and writes the recovered plaintext to finalPath. The intermediate
// decrypted-but-still-compressed file is removed unless opt.KeepTemp is
// set.
func ProcessReceived(finalPath, receivedPath string, key [4]uint32, opts ...Options) error {
	opt := resolveOptions(opts)

	decPath, err := claimTempName(receivedPath, ".dec")
	if err != nil {
		return err
	}
	if err := blockcipher.DecryptFile(receivedPath, decPath, key, opt.Cipher); err != nil {
		os.Remove(decPath)
		return err
	}
	if !opt.KeepTemp {
		defer os.Remove(decPath)
	}

	if err := lzmachunk.DecompressFile(decPath, finalPath, opt.Compress); err != nil {
		return err
	}

	return nil
}

func resolveOptions(opts []Options) Options {
	if len(opts) == 0 {
		return DefaultOptions()
	}
	return opts[0]
}
