// Command ecftp exercises the ec-ftp payload pipeline end to end: LZMA
// chunk compression, from-scratch AES-128 block encryption, the combined
// prepare/receive pipeline, and the Diffie-Hellman handshake that derives a
// session key. It intentionally does not implement the interactive REPL,
// the PORT control dialogue, or per-client server fan-out the original
// ec-ftp client/server provide; those are out of scope here.
package main

import (
	"encoding/hex"
	"fmt"
	"log"
	"net"
	"os"

	"github.com/JSpeedie/ec-ftp/internal/blockcipher"
	"github.com/JSpeedie/ec-ftp/internal/kex"
	"github.com/JSpeedie/ec-ftp/internal/lzmachunk"
	"github.com/JSpeedie/ec-ftp/internal/pipeline"
)

var gVersion = "0"
var gLoggerStdout = log.New(os.Stdout, "", 0)
var gLoggerStderr = log.New(os.Stderr, "", log.Lshortfile)

func main() {
	if len(os.Args) < 2 {
		showUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "compress":
		err = runCompress(args)
	case "decompress":
		err = runDecompress(args)
	case "encrypt":
		err = runEncrypt(args)
	case "decrypt":
		err = runDecrypt(args)
	case "prepare":
		err = runPrepare(args)
	case "receive":
		err = runReceive(args)
	case "handshake":
		err = runHandshake(args)
	case "help", "-?", "--help":
		showUsage()
		os.Exit(0)
	default:
		gLoggerStderr.Println("unknown subcommand:", cmd)
		showUsage()
		os.Exit(1)
	}

	if err != nil {
		gLoggerStderr.Println(err)
		os.Exit(1)
	}
}

func showUsage() {
	gLoggerStdout.Println("ecftp", gVersion)
	gLoggerStdout.Println()
	gLoggerStdout.Println("usage:")
	gLoggerStdout.Println("  ecftp compress   <in> <out>")
	gLoggerStdout.Println("  ecftp decompress <in> <out>")
	gLoggerStdout.Println("  ecftp encrypt    <in> <out> --keyhex=<32 hex chars>")
	gLoggerStdout.Println("  ecftp decrypt    <in> <out> --keyhex=<32 hex chars>")
	gLoggerStdout.Println("  ecftp prepare    <in>       --keyhex=<32 hex chars>")
	gLoggerStdout.Println("  ecftp receive    <final> <received> --keyhex=<32 hex chars>")
	gLoggerStdout.Println("  ecftp handshake  --listen=<addr> | --dial=<addr>")
	gLoggerStdout.Println()
	gLoggerStdout.Println("tunables: --threads --bytes-per-thread --level --dictsize --keep-temp")
}

func requireArgs(name string, args []string, n int) error {
	if len(args) < n {
		return fmt.Errorf("%s: expected %d positional argument(s), got %d", name, n, len(args))
	}
	return nil
}

func runCompress(rawArgs []string) error {
	t, args := parseTunables(rawArgs)
	if err := requireArgs("compress", args, 2); err != nil {
		return err
	}
	return lzmachunk.CompressFile(args[0], args[1], t.compressOptions())
}

func runDecompress(rawArgs []string) error {
	t, args := parseTunables(rawArgs)
	if err := requireArgs("decompress", args, 2); err != nil {
		return err
	}
	return lzmachunk.DecompressFile(args[0], args[1], t.compressOptions())
}

func runEncrypt(rawArgs []string) error {
	t, args := parseTunables(rawArgs)
	if err := requireArgs("encrypt", args, 2); err != nil {
		return err
	}
	key, err := parseKeyHex(t.KeyHex)
	if err != nil {
		return err
	}
	return blockcipher.EncryptFile(args[0], args[1], key, t.cipherOptions())
}

func runDecrypt(rawArgs []string) error {
	t, args := parseTunables(rawArgs)
	if err := requireArgs("decrypt", args, 2); err != nil {
		return err
	}
	key, err := parseKeyHex(t.KeyHex)
	if err != nil {
		return err
	}
	return blockcipher.DecryptFile(args[0], args[1], key, t.cipherOptions())
}

func runPrepare(rawArgs []string) error {
	t, args := parseTunables(rawArgs)
	if err := requireArgs("prepare", args, 1); err != nil {
		return err
	}
	key, err := parseKeyHex(t.KeyHex)
	if err != nil {
		return err
	}
	preparedPath, err := pipeline.Prepare(args[0], key, t.pipelineOptions())
	if err != nil {
		return err
	}
	fmt.Println(preparedPath)
	return nil
}

func runReceive(rawArgs []string) error {
	t, args := parseTunables(rawArgs)
	if err := requireArgs("receive", args, 2); err != nil {
		return err
	}
	key, err := parseKeyHex(t.KeyHex)
	if err != nil {
		return err
	}
	return pipeline.ProcessReceived(args[0], args[1], key, t.pipelineOptions())
}

// runHandshake runs one side of the kex.Perform exchange over a single TCP
// connection, either by listening for one incoming connection or by
// dialing a peer, and prints the derived AES-128 key as hex.
func runHandshake(rawArgs []string) error {
	t, _ := parseTunables(rawArgs)

	if t.Listen == "" && t.Dial == "" {
		return fmt.Errorf("handshake: exactly one of --listen or --dial is required")
	}
	if t.Listen != "" && t.Dial != "" {
		return fmt.Errorf("handshake: --listen and --dial are mutually exclusive")
	}

	var conn net.Conn
	var err error
	initiator := t.Dial != ""

	if initiator {
		conn, err = net.Dial("tcp", t.Dial)
		if err != nil {
			return fmt.Errorf("handshake: dial %s: %w", t.Dial, err)
		}
	} else {
		ln, lerr := net.Listen("tcp", t.Listen)
		if lerr != nil {
			return fmt.Errorf("handshake: listen on %s: %w", t.Listen, lerr)
		}
		defer ln.Close()
		gLoggerStdout.Println("listening on", ln.Addr())
		conn, err = ln.Accept()
		if err != nil {
			return fmt.Errorf("handshake: accept: %w", err)
		}
	}
	defer conn.Close()

	secret := kex.Secret(randomSecret())
	key, state, err := kex.Perform(conn, secret, initiator)
	if err != nil {
		return fmt.Errorf("handshake failed in state %v: %w", state, err)
	}

	var raw [16]byte
	for i, word := range key {
		raw[i*4] = byte(word)
		raw[i*4+1] = byte(word >> 8)
		raw[i*4+2] = byte(word >> 16)
		raw[i*4+3] = byte(word >> 24)
	}
	gLoggerStdout.Println("derived key:", hex.EncodeToString(raw[:]))
	return nil
}
