// Package kex implements the classical Diffie-Hellman key exchange that
// derives the AES-128 session key shared by the two ends of a transfer.
package kex

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/JSpeedie/ec-ftp/internal/ecerr"
	"golang.org/x/crypto/pbkdf2"
)

// State names the stages of the handshake. An initiator passes through them
// in the order listed; a responder reaches ReceivedPublic before SentPublic.
type State int

const (
	Idle State = iota
	SentPublic
	ReceivedPublic
	KeyReady
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case SentPublic:
		return "SentPublic"
	case ReceivedPublic:
		return "ReceivedPublic"
	case KeyReady:
		return "KeyReady"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Generator and Modulus fix the group the exchange operates in. The
// modulus is deliberately kept below 2^32 (rather than mirroring the
// original C's full uint64_t modulus) so that sq_mp's "a*a mod c" step
// never silently overflows a uint64 multiplication; see SPEC_FULL.md §9.
// This is not a security upgrade: the exchange remains as weak as a
// sub-2^32 discrete log problem, which is to say trivially breakable, and
// is documented as such rather than hardened, since hardening it would
// require a wire-format version bump the spec does not call for.
const (
	Generator uint64 = 5
	Modulus   uint64 = 4294967291 // largest prime below 2^32
)

// modExp computes a^b mod c by square-and-multiply, reproducing the
// original sq_mp bit for bit.
func modExp(a, b, c uint64) uint64 {
	y := uint64(1)
	for b > 0 {
		if b%2 == 1 {
			y = (y * a) % c
		}
		a = (a * a) % c
		b = b / 2
	}
	return y
}

// Secret is a locally generated private exponent. Callers supply it (via a
// cryptographically random source at the call site) rather than kex
// generating its own, so the handshake's randomness policy stays visible to
// whoever wires it up.
type Secret uint64

// Perform runs one side of the handshake over rw. If initiator is true, the
// local public value is written before the peer's is read; otherwise the
// peer's is read first. Both sides must agree on which role they are, the
// same way spec.md §4.5 has "the side initiating the payload" send first.
//
// On any I/O error the state machine moves to Failed and Perform returns a
// wrapped ecerr.ErrKeyExchangeFailure.
func Perform(rw io.ReadWriter, secret Secret, initiator bool) (key [4]uint32, state State, err error) {
	state = Idle
	localPublic := modExp(Generator, uint64(secret), Modulus)

	send := func() error {
		if err := binary.Write(rw, binary.LittleEndian, localPublic); err != nil {
			return fmt.Errorf("kex: send public value: %w", ecerr.ErrKeyExchangeFailure)
		}
		return nil
	}
	recv := func() (uint64, error) {
		var peer uint64
		if err := binary.Read(rw, binary.LittleEndian, &peer); err != nil {
			return 0, fmt.Errorf("kex: receive public value: %w", ecerr.ErrKeyExchangeFailure)
		}
		return peer, nil
	}

	var peerPublic uint64

	if initiator {
		if err := send(); err != nil {
			return key, Failed, err
		}
		state = SentPublic

		peerPublic, err = recv()
		if err != nil {
			return key, Failed, err
		}
		state = ReceivedPublic
	} else {
		peerPublic, err = recv()
		if err != nil {
			return key, Failed, err
		}
		state = ReceivedPublic

		if err := send(); err != nil {
			return key, Failed, err
		}
		state = SentPublic
	}

	shared := modExp(peerPublic, uint64(secret), Modulus)
	key = DeriveKey(shared)
	state = KeyReady
	return key, state, nil
}

// appSalt is a fixed, non-secret salt. It only serves to domain-separate
// this stretch from any other PBKDF2 use of the same shared secret; it
// contributes nothing to the exchange's actual security.
var appSalt = []byte("ec-ftp/kex/aes128-session-key")

const (
	pbkdf2Iterations = 4096
	pbkdf2KeyLen     = 16
)

// DeriveKey stretches the 64-bit Diffie-Hellman shared secret into a
// 128-bit AES key via PBKDF2-HMAC-SHA256, then unpacks the 16 bytes into
// four big-endian uint32 words. aesprim.ExpandKey splits each word low byte
// first, so the AES key bytes are the PBKDF2 output with each 4-byte group
// reversed.
func DeriveKey(shared uint64) [4]uint32 {
	var password [8]byte
	binary.BigEndian.PutUint64(password[:], shared)

	derived := pbkdf2.Key(password[:], appSalt, pbkdf2Iterations, pbkdf2KeyLen, sha256.New)

	var key [4]uint32
	for i := range key {
		key[i] = binary.BigEndian.Uint32(derived[i*4 : i*4+4])
	}
	return key
}
