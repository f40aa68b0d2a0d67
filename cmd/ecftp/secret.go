package main

import (
	"crypto/rand"
	"encoding/binary"

	"github.com/JSpeedie/ec-ftp/internal/kex"
)

// randomSecret draws a private exponent uniformly from [1, kex.Modulus).
// kex.Perform is given the raw value rather than generating its own, so the
// handshake's randomness source stays visible at the call site (see
// internal/kex.Secret's doc comment).
func randomSecret() uint64 {
	for {
		var buf [8]byte
		if _, err := rand.Read(buf[:]); err != nil {
			// crypto/rand failing means the OS entropy source is
			// unavailable; there is nothing sensible left to do.
			panic(err)
		}
		v := binary.LittleEndian.Uint64(buf[:]) % kex.Modulus
		if v != 0 {
			return v
		}
	}
}
