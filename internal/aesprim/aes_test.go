package aesprim

import (
	"bytes"
	"encoding/hex"
	"math/rand"
	"testing"
)

// FIPS-197 Appendix C.1 known-answer test: key
// 000102030405060708090a0b0c0d0e0f (reassembled here as four 32-bit words)
// against plaintext 00112233445566778899aabbccddeeff produces ciphertext
// 69c4e0d86a7b0430d8cdb78070b4c55a.
func TestEncryptBlock_FIPS197KnownAnswer(t *testing.T) {
	keyBytes, err := hex.DecodeString("000102030405060708090a0b0c0d0e0f")
	if err != nil {
		t.Fatal(err)
	}
	var key [4]uint32
	for i := 0; i < 4; i++ {
		key[i] = uint32(keyBytes[4*i]) | uint32(keyBytes[4*i+1])<<8 |
			uint32(keyBytes[4*i+2])<<16 | uint32(keyBytes[4*i+3])<<24
	}

	plainBytes, err := hex.DecodeString("00112233445566778899aabbccddeeff"[:32])
	if err != nil {
		t.Fatal(err)
	}
	wantBytes, err := hex.DecodeString("69c4e0d86a7b0430d8cdb78070b4c55a")
	if err != nil {
		t.Fatal(err)
	}

	sbox, _ := GenerateSBoxes()
	rkeys := ExpandKey(key, sbox)

	var block [16]byte
	copy(block[:], plainBytes)
	ToColumnOrder(&block)
	EncryptBlock(&block, rkeys, sbox)
	ToRowOrder(&block)

	if !bytes.Equal(block[:], wantBytes) {
		t.Fatalf("encrypt(block) = %x, want %x", block, wantBytes)
	}
}

func TestEncryptDecryptBlock_RoundTrip(t *testing.T) {
	sbox, invSBox := GenerateSBoxes()

	rnd := rand.New(rand.NewSource(1))
	for trial := 0; trial < 200; trial++ {
		var key [4]uint32
		for i := range key {
			key[i] = rnd.Uint32()
		}
		rkeys := ExpandKey(key, sbox)

		var original, block [16]byte
		rnd.Read(original[:])
		block = original

		ToColumnOrder(&block)
		EncryptBlock(&block, rkeys, sbox)
		DecryptBlock(&block, rkeys, invSBox)
		ToRowOrder(&block)

		if block != original {
			t.Fatalf("trial %d: round trip mismatch: got %x, want %x", trial, block, original)
		}
	}
}

func TestGenerateSBoxes_InverseConsistency(t *testing.T) {
	sbox, invSBox := GenerateSBoxes()
	for i := 0; i < 256; i++ {
		if invSBox[sbox[i]] != byte(i) {
			t.Fatalf("invSBox[sbox[%d]] = %d, want %d", i, invSBox[sbox[i]], i)
		}
	}
}
