package lt

import "github.com/dchest/siphash"

// FingerprintSize is the width in bytes of the key a Fingerprinter is
// salted with.
const FingerprintSize = 16

// Fingerprint is a salted, keyed digest of a Block, useful for diagnostics
// such as telling two EncodedBlocks apart in a log line without printing
// their full payloads. It is never part of the wire contract between an
// Encoder and a Decoder, never used to pick degrees or indices, and never
// consulted by any decoding decision: two Blocks that collide under a
// Fingerprint still decode and compare correctly, since comparison always
// falls back to the Block values themselves.
type Fingerprint uint64

// Fingerprinter computes Fingerprints under a fixed key. The zero
// Fingerprinter is the one NewFingerprinter builds from an all-zero key.
type Fingerprinter struct {
	k0, k1 uint64
}

// NewFingerprinter builds a Fingerprinter salted with key, a caller-chosen
// 16-byte value. Two Fingerprinters built from the same key produce the
// same Fingerprint for the same Block; different keys produce unrelated
// sequences, which is useful for keeping the fingerprints from two
// independent runs from being compared by accident.
func NewFingerprinter(key [FingerprintSize]byte) Fingerprinter {
	k0 := uint64(key[0]) | uint64(key[1])<<8 | uint64(key[2])<<16 | uint64(key[3])<<24 |
		uint64(key[4])<<32 | uint64(key[5])<<40 | uint64(key[6])<<48 | uint64(key[7])<<56
	k1 := uint64(key[8]) | uint64(key[9])<<8 | uint64(key[10])<<16 | uint64(key[11])<<24 |
		uint64(key[12])<<32 | uint64(key[13])<<40 | uint64(key[14])<<48 | uint64(key[15])<<56
	return Fingerprinter{k0: k0, k1: k1}
}

// Of returns b's Fingerprint.
func (f Fingerprinter) Of(b Block) Fingerprint {
	buf := make([]byte, len(b)*4)
	for i, v := range b {
		buf[i*4] = byte(v)
		buf[i*4+1] = byte(v >> 8)
		buf[i*4+2] = byte(v >> 16)
		buf[i*4+3] = byte(v >> 24)
	}
	return Fingerprint(siphash.Hash(f.k0, f.k1, buf))
}
