// Package common holds the fixed predicate parameters and the low-level
// helpers shared by the native evaluator, the circuit witness builder and
// the proof encoder. Everything in here is a pure function of its inputs.
package common

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	"github.com/go-errors/errors"
	"github.com/multiformats/go-multihash"
)

// The predicate is compiled for a fixed number of interval slots and
// excluded-set slots. Changing either constant changes the circuit, and
// therefore the verification key.
const (
	// MaxIntervals is the number of interval slots in the range table.
	// Shorter tables are padded with inert slots.
	MaxIntervals = 64

	// MaxExcluded is the number of jurisdiction slots in the excluded set.
	MaxExcluded = 8
)

// PublicValuesLen is the length of the canonical public-values encoding:
// one is_excluded flag byte followed by the 32-byte excluded-set digest.
const PublicValuesLen = 1 + 32

// LeqU32 returns 1 if a <= b and 0 otherwise, without branching on the
// operands.
func LeqU32(a, b uint32) uint64 {
	return (uint64(a) - uint64(b) - 1) >> 63
}

// EqU64 returns 1 if a == b and 0 otherwise, without branching on the
// operands.
func EqU64(a, b uint64) uint64 {
	x := a ^ b
	return ((x | -x) >> 63) ^ 1
}

// NormalizeJurisdiction upper-cases a jurisdiction code and checks that it
// consists of exactly two letters A-Z.
func NormalizeJurisdiction(code string) (string, error) {
	if len(code) != 2 {
		return "", errors.Errorf("jurisdiction code %q is not two letters", code)
	}
	b := []byte{code[0], code[1]}
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
			b[i] = c
		}
		if c < 'A' || c > 'Z' {
			return "", errors.Errorf("jurisdiction code %q is not two letters", code)
		}
	}
	return string(b), nil
}

// PackCode maps a normalized two-letter jurisdiction code to its nonzero
// numeric form used inside the predicate. The mapping is injective and
// order-preserving, so a lexicographically sorted code list stays sorted
// after packing.
func PackCode(code string) uint16 {
	return uint16(code[0])<<8 | uint16(code[1])
}

// UnpackCode is the inverse of PackCode.
func UnpackCode(v uint16) string {
	return string([]byte{byte(v >> 8), byte(v)})
}

// EvaluateExclusion runs the exclusion predicate over the padded inputs.
// It touches every interval slot and every excluded slot exactly once and
// combines the per-slot results with masked arithmetic, so the work done is
// identical whichever slot matches, and whether any slot matches at all.
// Inert interval slots carry start > end and never match; inert excluded
// slots carry code 0, which PackCode never produces.
func EvaluateExclusion(ip uint32, starts, ends *[MaxIntervals]uint32, codes *[MaxIntervals]uint16, excluded *[MaxExcluded]uint16) bool {
	var matchedCode, found uint64
	for i := 0; i < MaxIntervals; i++ {
		in := LeqU32(starts[i], ip) & LeqU32(ip, ends[i])
		matchedCode |= in * uint64(codes[i])
		found |= in
	}

	var hit uint64
	for j := 0; j < MaxExcluded; j++ {
		c := uint64(excluded[j])
		hit |= EqU64(matchedCode, c) & (1 - EqU64(c, 0))
	}

	return hit&found == 1
}

// PadExcluded lays out up to MaxExcluded packed codes in a fixed-size array,
// zero-filled at the tail. Callers must pass an already deduplicated and
// sorted code list.
func PadExcluded(codes []uint16) [MaxExcluded]uint16 {
	var out [MaxExcluded]uint16
	copy(out[:], codes)
	return out
}

// ExcludedDigest commits to the padded excluded-set slots with MiMC over the
// BN254 scalar field. The same hash runs inside the circuit, so the digest
// the predicate emits is the digest the proof binds. Its size and shape do
// not depend on how many slots are occupied.
func ExcludedDigest(excluded *[MaxExcluded]uint16) [32]byte {
	h := mimc.NewMiMC()
	for _, c := range excluded {
		var e fr.Element
		e.SetUint64(uint64(c))
		b := e.Bytes()
		h.Write(b[:])
	}
	var d [32]byte
	copy(d[:], h.Sum(nil))
	return d
}

// EncodePublicValues renders the is_excluded flag and the excluded-set
// digest in the canonical fixed-length layout carried in backend responses.
func EncodePublicValues(isExcluded bool, digest [32]byte) []byte {
	out := make([]byte, PublicValuesLen)
	if isExcluded {
		out[0] = 1
	}
	copy(out[1:], digest[:])
	return out
}

// DecodePublicValues parses the canonical public-values layout.
func DecodePublicValues(b []byte) (bool, [32]byte, error) {
	var digest [32]byte
	if len(b) != PublicValuesLen {
		return false, digest, errors.Errorf("public values: want %d bytes, got %d", PublicValuesLen, len(b))
	}
	if b[0] > 1 {
		return false, digest, errors.Errorf("public values: invalid flag byte %#x", b[0])
	}
	copy(digest[:], b[1:])
	return b[0] == 1, digest, nil
}

// KeyFingerprint derives the stable identity of a serialized verification
// key as a SHA2-256 multihash. Proofs carry this fingerprint so that
// key/proof version skew is detected before any verification work.
func KeyFingerprint(vk []byte) []byte {
	mh, err := multihash.Sum(vk, multihash.SHA2_256, -1)
	if err != nil {
		panic(err) // only reachable with an unknown hash code
	}
	return mh
}
