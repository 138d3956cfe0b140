package circuit

import (
	"math/big"

	"github.com/privacyproofs/zkip/internal/common"
)

// NewAssignment builds the full witness for one evaluation from the padded
// predicate inputs. The public outputs are computed here with the native
// evaluator, which the circuit constraints then re-derive; the returned
// values are what the proof will commit to.
func NewAssignment(ip uint32, starts, ends *[MaxIntervals]uint32, codes *[MaxIntervals]uint16, excluded *[MaxExcluded]uint16) (assignment *ExclusionCircuit, isExcluded bool, digest [32]byte) {
	isExcluded = common.EvaluateExclusion(ip, starts, ends, codes, excluded)
	digest = common.ExcludedDigest(excluded)

	assignment = &ExclusionCircuit{IP: ip}
	for i := 0; i < MaxIntervals; i++ {
		assignment.Starts[i] = starts[i]
		assignment.Ends[i] = ends[i]
		assignment.Codes[i] = codes[i]
	}
	for j := 0; j < MaxExcluded; j++ {
		assignment.Excluded[j] = excluded[j]
	}
	assignment.IsExcluded = boolWire(isExcluded)
	assignment.ExcludedSetDigest = new(big.Int).SetBytes(digest[:])
	return assignment, isExcluded, digest
}

// PublicAssignment builds the verifier-side witness carrying only the
// public outputs.
func PublicAssignment(isExcluded bool, digest [32]byte) *ExclusionCircuit {
	return &ExclusionCircuit{
		IsExcluded:        boolWire(isExcluded),
		ExcludedSetDigest: new(big.Int).SetBytes(digest[:]),
	}
}

func boolWire(b bool) int {
	if b {
		return 1
	}
	return 0
}
