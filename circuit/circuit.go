// Package circuit contains the compiled form of the exclusion predicate:
// a fixed-shape arithmetic circuit over BN254 whose only public outputs are
// the is_excluded bit and the excluded-set digest. The circuit mirrors,
// constraint for constraint, the masked-arithmetic evaluation the native
// predicate performs, so both always agree and neither leaks the matched
// slot through its shape.
package circuit

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/mimc"
	"github.com/consensys/gnark/std/math/cmp"

	"github.com/privacyproofs/zkip/internal/common"
)

// Slot counts are baked into the circuit; see internal/common.
const (
	MaxIntervals = common.MaxIntervals
	MaxExcluded  = common.MaxExcluded
)

// ExclusionCircuit proves that the committed is_excluded bit is the correct
// result of evaluating the exclusion predicate on a private address against
// a private interval table and the excluded set bound by the public digest.
//
// Every slot is always present: unused interval slots are inert
// (start > end) and unused excluded slots are zero. The constraint count is
// therefore a constant of the compiled circuit, independent of the actual
// table, address or excluded set.
type ExclusionCircuit struct {
	// Private inputs.
	IP     frontend.Variable               `gnark:",secret"`
	Starts [MaxIntervals]frontend.Variable `gnark:",secret"`
	Ends   [MaxIntervals]frontend.Variable `gnark:",secret"`
	Codes  [MaxIntervals]frontend.Variable `gnark:",secret"`

	// Excluded jurisdiction codes. Kept out of the public witness so the
	// statement shape never varies with the set; the digest below commits
	// to them.
	Excluded [MaxExcluded]frontend.Variable `gnark:",secret"`

	// Public outputs.
	IsExcluded        frontend.Variable `gnark:",public"`
	ExcludedSetDigest frontend.Variable `gnark:",public"`
}

// Define encodes the predicate constraints.
func (c *ExclusionCircuit) Define(api frontend.API) error {
	// Operands feeding the comparators must fit their wire width.
	api.ToBinary(c.IP, 32)
	for i := 0; i < MaxIntervals; i++ {
		api.ToBinary(c.Starts[i], 32)
		api.ToBinary(c.Ends[i], 32)
		api.ToBinary(c.Codes[i], 16)
	}
	for j := 0; j < MaxExcluded; j++ {
		api.ToBinary(c.Excluded[j], 16)
	}

	// Fold interval slots: at most one can match a sealed table, so the
	// masked sum of codes recovers the matched jurisdiction, or 0.
	matched := frontend.Variable(0)
	matchedCode := frontend.Variable(0)
	for i := 0; i < MaxIntervals; i++ {
		lo := cmp.IsLessOrEqual(api, c.Starts[i], c.IP)
		hi := cmp.IsLessOrEqual(api, c.IP, c.Ends[i])
		in := api.Mul(lo, hi)
		matched = api.Or(matched, in)
		matchedCode = api.Add(matchedCode, api.Mul(in, c.Codes[i]))
	}

	// Membership of the matched code in the excluded slots. Zero slots are
	// padding and never hit, which also pins down the unmatched case:
	// matchedCode 0 cannot alias a real jurisdiction.
	hit := frontend.Variable(0)
	for j := 0; j < MaxExcluded; j++ {
		eq := api.IsZero(api.Sub(matchedCode, c.Excluded[j]))
		occupied := api.Sub(1, api.IsZero(c.Excluded[j]))
		hit = api.Or(hit, api.Mul(eq, occupied))
	}

	api.AssertIsBoolean(c.IsExcluded)
	api.AssertIsEqual(c.IsExcluded, api.Mul(hit, matched))

	// Bind the excluded slots to the public digest.
	h, err := mimc.NewMiMC(api)
	if err != nil {
		return err
	}
	h.Write(c.Excluded[:]...)
	api.AssertIsEqual(c.ExcludedSetDigest, h.Sum())

	return nil
}
