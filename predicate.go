package zkip

import (
	stderrors "errors"
	"sort"

	"github.com/go-errors/errors"

	"github.com/privacyproofs/zkip/internal/common"
	"github.com/privacyproofs/zkip/rangetable"
)

// MaxExcluded is the fixed bound on excluded-set cardinality. It matches
// the number of excluded-set slots the compiled predicate carries.
const MaxExcluded = common.MaxExcluded

// Sentinels are plain errors so they survive go-errors wrapping and match
// under errors.Is.
var (
	// ErrExcludedSetTooLarge is returned when an excluded set names more
	// jurisdictions than the predicate has slots for.
	ErrExcludedSetTooLarge = stderrors.New("excluded set exceeds the predicate's slot bound")

	// ErrInvalidJurisdiction is returned for excluded-set entries that are
	// not two-letter codes.
	ErrInvalidJurisdiction = stderrors.New("invalid jurisdiction code")
)

// ExcludedSet is the public set of jurisdiction codes an evaluation tests
// against. It is normalized at construction: upper-cased, deduplicated,
// sorted, and bounded by MaxExcluded.
type ExcludedSet struct {
	codes []string
}

// NewExcludedSet builds an excluded set from jurisdiction codes. An empty
// set is valid; an evaluation against it is never excluded.
func NewExcludedSet(codes ...string) (ExcludedSet, error) {
	seen := make(map[string]bool, len(codes))
	normalized := make([]string, 0, len(codes))
	for _, c := range codes {
		n, err := common.NormalizeJurisdiction(c)
		if err != nil {
			return ExcludedSet{}, errors.WrapPrefix(ErrInvalidJurisdiction, err.Error(), 0)
		}
		if !seen[n] {
			seen[n] = true
			normalized = append(normalized, n)
		}
	}
	if len(normalized) > MaxExcluded {
		return ExcludedSet{}, errors.WrapPrefix(ErrExcludedSetTooLarge,
			errors.Errorf("%d jurisdictions, bound is %d", len(normalized), MaxExcluded).Error(), 0)
	}
	sort.Strings(normalized)
	return ExcludedSet{codes: normalized}, nil
}

// Len returns the number of jurisdictions in the set.
func (e ExcludedSet) Len() int {
	return len(e.codes)
}

// Codes returns the normalized jurisdiction codes in canonical order.
func (e ExcludedSet) Codes() []string {
	return append([]string(nil), e.codes...)
}

// padded lays the set out in the fixed-slot packed form the predicate and
// the digest consume. Packing preserves the sorted order.
func (e ExcludedSet) padded() [MaxExcluded]uint16 {
	packed := make([]uint16, len(e.codes))
	for i, c := range e.codes {
		packed[i] = common.PackCode(c)
	}
	return common.PadExcluded(packed)
}

// Digest returns the fixed-size commitment to the set contents. Two sets
// with the same members always have the same digest, whatever order or
// case they were built from, and the digest's size never varies with
// cardinality.
func (e ExcludedSet) Digest() [32]byte {
	slots := e.padded()
	return common.ExcludedDigest(&slots)
}

// PublicValues are the only values an evaluation reveals. They are safe to
// log and store indefinitely.
type PublicValues struct {
	IsExcluded        bool
	ExcludedSetDigest [32]byte
}

// Bytes renders the canonical fixed-length encoding: one flag byte followed
// by the digest. Identical evaluations produce identical bytes.
func (v *PublicValues) Bytes() []byte {
	return common.EncodePublicValues(v.IsExcluded, v.ExcludedSetDigest)
}

// ParsePublicValues parses the canonical encoding produced by Bytes and by
// backend responses.
func ParsePublicValues(b []byte) (*PublicValues, error) {
	isExcluded, digest, err := common.DecodePublicValues(b)
	if err != nil {
		return nil, err
	}
	return &PublicValues{IsExcluded: isExcluded, ExcludedSetDigest: digest}, nil
}

// Evaluate runs the exclusion predicate: whether the address falls in an
// interval whose jurisdiction is in the excluded set. An address outside
// every interval is not excluded.
//
// The function is pure: no clock, no environment, no state beyond its
// arguments. The evaluation walks every padded slot with masked arithmetic
// regardless of what matches, so its work and its output shape are the
// same on every path.
func Evaluate(addr rangetable.Address, table rangetable.RangeTable, excluded ExcludedSet) (*PublicValues, error) {
	if excluded.Len() > MaxExcluded {
		return nil, ErrExcludedSetTooLarge
	}
	starts, ends, codes := table.Padded()
	slots := excluded.padded()
	isExcluded := common.EvaluateExclusion(uint32(addr), &starts, &ends, &codes, &slots)
	return &PublicValues{
		IsExcluded:        isExcluded,
		ExcludedSetDigest: common.ExcludedDigest(&slots),
	}, nil
}
