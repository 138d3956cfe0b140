// Package rangetable builds and queries the private table of address
// intervals the exclusion predicate runs over. A table is only obtainable
// through New, which validates, sorts and seals the intervals; everything
// downstream may assume the table invariants hold.
package rangetable

import (
	stderrors "errors"
	"sort"

	"github.com/go-errors/errors"

	"github.com/privacyproofs/zkip/internal/common"
)

// MaxIntervals is the fixed capacity of a range table. It matches the
// number of interval slots the compiled predicate carries.
const MaxIntervals = common.MaxIntervals

// ErrMalformedRangeTable is returned by New for input rows that cannot form
// a valid table: inverted endpoints, overlapping intervals, bad jurisdiction
// codes or too many rows. No partial table is ever returned alongside it.
// A plain error so it survives go-errors wrapping and matches under
// errors.Is.
var ErrMalformedRangeTable = stderrors.New("malformed range table")

// Interval is a closed address range tagged with the jurisdiction it
// belongs to.
type Interval struct {
	Start        Address
	End          Address
	Jurisdiction string
}

// RangeTable is a sealed sequence of intervals, sorted strictly ascending by
// start and pairwise disjoint. The zero value is an empty table.
type RangeTable struct {
	intervals []Interval
}

// New validates rows and assembles them into a table. It fails on the first
// invalid row or overlapping pair and never hands back a partially built
// table. The input slice is not retained.
func New(rows []Row) (RangeTable, error) {
	if len(rows) > MaxIntervals {
		return RangeTable{}, errors.WrapPrefix(ErrMalformedRangeTable,
			errors.Errorf("%d rows exceed the %d interval slots", len(rows), MaxIntervals).Error(), 0)
	}

	intervals := make([]Interval, 0, len(rows))
	for _, r := range rows {
		if r.Start > r.End {
			return RangeTable{}, errors.WrapPrefix(ErrMalformedRangeTable,
				errors.Errorf("interval %s-%s has start after end", r.Start, r.End).Error(), 0)
		}
		code, err := common.NormalizeJurisdiction(r.Jurisdiction)
		if err != nil {
			return RangeTable{}, errors.WrapPrefix(ErrMalformedRangeTable, err.Error(), 0)
		}
		intervals = append(intervals, Interval{Start: r.Start, End: r.End, Jurisdiction: code})
	}

	sort.Slice(intervals, func(i, j int) bool { return intervals[i].Start < intervals[j].Start })

	for i := 1; i < len(intervals); i++ {
		if intervals[i].Start <= intervals[i-1].End {
			return RangeTable{}, errors.WrapPrefix(ErrMalformedRangeTable,
				errors.Errorf("interval starting at %s overlaps its predecessor", intervals[i].Start).Error(), 0)
		}
	}

	return RangeTable{intervals: intervals}, nil
}

// Len returns the number of intervals in the table.
func (t RangeTable) Len() int {
	return len(t.intervals)
}

// Padded lays the table out in the fixed-slot shape the predicate consumes:
// every slot is populated, unused slots are inert (start > end, code 0).
// The layout is the same for every table up to MaxIntervals, so nothing
// about the table size or the matching slot shows in the shape of what is
// handed to the prover.
func (t RangeTable) Padded() (starts, ends [MaxIntervals]uint32, codes [MaxIntervals]uint16) {
	for i := range starts {
		starts[i] = ^uint32(0)
	}
	for i, iv := range t.intervals {
		starts[i] = uint32(iv.Start)
		ends[i] = uint32(iv.End)
		codes[i] = common.PackCode(iv.Jurisdiction)
	}
	return starts, ends, codes
}

// Lookup resolves the jurisdiction an address falls in, or ok=false if no
// interval contains it. It scans every slot of the padded layout and folds
// the per-slot results with masked arithmetic: the sealed table invariants
// guarantee at most one slot matches, and the scan does the same work
// whichever slot that is. Sorted-order shortcuts are deliberately not taken
// here; they would tie timing to the matched position.
func (t RangeTable) Lookup(addr Address) (jurisdiction string, ok bool) {
	starts, ends, codes := t.Padded()

	ip := uint32(addr)
	var matchedCode, found uint64
	for i := 0; i < MaxIntervals; i++ {
		in := common.LeqU32(starts[i], ip) & common.LeqU32(ip, ends[i])
		matchedCode |= in * uint64(codes[i])
		found |= in
	}
	if found == 0 {
		// found is part of the revealed result; branching on it here leaks
		// nothing beyond what the caller sees anyway.
		return "", false
	}
	return common.UnpackCode(uint16(matchedCode)), true
}

// Scrub overwrites the table contents in place. The owner of a request
// calls this once the table has served its single evaluation.
func (t *RangeTable) Scrub() {
	for i := range t.intervals {
		t.intervals[i] = Interval{}
	}
	t.intervals = nil
}
