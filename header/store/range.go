package store

import (
	"errors"
	"fmt"
)

// ErrInvalidRange is returned when a range's start exceeds its end.
var ErrInvalidRange = errors.New("store: invalid range")

// Range is an inclusive, contiguous span of verified header heights.
type Range struct {
	From uint64 `json:"from"`
	To   uint64 `json:"to"`
}

// NewRange constructs a Range, rejecting spans whose start exceeds their end.
func NewRange(from, to uint64) (Range, error) {
	if from > to {
		return Range{}, fmt.Errorf("%w: [%d:%d]", ErrInvalidRange, from, to)
	}
	return Range{From: from, To: to}, nil
}

// Len reports the amount of heights the Range spans.
func (r Range) Len() uint64 {
	return r.To - r.From + 1
}

// Contains reports whether the given height falls within the Range.
func (r Range) Contains(height uint64) bool {
	return height >= r.From && height <= r.To
}

func (r Range) String() string {
	return fmt.Sprintf("[%d:%d]", r.From, r.To)
}

// merge coalesces the given range into the sorted, disjoint set of ranges,
// absorbing every existing range it overlaps or is directly adjacent to.
// The returned set keeps the invariant: sorted ascending, pairwise disjoint,
// gap of at least one height between neighboring ranges.
func merge(ranges []Range, r Range) []Range {
	out := make([]Range, 0, len(ranges)+1)

	i := 0
	// ranges entirely below r, with a gap in between, stay untouched
	for ; i < len(ranges) && ranges[i].To+1 < r.From; i++ {
		out = append(out, ranges[i])
	}
	// absorb every range overlapping or adjacent to r
	for ; i < len(ranges) && ranges[i].From <= r.To+1; i++ {
		if ranges[i].From < r.From {
			r.From = ranges[i].From
		}
		if ranges[i].To > r.To {
			r.To = ranges[i].To
		}
	}
	out = append(out, r)
	// the rest is entirely above r
	out = append(out, ranges[i:]...)
	return out
}
