// Windowsync - Windowed Data Synchronization for Lazy Client Viewports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/windowsync

package rangetracker

import "fmt"

// Range is the half-open interval [Start, End) over the logical sequence.
type Range struct {
	Start int `json:"start" cbor:"start"`
	End   int `json:"end" cbor:"end"`
}

// NewRange builds the range [offset, offset+length). Negative lengths yield an empty range.
func NewRange(offset, length int) Range {
	if length < 0 {
		length = 0
	}
	return Range{Start: offset, End: offset + length}
}

// Len returns the number of indices in r.
func (r Range) Len() int {
	if r.End <= r.Start {
		return 0
	}
	return r.End - r.Start
}

// Empty reports whether r contains no indices.
func (r Range) Empty() bool {
	return r.Len() == 0
}

// Contains reports whether i lies inside r.
func (r Range) Contains(i int) bool {
	return i >= r.Start && i < r.End
}

// Intersect returns the overlap of r and o, or the empty range.
func (r Range) Intersect(o Range) Range {
	start := max(r.Start, o.Start)
	end := min(r.End, o.End)
	if end <= start {
		return Range{}
	}
	return Range{Start: start, End: end}
}

// Overlaps reports whether r and o share at least one index.
func (r Range) Overlaps(o Range) bool {
	return !r.Intersect(o).Empty()
}

// Clip restricts r to [0, n).
func (r Range) Clip(n int) Range {
	return r.Intersect(Range{Start: 0, End: n})
}

// Subtract returns the parts of r not covered by o, in ascending order.
func (r Range) Subtract(o Range) []Range {
	if r.Empty() {
		return nil
	}
	overlap := r.Intersect(o)
	if overlap.Empty() {
		return []Range{r}
	}

	var out []Range
	if r.Start < overlap.Start {
		out = append(out, Range{Start: r.Start, End: overlap.Start})
	}
	if overlap.End < r.End {
		out = append(out, Range{Start: overlap.End, End: r.End})
	}
	return out
}

func (r Range) String() string {
	return fmt.Sprintf("[%d,%d)", r.Start, r.End)
}
