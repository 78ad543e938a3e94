// Package charset provides character tests over Unicode code points and the
// partitioning used to make a set of overlapping tests deterministic.
package charset

import (
	"fmt"
	"sort"
	"unicode"
)

// MaxRune is the upper bound of the character domain.
const MaxRune = unicode.MaxRune

// Full is the test admitting every character in the domain.
var Full = Range{Lo: 0, Hi: MaxRune}

// A Range is a character test admitting every code point in [Lo, Hi].
type Range struct {
	Lo, Hi rune
}

// Rune returns a Range admitting exactly r.
func Rune(r rune) Range { return Range{Lo: r, Hi: r} }

// Empty returns true if the Range admits nothing.
func (r Range) Empty() bool { return r.Lo > r.Hi }

// Contains returns true if c is admitted by the Range.
func (r Range) Contains(c rune) bool { return r.Lo <= c && c <= r.Hi }

// Overlaps returns true if any character is admitted by both r and o.
func (r Range) Overlaps(o Range) bool {
	return !r.Empty() && !o.Empty() && r.Lo <= o.Hi && o.Lo <= r.Hi
}

// Covers returns true if every character admitted by o is admitted by r.
func (r Range) Covers(o Range) bool {
	return !o.Empty() && r.Lo <= o.Lo && o.Hi <= r.Hi
}

// Less orders ranges by Lo, then Hi.
func (r Range) Less(o Range) bool {
	if r.Lo != o.Lo {
		return r.Lo < o.Lo
	}
	return r.Hi < o.Hi
}

func (r Range) String() string {
	if r.Lo == r.Hi {
		return fmt.Sprintf("%q", r.Lo)
	}
	return fmt.Sprintf("%q-%q", r.Lo, r.Hi)
}

func (r Range) GoString() string {
	return fmt.Sprintf("charset.Range{%q, %q}", r.Lo, r.Hi)
}

// Partition splits a set of possibly overlapping tests into pairwise disjoint
// tests, sorted by Lo, whose union is the union of the inputs.
//
// Every output lies either wholly inside or wholly outside each input, so any
// input is exactly the union of the outputs it overlaps. Duplicate and empty
// inputs are ignored.
func Partition(tests []Range) []Range {
	deltas := map[rune]int{}
	for _, t := range tests {
		if t.Empty() {
			continue
		}
		deltas[t.Lo]++
		deltas[t.Hi+1]--
	}
	if len(deltas) == 0 {
		return nil
	}
	cuts := make([]rune, 0, len(deltas))
	for at := range deltas {
		cuts = append(cuts, at)
	}
	sort.Slice(cuts, func(i, j int) bool { return cuts[i] < cuts[j] })
	out := []Range{}
	depth := 0
	for i, at := range cuts[:len(cuts)-1] {
		depth += deltas[at]
		if depth > 0 {
			out = append(out, Range{Lo: at, Hi: cuts[i+1] - 1})
		}
	}
	return out
}

// Union normalises ranges into a sorted list of disjoint, non-adjacent ranges.
func Union(ranges []Range) []Range {
	sorted := make([]Range, 0, len(ranges))
	for _, r := range ranges {
		if !r.Empty() {
			sorted = append(sorted, r)
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Less(sorted[j]) })
	out := []Range{}
	for _, r := range sorted {
		if n := len(out); n > 0 && r.Lo <= out[n-1].Hi+1 {
			if r.Hi > out[n-1].Hi {
				out[n-1].Hi = r.Hi
			}
			continue
		}
		out = append(out, r)
	}
	return out
}

// Complement returns the characters of the domain not admitted by any of ranges.
func Complement(ranges []Range) []Range {
	out := []Range{}
	next := rune(0)
	for _, r := range Union(ranges) {
		if r.Lo > next {
			out = append(out, Range{Lo: next, Hi: r.Lo - 1})
		}
		next = r.Hi + 1
	}
	if next <= MaxRune {
		out = append(out, Range{Lo: next, Hi: MaxRune})
	}
	return out
}
