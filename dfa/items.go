package dfa

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// An Item is a position in one pattern's automaton.
type Item struct {
	Pattern int
	State   int
}

func (i Item) String() string {
	return fmt.Sprintf("%d:%d", i.Pattern, i.State)
}

// ItemSet is a canonical set of items: sorted by (Pattern, State) with no
// duplicates.
//
// Item sets are shared between states and must never be mutated.
type ItemSet []Item

// NewItemSet returns the canonical form of items. The input is not modified.
func NewItemSet(items []Item) ItemSet {
	out := make(ItemSet, len(items))
	copy(out, items)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Pattern != out[j].Pattern {
			return out[i].Pattern < out[j].Pattern
		}
		return out[i].State < out[j].State
	})
	n := 0
	for i, item := range out {
		if i > 0 && item == out[n-1] {
			continue
		}
		out[n] = item
		n++
	}
	return out[:n]
}

// Key encodes the set for hash-consing.
func (s ItemSet) Key() string {
	buf := make([]byte, 0, len(s)*8)
	for _, item := range s {
		buf = strconv.AppendInt(buf, int64(item.Pattern), 36)
		buf = append(buf, ':')
		buf = strconv.AppendInt(buf, int64(item.State), 36)
		buf = append(buf, ',')
	}
	return string(buf)
}

func (s ItemSet) String() string {
	parts := make([]string, len(s))
	for i, item := range s {
		parts[i] = item.String()
	}
	return "{" + strings.Join(parts, " ") + "}"
}
