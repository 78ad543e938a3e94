// Package dfa contains the deterministic automaton produced by the builder.
//
// State 0 is always the start state. For every state and every character,
// either exactly one of the state's Edges admits the character or none does
// and the Other edge applies.
package dfa

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/alecthomas/lexdfa/charset"
)

// Kind classifies a DFA state.
type Kind int

const (
	// Neither is a live state that is not accepting.
	Neither Kind = iota
	// Accept is a state where exactly one pattern has matched.
	Accept
	// Reject is a state from which no pattern can match.
	Reject
)

func (k Kind) String() string {
	switch k {
	case Neither:
		return "neither"
	case Accept:
		return "accept"
	case Reject:
		return "reject"
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// An Edge moves to Target on any character admitted by Test.
type Edge struct {
	Test   charset.Range
	Target int
}

// State of a DFA.
type State struct {
	// Items the state was built from, kept for diagnostics.
	Items ItemSet
	Kind  Kind
	// Pattern accepted in this state, or -1 if Kind is not Accept.
	Pattern int
	// Edges sorted by Test, pairwise disjoint.
	Edges []Edge
	// Other is the target for characters admitted by no edge.
	Other int
}

// Accepts returns the pattern accepted in this state, if any.
func (s *State) Accepts() (pattern int, ok bool) {
	return s.Pattern, s.Kind == Accept
}

// DFA is an immutable deterministic automaton over all patterns.
type DFA struct {
	// Patterns holds an optional name per pattern index.
	Patterns []string
	States   []State
}

// Step returns the state reached from state on rn.
func (d *DFA) Step(state int, rn rune) int {
	s := &d.States[state]
	i := sort.Search(len(s.Edges), func(i int) bool { return s.Edges[i].Test.Hi >= rn })
	if i < len(s.Edges) && s.Edges[i].Test.Contains(rn) {
		return s.Edges[i].Target
	}
	return s.Other
}

// Run steps through every rune of input starting at state and returns the
// state reached.
func (d *DFA) Run(state int, input string) int {
	for _, rn := range input {
		state = d.Step(state, rn)
	}
	return state
}

// Match runs input from the start state and returns the pattern accepted in
// the final state.
func (d *DFA) Match(input string) (pattern int, ok bool) {
	return d.States[d.Run(0, input)].Accepts()
}

// PatternName returns the name of pattern, or its index if it is unnamed.
func (d *DFA) PatternName(pattern int) string {
	if pattern >= 0 && pattern < len(d.Patterns) && d.Patterns[pattern] != "" {
		return d.Patterns[pattern]
	}
	return strconv.Itoa(pattern)
}

func (d *DFA) String() string {
	w := &strings.Builder{}
	for i, s := range d.States {
		fmt.Fprintf(w, "%d %s", i, s.Kind)
		if s.Kind == Accept {
			fmt.Fprintf(w, " %s", d.PatternName(s.Pattern))
		}
		fmt.Fprintf(w, " %s\n", s.Items)
		for _, e := range s.Edges {
			fmt.Fprintf(w, "  %s -> %d\n", e.Test, e.Target)
		}
		fmt.Fprintf(w, "  * -> %d\n", s.Other)
	}
	return w.String()
}
