package lexdfa

import (
	"fmt"
)

// PatternError is returned when a pattern cannot be turned into a valid
// automaton.
type PatternError struct {
	// Index of the pattern in the input.
	Index int
	Name  string
	Err   error
}

func (p *PatternError) Error() string {
	return fmt.Sprintf("pattern %s: %s", label(p.Index, p.Name), p.Err)
}

func (p *PatternError) Unwrap() error { return p.Err }

// AmbiguityError is returned when two patterns of equal precedence both
// accept in the same state, ie. on some identical input.
type AmbiguityError struct {
	// First and Second are the pattern indices, First < Second.
	First, Second int
	// Names of First and Second, if known.
	Names      [2]string
	Precedence int
	// State of the partially built DFA where the collision was found.
	State int
}

func (a *AmbiguityError) Error() string {
	return fmt.Sprintf("patterns %s and %s are ambiguous: both accept at precedence %d",
		label(a.First, a.Names[0]), label(a.Second, a.Names[1]), a.Precedence)
}

func label(index int, name string) string {
	if name == "" {
		return fmt.Sprintf("%d", index)
	}
	return fmt.Sprintf("%d (%s)", index, name)
}
