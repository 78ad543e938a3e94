// Package nfa models the per-pattern nondeterministic automata consumed by
// the DFA builder.
//
// States live in a flat arena and refer to each other by index, so cycles
// are plain integer back-references.
package nfa

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pingcap/errors"
	"go.uber.org/multierr"

	"github.com/alecthomas/lexdfa/charset"
)

// NoState is returned where a state reference is absent.
const NoState = -1

// An Edge consumes one character admitted by Test and moves to Target.
type Edge struct {
	Test   charset.Range
	Target int
}

func (e Edge) String() string {
	return fmt.Sprintf("%s -> %d", e.Test, e.Target)
}

// Automaton is a read-only view of one pattern's NFA.
//
// The default ("other") edge of a state applies to characters that none of
// that state's own Edges admit.
type Automaton interface {
	// Start state.
	Start() int
	// Len is the number of states; states are numbered [0, Len).
	Len() int
	// Epsilon successors of state, taken without consuming input.
	Epsilon(state int) []int
	// Edges of state labelled with character tests.
	Edges(state int) []Edge
	// Other returns the default successor of state, if any.
	Other(state int) (target int, ok bool)
	// Accepting returns true if reaching state completes a match.
	Accepting(state int) bool
	// Rejecting returns true if no accepting state is reachable from state.
	Rejecting(state int) bool
}

// State of an NFA.
type State struct {
	Accept  bool
	Epsilon []int
	Edges   []Edge
	Other   int
}

// NFA is an arena backed Automaton.
//
// An NFA must not be mutated once it has been queried.
type NFA struct {
	start  int
	states []State

	liveOnce sync.Once
	live     []bool
}

var _ Automaton = &NFA{}

// New creates an NFA with a single, non-accepting start state.
func New() *NFA {
	n := &NFA{}
	n.start = n.AddState()
	return n
}

// AddState appends a state with no edges and returns its index.
func (n *NFA) AddState() int {
	n.states = append(n.states, State{Other: NoState})
	return len(n.states) - 1
}

// AddEdge adds an edge from "from" to "to" admitting the characters [lo, hi].
func (n *NFA) AddEdge(from int, lo, hi rune, to int) *NFA {
	n.states[from].Edges = append(n.states[from].Edges, Edge{Test: charset.Range{Lo: lo, Hi: hi}, Target: to})
	return n
}

// AddEpsilon adds an epsilon edge from "from" to "to".
func (n *NFA) AddEpsilon(from, to int) *NFA {
	n.states[from].Epsilon = append(n.states[from].Epsilon, to)
	return n
}

// SetOther sets the default successor of "from".
func (n *NFA) SetOther(from, to int) *NFA {
	n.states[from].Other = to
	return n
}

// SetAccept marks state as accepting.
func (n *NFA) SetAccept(state int) *NFA {
	n.states[state].Accept = true
	return n
}

// SetStart changes the start state.
func (n *NFA) SetStart(state int) *NFA {
	n.start = state
	return n
}

// State returns a copy of the given state.
func (n *NFA) State(state int) State { return n.states[state] }

func (n *NFA) Start() int { return n.start }
func (n *NFA) Len() int { return len(n.states) }
func (n *NFA) Epsilon(state int) []int { return n.states[state].Epsilon }
func (n *NFA) Edges(state int) []Edge { return n.states[state].Edges }
func (n *NFA) Accepting(state int) bool { return n.states[state].Accept }
func (n *NFA) Rejecting(state int) bool { return !n.liveness()[state] }

func (n *NFA) Other(state int) (int, bool) {
	other := n.states[state].Other
	return other, other != NoState
}

// liveness marks every state from which an accepting state is reachable.
func (n *NFA) liveness() []bool {
	n.liveOnce.Do(func() {
		reverse := make([][]int, len(n.states))
		link := func(from, to int) {
			if to >= 0 && to < len(n.states) {
				reverse[to] = append(reverse[to], from)
			}
		}
		live := make([]bool, len(n.states))
		queue := []int{}
		for i, s := range n.states {
			for _, to := range s.Epsilon {
				link(i, to)
			}
			for _, e := range s.Edges {
				link(i, e.Target)
			}
			link(i, s.Other)
			if s.Accept {
				live[i] = true
				queue = append(queue, i)
			}
		}
		for len(queue) > 0 {
			s := queue[0]
			queue = queue[1:]
			for _, from := range reverse[s] {
				if !live[from] {
					live[from] = true
					queue = append(queue, from)
				}
			}
		}
		n.live = live
	})
	return n.live
}

// Validate reports every malformed state in the NFA.
func (n *NFA) Validate() error {
	var err error
	valid := func(s int) bool { return s >= 0 && s < len(n.states) }
	if !valid(n.start) {
		err = multierr.Append(err, errors.Errorf("start state %d out of range", n.start))
	}
	for i, s := range n.states {
		for _, to := range s.Epsilon {
			if !valid(to) {
				err = multierr.Append(err, errors.Errorf("state %d: epsilon target %d out of range", i, to))
			}
		}
		for _, e := range s.Edges {
			if e.Test.Empty() || e.Test.Lo < 0 || e.Test.Hi > charset.MaxRune {
				err = multierr.Append(err, errors.Errorf("state %d: invalid test %s", i, e.Test))
			}
			if !valid(e.Target) {
				err = multierr.Append(err, errors.Errorf("state %d: edge target %d out of range", i, e.Target))
			}
		}
		if s.Other != NoState && !valid(s.Other) {
			err = multierr.Append(err, errors.Errorf("state %d: default target %d out of range", i, s.Other))
		}
	}
	return err
}

func (n *NFA) String() string {
	w := &strings.Builder{}
	for i, s := range n.states {
		marker := " "
		if i == n.start {
			marker = ">"
		}
		accept := ""
		if s.Accept {
			accept = " accept"
		}
		fmt.Fprintf(w, "%s%d%s\n", marker, i, accept)
		for _, to := range s.Epsilon {
			fmt.Fprintf(w, "  ε -> %d\n", to)
		}
		for _, e := range s.Edges {
			fmt.Fprintf(w, "  %s\n", e)
		}
		if s.Other != NoState {
			fmt.Fprintf(w, "  other -> %d\n", s.Other)
		}
	}
	return w.String()
}
