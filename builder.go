package lexdfa

import (
	"fmt"
	"sort"

	"github.com/pingcap/errors"
	"go.uber.org/zap"

	"github.com/alecthomas/lexdfa/charset"
	"github.com/alecthomas/lexdfa/dfa"
	"github.com/alecthomas/lexdfa/internal/intern"
	"github.com/alecthomas/lexdfa/nfa"
)

// Build a DFA recognising every automaton at once.
//
// precedences[i] is the precedence of automata[i]. Where several patterns
// accept in the same state the one with the strictly highest precedence wins;
// if the two highest are equal Build fails with an *AmbiguityError.
//
// Automata that can validate themselves, such as *nfa.NFA, are validated
// first; the first malformed one is reported as a *PatternError.
func Build(automata []nfa.Automaton, precedences []int, options ...Option) (*dfa.DFA, error) {
	if len(automata) != len(precedences) {
		return nil, errors.Errorf("%d automata but %d precedences", len(automata), len(precedences))
	}
	b := &builder{
		automata:    automata,
		precedences: precedences,
		states:      intern.New[dfa.ItemSet](),
		log:         zap.NewNop(),
	}
	for _, option := range options {
		if err := option(b); err != nil {
			return nil, err
		}
	}
	if b.names != nil && len(b.names) != len(automata) {
		return nil, errors.Errorf("%d automata but %d names", len(automata), len(b.names))
	}
	for i, a := range automata {
		if v, ok := a.(validator); ok {
			if err := v.Validate(); err != nil {
				return nil, &PatternError{Index: i, Name: b.name(i), Err: err}
			}
		}
	}
	return b.build()
}

// validator is implemented by automata that can check their own structure,
// such as *nfa.NFA.
type validator interface {
	Validate() error
}

type builder struct {
	automata    []nfa.Automaton
	precedences []int
	names       []string
	log         *zap.Logger
	states      *intern.Table[dfa.ItemSet]
}

func (b *builder) build() (*dfa.DFA, error) {
	seed := make([]dfa.Item, len(b.automata))
	for i, a := range b.automata {
		seed[i] = dfa.Item{Pattern: i, State: a.Start()}
	}
	if start := b.intern(seed); start != 0 {
		panic(fmt.Sprintf("start state interned as %d", start))
	}

	out := &dfa.DFA{Patterns: b.names}
	for id, ok := b.states.Next(); ok; id, ok = b.states.Next() {
		state, err := b.expand(id)
		if err != nil {
			return nil, err
		}
		out.States = append(out.States, state)
		b.log.Debug("sealed state",
			zap.Int("state", id),
			zap.Stringer("items", state.Items),
			zap.Stringer("kind", state.Kind),
			zap.Int("edges", len(state.Edges)))
	}
	b.log.Debug("built DFA", zap.Int("patterns", len(b.automata)), zap.Int("states", len(out.States)))
	return out, nil
}

// expand computes the classification and transitions of a pending state.
func (b *builder) expand(id int) (dfa.State, error) {
	items := b.states.Value(id)
	kind, pattern, err := b.classify(id, items)
	if err != nil {
		return dfa.State{}, err
	}
	state := dfa.State{Items: items, Kind: kind, Pattern: pattern}

	tests := []charset.Range{}
	for _, item := range items {
		for _, e := range b.automata[item.Pattern].Edges(item.State) {
			tests = append(tests, e.Test)
		}
	}
	for _, test := range charset.Partition(tests) {
		next := b.move(items, test)
		if len(next) == 0 {
			panic(fmt.Sprintf("state %d: no item admits %s", id, test))
		}
		state.Edges = append(state.Edges, dfa.Edge{Test: test, Target: b.intern(next)})
	}
	state.Other = b.intern(b.moveOther(items))
	return state, nil
}

// move follows every item over test, which must lie wholly inside or wholly
// outside each of the items' own tests. Items with no edge admitting test
// take their default edge, if any.
func (b *builder) move(items dfa.ItemSet, test charset.Range) []dfa.Item {
	next := []dfa.Item{}
	for _, item := range items {
		a := b.automata[item.Pattern]
		matched := false
		for _, e := range a.Edges(item.State) {
			if e.Test.Overlaps(test) {
				next = append(next, dfa.Item{Pattern: item.Pattern, State: e.Target})
				matched = true
			}
		}
		if other, ok := a.Other(item.State); ok && !matched {
			next = append(next, dfa.Item{Pattern: item.Pattern, State: other})
		}
	}
	return next
}

// moveOther follows the default edge of every item.
func (b *builder) moveOther(items dfa.ItemSet) []dfa.Item {
	next := []dfa.Item{}
	for _, item := range items {
		if other, ok := b.automata[item.Pattern].Other(item.State); ok {
			next = append(next, dfa.Item{Pattern: item.Pattern, State: other})
		}
	}
	return next
}

// intern closes items and returns the id of the resulting state.
func (b *builder) intern(items []dfa.Item) int {
	id, _ := b.states.Intern(b.closure(items))
	return id
}

// closure adds every item reachable over epsilon edges and returns the
// canonical set.
func (b *builder) closure(items []dfa.Item) dfa.ItemSet {
	seen := make(map[dfa.Item]bool, len(items))
	stack := append([]dfa.Item(nil), items...)
	out := make([]dfa.Item, 0, len(items))
	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
		for _, to := range b.automata[item.Pattern].Epsilon(item.State) {
			stack = append(stack, dfa.Item{Pattern: item.Pattern, State: to})
		}
	}
	return dfa.NewItemSet(out)
}

type candidate struct {
	pattern    int
	precedence int
}

func (b *builder) classify(id int, items dfa.ItemSet) (dfa.Kind, int, error) {
	accepting := []candidate{}
	rejecting := true
	for _, item := range items {
		a := b.automata[item.Pattern]
		if a.Accepting(item.State) {
			// Items are sorted by pattern, so a pattern's items are adjacent.
			if n := len(accepting); n == 0 || accepting[n-1].pattern != item.Pattern {
				accepting = append(accepting, candidate{item.Pattern, b.precedences[item.Pattern]})
			}
		}
		if !a.Rejecting(item.State) {
			rejecting = false
		}
	}
	switch len(accepting) {
	case 0:
		if rejecting {
			return dfa.Reject, -1, nil
		}
		return dfa.Neither, -1, nil
	case 1:
		return dfa.Accept, accepting[0].pattern, nil
	}
	sort.SliceStable(accepting, func(i, j int) bool {
		return accepting[i].precedence > accepting[j].precedence
	})
	if first, second := accepting[0], accepting[1]; first.precedence == second.precedence {
		err := &AmbiguityError{
			First:      first.pattern,
			Second:     second.pattern,
			Names:      [2]string{b.name(first.pattern), b.name(second.pattern)},
			Precedence: first.precedence,
			State:      id,
		}
		b.log.Debug("ambiguous state", zap.Int("state", id), zap.Stringer("items", items), zap.Error(err))
		return 0, 0, err
	}
	return dfa.Accept, accepting[0].pattern, nil
}

func (b *builder) name(pattern int) string {
	if pattern < len(b.names) {
		return b.names[pattern]
	}
	return ""
}
