package lexdfa_test

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/alecthomas/repr"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/alecthomas/lexdfa"
	"github.com/alecthomas/lexdfa/charset"
	"github.com/alecthomas/lexdfa/dfa"
	"github.com/alecthomas/lexdfa/nfa"
)

// runOf accepts one or more characters in [lo, hi].
func runOf(lo, hi rune) *nfa.NFA {
	n := nfa.New()
	run := n.AddState()
	n.AddEdge(n.Start(), lo, hi, run).
		AddEdge(run, lo, hi, run).
		SetAccept(run)
	return n
}

// single accepts exactly one character in [lo, hi].
func single(lo, hi rune) *nfa.NFA {
	n := nfa.New()
	end := n.AddState()
	n.AddEdge(n.Start(), lo, hi, end).SetAccept(end)
	return n
}

func scenarioA(t *testing.T) *dfa.DFA {
	t.Helper()
	d, err := lexdfa.Build(
		[]nfa.Automaton{runOf('0', '9'), runOf('a', 'z')},
		[]int{1, 1},
		lexdfa.Names("digit-run", "identifier"))
	require.NoError(t, err)
	return d
}

func TestScenarioDisjointRuns(t *testing.T) {
	d := scenarioA(t)
	start := d.States[0]
	require.Equal(t, dfa.Neither, start.Kind)
	require.Len(t, start.Edges, 2)
	require.Equal(t, charset.Range{Lo: '0', Hi: '9'}, start.Edges[0].Test)
	require.Equal(t, charset.Range{Lo: 'a', Hi: 'z'}, start.Edges[1].Test)

	digits, ident := d.States[start.Edges[0].Target], d.States[start.Edges[1].Target]
	require.NotEqual(t, start.Edges[0].Target, start.Edges[1].Target)
	for i, s := range []dfa.State{digits, ident} {
		pattern, ok := s.Accepts()
		require.True(t, ok)
		require.Equal(t, i, pattern)
		require.Len(t, s.Edges, 1)
		require.Equal(t, start.Edges[i].Target, s.Edges[0].Target, "must self-loop")
		require.Equal(t, dfa.Reject, d.States[s.Other].Kind)
	}

	pattern, ok := d.Match("42")
	require.True(t, ok)
	require.Equal(t, 0, pattern)
	pattern, ok = d.Match("ab")
	require.True(t, ok)
	require.Equal(t, 1, pattern)
	_, ok = d.Match("4b")
	require.False(t, ok)

	goldie.New(t).Assert(t, "scenario_a", []byte(d.String()))
}

func TestScenarioTie(t *testing.T) {
	automata := []nfa.Automaton{single('x', 'x'), single(0, charset.MaxRune)}

	_, err := lexdfa.Build(automata, []int{3, 3}, lexdfa.Names("x", "anything"))
	var ambiguity *lexdfa.AmbiguityError
	require.True(t, errors.As(err, &ambiguity), "%v", err)
	require.Equal(t, 0, ambiguity.First)
	require.Equal(t, 1, ambiguity.Second)
	require.Equal(t, 3, ambiguity.Precedence)
	require.EqualError(t, err, "patterns 0 (x) and 1 (anything) are ambiguous: both accept at precedence 3")

	d, err := lexdfa.Build(automata, []int{3, 1})
	require.NoError(t, err)
	pattern, ok := d.Match("x")
	require.True(t, ok)
	require.Equal(t, 0, pattern)
	pattern, ok = d.Match("y")
	require.True(t, ok)
	require.Equal(t, 1, pattern)
	require.Equal(t, []charset.Range{{Lo: 0, Hi: 'w'}, {Lo: 'x', Hi: 'x'}, {Lo: 'y', Hi: charset.MaxRune}},
		tests(d.States[0]))
}

func TestAmbiguousAtStart(t *testing.T) {
	immediate := func() nfa.Automaton { return nfa.New().SetAccept(0) }
	automata := []nfa.Automaton{immediate(), immediate()}

	_, err := lexdfa.Build(automata, []int{1, 1})
	var ambiguity *lexdfa.AmbiguityError
	require.True(t, errors.As(err, &ambiguity))
	require.Equal(t, [2]int{0, 1}, [2]int{ambiguity.First, ambiguity.Second})
	require.Equal(t, 0, ambiguity.State)

	d, err := lexdfa.Build(automata, []int{5, 1})
	require.NoError(t, err)
	pattern, ok := d.States[0].Accepts()
	require.True(t, ok)
	require.Equal(t, 0, pattern)
}

func TestAmbiguityReportsTopTwo(t *testing.T) {
	immediate := func() nfa.Automaton { return nfa.New().SetAccept(0) }
	_, err := lexdfa.Build([]nfa.Automaton{immediate(), immediate(), immediate()}, []int{1, 4, 4})
	var ambiguity *lexdfa.AmbiguityError
	require.True(t, errors.As(err, &ambiguity))
	require.Equal(t, [2]int{1, 2}, [2]int{ambiguity.First, ambiguity.Second})
}

func TestPrecedence(t *testing.T) {
	d, err := lexdfa.Compile([]lexdfa.Pattern{
		lexdfa.Regex("Keyword", `if|else`, 2),
		lexdfa.Regex("Ident", `[a-z]+`, 1),
		lexdfa.Regex("Number", `[0-9]+`, 1),
	})
	require.NoError(t, err)
	require.Equal(t, []string{"Keyword", "Ident", "Number"}, d.Patterns)
	for input, expected := range map[string]int{"if": 0, "else": 0, "iff": 1, "i": 1, "elsewhere": 1, "12": 2} {
		pattern, ok := d.Match(input)
		require.True(t, ok, input)
		require.Equal(t, expected, pattern, input)
	}
	_, ok := d.Match("if2")
	require.False(t, ok)
}

func TestRejectSinkIsStable(t *testing.T) {
	d, err := lexdfa.Compile([]lexdfa.Pattern{
		lexdfa.Regex("Line", `.+`, 1),
		lexdfa.Regex("Digit", `[0-9]`, 2),
	})
	require.NoError(t, err)
	found := false
	for i, s := range d.States {
		if len(s.Items) != 0 {
			continue
		}
		found = true
		require.Equal(t, dfa.Reject, s.Kind, "state %d", i)
		for _, e := range s.Edges {
			require.Empty(t, d.States[e.Target].Items)
		}
		require.Empty(t, d.States[s.Other].Items)
	}
	require.True(t, found, "no reject sink\n%s", d)

	// A newline leads into dead items only.
	dead := d.States[d.Step(0, '\n')]
	require.Equal(t, dfa.Reject, dead.Kind, "%s", d)
	require.NotEmpty(t, dead.Items)
	require.Equal(t, dfa.Reject, d.States[d.Run(0, "\nabc")].Kind)
}

func TestTotality(t *testing.T) {
	d, err := lexdfa.Compile([]lexdfa.Pattern{
		lexdfa.Regex("String", `"(\\.|[^"\\])*"`, 1),
		lexdfa.Regex("Ident", `[\pL_][\pL\d_]*`, 1),
		lexdfa.Regex("Number", `\d+(\.\d+)?`, 1),
		lexdfa.Regex("Op", `[-+*/=<>!]=?`, 1),
		lexdfa.Regex("Any", `(?s).`, 0),
	})
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(7))
	samples := []rune{0, '\n', '"', '\\', '.', '=', 'a', 'Z', '_', '5', 'é', '⌘', charset.MaxRune}
	for i := 0; i < 200; i++ {
		samples = append(samples, rune(rng.Intn(0x3000)))
	}
	for i, s := range d.States {
		for j := 1; j < len(s.Edges); j++ {
			require.True(t, s.Edges[j-1].Test.Hi < s.Edges[j].Test.Lo, "state %d edges overlap or are unsorted", i)
		}
		for _, c := range samples {
			admitted := 0
			for _, e := range s.Edges {
				if e.Test.Contains(c) {
					admitted++
				}
			}
			if admitted == 0 {
				admitted++ // the default edge
			}
			require.Equal(t, 1, admitted, "state %d character %q", i, c)
		}
	}
}

func TestDeterminism(t *testing.T) {
	patterns := []lexdfa.Pattern{
		lexdfa.Regex("Keyword", `func|for|if`, 2),
		lexdfa.Regex("Ident", `\w+`, 1),
		lexdfa.Regex("Space", `\s+`, 1),
	}
	a, err := lexdfa.Compile(patterns)
	require.NoError(t, err)
	b, err := lexdfa.Compile(patterns)
	require.NoError(t, err)
	require.Equal(t, a, b, repr.String(a))
	require.Equal(t, a.String(), b.String())
}

// TestAgainstSimulation checks the DFA against direct simulation of every
// automaton on random input. Precedences are drawn from a small range so that
// some pattern sets tie; those must fail to build exactly when some input is
// accepted by two patterns sharing the top precedence.
func TestAgainstSimulation(t *testing.T) {
	sources := []string{`a+`, `ab*`, `(ab)+`, `[a-c]x?`, `b|x0`, `0+1?`, `.x`, `[^a]+`}
	rng := rand.New(rand.NewSource(1))
	ambiguous := 0
	for iter := 0; iter < 100; iter++ {
		var patterns []lexdfa.Pattern
		var automata []nfa.Automaton
		var precedences []int
		for _, p := range rng.Perm(len(sources))[:1+rng.Intn(4)] {
			n := nfa.MustCompile(sources[p])
			precedence := rng.Intn(3)
			automata = append(automata, n)
			precedences = append(precedences, precedence)
			patterns = append(patterns, lexdfa.Pattern{Name: sources[p], Automaton: n, Precedence: precedence})
		}
		d, err := lexdfa.Compile(patterns)
		if witness, tied := findTie(automata, precedences, "abcx01\nz"); tied {
			ambiguous++
			var ambiguity *lexdfa.AmbiguityError
			require.True(t, errors.As(err, &ambiguity), "%q is ambiguous in %s but got %v", witness, repr.String(precedences), err)
			require.Less(t, ambiguity.First, ambiguity.Second)
			require.Equal(t, ambiguity.Precedence, precedences[ambiguity.First])
			require.Equal(t, ambiguity.Precedence, precedences[ambiguity.Second])
			continue
		}
		require.NoError(t, err)
		for k := 0; k < 30; k++ {
			input := randomInput(rng, "abcx01\n", 5)
			expected := -1
			for i, a := range automata {
				if simulate(a, input) && (expected == -1 || precedences[i] > precedences[expected]) {
					expected = i
				}
			}
			pattern, ok := d.Match(input)
			if expected == -1 {
				require.False(t, ok, "%q matched %d\n%s", input, pattern, d)
			} else {
				require.True(t, ok, "%q\n%s", input, d)
				require.Equal(t, expected, pattern, "%q\n%s", input, d)
			}
		}
	}
	require.NotZero(t, ambiguous)
}

func TestPatternError(t *testing.T) {
	_, err := lexdfa.Compile([]lexdfa.Pattern{
		lexdfa.Regex("Ident", `\w+`, 1),
		lexdfa.Regex("Broken", `[a-`, 1),
	})
	var perr *lexdfa.PatternError
	require.True(t, errors.As(err, &perr), "%v", err)
	require.Equal(t, 1, perr.Index)
	require.Equal(t, "Broken", perr.Name)
	require.Contains(t, err.Error(), "pattern 1 (Broken): invalid pattern /[a-/")

	invalid := nfa.New()
	invalid.AddEdge(invalid.Start(), 'a', 'a', 42)
	_, err = lexdfa.Compile([]lexdfa.Pattern{{Automaton: invalid}})
	require.True(t, errors.As(err, &perr), "%v", err)
	require.Equal(t, 0, perr.Index)
	require.EqualError(t, err, "pattern 0: state 0: edge target 42 out of range")

	require.Panics(t, func() { lexdfa.Must(lexdfa.Compile([]lexdfa.Pattern{lexdfa.Regex("A", `(`, 0)})) })
}

func TestBuildArgumentErrors(t *testing.T) {
	_, err := lexdfa.Build([]nfa.Automaton{runOf('a', 'z')}, nil)
	require.EqualError(t, err, "1 automata but 0 precedences")
	_, err = lexdfa.Build([]nfa.Automaton{runOf('a', 'z')}, []int{1}, lexdfa.Names("a", "b"))
	require.EqualError(t, err, "1 automata but 2 names")
}

func TestBuildValidatesAutomata(t *testing.T) {
	dangling := nfa.New()
	dangling.AddEdge(dangling.Start(), 'a', 'a', 42)
	_, err := lexdfa.Build([]nfa.Automaton{runOf('a', 'z'), dangling}, []int{1, 2}, lexdfa.Names("Ident", "Dangling"))
	var perr *lexdfa.PatternError
	require.True(t, errors.As(err, &perr), "%v", err)
	require.Equal(t, 1, perr.Index)
	require.Equal(t, "Dangling", perr.Name)
	require.EqualError(t, err, "pattern 1 (Dangling): state 0: edge target 42 out of range")

	// A test beyond the character domain would overflow the partition.
	wide := nfa.New()
	wide.AddEdge(wide.Start(), 'a', 0x7fffffff, wide.AddState())
	wide.SetAccept(1)
	_, err = lexdfa.Build([]nfa.Automaton{wide}, []int{1})
	require.True(t, errors.As(err, &perr), "%v", err)
	require.Equal(t, 0, perr.Index)
	require.Contains(t, err.Error(), "state 0: invalid test")
}

func TestEmptyInput(t *testing.T) {
	d, err := lexdfa.Build(nil, nil)
	require.NoError(t, err)
	require.Len(t, d.States, 1)
	require.Equal(t, dfa.Reject, d.States[0].Kind)
	require.Equal(t, 0, d.States[0].Other)
}

func TestEBNF(t *testing.T) {
	patterns, err := lexdfa.EBNF(`
		Keyword = "let" | "in" .
		Ident = alpha { alpha } .
		alpha = "a"…"z" .
	`, map[string]int{"Keyword": 2, "Ident": 1})
	require.NoError(t, err)
	d, err := lexdfa.Compile(patterns)
	require.NoError(t, err)
	pattern, ok := d.Match("let")
	require.True(t, ok)
	require.Equal(t, "Keyword", d.PatternName(pattern))
	pattern, ok = d.Match("lets")
	require.True(t, ok)
	require.Equal(t, "Ident", d.PatternName(pattern))

	patterns[0].Precedence = 1
	_, err = lexdfa.Compile(patterns)
	var ambiguity *lexdfa.AmbiguityError
	require.True(t, errors.As(err, &ambiguity))
	require.Equal(t, [2]string{"Keyword", "Ident"}, ambiguity.Names)
}

func TestLogging(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	d := scenarioA(t)
	_, err := lexdfa.Build(
		[]nfa.Automaton{runOf('0', '9'), runOf('a', 'z')},
		[]int{1, 1},
		lexdfa.Logger(zap.New(core)))
	require.NoError(t, err)
	sealed := logs.FilterMessage("sealed state").All()
	require.Len(t, sealed, len(d.States))
	require.Equal(t, int64(0), sealed[0].ContextMap()["state"])
	require.Equal(t, "neither", sealed[0].ContextMap()["kind"])
	built := logs.FilterMessage("built DFA").All()
	require.Len(t, built, 1)
	require.Equal(t, zap.DebugLevel, built[0].Level)

	w := &bytes.Buffer{}
	_, err = lexdfa.Build([]nfa.Automaton{runOf('0', '9')}, []int{1}, lexdfa.Trace(w))
	require.NoError(t, err)
	require.Contains(t, w.String(), "sealed state")
	require.Contains(t, w.String(), `"items": "{0:1}"`)
}

func tests(s dfa.State) []charset.Range {
	out := []charset.Range{}
	for _, e := range s.Edges {
		out = append(out, e.Test)
	}
	return out
}

func randomInput(rng *rand.Rand, alphabet string, max int) string {
	runes := []rune(alphabet)
	out := make([]rune, rng.Intn(max+1))
	for i := range out {
		out[i] = runes[rng.Intn(len(runes))]
	}
	return string(out)
}

// simulate runs a over the whole of input.
func simulate(a nfa.Automaton, input string) bool {
	current := epsilonClosure(a, []int{a.Start()})
	for _, rn := range input {
		current = advance(a, current, rn)
	}
	return accepts(a, current)
}

// advance moves every state in current over rn, then closes the result.
func advance(a nfa.Automaton, current []int, rn rune) []int {
	next := []int{}
	for _, s := range current {
		matched := false
		for _, e := range a.Edges(s) {
			if e.Test.Contains(rn) {
				next = append(next, e.Target)
				matched = true
			}
		}
		if other, ok := a.Other(s); ok && !matched {
			next = append(next, other)
		}
	}
	return epsilonClosure(a, next)
}

func accepts(a nfa.Automaton, states []int) bool {
	for _, s := range states {
		if a.Accepting(s) {
			return true
		}
	}
	return false
}

// findTie searches every input over alphabet, breadth first over the joint
// simulation states, for one accepted by two patterns sharing the highest
// precedence among those accepting it. alphabet must hold one representative
// of every class of characters the automata distinguish.
func findTie(automata []nfa.Automaton, precedences []int, alphabet string) (string, bool) {
	type node struct {
		input  string
		states [][]int
	}
	key := func(states [][]int) string {
		return fmt.Sprint(states)
	}
	start := make([][]int, len(automata))
	for i, a := range automata {
		start[i] = sorted(epsilonClosure(a, []int{a.Start()}))
	}
	seen := map[string]bool{key(start): true}
	queue := []node{{states: start}}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		top, count := 0, 0
		for i, a := range automata {
			if !accepts(a, n.states[i]) {
				continue
			}
			switch {
			case count == 0 || precedences[i] > top:
				top, count = precedences[i], 1
			case precedences[i] == top:
				count++
			}
		}
		if count > 1 {
			return n.input, true
		}
		for _, rn := range alphabet {
			next := make([][]int, len(automata))
			for i, a := range automata {
				next[i] = sorted(advance(a, n.states[i], rn))
			}
			if k := key(next); !seen[k] {
				seen[k] = true
				queue = append(queue, node{input: n.input + string(rn), states: next})
			}
		}
	}
	return "", false
}

func sorted(states []int) []int {
	sort.Ints(states)
	return states
}

func epsilonClosure(a nfa.Automaton, states []int) []int {
	seen := map[int]bool{}
	out := []int{}
	for len(states) > 0 {
		s := states[len(states)-1]
		states = states[:len(states)-1]
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
			states = append(states, a.Epsilon(s)...)
		}
	}
	return out
}
