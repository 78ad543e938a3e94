package lexdfa

import (
	"github.com/alecthomas/lexdfa/dfa"
	"github.com/alecthomas/lexdfa/nfa"
)

// A Pattern to be recognised by the DFA.
type Pattern struct {
	Name string
	// Expr is a regular expression compiled with nfa.Compile. It is ignored
	// if Automaton is set.
	Expr       string
	Precedence int
	Automaton  nfa.Automaton
}

// Regex creates a Pattern from a regular expression.
func Regex(name, expr string, precedence int) Pattern {
	return Pattern{Name: name, Expr: expr, Precedence: precedence}
}

// Compile each pattern into an automaton and build a DFA from them.
//
// The first pattern that fails to compile is reported as a *PatternError, as
// is any automaton Build fails to validate.
func Compile(patterns []Pattern, options ...Option) (*dfa.DFA, error) {
	automata := make([]nfa.Automaton, len(patterns))
	precedences := make([]int, len(patterns))
	names := make([]string, len(patterns))
	for i, pattern := range patterns {
		a := pattern.Automaton
		if a == nil {
			n, err := nfa.Compile(pattern.Expr)
			if err != nil {
				return nil, &PatternError{Index: i, Name: pattern.Name, Err: err}
			}
			a = n
		}
		automata[i] = a
		precedences[i] = pattern.Precedence
		names[i] = pattern.Name
	}
	return Build(automata, precedences, append([]Option{Names(names...)}, options...)...)
}

// EBNF creates a Pattern for each exported production of an EBNF grammar,
// with precedences taken from the given map (default 0).
//
// See nfa.EBNF for the supported grammar.
func EBNF(grammar string, precedences map[string]int) ([]Pattern, error) {
	productions, err := nfa.EBNF(grammar)
	if err != nil {
		return nil, err
	}
	patterns := make([]Pattern, len(productions))
	for i, production := range productions {
		patterns[i] = Pattern{
			Name:       production.Name,
			Precedence: precedences[production.Name],
			Automaton:  production.NFA,
		}
	}
	return patterns, nil
}

// Must takes the result of a Build or Compile call and returns the DFA, but
// panics if it errors.
//
// eg.
//
//	def := lexdfa.Must(lexdfa.Compile(patterns))
func Must(d *dfa.DFA, err error) *dfa.DFA {
	if err != nil {
		panic(err)
	}
	return d
}
