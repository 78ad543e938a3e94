// Package lexdfa builds a single deterministic automaton recognising many
// lexical patterns at once.
//
// Each pattern is a nondeterministic automaton (see package nfa) with a
// precedence. The resulting DFA (see package dfa) classifies every reachable
// state as accepting exactly one pattern, rejecting, or neither:
//
//	d, err := lexdfa.Compile([]lexdfa.Pattern{
//	    lexdfa.Regex("Keyword", `if|else`, 2),
//	    lexdfa.Regex("Ident", `[a-z]+`, 1),
//	    lexdfa.Regex("Number", `[0-9]+`, 1),
//	})
//
// Where two patterns can accept the same input, the one with the higher
// precedence wins. Equal precedences are never resolved silently: the build
// fails with an *AmbiguityError naming both patterns.
package lexdfa
