package nfa

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pingcap/errors"
	"golang.org/x/exp/ebnf"
)

// A Production is one exported EBNF production compiled to an NFA.
type Production struct {
	Name string
	NFA  *NFA
}

// EBNF compiles the exported productions of an EBNF grammar into NFAs.
//
// The EBNF grammar syntax is as defined by "golang.org/x/exp/ebnf". Upper-case
// productions are exported, in the order they appear in the grammar; lower-case
// productions may be referenced as fragments. All productions are lexical, so
// recursive references are an error.
//
// Here's an example grammar for whitespace and identifiers:
//
//	Identifier = alpha { alpha | number } .
//	Whitespace = "\n" | "\r" | "\t" | " " .
//	alpha = "a"…"z" | "A"…"Z" | "_" .
//	number = "0"…"9" .
func EBNF(grammar string) ([]Production, error) {
	ast, err := ebnf.Parse("<grammar>", strings.NewReader(grammar))
	if err != nil {
		return nil, errors.Trace(err)
	}
	exported := []*ebnf.Production{}
	for name, production := range ast {
		if rn, _ := utf8.DecodeRuneInString(name); unicode.IsUpper(rn) {
			exported = append(exported, production)
		}
	}
	sort.Slice(exported, func(i, j int) bool {
		return exported[i].Pos().Offset < exported[j].Pos().Offset
	})
	out := make([]Production, 0, len(exported))
	for _, production := range exported {
		n := &NFA{}
		accept := n.AddState()
		n.SetAccept(accept)
		c := &ebnfCompiler{compiler: compiler{nfa: n, dead: NoState}, grammar: ast, active: map[string]bool{}}
		start, err := c.production(production, accept)
		if err != nil {
			return nil, err
		}
		n.SetStart(start)
		out = append(out, Production{Name: production.Name.String, NFA: n})
	}
	return out, nil
}

type ebnfCompiler struct {
	compiler
	grammar ebnf.Grammar
	// Productions currently being expanded.
	active map[string]bool
}

func (c *ebnfCompiler) production(production *ebnf.Production, next int) (int, error) {
	name := production.Name.String
	if c.active[name] {
		return 0, errors.Errorf("%s: production %q is recursive", production.Pos(), name)
	}
	c.active[name] = true
	defer delete(c.active, name)
	return c.compile(production.Expr, next)
}

func (c *ebnfCompiler) compile(expr ebnf.Expression, next int) (int, error) { // nolint: gocyclo
	n := c.nfa
	switch expr := expr.(type) {
	case nil:
		return next, nil

	case ebnf.Alternative:
		s := n.AddState()
		for _, alt := range expr {
			entry, err := c.compile(alt, next)
			if err != nil {
				return 0, err
			}
			n.AddEpsilon(s, entry)
		}
		return s, nil

	case ebnf.Sequence:
		for i := len(expr) - 1; i >= 0; i-- {
			entry, err := c.compile(expr[i], next)
			if err != nil {
				return 0, err
			}
			next = entry
		}
		return next, nil

	case *ebnf.Group:
		return c.compile(expr.Body, next)

	case *ebnf.Option:
		s := n.AddState()
		entry, err := c.compile(expr.Body, next)
		if err != nil {
			return 0, err
		}
		n.AddEpsilon(s, entry).AddEpsilon(s, next)
		return s, nil

	case *ebnf.Repetition:
		loop := n.AddState()
		entry, err := c.compile(expr.Body, loop)
		if err != nil {
			return 0, err
		}
		n.AddEpsilon(loop, entry).AddEpsilon(loop, next)
		return loop, nil

	case *ebnf.Name:
		production := c.grammar[expr.String]
		if production == nil {
			return 0, errors.Errorf("%s: unknown production %q", expr.Pos(), expr.String)
		}
		return c.production(production, next)

	case *ebnf.Token:
		runes := []rune(expr.String)
		for i := len(runes) - 1; i >= 0; i-- {
			s := n.AddState()
			n.AddEdge(s, runes[i], runes[i], next)
			next = s
		}
		return next, nil

	case *ebnf.Range:
		if utf8.RuneCountInString(expr.Begin.String) != 1 {
			return 0, errors.Errorf("%s: start of range must be a single rune", expr.Pos())
		}
		if utf8.RuneCountInString(expr.End.String) != 1 {
			return 0, errors.Errorf("%s: end of range must be a single rune", expr.Pos())
		}
		lo, _ := utf8.DecodeRuneInString(expr.Begin.String)
		hi, _ := utf8.DecodeRuneInString(expr.End.String)
		if lo > hi {
			return 0, errors.Errorf("%s: range %q…%q is empty", expr.Pos(), lo, hi)
		}
		s := n.AddState()
		n.AddEdge(s, lo, hi, next)
		return s, nil
	}
	return 0, errors.Errorf("%s: unsupported EBNF expression %T", expr.Pos(), expr)
}
