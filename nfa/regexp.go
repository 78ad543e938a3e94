package nfa

import (
	"regexp/syntax"
	"unicode"

	"github.com/pingcap/errors"

	"github.com/alecthomas/lexdfa/charset"
)

// Compile a regular expression in RE2 syntax into an NFA matching it at the
// start of input.
//
// Zero-width assertions are not supported, as a match is driven one
// character at a time with no look-around.
func Compile(expr string) (*NFA, error) {
	re, err := syntax.Parse(expr, syntax.Perl)
	if err != nil {
		return nil, errors.Annotatef(err, "invalid pattern /%s/", expr)
	}
	n := &NFA{}
	accept := n.AddState()
	n.SetAccept(accept)
	c := &compiler{nfa: n, dead: NoState}
	start, err := c.compile(re.Simplify(), accept)
	if err != nil {
		return nil, errors.Annotatef(err, "pattern /%s/", expr)
	}
	n.SetStart(start)
	return n, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(expr string) *NFA {
	n, err := Compile(expr)
	if err != nil {
		panic(err)
	}
	return n
}

// compiler builds NFA fragments back to front: each fragment is compiled
// with its continuation already known, and returns its entry state.
type compiler struct {
	nfa  *NFA
	dead int
}

// deadState returns a shared state with no way out.
func (c *compiler) deadState() int {
	if c.dead == NoState {
		c.dead = c.nfa.AddState()
	}
	return c.dead
}

func (c *compiler) compile(re *syntax.Regexp, next int) (int, error) { // nolint: gocyclo
	n := c.nfa
	switch re.Op {
	case syntax.OpNoMatch:
		return c.deadState(), nil

	case syntax.OpEmptyMatch:
		return next, nil

	case syntax.OpLiteral:
		fold := re.Flags&syntax.FoldCase != 0
		for i := len(re.Rune) - 1; i >= 0; i-- {
			s := n.AddState()
			for _, r := range caseOrbit(re.Rune[i], fold) {
				n.AddEdge(s, r, r, next)
			}
			next = s
		}
		return next, nil

	case syntax.OpCharClass:
		ranges := make([]charset.Range, 0, len(re.Rune)/2)
		for i := 0; i+1 < len(re.Rune); i += 2 {
			ranges = append(ranges, charset.Range{Lo: re.Rune[i], Hi: re.Rune[i+1]})
		}
		return c.class(charset.Union(ranges), next), nil

	case syntax.OpAnyCharNotNL:
		s := n.AddState()
		n.AddEdge(s, '\n', '\n', c.deadState())
		n.SetOther(s, next)
		return s, nil

	case syntax.OpAnyChar:
		s := n.AddState()
		n.SetOther(s, next)
		return s, nil

	case syntax.OpCapture:
		return c.compile(re.Sub[0], next)

	case syntax.OpConcat:
		for i := len(re.Sub) - 1; i >= 0; i-- {
			entry, err := c.compile(re.Sub[i], next)
			if err != nil {
				return 0, err
			}
			next = entry
		}
		return next, nil

	case syntax.OpAlternate:
		s := n.AddState()
		for _, sub := range re.Sub {
			entry, err := c.compile(sub, next)
			if err != nil {
				return 0, err
			}
			n.AddEpsilon(s, entry)
		}
		return s, nil

	case syntax.OpQuest:
		s := n.AddState()
		entry, err := c.compile(re.Sub[0], next)
		if err != nil {
			return 0, err
		}
		n.AddEpsilon(s, entry).AddEpsilon(s, next)
		return s, nil

	case syntax.OpStar, syntax.OpPlus:
		loop := n.AddState()
		entry, err := c.compile(re.Sub[0], loop)
		if err != nil {
			return 0, err
		}
		n.AddEpsilon(loop, entry).AddEpsilon(loop, next)
		if re.Op == syntax.OpPlus {
			return entry, nil
		}
		return loop, nil

	case syntax.OpBeginLine, syntax.OpEndLine, syntax.OpBeginText, syntax.OpEndText,
		syntax.OpWordBoundary, syntax.OpNoWordBoundary:
		return 0, errors.Errorf("unsupported zero-width assertion %s", re)
	}
	return 0, errors.Errorf("unsupported regular expression operator %s in %s", re.Op, re)
}

// class compiles a character class. Classes admitting both ends of the
// domain, typically negated ones, are compiled as their complement leading to
// a dead state plus a default edge.
func (c *compiler) class(ranges []charset.Range, next int) int {
	n := c.nfa
	if len(ranges) == 0 {
		return c.deadState()
	}
	s := n.AddState()
	if ranges[0].Lo == 0 && ranges[len(ranges)-1].Hi == charset.MaxRune {
		for _, r := range charset.Complement(ranges) {
			n.AddEdge(s, r.Lo, r.Hi, c.deadState())
		}
		n.SetOther(s, next)
		return s
	}
	for _, r := range ranges {
		n.AddEdge(s, r.Lo, r.Hi, next)
	}
	return s
}

// caseOrbit returns r and, if fold is set, every rune equivalent to it under
// simple case folding.
func caseOrbit(r rune, fold bool) []rune {
	out := []rune{r}
	if !fold {
		return out
	}
	for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
		out = append(out, f)
	}
	return out
}
