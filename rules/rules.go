// Package rules describes a lexer as a readable list of named, prioritised
// regular expressions.
//
// eg.
//
//	Keyword 2 = if|else|for
//	Ident     = [[:alpha:]_]\w*
//	Space     = \s+
package rules

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/pingcap/errors"
	"go.uber.org/multierr"

	"github.com/alecthomas/lexdfa"
	"github.com/alecthomas/lexdfa/dfa"
)

// A Rule names a pattern and its precedence.
type Rule struct {
	Name       string `json:"name" toml:"name" yaml:"name"`
	Pattern    string `json:"pattern" toml:"pattern" yaml:"pattern"`
	Precedence int    `json:"precedence,omitempty" toml:"precedence" yaml:"precedence,omitempty"`
}

// Rules in pattern index order.
type Rules []Rule

// Parse a list of rules from a readable grammar.
//
// This accepts a grammar where each line is a named regular expression in the form:
//
//	# <comment>
//	<name> [<precedence>] = <regexp>
//
// Order is relevant: the n-th rule becomes pattern n. Comments may only occur
// at the beginning of a line. The regular expression will have surrounding
// whitespace trimmed before being parsed. Precedence defaults to 0.
func Parse(grammar string) (Rules, error) {
	out := Rules{}
	for i, line := range strings.Split(grammar, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) == 1 {
			return nil, errors.Errorf("line %d: rule should be in the form <Name> [<precedence>] = <regex>, not %q", i+1, line)
		}
		head := strings.Fields(parts[0])
		rule := Rule{Pattern: strings.TrimSpace(parts[1])}
		switch len(head) {
		case 2:
			precedence, err := strconv.Atoi(head[1])
			if err != nil {
				return nil, errors.Annotatef(err, "line %d: invalid precedence %q", i+1, head[1])
			}
			rule.Precedence = precedence
			fallthrough
		case 1:
			rule.Name = head[0]
		default:
			return nil, errors.Errorf("line %d: rule should be in the form <Name> [<precedence>] = <regex>, not %q", i+1, line)
		}
		out = append(out, rule)
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// Validate reports every invalid or duplicated rule name and empty pattern.
func (r Rules) Validate() error {
	var err error
	seen := map[string]bool{}
	for i, rule := range r {
		switch {
		case !validName(rule.Name):
			err = multierr.Append(err, errors.Errorf("rule %d: invalid name %q", i, rule.Name))
		case seen[rule.Name]:
			err = multierr.Append(err, errors.Errorf("rule %d: duplicate name %q", i, rule.Name))
		}
		seen[rule.Name] = true
		if rule.Pattern == "" {
			err = multierr.Append(err, errors.Errorf("rule %d (%s): empty pattern", i, rule.Name))
		}
	}
	return err
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	for i, rn := range name {
		if !(rn == '_' || unicode.IsLetter(rn) || (i > 0 && unicode.IsDigit(rn))) {
			return false
		}
	}
	return true
}

// Patterns returns a lexdfa.Pattern per rule.
func (r Rules) Patterns() []lexdfa.Pattern {
	out := make([]lexdfa.Pattern, len(r))
	for i, rule := range r {
		out[i] = lexdfa.Regex(rule.Name, rule.Pattern, rule.Precedence)
	}
	return out
}

// Build a DFA from the rules.
func (r Rules) Build(options ...lexdfa.Option) (*dfa.DFA, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return lexdfa.Compile(r.Patterns(), options...)
}
