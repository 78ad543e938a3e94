package rules

import (
	"bytes"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pingcap/errors"
	"gopkg.in/yaml.v2"
)

type document struct {
	Rules Rules `toml:"rule" yaml:"rules"`
}

// ParseTOML reads rules from a TOML document of the form:
//
//	[[rule]]
//	name = "Ident"
//	pattern = '[a-z]+'
//	precedence = 1
//
// Unknown keys are an error.
func ParseTOML(data []byte) (Rules, error) {
	doc := document{}
	md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&doc)
	if err != nil {
		return nil, errors.Annotate(err, "invalid TOML rules")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = key.String()
		}
		return nil, errors.Errorf("unknown keys in TOML rules: %s", strings.Join(keys, ", "))
	}
	if err := doc.Rules.Validate(); err != nil {
		return nil, err
	}
	return doc.Rules, nil
}

// ParseYAML reads rules from a YAML document of the form:
//
//	rules:
//	  - name: Ident
//	    pattern: '[a-z]+'
//	    precedence: 1
//
// Unknown keys are an error.
func ParseYAML(data []byte) (Rules, error) {
	doc := document{}
	if err := yaml.UnmarshalStrict(data, &doc); err != nil {
		return nil, errors.Annotate(err, "invalid YAML rules")
	}
	if err := doc.Rules.Validate(); err != nil {
		return nil, err
	}
	return doc.Rules, nil
}
