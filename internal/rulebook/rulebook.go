// Package rulebook loads the CC&R rulebook and renders it into the canonical
// text embedded in the manager's system prompt.
//
// # Resource Format
//
// A rulebook is a YAML (or JSON) document with a single top-level list:
//
//	rules:
//	  - id: FENCE-1
//	    source: "CC&R 7.3"
//	    text: "Fences may not exceed 4 feet in height."
//
// # Rendering
//
// Rules render in document order as "[{source}] {id}: {text}", separated by a
// blank line. The rendered text is computed once when the Rulebook is built
// and is byte-identical for identical input. It is part of the prompt
// contract, so the format must not change.
package rulebook

import (
	"fmt"
	"strings"

	"github.com/roach88/hoabench/internal/fingerprint"
)

// Rule is one CC&R provision.
type Rule struct {
	ID     string `yaml:"id" json:"id"`
	Source string `yaml:"source" json:"source"`
	Text   string `yaml:"text" json:"text"`
}

// Render formats a single rule the way it appears in the system prompt.
func (r Rule) Render() string {
	return fmt.Sprintf("[%s] %s: %s", r.Source, r.ID, r.Text)
}

// Rulebook is an ordered, immutable set of rules with their rendered text.
type Rulebook struct {
	rules  []Rule
	index  map[string]int
	text   string
	digest string
}

// New builds a Rulebook from rules in document order.
// Rule IDs must be unique and every field must be non-empty.
func New(rules []Rule) (*Rulebook, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("rulebook has no rules")
	}

	rb := &Rulebook{
		rules: make([]Rule, len(rules)),
		index: make(map[string]int, len(rules)),
	}
	copy(rb.rules, rules)

	lines := make([]string, len(rb.rules))
	for i, r := range rb.rules {
		switch {
		case r.ID == "":
			return nil, fmt.Errorf("rules[%d]: id is required", i)
		case r.Source == "":
			return nil, fmt.Errorf("rules[%d]: source is required", i)
		case r.Text == "":
			return nil, fmt.Errorf("rules[%d]: text is required", i)
		}
		if prev, dup := rb.index[r.ID]; dup {
			return nil, fmt.Errorf("rules[%d]: duplicate id %q (first defined at rules[%d])", i, r.ID, prev)
		}
		rb.index[r.ID] = i
		lines[i] = r.Render()
	}

	rb.text = strings.Join(lines, "\n\n")
	rb.digest = fingerprint.Prompt(rb.text)
	return rb, nil
}

// Text returns the canonical rendering of all rules.
func (rb *Rulebook) Text() string {
	return rb.text
}

// Digest returns a stable fingerprint of Text.
func (rb *Rulebook) Digest() string {
	return rb.digest
}

// Rules returns a copy of the rules in document order.
func (rb *Rulebook) Rules() []Rule {
	out := make([]Rule, len(rb.rules))
	copy(out, rb.rules)
	return out
}

// Len returns the number of rules.
func (rb *Rulebook) Len() int {
	return len(rb.rules)
}

// Lookup returns the rule with the given id.
func (rb *Rulebook) Lookup(id string) (Rule, bool) {
	i, ok := rb.index[id]
	if !ok {
		return Rule{}, false
	}
	return rb.rules[i], true
}
