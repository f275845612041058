// Package decision defines the closed set of outcomes an HOA manager may
// select, in the order they are presented to the agent.
//
// The same definitions feed the system prompt's decision menu, dataset
// validation, and every scorer that has to read a decision back out of free
// text. Adding or removing a decision here changes all of them at once.
package decision

import (
	"fmt"
	"regexp"
	"strings"
)

// Decision is one of the six enumerated manager outcomes.
type Decision string

const (
	Approve          Decision = "approve"
	Deny             Decision = "deny"
	Violation        Decision = "violation"
	ReferToCommittee Decision = "refer_to_committee"
	NeedsMoreInfo    Decision = "needs_more_info"
	NoViolation      Decision = "no_violation"
)

// Definition pairs a decision with the one-line meaning shown to the agent.
type Definition struct {
	Decision Decision
	Meaning  string
}

// definitions is in prompt order. Do not reorder: the rendered system prompt
// depends on it.
var definitions = []Definition{
	{Approve, "The request complies with rules"},
	{Deny, "The request violates rules"},
	{Violation, "A rule violation has occurred"},
	{ReferToCommittee, "Requires Architectural Committee review"},
	{NeedsMoreInfo, "Cannot determine without additional information"},
	{NoViolation, "Complaint does not constitute a violation"},
}

// Definitions returns the decision menu in prompt order.
func Definitions() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	return out
}

// All returns every decision in prompt order.
func All() []Decision {
	out := make([]Decision, len(definitions))
	for i, d := range definitions {
		out[i] = d.Decision
	}
	return out
}

// Valid reports whether d is one of the enumerated decisions.
func (d Decision) Valid() bool {
	for _, def := range definitions {
		if def.Decision == d {
			return true
		}
	}
	return false
}

// Defers reports whether d postpones the outcome instead of settling it.
// A deferral neither grants nor refuses a request.
func (d Decision) Defers() bool {
	return d == NeedsMoreInfo || d == ReferToCommittee
}

// String returns the wire value.
func (d Decision) String() string {
	return string(d)
}

// Meaning returns the one-line definition, or "" for an unknown decision.
func (d Decision) Meaning() string {
	for _, def := range definitions {
		if def.Decision == d {
			return def.Meaning
		}
	}
	return ""
}

// Parse converts a raw value into a Decision.
// Case is ignored and spaces or hyphens are accepted in place of underscores,
// so "Refer to committee" parses as ReferToCommittee.
func Parse(raw string) (Decision, error) {
	d := Decision(canonicalize(raw))
	if !d.Valid() {
		return "", fmt.Errorf("unknown decision %q (want one of %s)", raw, strings.Join(Names(), ", "))
	}
	return d, nil
}

// Names returns the wire values in prompt order.
func Names() []string {
	names := make([]string, len(definitions))
	for i, d := range definitions {
		names[i] = string(d.Decision)
	}
	return names
}

func canonicalize(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.Trim(s, "*`'\".,;:!")
	return separatorRE.ReplaceAllString(s, "_")
}

var separatorRE = regexp.MustCompile(`[\s\-]+`)
