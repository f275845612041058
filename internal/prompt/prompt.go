// Package prompt composes the system instructions given to the HOA manager
// and to the homeowner persona.
package prompt

import (
	"fmt"
	"strings"

	"github.com/roach88/hoabench/internal/decision"
	"github.com/roach88/hoabench/internal/rulebook"
)

// Placeholder is the single substitution point in a manager template.
const Placeholder = "{rules_text}"

// DefaultTemplate is the Camino Village manager instruction.
var DefaultTemplate = buildDefaultTemplate()

func buildDefaultTemplate() string {
	var b strings.Builder
	b.WriteString("You are an HOA manager for Camino Village HOA. ")
	b.WriteString("Respond to homeowner requests and violation reports by applying the CC&R rules accurately.\n")
	b.WriteString("\n")
	b.WriteString("Your available decisions are:\n")
	for _, def := range decision.Definitions() {
		fmt.Fprintf(&b, "- %s: %s\n", def.Decision, def.Meaning)
	}
	b.WriteString("\n")
	b.WriteString("For each request, provide:\n")
	b.WriteString("1. Your decision (one of the options above)\n")
	b.WriteString("2. Brief reasoning citing the relevant rule\n")
	b.WriteString("\n")
	b.WriteString("CC&R Rules:\n")
	b.WriteString(Placeholder + "\n")
	return b.String()
}

// TemplateError is returned when a template cannot be used for composition.
type TemplateError struct {
	Reason string
	Count  int // occurrences of Placeholder found
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("invalid prompt template: %s (found %d occurrences of %s)", e.Reason, e.Count, Placeholder)
}

// CheckTemplate verifies tmpl contains Placeholder exactly once.
func CheckTemplate(tmpl string) error {
	switch n := strings.Count(tmpl, Placeholder); {
	case n == 0:
		return &TemplateError{Reason: "missing rules placeholder", Count: 0}
	case n > 1:
		return &TemplateError{Reason: "rules placeholder must appear exactly once", Count: n}
	}
	return nil
}

// Compose substitutes the rulebook's canonical text into tmpl.
// An empty tmpl selects DefaultTemplate.
func Compose(rb *rulebook.Rulebook, tmpl string) (string, error) {
	if rb == nil {
		return "", fmt.Errorf("compose prompt: nil rulebook")
	}
	if tmpl == "" {
		tmpl = DefaultTemplate
	}
	if err := CheckTemplate(tmpl); err != nil {
		return "", err
	}
	return strings.Replace(tmpl, Placeholder, rb.Text(), 1), nil
}
