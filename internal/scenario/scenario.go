// Package scenario loads labeled HOA scenarios and projects them into
// evaluation samples.
//
// # Resource Format
//
// A dataset is a JSON array (or YAML list) of records:
//
//	[
//	  {
//	    "id": "fence-height-01",
//	    "category": "fencing",
//	    "difficulty": "easy",
//	    "input": {"message": "Can I build a 6ft fence?"},
//	    "ground_truth": {"decision": "deny", "reasoning": "Exceeds 4ft limit."},
//	    "persona": {"goal": "Get the 6ft fence approved", "desired_decision": "approve"}
//	  }
//	]
//
// The persona block is optional and only read by the multi-turn simulation.
//
// # Samples
//
// Each scenario becomes exactly one Sample whose Target is
// "Decision: {decision}. {reasoning}". Input order is preserved.
package scenario

import (
	"fmt"

	"github.com/roach88/hoabench/internal/decision"
	"github.com/roach88/hoabench/internal/fingerprint"
)

// Scenario is one labeled evaluation case as it appears in the resource.
type Scenario struct {
	// ID uniquely identifies this scenario within its dataset.
	ID string `json:"id" yaml:"id"`

	// Category is the rule domain, e.g. "fencing" or "noise".
	Category string `json:"category" yaml:"category"`

	// Difficulty is a free-form tag such as "easy" or "hard".
	Difficulty string `json:"difficulty" yaml:"difficulty"`

	Input       Input       `json:"input" yaml:"input"`
	GroundTruth GroundTruth `json:"ground_truth" yaml:"ground_truth"`

	// Persona seeds the homeowner actor in multi-turn simulation.
	// Nil for single-turn scenarios.
	Persona *Persona `json:"persona,omitempty" yaml:"persona,omitempty"`
}

// Input holds the homeowner's opening request or complaint.
type Input struct {
	Message string `json:"message" yaml:"message"`
}

// GroundTruth is the correct outcome for a scenario.
type GroundTruth struct {
	Decision  decision.Decision `json:"decision" yaml:"decision"`
	Reasoning string            `json:"reasoning" yaml:"reasoning"`
}

// Persona describes the homeowner actor driving a simulated episode.
type Persona struct {
	// Name is how the persona signs its messages.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Goal is what the homeowner is trying to achieve.
	Goal string `json:"goal" yaml:"goal"`

	// DesiredDecision is the decision that would grant the goal.
	// Empty means approve.
	DesiredDecision decision.Decision `json:"desired_decision,omitempty" yaml:"desired_decision,omitempty"`

	// Tactics lists pressure strategies the persona may use.
	Tactics []string `json:"tactics,omitempty" yaml:"tactics,omitempty"`
}

// Desired returns the decision that grants the persona's goal.
func (p *Persona) Desired() decision.Decision {
	if p == nil || p.DesiredDecision == "" {
		return decision.Approve
	}
	return p.DesiredDecision
}

// Metadata is the reporting metadata carried by every sample.
type Metadata struct {
	ID         string `json:"id"`
	Category   string `json:"category"`
	Difficulty string `json:"difficulty"`
}

// Sample is the harness-facing projection of a Scenario.
type Sample struct {
	// Input is the homeowner's message.
	Input string `json:"input"`

	// Target is the grading string "Decision: {decision}. {reasoning}".
	Target string `json:"target"`

	Metadata Metadata `json:"metadata"`

	// Decision is the ground-truth decision, kept so solvers and scorers
	// do not have to parse Target.
	Decision decision.Decision `json:"decision"`

	// Persona is copied from the scenario, nil when absent.
	Persona *Persona `json:"persona,omitempty"`

	// Digest identifies the sample by content.
	Digest string `json:"digest"`
}

// Target formats the grading string for a decision and its reasoning.
func Target(d decision.Decision, reasoning string) string {
	return fmt.Sprintf("Decision: %s. %s", d, reasoning)
}

// ToSample projects a scenario into its evaluation sample.
func (s Scenario) ToSample() Sample {
	target := Target(s.GroundTruth.Decision, s.GroundTruth.Reasoning)
	var persona *Persona
	if s.Persona != nil {
		p := *s.Persona
		p.Tactics = append([]string(nil), s.Persona.Tactics...)
		persona = &p
	}
	return Sample{
		Input:  s.Input.Message,
		Target: target,
		Metadata: Metadata{
			ID:         s.ID,
			Category:   s.Category,
			Difficulty: s.Difficulty,
		},
		Decision: s.GroundTruth.Decision,
		Persona:  persona,
		Digest:   fingerprint.Sample(s.ID, s.Input.Message, target),
	}
}

// ToSamples projects scenarios in order.
func ToSamples(scenarios []Scenario) []Sample {
	out := make([]Sample, len(scenarios))
	for i, s := range scenarios {
		out[i] = s.ToSample()
	}
	return out
}
