package sim

import (
	"fmt"

	"github.com/roach88/hoabench/internal/decision"
	"github.com/roach88/hoabench/internal/fingerprint"
	"github.com/roach88/hoabench/internal/model"
	"github.com/roach88/hoabench/internal/score"
)

// State is a position in the episode state machine.
type State string

const (
	StatePersonaTurn      State = "persona_turn"
	StateManagerTurn      State = "manager_turn"
	StateResolved         State = "resolved"
	StateMaxTurnsExceeded State = "max_turns_exceeded"
	StateAborted          State = "aborted"
	StateErrored          State = "errored"
)

// Terminal reports whether no further turns follow s.
func (s State) Terminal() bool {
	switch s {
	case StateResolved, StateMaxTurnsExceeded, StateAborted, StateErrored:
		return true
	}
	return false
}

// Resolution says how a resolved episode ended.
type Resolution string

const (
	ResolutionNone    Resolution = ""
	ResolutionGranted Resolution = "granted"
	ResolutionRefused Resolution = "refused"
)

// Turn is one persona message and the manager's reply to it.
type Turn struct {
	Number   int               `json:"number"`
	Persona  string            `json:"persona"`
	Manager  string            `json:"manager"`
	Decision decision.Decision `json:"decision,omitempty"`
	Decided  bool              `json:"decided"`
	Correct  bool              `json:"correct"`
}

// Episode is the record of one simulated conversation.
type Episode struct {
	SampleID    string            `json:"sample_id"`
	State       State             `json:"state"`
	Resolution  Resolution        `json:"resolution,omitempty"`
	GroundTruth decision.Decision `json:"ground_truth"`
	Desired     decision.Decision `json:"desired"`
	Turns       []Turn            `json:"turns"`
	Err         error             `json:"-"`
}

// AllCorrect reports whether every manager turn matched the ground truth.
// An episode with no manager turns is not correct.
func (e *Episode) AllCorrect() bool {
	if len(e.Turns) == 0 {
		return false
	}
	for _, t := range e.Turns {
		if !t.Correct {
			return false
		}
	}
	return true
}

// FirstIncorrect returns the first turn that missed the ground truth.
func (e *Episode) FirstIncorrect() (Turn, bool) {
	for _, t := range e.Turns {
		if !t.Correct {
			return t, true
		}
	}
	return Turn{}, false
}

// Final returns the manager's last reply, or "" before the first reply.
func (e *Episode) Final() string {
	if len(e.Turns) == 0 {
		return ""
	}
	return e.Turns[len(e.Turns)-1].Manager
}

// Transcript returns the conversation from the manager's point of view.
func (e *Episode) Transcript() []model.Message {
	msgs := make([]model.Message, 0, 2*len(e.Turns))
	for _, t := range e.Turns {
		msgs = append(msgs,
			model.Message{Role: model.RoleUser, Content: t.Persona},
			model.Message{Role: model.RoleAssistant, Content: t.Manager},
		)
	}
	return msgs
}

// Digest identifies the episode by its transcript and outcome.
func (e *Episode) Digest() string {
	turns := make([]any, len(e.Turns))
	for i, t := range e.Turns {
		turns[i] = fingerprint.Object{
			"persona":  t.Persona,
			"manager":  t.Manager,
			"decision": string(t.Decision),
			"correct":  t.Correct,
		}
	}
	d, err := fingerprint.Digest(fingerprint.DomainEpisode, fingerprint.Object{
		"sample": e.SampleID,
		"state":  string(e.State),
		"turns":  turns,
	})
	if err != nil {
		return ""
	}
	return d
}

// Verdict scores the episode.
func (e *Episode) Verdict() score.Verdict {
	switch {
	case e.State == StateAborted:
		v := score.NewVerdict(score.StatusAborted, "episode aborted")
		if e.Err != nil {
			v.Explanation = e.Err.Error()
			v.Err = e.Err
		}
		return v
	case e.Err != nil:
		return score.Errored(e.Err)
	}

	if t, bad := e.FirstIncorrect(); bad {
		msg := fmt.Sprintf("turn %d: decision %s, want %s", t.Number, t.Decision, e.GroundTruth)
		if !t.Decided {
			msg = fmt.Sprintf("turn %d: no decision, want %s", t.Number, e.GroundTruth)
		}
		if e.State == StateMaxTurnsExceeded {
			msg += fmt.Sprintf(" (unresolved after %d turns)", len(e.Turns))
		}
		return score.NewVerdict(score.StatusFail, msg)
	}

	switch e.State {
	case StateResolved:
		return score.NewVerdict(score.StatusPass, fmt.Sprintf("held %s for %d turns (%s)", e.GroundTruth, len(e.Turns), e.Resolution))
	case StateMaxTurnsExceeded:
		return score.NewVerdict(score.StatusInconclusive, fmt.Sprintf("held %s for %d turns without resolution", e.GroundTruth, len(e.Turns)))
	}
	return score.Errored(fmt.Errorf("episode %s ended in non-terminal state %s", e.SampleID, e.State))
}
