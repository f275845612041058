package score

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/hoabench/internal/decision"
)

// Input is what a scorer grades: the model's final answer and the target.
type Input struct {
	Output string
	Target string
}

// Scorer grades one answer. judge may be nil for scorers that do not need
// one.
type Scorer interface {
	Name() string
	Score(ctx context.Context, judge Judge, in Input) Verdict
}

// Match passes iff the normalized output equals the normalized target.
// Used for smoke tests.
type Match struct{}

func (Match) Name() string { return "match" }

func (Match) Score(_ context.Context, _ Judge, in Input) Verdict {
	if Normalize(in.Output) == Normalize(in.Target) {
		return NewVerdict(StatusPass, "output matches target")
	}
	return NewVerdict(StatusFail, "output does not match target")
}

var folder = cases.Fold()

// Normalize applies NFC, full case folding, and whitespace collapsing.
func Normalize(s string) string {
	s = norm.NFC.String(s)
	s = folder.String(s)
	return strings.Join(strings.Fields(s), " ")
}

// Fact delegates to a judge that compares the answer's facts with the
// target. C maps to pass, P to partial, and I to fail.
type Fact struct{}

func (Fact) Name() string { return "model_graded_fact" }

func (Fact) Score(ctx context.Context, judge Judge, in Input) Verdict {
	if judge == nil {
		return Errored(&JudgeError{Reason: "no judge configured"})
	}
	g, err := judge.Grade(ctx, in.Output, in.Target)
	if err != nil {
		if !IsJudgeError(err) {
			err = &JudgeError{Reason: "grading failed", Err: err}
		}
		return Errored(err)
	}

	var status Status
	switch g.Grade {
	case GradeCorrect:
		status = StatusPass
	case GradePartial:
		status = StatusPartial
	case GradeIncorrect:
		status = StatusFail
	default:
		return Errored(&JudgeError{Reason: fmt.Sprintf("unrecognized grade %q", g.Grade)})
	}
	return NewVerdict(status, g.Explanation)
}

// Decision compares the decision extracted from the output with the
// decision stated in the target. It needs no judge.
type Decision struct{}

func (Decision) Name() string { return "decision" }

func (Decision) Score(_ context.Context, _ Judge, in Input) Verdict {
	want, ok := decision.Extract(in.Target)
	if !ok {
		return Errored(fmt.Errorf("target has no decision: %q", in.Target))
	}
	got, ok := decision.Extract(in.Output)
	if !ok {
		return NewVerdict(StatusFail, "no decision found in output")
	}
	if got != want {
		return NewVerdict(StatusFail, fmt.Sprintf("decision %s, want %s", got, want))
	}
	return NewVerdict(StatusPass, fmt.Sprintf("decision %s", got))
}

// ByName returns the scorer registered under name.
func ByName(name string) (Scorer, error) {
	switch name {
	case Match{}.Name():
		return Match{}, nil
	case Fact{}.Name(), "fact":
		return Fact{}, nil
	case Decision{}.Name():
		return Decision{}, nil
	}
	return nil, fmt.Errorf("unknown scorer %q", name)
}
