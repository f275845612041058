// Package score grades a model's free-text answer against a sample target.
//
// Every scorer returns a Verdict rather than an error: a judge that cannot
// be reached or cannot be understood yields StatusErrored, which reports
// keep separate from StatusFail.
package score

import (
	"errors"
	"fmt"
)

// Status is the outcome class of a verdict.
type Status string

const (
	StatusPass         Status = "pass"
	StatusPartial      Status = "partial"
	StatusFail         Status = "fail"
	StatusErrored      Status = "errored"
	StatusInconclusive Status = "inconclusive"
	StatusAborted      Status = "aborted"
)

// Statuses lists every status in report order.
func Statuses() []Status {
	return []Status{StatusPass, StatusPartial, StatusFail, StatusErrored, StatusInconclusive, StatusAborted}
}

// Value returns the numeric score of a status: 1 for pass, 0.5 for
// partial, 0 otherwise.
func (s Status) Value() float64 {
	switch s {
	case StatusPass:
		return 1
	case StatusPartial:
		return 0.5
	default:
		return 0
	}
}

// Graded reports whether the status reflects an actual grade (as opposed to
// an error, abort, or undecided episode).
func (s Status) Graded() bool {
	return s == StatusPass || s == StatusPartial || s == StatusFail
}

// Verdict is the result of scoring one sample.
type Verdict struct {
	Status      Status  `json:"status"`
	Value       float64 `json:"value"`
	Explanation string  `json:"explanation,omitempty"`
	Err         error   `json:"-"`
}

// NewVerdict builds a verdict whose Value follows its Status.
func NewVerdict(s Status, explanation string) Verdict {
	return Verdict{Status: s, Value: s.Value(), Explanation: explanation}
}

// Errored builds an errored verdict carrying err.
func Errored(err error) Verdict {
	return Verdict{Status: StatusErrored, Explanation: err.Error(), Err: err}
}

// JudgeError is returned when the judge is missing, fails, or returns a
// grade that cannot be interpreted.
type JudgeError struct {
	Reason string
	Err    error
}

func (e *JudgeError) Error() string {
	if e.Err == nil {
		return "judge error: " + e.Reason
	}
	return fmt.Sprintf("judge error: %s: %v", e.Reason, e.Err)
}

func (e *JudgeError) Unwrap() error {
	return e.Err
}

// IsJudgeError reports whether err is (or wraps) a JudgeError.
func IsJudgeError(err error) bool {
	var je *JudgeError
	return errors.As(err, &je)
}
