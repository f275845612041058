package scenario

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/hoabench/internal/decision"
)

// DatasetFormatError is returned when a scenario resource is missing,
// malformed, or has an invalid record.
type DatasetFormatError struct {
	Path   string
	Field  string // e.g. "[3].input.message"; empty for whole-resource errors
	Reason string
	Err    error
}

func (e *DatasetFormatError) Error() string {
	msg := "invalid dataset " + e.Path
	if e.Field != "" {
		msg += ": " + e.Field
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DatasetFormatError) Unwrap() error {
	return e.Err
}

// InvalidDecisionError is returned when a scenario's ground-truth decision is
// not one of the enumerated decisions.
type InvalidDecisionError struct {
	Path       string
	Index      int
	ScenarioID string
	Value      string
}

func (e *InvalidDecisionError) Error() string {
	return fmt.Sprintf("invalid dataset %s: [%d].ground_truth.decision: scenario %q has decision %q (want one of %s)",
		e.Path, e.Index, e.ScenarioID, e.Value, strings.Join(decision.Names(), ", "))
}

// IsFormatError reports whether err is (or wraps) a DatasetFormatError.
func IsFormatError(err error) bool {
	var fe *DatasetFormatError
	return errors.As(err, &fe)
}

// IsInvalidDecision reports whether err is (or wraps) an InvalidDecisionError.
func IsInvalidDecision(err error) bool {
	var ide *InvalidDecisionError
	return errors.As(err, &ide)
}
