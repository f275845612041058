// Package schema validates decoded benchmark resources against CUE
// definitions before they are bound to Go types.
//
// Validation runs on the generic decoded document (maps, slices, scalars) so
// that YAML and JSON resources share one set of shape rules, and so a
// violation can be reported by its path inside the document.
package schema

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed resources.cue
var resourcesCUE string

// Definition names a top-level CUE definition in resources.cue.
type Definition string

const (
	Rulebook Definition = "#Rulebook"
	Dataset  Definition = "#Dataset"
)

// Violation describes the first shape error found in a document.
type Violation struct {
	// Field is the offending path in index notation, e.g. "rules[2].source".
	Field string

	// Message is CUE's description of the problem.
	Message string
}

func (v *Violation) Error() string {
	if v.Field == "" {
		return v.Message
	}
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

// cue.Context is not safe for concurrent use.
var (
	mu     sync.Mutex
	ctx    *cue.Context
	schema cue.Value
)

func load() (cue.Value, error) {
	if ctx == nil {
		ctx = cuecontext.New()
		schema = ctx.CompileString(resourcesCUE, cue.Filename("resources.cue"))
	}
	if err := schema.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("compile resources.cue: %w", err)
	}
	return schema, nil
}

// Validate checks doc against the named definition.
// Returns a *Violation when the document does not conform.
func Validate(def Definition, doc any) error {
	mu.Lock()
	defer mu.Unlock()

	s, err := load()
	if err != nil {
		return err
	}

	d := s.LookupPath(cue.ParsePath(string(def)))
	if !d.Exists() {
		return fmt.Errorf("unknown schema definition %s", def)
	}

	v := ctx.Encode(doc)
	if err := v.Err(); err != nil {
		return &Violation{Message: err.Error()}
	}

	if err := d.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return toViolation(err)
	}
	return nil
}

// toViolation keeps the first CUE error and rewrites its path.
func toViolation(err error) *Violation {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &Violation{Message: err.Error()}
	}
	first := errs[0]
	format, args := first.Msg()
	return &Violation{
		Field:   FieldPath(first.Path()),
		Message: fmt.Sprintf(format, args...),
	}
}

// FieldPath renders CUE path selectors as "rules[2].source".
func FieldPath(selectors []string) string {
	var b strings.Builder
	for _, sel := range selectors {
		if _, err := strconv.Atoi(sel); err == nil {
			b.WriteString("[" + sel + "]")
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(sel)
	}
	return b.String()
}
