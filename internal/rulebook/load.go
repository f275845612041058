package rulebook

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/hoabench/internal/schema"
)

// RulebookFormatError is returned when a rulebook resource is missing,
// malformed, or has an invalid rule record. A task cannot be built from it.
type RulebookFormatError struct {
	// Path is the resource that failed to load.
	Path string

	// Field is the offending location, e.g. "rules[2].source". Empty when the
	// whole resource is unusable.
	Field string

	// Reason is a human-readable description.
	Reason string

	// Err is the underlying cause, if any.
	Err error
}

func (e *RulebookFormatError) Error() string {
	msg := "invalid rulebook " + e.Path
	if e.Field != "" {
		msg += ": " + e.Field
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RulebookFormatError) Unwrap() error {
	return e.Err
}

// IsFormatError reports whether err is (or wraps) a RulebookFormatError.
func IsFormatError(err error) bool {
	var fe *RulebookFormatError
	return errors.As(err, &fe)
}

// document is the typed form of a rulebook resource.
type document struct {
	Rules []Rule `yaml:"rules"`
}

// Load reads a rulebook from the filesystem.
func Load(path string) (*Rulebook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &RulebookFormatError{Path: path, Reason: "cannot read resource", Err: err}
	}
	return Parse(path, data)
}

// LoadFS reads a rulebook from fsys. Used for embedded resources.
func LoadFS(fsys fs.FS, path string) (*Rulebook, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, &RulebookFormatError{Path: path, Reason: "cannot read resource", Err: err}
	}
	return Parse(path, data)
}

// Parse builds a Rulebook from resource bytes. path is only used for
// diagnostics. JSON input is accepted because it parses as YAML.
func Parse(path string, data []byte) (*Rulebook, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &RulebookFormatError{Path: path, Reason: "resource is empty"}
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &RulebookFormatError{Path: path, Reason: "malformed " + formatName(path), Err: err}
	}

	if err := schema.Validate(schema.Rulebook, raw); err != nil {
		var v *schema.Violation
		if errors.As(err, &v) {
			return nil, &RulebookFormatError{Path: path, Field: v.Field, Reason: v.Message}
		}
		return nil, &RulebookFormatError{Path: path, Reason: "schema validation failed", Err: err}
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &RulebookFormatError{Path: path, Reason: "malformed " + formatName(path), Err: err}
	}

	rb, err := New(doc.Rules)
	if err != nil {
		field, reason := splitFieldReason(err.Error())
		return nil, &RulebookFormatError{Path: path, Field: field, Reason: reason}
	}
	return rb, nil
}

func formatName(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return "JSON"
	}
	return "YAML"
}

// splitFieldReason splits "rules[1]: duplicate id" into its two halves.
func splitFieldReason(msg string) (string, string) {
	if strings.HasPrefix(msg, "rules[") {
		if i := strings.Index(msg, ": "); i > 0 {
			return msg[:i], msg[i+2:]
		}
	}
	return "", msg
}
