package scenario

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/hoabench/internal/schema"
)

// Load reads a dataset from the filesystem and returns its samples in
// input order.
func Load(path string) ([]Sample, error) {
	scenarios, err := LoadScenarios(path)
	if err != nil {
		return nil, err
	}
	return ToSamples(scenarios), nil
}

// LoadFS reads a dataset from fsys and returns its samples in input order.
func LoadFS(fsys fs.FS, path string) ([]Sample, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, &DatasetFormatError{Path: path, Reason: "cannot read resource", Err: err}
	}
	scenarios, err := Parse(path, data)
	if err != nil {
		return nil, err
	}
	return ToSamples(scenarios), nil
}

// LoadScenarios reads a dataset and returns the raw scenarios.
func LoadScenarios(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &DatasetFormatError{Path: path, Reason: "cannot read resource", Err: err}
	}
	return Parse(path, data)
}

// Parse decodes and validates dataset bytes. Files ending in .yaml or .yml
// are read as YAML, everything else as JSON. path is used for format
// detection and diagnostics only.
func Parse(path string, data []byte) ([]Scenario, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &DatasetFormatError{Path: path, Reason: "resource is empty"}
	}

	isYAML := isYAMLPath(path)

	var raw any
	if err := decode(data, isYAML, &raw); err != nil {
		return nil, &DatasetFormatError{Path: path, Reason: "malformed " + formatName(isYAML), Err: err}
	}

	if err := schema.Validate(schema.Dataset, raw); err != nil {
		var v *schema.Violation
		if errors.As(err, &v) {
			return nil, &DatasetFormatError{Path: path, Field: v.Field, Reason: v.Message}
		}
		return nil, &DatasetFormatError{Path: path, Reason: "schema validation failed", Err: err}
	}

	var scenarios []Scenario
	if err := decode(data, isYAML, &scenarios); err != nil {
		return nil, &DatasetFormatError{Path: path, Reason: "malformed " + formatName(isYAML), Err: err}
	}

	if err := validateScenarios(path, scenarios); err != nil {
		return nil, err
	}
	return scenarios, nil
}

func decode(data []byte, isYAML bool, v any) error {
	if isYAML {
		return yaml.Unmarshal(data, v)
	}
	return json.Unmarshal(data, v)
}

// validateScenarios checks the rules CUE cannot express: unique ids and
// membership in the decision set.
func validateScenarios(path string, scenarios []Scenario) error {
	seen := make(map[string]int, len(scenarios))
	for i, s := range scenarios {
		if prev, dup := seen[s.ID]; dup {
			return &DatasetFormatError{
				Path:   path,
				Field:  fmt.Sprintf("[%d].id", i),
				Reason: fmt.Sprintf("duplicate id %q (first defined at [%d])", s.ID, prev),
			}
		}
		seen[s.ID] = i

		if !s.GroundTruth.Decision.Valid() {
			return &InvalidDecisionError{
				Path:       path,
				Index:      i,
				ScenarioID: s.ID,
				Value:      string(s.GroundTruth.Decision),
			}
		}

		if s.Persona != nil && s.Persona.DesiredDecision != "" && !s.Persona.DesiredDecision.Valid() {
			return &DatasetFormatError{
				Path:   path,
				Field:  fmt.Sprintf("[%d].persona.desired_decision", i),
				Reason: fmt.Sprintf("unknown decision %q", s.Persona.DesiredDecision),
			}
		}
	}
	return nil
}

func isYAMLPath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func formatName(isYAML bool) string {
	if isYAML {
		return "YAML"
	}
	return "JSON"
}
