package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestValidate_EmbeddedResources(t *testing.T) {
	out, err := execute(t, &RootOptions{Format: "text"}, NewValidateCommand)
	require.NoError(t, err)

	assert.Contains(t, out, "\u2713 rulebook: 16 rules")
	assert.Contains(t, out, "\u2713 embedded static dataset: 18 scenarios")
	assert.Contains(t, out, "\u2713 embedded simulation dataset: 5 scenarios")
	assert.Contains(t, out, "\u2713 All resources valid")
}

func TestValidate_JSONSuccess(t *testing.T) {
	dir := t.TempDir()
	ds := writeFile(t, dir, "static.json", `[
  {"id": "S1", "category": "fencing", "difficulty": "easy",
   "input": {"message": "Can I build a 6ft fence?"},
   "ground_truth": {"decision": "deny", "reasoning": "Exceeds 4ft limit."}}
]`)

	out, err := execute(t, &RootOptions{Format: "json"}, NewValidateCommand, "--scenarios", ds)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	require.Len(t, resp.Data.Datasets, 1)
	assert.Equal(t, DatasetSummary{Resource: ds, Scenarios: 1}, resp.Data.Datasets[0])
}

func TestValidate_CollectsEveryError(t *testing.T) {
	dir := t.TempDir()
	badDecision := writeFile(t, dir, "bad.json", `[
  {"id": "S1", "category": "fencing", "difficulty": "easy",
   "input": {"message": "m"}, "ground_truth": {"decision": "reject", "reasoning": "r"}}
]`)
	malformed := writeFile(t, dir, "broken.yaml", "- id: [x\n")
	tmpl := writeFile(t, dir, "manager.txt", "no placeholder here")

	out, err := execute(t, &RootOptions{Format: "json"}, NewValidateCommand,
		"--scenarios", badDecision, "--scenarios", malformed, "--template", tmpl)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	assert.Equal(t, 16, resp.Data.Rules)

	require.Len(t, resp.Data.Errors, 3)
	assert.Equal(t, ErrCodeTemplate, resp.Data.Errors[0].Code)
	assert.Equal(t, ErrCodeInvalidDecision, resp.Data.Errors[1].Code)
	assert.Equal(t, badDecision, resp.Data.Errors[1].Resource)
	assert.Equal(t, ErrCodeDataset, resp.Data.Errors[2].Code)
	assert.Equal(t, ErrCodeTemplate, resp.Error.Code)
}

func TestValidate_MissingFileIsCommandError(t *testing.T) {
	out, err := execute(t, &RootOptions{Format: "text"}, NewValidateCommand,
		"--rules", "/nonexistent/rules.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeRulebook)
	assert.Contains(t, out, "\u2717 Validation failed")
	assert.Contains(t, out, "/nonexistent/rules.yaml")
}
