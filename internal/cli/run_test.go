package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hoabench/internal/score"
	"github.com/roach88/hoabench/internal/store"
)

const denial = "Decision: deny. Not permitted under the CC&Rs."

type runResponse struct {
	Status string     `json:"status"`
	Data   reportData `json:"data"`
	Error  *CLIError  `json:"error"`
}

type reportData struct {
	Task    string               `json:"task"`
	Scorer  string               `json:"scorer"`
	Total   int                  `json:"total"`
	Counts  map[score.Status]int `json:"counts"`
	RunID   string               `json:"run_id"`
	Mean    float64              `json:"mean"`
	Graded  int                  `json:"graded"`
	Entries []struct {
		SampleID string       `json:"sample_id"`
		Status   score.Status `json:"status"`
		Turns    int          `json:"turns"`
	} `json:"entries"`
}

func decodeRun(t *testing.T, out string) runResponse {
	t.Helper()
	var resp runResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp
}

func TestRun_OfflineAllPass(t *testing.T) {
	opts := &RootOptions{Format: "text", NewGenerator: replyAll(denial)}

	out, err := execute(t, opts, NewRunCommand,
		"hoa_static", "--offline", "--no-store", "--id", "fence-height-01", "--id", "trash-01")
	require.NoError(t, err)

	assert.Contains(t, out, "Task:    hoa_static (scorer decision")
	assert.Contains(t, out, "Samples: 2  pass 2  partial 0  fail 0  errored 0  inconclusive 0  aborted 0")
	assert.Contains(t, out, "Mean:    1.000 over 2 graded")
	assert.NotContains(t, out, "Run:")
}

func TestRun_FailuresExitWithOne(t *testing.T) {
	opts := &RootOptions{Format: "text", NewGenerator: replyAll(denial)}

	out, err := execute(t, opts, NewRunCommand, "hoa_static", "--offline", "--no-store", "--category", "noise")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "3 of 3 samples did not pass")

	assert.Contains(t, out, "fail 3")
	assert.Contains(t, out, "noise-01: decision deny, want violation")
}

func TestRun_UsesJudgeModel(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "hoabench.yaml", `
agent:
  model: agent-model
judge:
  model: judge-model
store: ""
`)
	opts := &RootOptions{
		Format:     "json",
		ConfigPath: cfg,
		NewGenerator: replyByModel(map[string]string{
			"agent-model": denial,
			"judge-model": "The answer denies the fence.\nGRADE: P",
		}),
	}

	out, err := execute(t, opts, NewRunCommand, "hoa_static", "--id", "fence-height-01")
	require.Error(t, err, "partial is not a pass")
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeRun(t, out)
	assert.Equal(t, "model_graded_fact", resp.Data.Scorer)
	assert.Equal(t, 1, resp.Data.Counts[score.StatusPartial])
	assert.InDelta(t, 0.5, resp.Data.Mean, 1e-9)
}

func TestRun_OfflineNeverBuildsJudge(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "hoabench.yaml", `
agent:
  model: agent-model
judge:
  model: unreachable
`)
	opts := &RootOptions{
		Format:       "json",
		ConfigPath:   cfg,
		NewGenerator: replyByModel(map[string]string{"agent-model": denial}),
	}

	_, err := execute(t, opts, NewRunCommand, "hoa_static", "--offline", "--no-store", "--id", "rent-01")
	require.NoError(t, err)
}

func TestRun_SimulationOffline(t *testing.T) {
	opts := &RootOptions{Format: "json", NewGenerator: replyAll(denial)}

	out, err := execute(t, opts, NewRunCommand,
		"hoa_simulation", "--offline", "--no-store", "--id", "sim-fence-01", "--max-turns", "4")
	require.NoError(t, err)

	resp := decodeRun(t, out)
	assert.Equal(t, "hoa_simulation", resp.Data.Task)
	assert.Equal(t, "episode", resp.Data.Scorer)
	require.Len(t, resp.Data.Entries, 1)
	assert.Equal(t, score.StatusPass, resp.Data.Entries[0].Status)
	assert.Equal(t, 2, resp.Data.Entries[0].Turns, "two consecutive refusals end the episode")
}

func TestRun_RecordsAndReports(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	opts := &RootOptions{
		Format:       "json",
		NewGenerator: replyAll(denial),
		RunIDs:       store.NewFixedGenerator("run-0001"),
	}

	out, err := execute(t, opts, NewRunCommand,
		"hoa_static", "--offline", "--db", db, "--category", "fencing")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	run := decodeRun(t, out)
	assert.Equal(t, "run-0001", run.Data.RunID)
	assert.Equal(t, 4, run.Data.Total)
	assert.Equal(t, 1, run.Data.Counts[score.StatusPass])

	out, err = execute(t, &RootOptions{Format: "json"}, NewReportCommand, "run-0001", "--db", db)
	require.NoError(t, err)
	again := decodeRun(t, out)
	assert.Equal(t, run.Data.Counts, again.Data.Counts)
	assert.Equal(t, run.Data.Entries, again.Data.Entries)
	assert.Equal(t, "decision", again.Data.Scorer)

	out, err = execute(t, &RootOptions{Format: "text"}, NewReportCommand, "--db", db)
	require.NoError(t, err)
	got := lines(out)
	require.Len(t, got, 2)
	assert.Contains(t, got[1], "run-0001")
	assert.Contains(t, got[1], "finished")
}

func TestRun_CommandErrors(t *testing.T) {
	dir := t.TempDir()
	badCfg := writeFile(t, dir, "bad.yaml", "concurency: 2\n")

	tests := []struct {
		name string
		opts *RootOptions
		args []string
		code string
	}{
		{"unknown task", &RootOptions{}, []string{"hoa_nope", "--no-store"}, ErrCodeUnknownTask},
		{"bad config file", &RootOptions{ConfigPath: badCfg}, []string{"hoa_static"}, ErrCodeConfig},
		{"bad flag value", &RootOptions{}, []string{"hoa_static", "--concurrency", "0"}, ErrCodeConfig},
		{"unknown scorer", &RootOptions{}, []string{"hoa_static", "--scorer", "vibes"}, ErrCodeConfig},
		{"missing dataset", &RootOptions{}, []string{"hoa_static", "--scenarios", filepath.Join(dir, "none.json")}, ErrCodeDataset},
		{"model client", &RootOptions{NewGenerator: replyByModel(nil)}, []string{"hoa_static", "--offline", "--no-store"}, ErrCodeModel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.Format = "json"
			out, err := execute(t, tt.opts, NewRunCommand, tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))

			resp := decodeRun(t, out)
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestReport_Errors(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")

	out, err := execute(t, &RootOptions{Format: "text"}, NewReportCommand, "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "No runs recorded\n", out)

	out, err = execute(t, &RootOptions{Format: "text"}, NewReportCommand, "missing-run", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error ["+ErrCodeRunNotFound+"]")

	_, err = os.Stat(db)
	require.NoError(t, err, "report opens the store it was pointed at")
}
