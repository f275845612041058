package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/hoabench/internal/score"
	"github.com/roach88/hoabench/internal/testutil"
)

// createTestStore creates a new store on a temp file with a deterministic
// clock.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithClock(testutil.NewDeterministicClock()))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun inserts a run with minimal required fields.
func createTestRun(t *testing.T, s *Store, id, task string) Run {
	t.Helper()
	run, err := s.CreateRun(context.Background(), Run{
		ID:           id,
		Task:         task,
		Model:        "test-model",
		Scorer:       "decision",
		PromptDigest: "test-digest",
		SampleCount:  3,
	})
	if err != nil {
		t.Fatalf("CreateRun() failed: %v", err)
	}
	return run
}

// createTestResult builds a result with minimal required fields.
func createTestResult(runID, sampleID string, seq int64, status score.Status) Result {
	return Result{
		RunID:        runID,
		Seq:          seq,
		SampleID:     sampleID,
		SampleDigest: "digest-" + sampleID,
		Category:     "fencing",
		Difficulty:   "easy",
		Status:       status,
		Value:        status.Value(),
		Explanation:  "explanation " + sampleID,
		Output:       "Decision: deny.",
		Duration:     1500 * time.Millisecond,
	}
}
