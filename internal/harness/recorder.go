package harness

import (
	"context"

	"github.com/roach88/hoabench/internal/store"
	"github.com/roach88/hoabench/internal/task"
)

// StoreRecorder writes each result to a run in the store.
type StoreRecorder struct {
	Store *store.Store
	RunID string
}

func (r StoreRecorder) Record(ctx context.Context, seq int64, res task.Result) error {
	return r.Store.WriteResult(ctx, ToStored(r.RunID, seq, res))
}

// ToStored converts a task result into its stored form.
func ToStored(runID string, seq int64, res task.Result) store.Result {
	out := store.Result{
		RunID:        runID,
		Seq:          seq,
		SampleID:     res.Sample.Metadata.ID,
		SampleDigest: res.Sample.Digest,
		Category:     res.Sample.Metadata.Category,
		Difficulty:   res.Sample.Metadata.Difficulty,
		Status:       res.Verdict.Status,
		Value:        res.Verdict.Value,
		Explanation:  res.Verdict.Explanation,
		Output:       res.Outcome.Output,
		Duration:     res.Duration,
	}
	if res.Verdict.Err != nil {
		out.Error = res.Verdict.Err.Error()
	}
	if ep := res.Outcome.Episode; ep != nil {
		out.Transcript = ep.Transcript()
		out.EpisodeState = string(ep.State)
		out.EpisodeDigest = ep.Digest()
	}
	return out
}
