package store

import (
	"context"
	"fmt"
	"time"
)

// CreateRun inserts a run. StartedAt is taken from the store's clock when
// zero. Returns an error if the ID already exists.
func (s *Store) CreateRun(ctx context.Context, run Run) (Run, error) {
	if run.ID == "" {
		return Run{}, fmt.Errorf("create run: id is required")
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = s.clock.Now()
	}
	if run.Config == "" {
		run.Config = "{}"
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, task, model, scorer, prompt_digest, sample_count, config, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Task,
		run.Model,
		run.Scorer,
		run.PromptDigest,
		run.SampleCount,
		run.Config,
		formatTime(run.StartedAt),
	)
	if err != nil {
		return Run{}, fmt.Errorf("create run: %w", err)
	}
	return run, nil
}

// FinishRun stamps the run's finish time from the store's clock.
func (s *Store) FinishRun(ctx context.Context, runID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET finished_at = ? WHERE id = ?
	`, formatTime(s.clock.Now()), runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n == 0 {
		return &RunNotFoundError{ID: runID}
	}
	return nil
}

// WriteResult inserts one sample result.
// Uses ON CONFLICT(run_id, sample_id) DO NOTHING for idempotency - a
// second write for the same sample is silently ignored.
//
// Note: The run referenced by RunID must exist (foreign key constraint).
func (s *Store) WriteResult(ctx context.Context, r Result) error {
	transcript, err := marshalTranscript(r.Transcript)
	if err != nil {
		return fmt.Errorf("write result: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO results
		(run_id, seq, sample_id, sample_digest, category, difficulty,
		 status, value, explanation, error, output, transcript,
		 episode_state, episode_digest, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, sample_id) DO NOTHING
	`,
		r.RunID,
		r.Seq,
		r.SampleID,
		r.SampleDigest,
		r.Category,
		r.Difficulty,
		string(r.Status),
		r.Value,
		r.Explanation,
		r.Error,
		r.Output,
		transcript,
		r.EpisodeState,
		r.EpisodeDigest,
		r.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}

func durationFromMillis(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
