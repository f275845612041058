package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/hoabench/internal/score"
)

// RunNotFoundError is returned when no run has the requested ID.
type RunNotFoundError struct {
	ID string
}

func (e *RunNotFoundError) Error() string {
	return fmt.Sprintf("run %s not found", e.ID)
}

// IsRunNotFound reports whether err is (or wraps) a RunNotFoundError.
func IsRunNotFound(err error) bool {
	var nf *RunNotFoundError
	return errors.As(err, &nf)
}

const runColumns = `id, task, model, scorer, prompt_digest, sample_count, config, started_at, finished_at`

// ReadRun returns the run with the given ID.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, &RunNotFoundError{ID: id}
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first, optionally limited to one
// task. limit <= 0 returns all runs.
func (s *Store) ListRuns(ctx context.Context, task string, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs`
	var args []any
	if task != "" {
		query += ` WHERE task = ?`
		args = append(args, task)
	}
	query += ` ORDER BY started_at DESC, id COLLATE BINARY DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadResults returns a run's results in dataset order.
// Returns an empty slice (not nil) if the run has no results.
func (s *Store) ReadResults(ctx context.Context, runID string) ([]Result, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, seq, sample_id, sample_digest, category, difficulty,
		       status, value, explanation, error, output, transcript,
		       episode_state, episode_digest, duration_ms
		FROM results
		WHERE run_id = ?
		ORDER BY seq ASC, sample_id COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	results := []Result{}
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return results, nil
}

// Summary counts a run's results per status. Every status is present in
// the map, with zero for statuses that did not occur.
func (s *Store) Summary(ctx context.Context, runID string) (map[score.Status]int, error) {
	counts := make(map[score.Status]int, len(score.Statuses()))
	for _, st := range score.Statuses() {
		counts[st] = 0
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM results WHERE run_id = ? GROUP BY status
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query summary: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		counts[score.Status(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summary: %w", err)
	}
	return counts, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run      Run
		started  string
		finished sql.NullString
	)
	if err := row.Scan(&run.ID, &run.Task, &run.Model, &run.Scorer, &run.PromptDigest,
		&run.SampleCount, &run.Config, &started, &finished); err != nil {
		return Run{}, err
	}

	var err error
	if run.StartedAt, err = parseTime(started); err != nil {
		return Run{}, err
	}
	if finished.Valid {
		if run.FinishedAt, err = parseTime(finished.String); err != nil {
			return Run{}, err
		}
	}
	return run, nil
}

func scanResult(rows *sql.Rows) (Result, error) {
	var (
		r          Result
		status     string
		transcript string
		durationMS int64
	)
	if err := rows.Scan(&r.RunID, &r.Seq, &r.SampleID, &r.SampleDigest, &r.Category, &r.Difficulty,
		&status, &r.Value, &r.Explanation, &r.Error, &r.Output, &transcript,
		&r.EpisodeState, &r.EpisodeDigest, &durationMS); err != nil {
		return Result{}, fmt.Errorf("scan result: %w", err)
	}

	msgs, err := unmarshalTranscript(transcript)
	if err != nil {
		return Result{}, err
	}
	r.Status = score.Status(status)
	r.Transcript = msgs
	r.Duration = durationFromMillis(durationMS)
	return r, nil
}
