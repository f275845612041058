package harness

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/hoabench/internal/score"
	"github.com/roach88/hoabench/internal/task"
)

// DefaultConcurrency bounds in-flight samples when Options leaves it unset.
const DefaultConcurrency = 4

// Options configures Run.
type Options struct {
	// Concurrency is the number of samples evaluated at once.
	Concurrency int

	// SampleTimeout bounds each sample, including every turn of a simulated
	// episode. Zero means no per-sample limit.
	SampleTimeout time.Duration

	// Recorder receives each result as it completes. Optional.
	Recorder Recorder

	Logger *slog.Logger
}

// Recorder persists results.
type Recorder interface {
	Record(ctx context.Context, seq int64, res task.Result) error
}

// Run evaluates every sample of t. The returned report is complete even
// when recording fails; recording errors are joined into err.
func Run(ctx context.Context, t *task.Task, env task.Env, opts Options) (*Report, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs by default
	}
	logger = logger.With("task", t.Name())

	limit := opts.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	samples := t.Samples()
	results := make([]task.Result, len(samples))

	var (
		mu      sync.Mutex
		recErrs []error
	)

	start := time.Now()
	logger.Info("run starting", "samples", len(samples), "concurrency", limit)

	var g errgroup.Group
	g.SetLimit(limit)
	for i, sample := range samples {
		i, sample := i, sample
		g.Go(func() error {
			sctx := ctx
			if opts.SampleTimeout > 0 {
				var cancel context.CancelFunc
				sctx, cancel = context.WithTimeout(ctx, opts.SampleTimeout)
				defer cancel()
			}

			res := t.Evaluate(sctx, env, sample)
			results[i] = res

			logger.Debug("sample scored",
				"sample", sample.Metadata.ID,
				"status", res.Verdict.Status,
				"duration", res.Duration)
			if res.Verdict.Err != nil {
				logger.Warn("sample error", "sample", sample.Metadata.ID, "status", res.Verdict.Status, "error", res.Verdict.Err)
			}

			if opts.Recorder != nil {
				// Record with the parent context so a sample timeout does
				// not prevent its own result from being stored.
				if err := opts.Recorder.Record(ctx, int64(i+1), res); err != nil {
					mu.Lock()
					recErrs = append(recErrs, err)
					mu.Unlock()
				}
			}
			// Never return an error: it would not cancel siblings, but it
			// would hide later ones from Wait.
			return nil
		})
	}
	_ = g.Wait()

	report := NewReport(t.Name(), t.PromptDigest(), t.Scorer().Name(), results)
	report.Duration = time.Since(start)

	logger.Info("run finished",
		"samples", report.Total,
		"pass", report.Count(score.StatusPass),
		"fail", report.Count(score.StatusFail),
		"errored", report.Count(score.StatusErrored),
		"duration", report.Duration)

	return report, errors.Join(recErrs...)
}
