// Package task assembles evaluation tasks: a dataset, the solver that
// produces an answer for each sample, and the scorer that grades it.
//
// A Task is built once and never modified. Every sample of a task is
// solved with the same system instruction.
package task

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/hoabench/internal/fingerprint"
	"github.com/roach88/hoabench/internal/model"
	"github.com/roach88/hoabench/internal/scenario"
	"github.com/roach88/hoabench/internal/score"
	"github.com/roach88/hoabench/internal/sim"
)

// Env carries the collaborators a task needs at evaluation time.
type Env struct {
	// Generator is the model under evaluation.
	Generator model.Generator

	// Persona drives the homeowner in simulated episodes.
	Persona model.Generator

	// Judge grades answers for judged scorers.
	Judge score.Judge
}

// Outcome is what a solver produced for one sample.
type Outcome struct {
	// Output is the manager's final answer.
	Output string

	// Episode is set by multi-turn solvers.
	Episode *sim.Episode
}

// Result is the evaluation of one sample.
type Result struct {
	Sample   scenario.Sample
	Outcome  Outcome
	Verdict  score.Verdict
	Duration time.Duration
}

// Task is an immutable evaluation definition.
type Task struct {
	name         string
	description  string
	samples      []scenario.Sample
	solver       Solver
	scorer       Scorer
	systemPrompt string
	promptDigest string
}

// Option configures a Task under construction.
type Option func(*Task)

// WithSystemPrompt records the system instruction shared by all samples.
func WithSystemPrompt(prompt string) Option {
	return func(t *Task) {
		t.systemPrompt = prompt
		t.promptDigest = fingerprint.Prompt(prompt)
	}
}

// WithDescription sets a one-line description shown by listings.
func WithDescription(desc string) Option {
	return func(t *Task) {
		t.description = desc
	}
}

// New builds a task. The dataset is copied.
func New(name string, dataset []scenario.Sample, solver Solver, scorer Scorer, opts ...Option) (*Task, error) {
	if name == "" {
		return nil, fmt.Errorf("task name is required")
	}
	if solver == nil {
		return nil, fmt.Errorf("task %s: solver is required", name)
	}
	if scorer == nil {
		return nil, fmt.Errorf("task %s: scorer is required", name)
	}

	t := &Task{
		name:    name,
		samples: append([]scenario.Sample(nil), dataset...),
		solver:  solver,
		scorer:  scorer,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

func (t *Task) Name() string         { return t.name }
func (t *Task) Description() string  { return t.description }
func (t *Task) Solver() Solver       { return t.solver }
func (t *Task) Scorer() Scorer       { return t.scorer }
func (t *Task) SystemPrompt() string { return t.systemPrompt }
func (t *Task) PromptDigest() string { return t.promptDigest }
func (t *Task) Len() int             { return len(t.samples) }

// Samples returns a copy of the dataset in order.
func (t *Task) Samples() []scenario.Sample {
	return append([]scenario.Sample(nil), t.samples...)
}

// Evaluate solves and scores one sample. It never returns an error:
// failures are carried by the verdict.
func (t *Task) Evaluate(ctx context.Context, env Env, sample scenario.Sample) Result {
	start := time.Now()
	res := Result{Sample: sample}

	out, err := t.solver.Solve(ctx, env, sample)
	res.Outcome = out
	switch {
	case err != nil && ctx.Err() != nil:
		res.Verdict = aborted(sample, ctx.Err())
	case err != nil:
		res.Verdict = score.Errored(err)
	default:
		res.Verdict = t.scorer.Score(ctx, env, sample, out)
		// The deadline may also expire while a judge is grading.
		if res.Verdict.Status == score.StatusErrored && ctx.Err() != nil {
			res.Verdict = aborted(sample, ctx.Err())
		}
	}

	res.Duration = time.Since(start)
	return res
}

func aborted(sample scenario.Sample, err error) score.Verdict {
	return score.Verdict{
		Status:      score.StatusAborted,
		Explanation: fmt.Sprintf("sample %s aborted: %v", sample.Metadata.ID, err),
		Err:         err,
	}
}
