package task

import (
	"context"
	"fmt"

	"github.com/roach88/hoabench/internal/scenario"
	"github.com/roach88/hoabench/internal/score"
)

// Scorer grades a solver outcome.
type Scorer interface {
	Name() string
	Score(ctx context.Context, env Env, sample scenario.Sample, out Outcome) score.Verdict
}

// TextScorer grades the final answer against the sample target.
type TextScorer struct {
	Scorer score.Scorer
}

func (s TextScorer) Name() string { return s.Scorer.Name() }

func (s TextScorer) Score(ctx context.Context, env Env, sample scenario.Sample, out Outcome) score.Verdict {
	return s.Scorer.Score(ctx, env.Judge, score.Input{Output: out.Output, Target: sample.Target})
}

// EpisodeScorer grades a whole simulated episode.
type EpisodeScorer struct{}

func (EpisodeScorer) Name() string { return "episode" }

func (EpisodeScorer) Score(_ context.Context, _ Env, sample scenario.Sample, out Outcome) score.Verdict {
	if out.Episode == nil {
		return score.Errored(fmt.Errorf("sample %s: no episode to score", sample.Metadata.ID))
	}
	return out.Episode.Verdict()
}
