package task

import (
	"context"
	"fmt"

	"github.com/roach88/hoabench/internal/model"
	"github.com/roach88/hoabench/internal/scenario"
	"github.com/roach88/hoabench/internal/sim"
)

// Solver produces the model's answer for one sample.
type Solver interface {
	Name() string
	Solve(ctx context.Context, env Env, sample scenario.Sample) (Outcome, error)
}

// SingleTurn installs the system instruction and generates once.
type SingleTurn struct {
	SystemPrompt string
}

func (SingleTurn) Name() string { return "single_turn" }

func (s SingleTurn) Solve(ctx context.Context, env Env, sample scenario.Sample) (Outcome, error) {
	if env.Generator == nil {
		return Outcome{}, &model.GenerationError{Err: fmt.Errorf("no model configured")}
	}
	conv := model.Conversation{System: s.SystemPrompt}.With(model.RoleUser, sample.Input)
	out, err := env.Generator.Generate(ctx, conv)
	if err != nil {
		return Outcome{}, model.WrapError("", err)
	}
	return Outcome{Output: out}, nil
}

// Simulation plays a multi-turn episode against the sample's persona.
// Episode failures are recorded on the episode, not returned.
type Simulation struct {
	SystemPrompt string
	Protocol     *sim.Protocol
}

func (Simulation) Name() string { return "simulation" }

func (s Simulation) Solve(ctx context.Context, env Env, sample scenario.Sample) (Outcome, error) {
	ep := s.Protocol.Run(ctx, s.SystemPrompt, sim.Participants{
		Manager: env.Generator,
		Persona: env.Persona,
	}, sample)
	return Outcome{Output: ep.Final(), Episode: ep}, nil
}
