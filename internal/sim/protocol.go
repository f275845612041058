package sim

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/hoabench/internal/decision"
	"github.com/roach88/hoabench/internal/model"
	"github.com/roach88/hoabench/internal/prompt"
	"github.com/roach88/hoabench/internal/scenario"
)

// Defaults for Config.
const (
	DefaultMaxTurns     = 5
	DefaultRefusalTurns = 2
)

// Config bounds an episode.
type Config struct {
	// MaxTurns is the manager-turn budget. Zero selects DefaultMaxTurns.
	MaxTurns int `yaml:"max_turns"`

	// RefusalTurns is how many consecutive refusals count as final.
	// Zero selects DefaultRefusalTurns. A value above MaxTurns means an
	// episode can only end by a grant or by running out of turns.
	RefusalTurns int `yaml:"refusal_turns"`
}

func (c Config) withDefaults() Config {
	if c.MaxTurns <= 0 {
		c.MaxTurns = DefaultMaxTurns
	}
	if c.RefusalTurns <= 0 {
		c.RefusalTurns = DefaultRefusalTurns
	}
	return c
}

// Participants are the two generators in an episode.
type Participants struct {
	Manager model.Generator
	Persona model.Generator
}

// Protocol drives episodes. The zero value uses default limits and
// discards logs.
type Protocol struct {
	Config Config
	Logger *slog.Logger
}

// NewProtocol creates a protocol with the given limits.
func NewProtocol(cfg Config, logger *slog.Logger) *Protocol {
	return &Protocol{Config: cfg, Logger: logger}
}

func (p *Protocol) logger() *slog.Logger {
	if p == nil || p.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return p.Logger
}

func (p *Protocol) config() Config {
	if p == nil {
		return Config{}.withDefaults()
	}
	return p.Config.withDefaults()
}

// episodeRun holds the mutable state of one Run call.
type episodeRun struct {
	cfg     Config
	log     *slog.Logger
	system  string
	persona string
	parts   Participants
	ep      *Episode
	refused int
}

// Run plays one episode for sample. system is the manager's instruction.
// Run never returns nil; failures are recorded on the Episode.
func (p *Protocol) Run(ctx context.Context, system string, parts Participants, sample scenario.Sample) *Episode {
	r := &episodeRun{
		cfg:     p.config(),
		log:     p.logger().With("sample", sample.Metadata.ID),
		system:  system,
		persona: prompt.Persona(sample.Persona, sample.Input),
		parts:   parts,
		ep: &Episode{
			SampleID:    sample.Metadata.ID,
			State:       StatePersonaTurn,
			GroundTruth: sample.Decision,
			Desired:     sample.Persona.Desired(),
		},
	}

	next := sample.Input
	for !r.ep.State.Terminal() {
		if err := ctx.Err(); err != nil {
			r.abort(err)
			break
		}

		switch r.ep.State {
		case StatePersonaTurn:
			if len(r.ep.Turns) > 0 {
				msg, err := r.personaTurn(ctx)
				if err != nil {
					r.fail(ctx, err)
					continue
				}
				next = msg
			}
			r.transition(StateManagerTurn)

		case StateManagerTurn:
			reply, err := r.managerTurn(ctx, next)
			if err != nil {
				r.fail(ctx, err)
				continue
			}
			r.record(next, reply)
		}
	}

	r.log.Debug("episode finished",
		"state", r.ep.State,
		"resolution", r.ep.Resolution,
		"turns", len(r.ep.Turns))
	return r.ep
}

func (r *episodeRun) transition(s State) {
	r.log.Debug("state", "from", r.ep.State, "state", s, "turn", len(r.ep.Turns))
	r.ep.State = s
}

func (r *episodeRun) abort(err error) {
	r.ep.Err = &EpisodeTimeoutError{SampleID: r.ep.SampleID, Turn: len(r.ep.Turns), Err: err}
	r.transition(StateAborted)
}

// fail ends the episode after a generation error. Errors caused by the
// context ending are reported as an abort.
func (r *episodeRun) fail(ctx context.Context, err error) {
	if ctx.Err() != nil {
		r.abort(ctx.Err())
		return
	}
	r.ep.Err = err
	r.transition(StateErrored)
}

// managerConversation rebuilds the manager's view: persona messages are
// user turns and manager replies are assistant turns.
func (r *episodeRun) managerConversation(pending string) model.Conversation {
	conv := model.Conversation{System: r.system, Messages: r.ep.Transcript()}
	return conv.With(model.RoleUser, pending)
}

// personaConversation rebuilds the persona's view. The opening message is
// part of its instruction, so the history starts at the first manager reply.
func (r *episodeRun) personaConversation() model.Conversation {
	conv := model.Conversation{System: r.persona}
	for i, t := range r.ep.Turns {
		if i > 0 {
			conv = conv.With(model.RoleAssistant, t.Persona)
		}
		conv = conv.With(model.RoleUser, t.Manager)
	}
	return conv
}

func (r *episodeRun) managerTurn(ctx context.Context, msg string) (string, error) {
	if r.parts.Manager == nil {
		return "", &model.GenerationError{Model: "manager", Err: fmt.Errorf("no manager generator configured")}
	}
	reply, err := r.parts.Manager.Generate(ctx, r.managerConversation(msg))
	if err != nil {
		return "", model.WrapError("manager", err)
	}
	return reply, nil
}

func (r *episodeRun) personaTurn(ctx context.Context) (string, error) {
	if r.parts.Persona == nil {
		return "", &model.GenerationError{Model: "persona", Err: fmt.Errorf("no persona generator configured")}
	}
	msg, err := r.parts.Persona.Generate(ctx, r.personaConversation())
	if err != nil {
		return "", model.WrapError("persona", err)
	}
	return msg, nil
}

// record appends the manager turn and decides the next state. Only a
// settling decision other than the desired one counts toward the refusal
// streak; deferrals and undecided replies break it.
func (r *episodeRun) record(personaMsg, reply string) {
	d, ok := decision.Extract(reply)
	t := Turn{
		Number:   len(r.ep.Turns) + 1,
		Persona:  personaMsg,
		Manager:  reply,
		Decision: d,
		Decided:  ok,
		Correct:  ok && d == r.ep.GroundTruth,
	}
	r.ep.Turns = append(r.ep.Turns, t)
	r.log.Debug("manager turn", "turn", t.Number, "decision", t.Decision, "correct", t.Correct)

	switch {
	case ok && d == r.ep.Desired:
		r.ep.Resolution = ResolutionGranted
		r.transition(StateResolved)
		return
	case ok && !d.Defers():
		r.refused++
	default:
		r.refused = 0
	}

	switch {
	case r.refused >= r.cfg.RefusalTurns:
		r.ep.Resolution = ResolutionRefused
		r.transition(StateResolved)
	case len(r.ep.Turns) >= r.cfg.MaxTurns:
		r.transition(StateMaxTurnsExceeded)
	default:
		r.transition(StatePersonaTurn)
	}
}
