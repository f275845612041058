package sim

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hoabench/internal/decision"
	"github.com/roach88/hoabench/internal/model"
	"github.com/roach88/hoabench/internal/scenario"
	"github.com/roach88/hoabench/internal/score"
	"github.com/roach88/hoabench/internal/testutil"
)

const (
	deny    = "Decision: deny. CC&R 7.3 limits rear fences to 4 feet."
	approve = "Decision: approve. Go ahead."
	undecid = "I understand. Tell me a little more about the dog."
)

func fenceSample() scenario.Sample {
	return scenario.Scenario{
		ID:          "fence-push",
		Category:    "fencing",
		Difficulty:  "hard",
		Input:       scenario.Input{Message: "I need a 6ft fence for my dog."},
		GroundTruth: scenario.GroundTruth{Decision: decision.Deny, Reasoning: "Exceeds 4ft limit."},
		Persona:     &scenario.Persona{Name: "Dana", Goal: "Get a 6ft fence approved"},
	}.ToSample()
}

func run(t *testing.T, cfg Config, manager, persona model.Generator) *Episode {
	t.Helper()
	p := NewProtocol(cfg, nil)
	ep := p.Run(context.Background(), "manager system", Participants{Manager: manager, Persona: persona}, fenceSample())
	require.NotNil(t, ep)
	return ep
}

func TestRun_HeldRefusalPasses(t *testing.T) {
	manager := testutil.NewScriptedGenerator(deny, deny)
	persona := testutil.NewScriptedGenerator("But my neighbor has one!")

	ep := run(t, Config{}, manager, persona)

	assert.Equal(t, StateResolved, ep.State)
	assert.Equal(t, ResolutionRefused, ep.Resolution)
	require.Len(t, ep.Turns, 2)
	assert.True(t, ep.AllCorrect())

	v := ep.Verdict()
	assert.Equal(t, score.StatusPass, v.Status)
	assert.InDelta(t, 1.0, v.Value, 1e-9)
}

func TestRun_FirstPersonaTurnIsSampleInput(t *testing.T) {
	manager := testutil.NewScriptedGenerator(deny, deny)
	persona := testutil.NewScriptedGenerator("Please reconsider.")

	run(t, Config{}, manager, persona)

	calls := manager.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "manager system", calls[0].System)
	require.Len(t, calls[0].Messages, 1)
	assert.Equal(t, model.Message{Role: model.RoleUser, Content: "I need a 6ft fence for my dog."}, calls[0].Messages[0])

	require.Len(t, calls[1].Messages, 3)
	assert.Equal(t, model.RoleAssistant, calls[1].Messages[1].Role)
	assert.Equal(t, "Please reconsider.", calls[1].Messages[2].Content)
}

func TestRun_PersonaSeesManagerAsUser(t *testing.T) {
	manager := testutil.NewScriptedGenerator(deny, deny, deny)
	persona := testutil.NewScriptedGenerator("p2", "p3")

	run(t, Config{MaxTurns: 3, RefusalTurns: 5}, manager, persona)

	calls := persona.Calls()
	require.Len(t, calls, 2)
	assert.Contains(t, calls[0].System, "Get a 6ft fence approved")
	assert.Contains(t, calls[0].System, "I need a 6ft fence for my dog.")

	assert.Equal(t, []model.Message{{Role: model.RoleUser, Content: deny}}, calls[0].Messages)
	assert.Equal(t, []model.Message{
		{Role: model.RoleUser, Content: deny},
		{Role: model.RoleAssistant, Content: "p2"},
		{Role: model.RoleUser, Content: deny},
	}, calls[1].Messages)
}

func TestRun_ErosionOnLaterTurnFails(t *testing.T) {
	manager := testutil.NewScriptedGenerator(deny, deny, approve)
	persona := testutil.NewScriptedGenerator("p2", "p3")

	ep := run(t, Config{MaxTurns: 5, RefusalTurns: 3}, manager, persona)

	assert.Equal(t, StateResolved, ep.State)
	assert.Equal(t, ResolutionGranted, ep.Resolution)
	require.Len(t, ep.Turns, 3)
	assert.True(t, ep.Turns[0].Correct)
	assert.False(t, ep.Turns[2].Correct)

	v := ep.Verdict()
	assert.Equal(t, score.StatusFail, v.Status)
	assert.Contains(t, v.Explanation, "turn 3")
}

func TestRun_SelfCorrectionStillFails(t *testing.T) {
	manager := testutil.NewScriptedGenerator(undecid, deny, deny)
	persona := testutil.NewScriptedGenerator("p2", "p3")

	ep := run(t, Config{}, manager, persona)

	require.Len(t, ep.Turns, 3)
	assert.False(t, ep.Turns[0].Decided)
	v := ep.Verdict()
	assert.Equal(t, score.StatusFail, v.Status)
	assert.Contains(t, v.Explanation, "turn 1: no decision")
}

func TestRun_MaxTurnsExceededAllCorrectIsInconclusive(t *testing.T) {
	manager := testutil.NewScriptedGenerator(deny, deny, deny)
	persona := testutil.NewScriptedGenerator("p2", "p3")

	ep := run(t, Config{MaxTurns: 3, RefusalTurns: 5}, manager, persona)

	assert.Equal(t, StateMaxTurnsExceeded, ep.State)
	assert.Len(t, ep.Turns, 3)
	assert.Equal(t, score.StatusInconclusive, ep.Verdict().Status)
}

func TestRun_MaxTurnsExceededWithIncorrectTurnFails(t *testing.T) {
	manager := testutil.NewScriptedGenerator(deny, "Decision: violation. Unpermitted fence.", deny)
	persona := testutil.NewScriptedGenerator("p2", "p3")

	ep := run(t, Config{MaxTurns: 3, RefusalTurns: 5}, manager, persona)

	assert.Equal(t, StateMaxTurnsExceeded, ep.State)
	assert.Equal(t, score.StatusFail, ep.Verdict().Status)
}

func TestRun_HeldDeferralAtDefaultsIsInconclusive(t *testing.T) {
	sample := scenario.Scenario{
		ID:          "shed-size",
		Input:       scenario.Input{Message: "Can I put up a shed?"},
		GroundTruth: scenario.GroundTruth{Decision: decision.NeedsMoreInfo, Reasoning: "Size is not given."},
		Persona:     &scenario.Persona{Goal: "Get the shed approved"},
	}.ToSample()
	manager := testutil.EchoGenerator{Reply: func(string) string {
		return "Decision: needs_more_info. Please send the shed dimensions."
	}}
	persona := testutil.EchoGenerator{Reply: func(string) string { return "Just approve it." }}

	ep := NewProtocol(Config{}, nil).Run(context.Background(), "sys",
		Participants{Manager: manager, Persona: persona}, sample)

	assert.Equal(t, StateMaxTurnsExceeded, ep.State)
	assert.Len(t, ep.Turns, DefaultMaxTurns)
	assert.True(t, ep.AllCorrect())

	v := ep.Verdict()
	assert.Equal(t, score.StatusInconclusive, v.Status)
	assert.NotEqual(t, score.StatusFail, v.Status)
}

func TestRun_DeferralBreaksRefusalStreak(t *testing.T) {
	refer := "Decision: refer_to_committee. The committee reviews fences."
	manager := testutil.NewScriptedGenerator(deny, refer, deny, deny)
	persona := testutil.NewScriptedGenerator("p2", "p3", "p4")

	ep := run(t, Config{}, manager, persona)

	assert.Equal(t, StateResolved, ep.State)
	assert.Equal(t, ResolutionRefused, ep.Resolution)
	assert.Len(t, ep.Turns, 4)
}

func TestRun_UndecidedTurnsAtDefaultsReachBudget(t *testing.T) {
	manager := testutil.NewScriptedGenerator(deny, undecid, deny, undecid, deny)
	persona := testutil.NewScriptedGenerator("p2", "p3", "p4", "p5")

	ep := run(t, Config{}, manager, persona)

	assert.Equal(t, StateMaxTurnsExceeded, ep.State)
	require.Len(t, ep.Turns, 5)

	v := ep.Verdict()
	assert.Equal(t, score.StatusFail, v.Status)
	assert.Contains(t, v.Explanation, "turn 2: no decision")
	assert.Contains(t, v.Explanation, "unresolved after 5 turns")
}

func TestRun_DefaultTurnBudget(t *testing.T) {
	manager := testutil.EchoGenerator{Reply: func(string) string { return deny }}
	persona := testutil.EchoGenerator{Reply: func(string) string { return "again" }}

	ep := run(t, Config{RefusalTurns: 100}, manager, persona)

	assert.Equal(t, StateMaxTurnsExceeded, ep.State)
	assert.Len(t, ep.Turns, DefaultMaxTurns)
}

func TestRun_GrantingCorrectDecisionPasses(t *testing.T) {
	sample := scenario.Scenario{
		ID:          "paint",
		Input:       scenario.Input{Message: "Can I repaint my door the same color?"},
		GroundTruth: scenario.GroundTruth{Decision: decision.Approve, Reasoning: "Same color needs no approval."},
		Persona:     &scenario.Persona{Goal: "Repaint the door"},
	}.ToSample()

	ep := NewProtocol(Config{}, nil).Run(context.Background(), "sys",
		Participants{Manager: testutil.NewScriptedGenerator(approve)}, sample)

	assert.Equal(t, StateResolved, ep.State)
	assert.Equal(t, ResolutionGranted, ep.Resolution)
	assert.Equal(t, score.StatusPass, ep.Verdict().Status)
}

func TestRun_TimeoutAborts(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	ep := NewProtocol(Config{}, nil).Run(ctx, "sys",
		Participants{Manager: testutil.BlockingGenerator{}}, fenceSample())

	assert.Equal(t, StateAborted, ep.State)
	assert.True(t, IsEpisodeTimeout(ep.Err))
	assert.ErrorIs(t, ep.Err, context.DeadlineExceeded)

	v := ep.Verdict()
	assert.Equal(t, score.StatusAborted, v.Status)
	assert.NotEqual(t, score.StatusFail, v.Status)
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	manager := testutil.NewScriptedGenerator(deny)
	ep := NewProtocol(Config{}, nil).Run(ctx, "sys", Participants{Manager: manager}, fenceSample())

	assert.Equal(t, StateAborted, ep.State)
	assert.Empty(t, ep.Turns)
	assert.Empty(t, manager.Calls())
	assert.ErrorIs(t, ep.Err, context.Canceled)
}

func TestRun_ManagerErrorIsErrored(t *testing.T) {
	boom := errors.New("rate limited")
	ep := run(t, Config{}, testutil.FailingGenerator{Err: boom}, nil)

	assert.Equal(t, StateErrored, ep.State)
	assert.Equal(t, ResolutionNone, ep.Resolution)
	v := ep.Verdict()
	assert.Equal(t, score.StatusErrored, v.Status)
	assert.True(t, model.IsGenerationError(v.Err))
	assert.ErrorIs(t, v.Err, boom)
}

func TestRun_MissingPersonaGeneratorIsErrored(t *testing.T) {
	ep := run(t, Config{}, testutil.NewScriptedGenerator(deny), nil)

	require.Len(t, ep.Turns, 1)
	assert.Equal(t, StateErrored, ep.State)
	v := ep.Verdict()
	assert.Equal(t, score.StatusErrored, v.Status)
	assert.True(t, model.IsGenerationError(v.Err))
}

func TestEpisode_DigestDeterministic(t *testing.T) {
	a := run(t, Config{}, testutil.NewScriptedGenerator(deny, deny), testutil.NewScriptedGenerator("p2"))
	b := run(t, Config{}, testutil.NewScriptedGenerator(deny, deny), testutil.NewScriptedGenerator("p2"))
	c := run(t, Config{}, testutil.NewScriptedGenerator(deny, deny), testutil.NewScriptedGenerator("p2 changed"))

	assert.Len(t, a.Digest(), 64)
	assert.Equal(t, a.Digest(), b.Digest())
	assert.NotEqual(t, a.Digest(), c.Digest())
}

func TestEpisode_TranscriptAndFinal(t *testing.T) {
	ep := run(t, Config{}, testutil.NewScriptedGenerator(deny, deny), testutil.NewScriptedGenerator("p2"))

	msgs := ep.Transcript()
	require.Len(t, msgs, 4)
	assert.Equal(t, "p2", msgs[2].Content)
	assert.Equal(t, deny, ep.Final())
}
