package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/roach88/hoabench/internal/model"
	"github.com/roach88/hoabench/internal/score"
)

// ErrScriptExhausted is returned by a ScriptedGenerator with no replies left.
var ErrScriptExhausted = errors.New("scripted generator: no replies left")

// ScriptedGenerator replies with a fixed sequence of messages and records
// every conversation it was given.
type ScriptedGenerator struct {
	mu      sync.Mutex
	replies []string
	calls   []model.Conversation
}

// NewScriptedGenerator creates a generator that returns replies in order.
func NewScriptedGenerator(replies ...string) *ScriptedGenerator {
	return &ScriptedGenerator{replies: replies}
}

func (g *ScriptedGenerator) Generate(ctx context.Context, conv model.Conversation) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, conv)
	if len(g.replies) == 0 {
		return "", ErrScriptExhausted
	}
	reply := g.replies[0]
	g.replies = g.replies[1:]
	return reply, nil
}

// Calls returns the conversations received so far.
func (g *ScriptedGenerator) Calls() []model.Conversation {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]model.Conversation(nil), g.calls...)
}

// EchoGenerator answers every conversation with a reply derived from its
// last user message. Safe for concurrent use.
type EchoGenerator struct {
	Reply func(last string) string
}

func (g EchoGenerator) Generate(ctx context.Context, conv model.Conversation) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	last := ""
	if n := len(conv.Messages); n > 0 {
		last = conv.Messages[n-1].Content
	}
	if g.Reply == nil {
		return last, nil
	}
	return g.Reply(last), nil
}

// FailingGenerator always fails with Err.
type FailingGenerator struct {
	Err error
}

func (g FailingGenerator) Generate(context.Context, model.Conversation) (string, error) {
	return "", g.Err
}

// BlockingGenerator waits until its context ends and returns the context
// error.
type BlockingGenerator struct{}

func (BlockingGenerator) Generate(ctx context.Context, _ model.Conversation) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

// StubJudge grades answers from a lookup keyed by output. Outputs with no
// entry get Default; an entry in Errors makes Grade fail.
type StubJudge struct {
	Grades  map[string]string
	Errors  map[string]error
	Default string
}

func (j StubJudge) Grade(_ context.Context, output, _ string) (score.Grade, error) {
	if err, ok := j.Errors[output]; ok {
		return score.Grade{}, err
	}
	if g, ok := j.Grades[output]; ok {
		return score.Grade{Grade: g, Explanation: fmt.Sprintf("stub grade %s", g)}, nil
	}
	if j.Default == "" {
		return score.Grade{}, fmt.Errorf("stub judge: no grade for %q", output)
	}
	return score.Grade{Grade: j.Default, Explanation: "stub default grade"}, nil
}
