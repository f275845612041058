package cli

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/roach88/hoabench/internal/model"
)

// execute runs a command built by newCmd and returns its stdout.
func execute(t *testing.T, opts *RootOptions, newCmd func(*RootOptions) *cobra.Command, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := newCmd(opts)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	cmd.SetContext(context.Background())
	err := cmd.Execute()
	return out.String(), err
}

// replyAll returns a generator factory whose clients always reply with
// reply, regardless of model.
func replyAll(reply string) func(model.Config) (model.Generator, error) {
	return func(model.Config) (model.Generator, error) {
		return model.GeneratorFunc(func(ctx context.Context, _ model.Conversation) (string, error) {
			if err := ctx.Err(); err != nil {
				return "", err
			}
			return reply, nil
		}), nil
	}
}

// replyByModel returns a generator factory that picks the reply by model
// name and fails for unknown models.
func replyByModel(replies map[string]string) func(model.Config) (model.Generator, error) {
	return func(cfg model.Config) (model.Generator, error) {
		reply, ok := replies[cfg.Model]
		if !ok {
			return nil, fmt.Errorf("no client for %s", cfg.Model)
		}
		return model.GeneratorFunc(func(context.Context, model.Conversation) (string, error) {
			return reply, nil
		}), nil
	}
}

func lines(s string) []string {
	return strings.Split(strings.TrimSpace(s), "\n")
}
