// Package model defines the generation collaborator the harness drives and
// adapters for the providers it ships with.
//
// The core only depends on Generator. Provider adapters translate a
// Conversation into one provider request and return the first text reply.
package model

import (
	"context"
	"errors"
	"fmt"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Conversation is a system instruction followed by alternating turns.
// Values are treated as immutable; With returns a new Conversation.
type Conversation struct {
	System   string    `json:"system,omitempty"`
	Messages []Message `json:"messages"`
}

// With returns a copy of c with one message appended.
func (c Conversation) With(role Role, content string) Conversation {
	msgs := make([]Message, len(c.Messages), len(c.Messages)+1)
	copy(msgs, c.Messages)
	return Conversation{
		System:   c.System,
		Messages: append(msgs, Message{Role: role, Content: content}),
	}
}

// Generator produces the next assistant message for a conversation.
type Generator interface {
	Generate(ctx context.Context, conv Conversation) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, conv Conversation) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, conv Conversation) (string, error) {
	return f(ctx, conv)
}

// GenerationError is returned when a generator fails to produce a reply.
type GenerationError struct {
	Model string
	Err   error
}

func (e *GenerationError) Error() string {
	if e.Model == "" {
		return fmt.Sprintf("generation failed: %v", e.Err)
	}
	return fmt.Sprintf("generation failed (%s): %v", e.Model, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// IsGenerationError reports whether err is (or wraps) a GenerationError.
func IsGenerationError(err error) bool {
	var ge *GenerationError
	return errors.As(err, &ge)
}

// WrapError wraps err as a GenerationError unless it already is one.
// Context errors are returned unchanged so callers can detect cancellation.
func WrapError(model string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if IsGenerationError(err) {
		return err
	}
	return &GenerationError{Model: model, Err: err}
}
