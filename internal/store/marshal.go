package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/hoabench/internal/model"
)

// timeLayout stores timestamps as sortable UTC text.
const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// marshalTranscript converts a transcript to JSON TEXT for storage.
// HTML escaping is disabled so stored text matches what the models saw.
func marshalTranscript(msgs []model.Message) (string, error) {
	if len(msgs) == 0 {
		return "[]", nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(msgs); err != nil {
		return "", fmt.Errorf("marshal transcript: %w", err)
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

// unmarshalTranscript parses JSON TEXT back into messages.
// Returns an empty slice (not nil) for an empty transcript.
func unmarshalTranscript(data string) ([]model.Message, error) {
	msgs := []model.Message{}
	if data == "" || data == "[]" {
		return msgs, nil
	}
	if err := json.Unmarshal([]byte(data), &msgs); err != nil {
		return nil, fmt.Errorf("unmarshal transcript: %w", err)
	}
	return msgs, nil
}
