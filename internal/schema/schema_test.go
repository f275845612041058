package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_RulebookOK(t *testing.T) {
	doc := map[string]any{
		"rules": []any{
			map[string]any{"id": "R1", "source": "Sec 1", "text": "No fences over 4 feet."},
			map[string]any{"id": "R2", "source": "Sec 2", "text": "Quiet hours 10pm-7am.", "category": "noise"},
		},
	}
	require.NoError(t, Validate(Rulebook, doc))
}

func TestValidate_RulebookMissingField(t *testing.T) {
	doc := map[string]any{
		"rules": []any{
			map[string]any{"id": "R1", "source": "Sec 1", "text": "ok"},
			map[string]any{"id": "R2", "text": "no source"},
		},
	}
	err := Validate(Rulebook, doc)
	require.Error(t, err)

	var v *Violation
	require.True(t, errors.As(err, &v))
	assert.Contains(t, v.Field, "rules")
	assert.Contains(t, v.Field, "source")
}

func TestValidate_RulebookWrongType(t *testing.T) {
	doc := map[string]any{
		"rules": []any{
			map[string]any{"id": 7, "source": "Sec 1", "text": "ok"},
		},
	}
	err := Validate(Rulebook, doc)
	require.Error(t, err)

	var v *Violation
	require.True(t, errors.As(err, &v))
	assert.Contains(t, v.Field, "id")
}

func TestValidate_RulebookEmpty(t *testing.T) {
	require.Error(t, Validate(Rulebook, map[string]any{"rules": []any{}}))
	require.Error(t, Validate(Rulebook, map[string]any{"other": "x"}))
}

func TestValidate_DatasetOK(t *testing.T) {
	doc := []any{
		map[string]any{
			"id":         "S1",
			"category":   "fencing",
			"difficulty": "easy",
			"input":      map[string]any{"message": "Can I build a 6ft fence?"},
			"ground_truth": map[string]any{
				"decision":  "deny",
				"reasoning": "Exceeds 4ft limit.",
			},
			"persona": map[string]any{"goal": "get the fence approved", "tactics": []any{"appeal to precedent"}},
		},
	}
	require.NoError(t, Validate(Dataset, doc))
}

func TestValidate_DatasetMissingMessage(t *testing.T) {
	doc := []any{
		map[string]any{
			"id":           "S1",
			"category":     "fencing",
			"difficulty":   "easy",
			"input":        map[string]any{},
			"ground_truth": map[string]any{"decision": "deny", "reasoning": "x"},
		},
	}
	err := Validate(Dataset, doc)
	require.Error(t, err)

	var v *Violation
	require.True(t, errors.As(err, &v))
	assert.Contains(t, v.Field, "message")
}

func TestValidate_UnknownDefinition(t *testing.T) {
	err := Validate(Definition("#Nope"), map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown schema definition")
}

func TestFieldPath(t *testing.T) {
	assert.Equal(t, "rules[2].source", FieldPath([]string{"rules", "2", "source"}))
	assert.Equal(t, "[0].input.message", FieldPath([]string{"0", "input", "message"}))
	assert.Equal(t, "", FieldPath(nil))
}
