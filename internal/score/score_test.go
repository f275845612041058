package score

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hoabench/internal/model"
)

const fenceTarget = "Decision: deny. Exceeds 4ft limit."

func fixedJudge(letter string) Judge {
	return JudgeFunc(func(context.Context, string, string) (Grade, error) {
		return Grade{Grade: letter, Explanation: "graded " + letter}, nil
	})
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   Status
	}{
		{name: "identical", output: fenceTarget, want: StatusPass},
		{name: "case and whitespace", output: "  decision: DENY.\n  Exceeds 4ft   limit. ", want: StatusPass},
		{name: "different reasoning", output: "Decision: deny. Too tall.", want: StatusFail},
		{name: "different decision", output: "Decision: approve. Exceeds 4ft limit.", want: StatusFail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Match{}.Score(context.Background(), nil, Input{Output: tt.output, Target: fenceTarget})
			assert.Equal(t, tt.want, v.Status)
		})
	}
}

func TestNormalize_NFCAndFold(t *testing.T) {
	assert.Equal(t, Normalize("Cafe\u0301"), Normalize("CAF\u00c9"))
	assert.Equal(t, "strasse", Normalize("STRASSE"))
	assert.Equal(t, Normalize("stra\u00dfe"), Normalize("STRASSE"))
}

func TestFact_GradeMapping(t *testing.T) {
	tests := []struct {
		letter string
		want   Status
		value  float64
	}{
		{GradeCorrect, StatusPass, 1},
		{GradePartial, StatusPartial, 0.5},
		{GradeIncorrect, StatusFail, 0},
	}
	for _, tt := range tests {
		t.Run(tt.letter, func(t *testing.T) {
			v := Fact{}.Score(context.Background(), fixedJudge(tt.letter), Input{Output: "x", Target: fenceTarget})
			assert.Equal(t, tt.want, v.Status)
			assert.InDelta(t, tt.value, v.Value, 1e-9)
			assert.NoError(t, v.Err)
		})
	}
}

func TestFact_NoJudgeIsErrored(t *testing.T) {
	v := Fact{}.Score(context.Background(), nil, Input{Output: "x", Target: fenceTarget})
	assert.Equal(t, StatusErrored, v.Status)
	assert.True(t, IsJudgeError(v.Err))
}

func TestFact_JudgeFailureIsErroredNotFail(t *testing.T) {
	boom := errors.New("judge unavailable")
	judge := JudgeFunc(func(context.Context, string, string) (Grade, error) {
		return Grade{}, boom
	})
	v := Fact{}.Score(context.Background(), judge, Input{Output: "x", Target: fenceTarget})
	assert.Equal(t, StatusErrored, v.Status)
	assert.NotEqual(t, StatusFail, v.Status)
	assert.True(t, IsJudgeError(v.Err))
	assert.ErrorIs(t, v.Err, boom)
}

func TestFact_UnrecognizedGrade(t *testing.T) {
	v := Fact{}.Score(context.Background(), fixedJudge("X"), Input{Output: "x", Target: fenceTarget})
	assert.Equal(t, StatusErrored, v.Status)
	assert.True(t, IsJudgeError(v.Err))
}

func TestDecision(t *testing.T) {
	ctx := context.Background()

	v := Decision{}.Score(ctx, nil, Input{Output: "**Decision:** deny\n\nPer CC&R 7.3...", Target: fenceTarget})
	assert.Equal(t, StatusPass, v.Status)

	v = Decision{}.Score(ctx, nil, Input{Output: "Decision: approve. Sure.", Target: fenceTarget})
	assert.Equal(t, StatusFail, v.Status)
	assert.Contains(t, v.Explanation, "want deny")

	v = Decision{}.Score(ctx, nil, Input{Output: "Let me think about it.", Target: fenceTarget})
	assert.Equal(t, StatusFail, v.Status)

	v = Decision{}.Score(ctx, nil, Input{Output: "Decision: deny.", Target: "placeholder"})
	assert.Equal(t, StatusErrored, v.Status)
}

func TestParseGrade(t *testing.T) {
	g, err := ParseGrade("The submission cites the rule.\n\nGRADE: C")
	require.NoError(t, err)
	assert.Equal(t, GradeCorrect, g.Grade)

	g, err = ParseGrade("GRADE: I\nOn reflection...\nGrade: **p**")
	require.NoError(t, err)
	assert.Equal(t, GradePartial, g.Grade)

	_, err = ParseGrade("I cannot grade this.")
	assert.True(t, IsJudgeError(err))

	_, err = ParseGrade("GRADE: correct")
	assert.True(t, IsJudgeError(err))
}

func TestModelJudge(t *testing.T) {
	var prompt string
	gen := model.GeneratorFunc(func(_ context.Context, conv model.Conversation) (string, error) {
		prompt = conv.Messages[0].Content
		return "Both deny the fence.\nGRADE: C", nil
	})

	g, err := ModelJudge{Generator: gen}.Grade(context.Background(), "Decision: deny.", fenceTarget)
	require.NoError(t, err)
	assert.Equal(t, GradeCorrect, g.Grade)
	assert.Contains(t, prompt, "[Expert]: "+fenceTarget)
	assert.Contains(t, prompt, "[Submission]: Decision: deny.")
}

func TestModelJudge_GeneratorError(t *testing.T) {
	gen := model.GeneratorFunc(func(context.Context, model.Conversation) (string, error) {
		return "", &model.GenerationError{Model: "judge", Err: errors.New("503")}
	})
	v := Fact{}.Score(context.Background(), ModelJudge{Generator: gen}, Input{Output: "x", Target: fenceTarget})
	assert.Equal(t, StatusErrored, v.Status)
	assert.True(t, IsJudgeError(v.Err))
	assert.True(t, model.IsGenerationError(v.Err))
}

func TestByName(t *testing.T) {
	for _, name := range []string{"match", "model_graded_fact", "fact", "decision"} {
		s, err := ByName(name)
		require.NoError(t, err, name)
		assert.NotNil(t, s)
	}
	_, err := ByName("bleu")
	assert.Error(t, err)
}

func TestStatus(t *testing.T) {
	assert.Len(t, Statuses(), 6)
	assert.True(t, StatusPartial.Graded())
	assert.False(t, StatusErrored.Graded())
	assert.False(t, StatusInconclusive.Graded())
}
