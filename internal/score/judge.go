package score

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/hoabench/internal/model"
)

// Grade letters returned by a fact judge.
const (
	GradeCorrect   = "C"
	GradePartial   = "P"
	GradeIncorrect = "I"
)

// Grade is a judge's assessment of one answer.
type Grade struct {
	Grade       string
	Explanation string
}

// Judge compares an answer with a target.
type Judge interface {
	Grade(ctx context.Context, output, target string) (Grade, error)
}

// JudgeFunc adapts a function to Judge.
type JudgeFunc func(ctx context.Context, output, target string) (Grade, error)

func (f JudgeFunc) Grade(ctx context.Context, output, target string) (Grade, error) {
	return f(ctx, output, target)
}

const judgeTemplate = `You are comparing a submitted answer to an expert answer on a given question. Here is the data:

[BEGIN DATA]
************
[Question]: %s
************
[Expert]: %s
************
[Submission]: %s
************
[END DATA]

Compare the factual content of the submitted answer with the expert answer. Ignore any differences in style, grammar, or punctuation.

Does the submission contain the content in the expert answer? Consider both the decision and the rule it cites.

After assessing the submitted answer, reply with 'GRADE: $LETTER' (without quotes) where LETTER is one of CPI. Please choose ONE option for the grade: either "C" for correct answers, "P" for partially correct answers, or "I" for incorrect answers.

First, write out in a step by step manner your reasoning about the criterion to be sure that your conclusion is correct. Avoid simply stating the correct answers at the outset. Then, end with your answer formatted as 'GRADE: $LETTER' (without quotes) where LETTER is one of CPI.`

const judgeQuestion = "How should the Camino Village HOA manager respond to this homeowner message?"

var gradePattern = regexp.MustCompile(`(?i)GRADE\s*:\s*\**\s*([CPI])\b`)

// ModelJudge grades with a generator prompted to end its reply with
// "GRADE: C|P|I".
type ModelJudge struct {
	Generator model.Generator
}

func (j ModelJudge) Grade(ctx context.Context, output, target string) (Grade, error) {
	if j.Generator == nil {
		return Grade{}, &JudgeError{Reason: "no judge model configured"}
	}
	conv := model.Conversation{}.With(model.RoleUser, fmt.Sprintf(judgeTemplate, judgeQuestion, target, output))
	reply, err := j.Generator.Generate(ctx, conv)
	if err != nil {
		return Grade{}, &JudgeError{Reason: "judge model failed", Err: err}
	}
	return ParseGrade(reply)
}

// ParseGrade reads the last "GRADE: X" line of a judge reply.
func ParseGrade(reply string) (Grade, error) {
	matches := gradePattern.FindAllStringSubmatch(reply, -1)
	if len(matches) == 0 {
		return Grade{}, &JudgeError{Reason: "judge reply has no GRADE line"}
	}
	letter := strings.ToUpper(matches[len(matches)-1][1])
	return Grade{Grade: letter, Explanation: strings.TrimSpace(reply)}, nil
}
