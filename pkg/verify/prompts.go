package verify

import (
	"encoding/json"
	"fmt"
	"strings"

	"toeicq/pkg/persistence"
)

// setColumns holds the decoded per-question fields for a part 3/4 set.
// The bank stores each column as a JSON array of three strings.
type setColumns struct {
	Question []string
	A        []string
	B        []string
	C        []string
	D        []string
}

func decodeSetColumns(q *persistence.Question) (*setColumns, error) {
	cols := &setColumns{}
	fields := []struct {
		dst *[]string
		src string
	}{
		{&cols.Question, q.Question},
		{&cols.A, q.A},
		{&cols.B, q.B},
		{&cols.C, q.C},
		{&cols.D, q.D},
	}
	for _, f := range fields {
		if err := json.Unmarshal([]byte(f.src), f.dst); err != nil {
			return nil, fmt.Errorf("failed to decode question set column: %w", err)
		}
	}
	for _, vals := range [][]string{cols.Question, cols.A, cols.B, cols.C, cols.D} {
		if len(vals) != setSize {
			return nil, fmt.Errorf("expected %d entries per set column, got %d", setSize, len(vals))
		}
	}
	return cols, nil
}

const setSize = 3

// buildSolverPrompt renders the per-part solver prompt. The model is asked
// to score every option 0-100, with all scores for one question summing to
// at most 100, and reply with JSON only.
func buildSolverPrompt(q *persistence.Question) (string, error) {
	switch q.Part {
	case 1:
		return part1Prompt(q), nil
	case 2:
		return part2Prompt(q), nil
	case 3:
		return part3Prompt(q)
	case 4:
		return part4Prompt(q)
	default:
		return "", fmt.Errorf("unsupported part: %d", q.Part)
	}
}

func part1Prompt(q *persistence.Question) string {
	return fmt.Sprintf(`You are solving a TOEIC Listening Part 1 question (Photographs).

Look at the image and determine which statement best describes what you see.

Options:
A) %s
B) %s
C) %s
D) %s

Give correctness for each option, rated from 0 to 100. The sum of correctness for all options should be no larger than 100.
If two or more options are equally correct, distribute the scores evenly among them.
Respond ONLY in this exact json format:
{"A":[Confidence Score 0-100],"B":[Confidence Score 0-100],"C":[Confidence Score 0-100],"D":[Confidence Score 0-100]}

Example: {"A":0,"B":5,"C":91,"D":4}
Example: {"A":0,"B":50,"C":50,"D":0}
Example: {"A":0,"B":0,"C":0,"D":0}

Do not include any other text.`, q.A, q.B, q.C, q.D)
}

func part2Prompt(q *persistence.Question) string {
	return fmt.Sprintf(`You are solving a TOEIC Listening Part 2 question.

Question: %s

Responses:
A) %s
B) %s
C) %s

Give correctness for each response, rated from 0 to 100. The sum of correctness for all responses should be no larger than 100.
If two or more options are equally correct, distribute the scores evenly among them.
Respond ONLY in this exact json format:
{"A":[Confidence Score 0-100],"B":[Confidence Score 0-100],"C":[Confidence Score 0-100]}

Example: {"A":20,"B":5,"C":75}
Example: {"A":33,"B":33,"C":33}
Example: {"A":0,"B":0,"C":0}

Do not include any other text.`, q.Question, q.A, q.B, q.C)
}

// scriptLine mirrors the part 3 conversation script stored in the prompt
// column.
type scriptLine struct {
	Speaker string `json:"speaker"`
	Line    string `json:"line"`
}

func part3Prompt(q *persistence.Question) (string, error) {
	var script []scriptLine
	if err := json.Unmarshal([]byte(q.Prompt), &script); err != nil {
		return "", fmt.Errorf("failed to decode conversation script: %w", err)
	}
	cols, err := decodeSetColumns(q)
	if err != nil {
		return "", err
	}

	var conversation strings.Builder
	for _, line := range script {
		fmt.Fprintf(&conversation, "%q: %q\n", line.Speaker, line.Line)
	}

	return fmt.Sprintf(`You are solving a TOEIC Listening Part 3 question (Conversations).

Conversation:
%s%s
Give correctness for each option, rated from 0 to 100. The sum of correctness for all options of one question should be no larger than 100.
Pay attention to the speaker in each question and option. If an option describes a behavior, intention, or action but the actor is a different speaker in the conversation, give that option a 0 score.
If two or more options are equally correct, distribute the scores evenly among them.
Respond ONLY in this exact json array format for questions 1, 2, and 3:
[{"A":[Confidence Score 0-100],"B":[Confidence Score 0-100],"C":[Confidence Score 0-100],"D":[Confidence Score 0-100]},
{"A":[Confidence Score 0-100],"B":[Confidence Score 0-100],"C":[Confidence Score 0-100],"D":[Confidence Score 0-100]},
{"A":[Confidence Score 0-100],"B":[Confidence Score 0-100],"C":[Confidence Score 0-100],"D":[Confidence Score 0-100]}]

Example: [{"A":10,"B":20,"C":60,"D":10},{"A":5,"B":15,"C":70,"D":10},{"A":25,"B":25,"C":25,"D":25}]
Do not include any other text.`, conversation.String(), renderQuestionSet(cols)), nil
}

func part4Prompt(q *persistence.Question) (string, error) {
	cols, err := decodeSetColumns(q)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(`You are solving a TOEIC Listening Part 4 question (Talks).

Talk:
%s
%s
Give correctness for each option, rated from 0 to 100. The sum of correctness for all options of one question should be no larger than 100.
If two or more options are equally correct, distribute the scores evenly among them.
Respond ONLY in this exact json array format for questions 1, 2, and 3:
[{"A":[Confidence Score 0-100],"B":[Confidence Score 0-100],"C":[Confidence Score 0-100],"D":[Confidence Score 0-100]},
{"A":[Confidence Score 0-100],"B":[Confidence Score 0-100],"C":[Confidence Score 0-100],"D":[Confidence Score 0-100]},
{"A":[Confidence Score 0-100],"B":[Confidence Score 0-100],"C":[Confidence Score 0-100],"D":[Confidence Score 0-100]}]

Example: [{"A":10,"B":20,"C":60,"D":10},{"A":5,"B":15,"C":70,"D":10},{"A":25,"B":25,"C":25,"D":25}]
Do not include any other text.`, q.Prompt, renderQuestionSet(cols)), nil
}

func renderQuestionSet(cols *setColumns) string {
	var b strings.Builder
	for i := 0; i < setSize; i++ {
		fmt.Fprintf(&b, `
Question%d: %s
Options:
A) %s
B) %s
C) %s
D) %s
`, i+1, cols.Question[i], cols.A[i], cols.B[i], cols.C[i], cols.D[i])
	}
	return b.String()
}
