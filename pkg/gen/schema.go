// Package gen generates TOEIC listening questions (parts 1-4) via LLM and
// stores them in the question bank.
package gen

import (
	"fmt"
	"strings"
)

// SetSize is the number of questions attached to each part 3 conversation
// and part 4 talk.
const SetSize = 3

// Speaker identifies a part 3 conversation voice. The digit distinguishes
// speakers of the same sex.
type Speaker string

// Valid speakers.
const (
	SpeakerMan1   Speaker = "man1"
	SpeakerWoman1 Speaker = "woman1"
	SpeakerMan2   Speaker = "man2"
	SpeakerWoman2 Speaker = "woman2"
)

func validSpeaker(s Speaker) bool {
	switch s {
	case SpeakerMan1, SpeakerWoman1, SpeakerMan2, SpeakerWoman2:
		return true
	default:
		return false
	}
}

// Part1Item is one generated part 1 question: a photograph prompt and four
// statements about it.
type Part1Item struct {
	ImgPrompt string `json:"img_prompt"`
	Answer    string `json:"answer"`
	A         string `json:"A"`
	B         string `json:"B"`
	C         string `json:"C"`
	D         string `json:"D"`
	Type      string `json:"type"` // "People" or "Objects"
}

// Part2Item is one generated part 2 question: a spoken question or statement
// and three responses.
type Part2Item struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	A        string `json:"A"`
	B        string `json:"B"`
	C        string `json:"C"`
}

// ScriptLine is one exchange of a part 3 conversation.
type ScriptLine struct {
	Speaker Speaker `json:"speaker"`
	Line    string  `json:"line"`
}

// SetQuestion is one of the three questions attached to a part 3 conversation
// or part 4 talk.
type SetQuestion struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	A        string `json:"A"`
	B        string `json:"B"`
	C        string `json:"C"`
	D        string `json:"D"`
}

// Part3Item is one generated part 3 set: a conversation with exactly three
// questions. ImgPrompt is empty when the conversation has no visual reference.
type Part3Item struct {
	Script    []ScriptLine  `json:"script"`
	ImgPrompt string        `json:"img_prompt"`
	Questions []SetQuestion `json:"questions"`
	Summary   string        `json:"summary"`
	Type      string        `json:"type"` // Office, CustomerService, Other
}

// Part4Item is one generated part 4 set: a talk with exactly three questions.
type Part4Item struct {
	Talk      string        `json:"talk"`
	Sex       string        `json:"sex,omitempty"` // man or woman, optional
	ImgPrompt string        `json:"img_prompt"`
	Questions []SetQuestion `json:"questions"`
	Type      string        `json:"type"`
	Summary   string        `json:"summary"`
}

// part4Types lists the accepted talk categories.
//
//nolint:gochecknoglobals // Static enumeration
var part4Types = map[string]bool{
	"talk": true, "announcement": true, "advertisement": true,
	"news report": true, "broadcast": true, "tour": true,
	"excerpt from a meeting": true, "phone message": true, "message": true,
}

func validAnswer(answer string, letters string) bool {
	return len(answer) == 1 && strings.Contains(letters, answer)
}

// Validate checks a part 1 item for structural problems.
func (q *Part1Item) Validate() error {
	if !validAnswer(q.Answer, "ABCD") {
		return fmt.Errorf("answer must be one of A-D, got %q", q.Answer)
	}
	if q.ImgPrompt == "" {
		return fmt.Errorf("missing image prompt")
	}
	if q.A == "" || q.B == "" || q.C == "" || q.D == "" {
		return fmt.Errorf("all four statements must be non-empty")
	}
	if q.Type != "People" && q.Type != "Objects" {
		return fmt.Errorf("type must be People or Objects, got %q", q.Type)
	}
	return nil
}

// Validate checks a part 2 item for structural problems.
func (q *Part2Item) Validate() error {
	if !validAnswer(q.Answer, "ABC") {
		return fmt.Errorf("answer must be one of A-C, got %q", q.Answer)
	}
	if q.Question == "" {
		return fmt.Errorf("missing question text")
	}
	if q.A == "" || q.B == "" || q.C == "" {
		return fmt.Errorf("all three responses must be non-empty")
	}
	return nil
}

func validateSetQuestions(questions []SetQuestion) error {
	if len(questions) != SetSize {
		return fmt.Errorf("expected exactly %d questions, got %d", SetSize, len(questions))
	}
	for i := range questions {
		q := &questions[i]
		if !validAnswer(q.Answer, "ABCD") {
			return fmt.Errorf("question %d: answer must be one of A-D, got %q", i+1, q.Answer)
		}
		if q.Question == "" {
			return fmt.Errorf("question %d: missing question text", i+1)
		}
		if q.A == "" || q.B == "" || q.C == "" || q.D == "" {
			return fmt.Errorf("question %d: all four options must be non-empty", i+1)
		}
	}
	return nil
}

// Validate checks a part 3 item for structural problems.
func (q *Part3Item) Validate() error {
	if len(q.Script) < 2 {
		return fmt.Errorf("conversation needs at least 2 exchanges, got %d", len(q.Script))
	}
	for i := range q.Script {
		if !validSpeaker(q.Script[i].Speaker) {
			return fmt.Errorf("exchange %d: invalid speaker %q", i+1, q.Script[i].Speaker)
		}
		if q.Script[i].Line == "" {
			return fmt.Errorf("exchange %d: empty line", i+1)
		}
	}
	return validateSetQuestions(q.Questions)
}

// Validate checks a part 4 item for structural problems.
func (q *Part4Item) Validate() error {
	if q.Talk == "" {
		return fmt.Errorf("missing talk text")
	}
	if q.Sex != "" && q.Sex != "man" && q.Sex != "woman" {
		return fmt.Errorf("sex must be man or woman, got %q", q.Sex)
	}
	if q.Type != "" && !part4Types[q.Type] {
		return fmt.Errorf("unknown talk type %q", q.Type)
	}
	return validateSetQuestions(q.Questions)
}
