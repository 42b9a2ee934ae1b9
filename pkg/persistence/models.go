package persistence

import (
	"time"
)

// VerifyStatus records the outcome of question verification.
// Stored in the questions.valid column.
type VerifyStatus int

const (
	// StatusUnverified marks a freshly generated question awaiting verification.
	StatusUnverified VerifyStatus = 0
	// StatusValid marks a question the solver answered correctly with high confidence.
	StatusValid VerifyStatus = 1
	// StatusFailSimilarQuestion marks a question rejected as too similar to an existing one.
	StatusFailSimilarQuestion VerifyStatus = 2
	// StatusInvalid marks a question the solver answered differently or with low confidence.
	StatusInvalid VerifyStatus = 3
	// StatusError marks a question whose verification failed to produce a usable result.
	StatusError VerifyStatus = 4
	// StatusFailAudioAnswerMatch marks a question whose rendered audio contradicts the answer.
	StatusFailAudioAnswerMatch VerifyStatus = 5
	// StatusFailImageAnswerMatch marks a question whose rendered image contradicts the answer.
	StatusFailImageAnswerMatch VerifyStatus = 6
)

// String returns a human-readable name for the status.
func (s VerifyStatus) String() string {
	switch s {
	case StatusUnverified:
		return "unverified"
	case StatusValid:
		return "valid"
	case StatusFailSimilarQuestion:
		return "fail_similar_question"
	case StatusInvalid:
		return "invalid"
	case StatusError:
		return "error"
	case StatusFailAudioAnswerMatch:
		return "fail_audio_answer_match"
	case StatusFailImageAnswerMatch:
		return "fail_image_answer_match"
	default:
		return "unknown"
	}
}

// Question represents one row of the question bank.
//
// Text fields mirror the storage encoding: for parts 3 and 4, Question and
// Answer hold JSON arrays (three questions per set) and Prompt holds the
// conversation script (JSON) or the talk text. For parts 1 and 2, Question
// is the spoken question (empty for part 1), Answer is a single option
// letter, and Prompt is unused.
type Question struct {
	CreatedAt   time.Time    `json:"created_at"`
	BatchID     string       `json:"batch_id"`
	Accent      string       `json:"accent"`
	Sex         string       `json:"sex"`
	Question    string       `json:"question"`
	Prompt      string       `json:"prompt"`
	Answer      string       `json:"answer"`
	A           string       `json:"a"`
	B           string       `json:"b"`
	C           string       `json:"c"`
	D           string       `json:"d"`
	ImgPrompt   string       `json:"img_prompt"`
	Img         string       `json:"img"`
	ValidStatus string       `json:"valid_status"`
	ID          int64        `json:"id"`
	Part        int          `json:"part"`
	Level       int          `json:"level"`
	Used        bool         `json:"used"`
	Valid       VerifyStatus `json:"valid"`
}

// Options returns the non-empty option texts keyed by letter, in order.
func (q *Question) Options() map[string]string {
	opts := make(map[string]string, 4)
	if q.A != "" {
		opts["A"] = q.A
	}
	if q.B != "" {
		opts["B"] = q.B
	}
	if q.C != "" {
		opts["C"] = q.C
	}
	if q.D != "" {
		opts["D"] = q.D
	}
	return opts
}

// PartLevelCount aggregates bank contents for one (part, level) pair.
type PartLevelCount struct {
	Part     int `json:"part"`
	Level    int `json:"level"`
	Total    int `json:"total"`
	Verified int `json:"verified"`
	Used     int `json:"used"`
}
