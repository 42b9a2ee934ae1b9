// Package verify checks bank questions by asking a model to solve them and
// comparing its answers against the stored ones.
package verify

import (
	"context"
	"fmt"

	"toeicq/pkg/config"
	"toeicq/pkg/llm"
	"toeicq/pkg/logx"
	"toeicq/pkg/persistence"
	"toeicq/pkg/utils"
)

// Stats accumulates per-run verification counts.
type Stats struct {
	Processed int
	Valid     int
	Invalid   int
	Errors    int
}

// Config carries optional verifier settings.
type Config struct {
	// CrossClient, when set, re-checks every passing question against a
	// second provider. Valid is only recorded when both agree.
	CrossClient llm.Client

	// PhotoRoot is the directory holding question images.
	PhotoRoot string

	// Threshold is the minimum confidence score per question. Zero means
	// the default.
	Threshold int
}

// Verifier drives the verification loop over unverified bank rows.
type Verifier struct {
	ops       *persistence.DatabaseOperations
	client    llm.Client
	cross     llm.Client
	logger    *logx.Logger
	photoRoot string
	threshold int
}

// NewVerifier creates a verifier backed by the given store and solver client.
func NewVerifier(ops *persistence.DatabaseOperations, client llm.Client, cfg Config) *Verifier {
	threshold := cfg.Threshold
	if threshold == 0 {
		threshold = config.DefaultConfidenceThreshold
	}
	photoRoot := cfg.PhotoRoot
	if photoRoot == "" {
		photoRoot = config.DefaultPhotoRoot
	}
	return &Verifier{
		ops:       ops,
		client:    client,
		cross:     cfg.CrossClient,
		logger:    logx.NewLogger("verify"),
		photoRoot: photoRoot,
		threshold: threshold,
	}
}

// Run verifies all unverified questions matching the filter and records a
// verdict for each. It returns the aggregate counts; per-question failures
// are recorded as verdicts, not returned as errors.
func (v *Verifier) Run(ctx context.Context, filter *persistence.QuestionFilter) (*Stats, error) {
	questions, err := v.ops.UnverifiedQuestions(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load unverified questions: %w", err)
	}

	stats := &Stats{}
	if len(questions) == 0 {
		v.logger.Info("no questions found matching the criteria")
		return stats, nil
	}

	v.logger.Info("found %d question(s) to verify", len(questions))

	for i, q := range questions {
		v.logger.Info("[%d/%d] verifying question %d (part %d, level %d)",
			i+1, len(questions), q.ID, q.Part, q.Level)

		status, detail := v.verifyQuestion(ctx, q)

		switch status {
		case persistence.StatusValid:
			stats.Valid++
		case persistence.StatusInvalid:
			stats.Invalid++
		default:
			stats.Errors++
		}
		stats.Processed++

		if err := v.ops.UpdateVerification(q.ID, status, detail); err != nil {
			return stats, fmt.Errorf("failed to record verdict for question %d: %w", q.ID, err)
		}
		v.logger.Info("question %d: %s (%s)", q.ID, status, detail)
	}

	v.logger.Info("verification summary: processed=%d valid=%d invalid=%d errors=%d",
		stats.Processed, stats.Valid, stats.Invalid, stats.Errors)
	return stats, nil
}

// verifyQuestion solves one question and compares the model's answers with
// the stored ones. It returns the verdict and a human-readable detail.
func (v *Verifier) verifyQuestion(ctx context.Context, q *persistence.Question) (persistence.VerifyStatus, string) {
	want, err := storedAnswers(q.Answer)
	if err != nil {
		return persistence.StatusError, err.Error()
	}

	answers, scores, err := v.solve(ctx, v.client, q)
	if err != nil {
		return persistence.StatusError, err.Error()
	}

	if status, detail, ok := v.judge(answers, scores, want); !ok {
		return status, detail
	}

	if v.cross != nil {
		crossAnswers, crossScores, err := v.solve(ctx, v.cross, q)
		if err != nil {
			return persistence.StatusError, fmt.Sprintf("cross-check failed: %v", err)
		}
		if status, detail, ok := v.judge(crossAnswers, crossScores, want); !ok {
			return status, "cross-check: " + detail
		}
	}

	return persistence.StatusValid, fmt.Sprintf("answers %v matched with confidence %v", answers, scores)
}

// solve sends the solver prompt (plus the question's image, when present)
// to the client and parses the returned score maps.
func (v *Verifier) solve(ctx context.Context, client llm.Client, q *persistence.Question) ([]string, []int, error) {
	prompt, err := buildSolverPrompt(q)
	if err != nil {
		return nil, nil, err
	}

	var msg llm.CompletionMessage
	if q.Part != 2 && q.Img != "" {
		attachment, err := imageAttachment(v.photoRoot, q.Part, q.Img)
		if err != nil {
			return nil, nil, err
		}
		msg = llm.NewUserImageMessage(prompt, attachment)
	} else {
		msg = llm.NewUserMessage(prompt)
	}

	req := llm.NewCompletionRequest([]llm.CompletionMessage{msg})
	req.MaxTokens = llm.VerifierMaxTokens
	req.Temperature = llm.TemperatureDeterministic

	resp, err := client.Complete(ctx, req)
	if err != nil {
		return nil, nil, fmt.Errorf("solver request failed: %w", err)
	}

	answers, scores, err := extractAnswers(utils.ExtractJSON(resp.Content), q.Part)
	if err != nil {
		return nil, nil, fmt.Errorf("could not parse solver response: %w", err)
	}
	return answers, scores, nil
}

// judge applies the confidence threshold and answer comparison. ok is false
// when the question fails, with the verdict to record.
func (v *Verifier) judge(answers []string, scores []int, want []string) (persistence.VerifyStatus, string, bool) {
	for _, score := range scores {
		if score < v.threshold {
			return persistence.StatusInvalid,
				fmt.Sprintf("low confidence: answers %v scores %v", answers, scores), false
		}
	}
	if !answersEqual(answers, want) {
		return persistence.StatusInvalid,
			fmt.Sprintf("answer mismatch: solver picked %v with confidence %v, bank has %v",
				answers, scores, want), false
	}
	return persistence.StatusValid, "", true
}
