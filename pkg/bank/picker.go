// Package bank dispenses verified questions from the store, assigning each
// a speaker voice for audio rendering.
package bank

import (
	"fmt"
	"math/rand"
	"time"

	"toeicq/pkg/logx"
	"toeicq/pkg/persistence"
)

// Result is a dispensed question enriched with its voice assignment.
type Result struct {
	*persistence.Question
	TTS TTSSetting `json:"tts"`
}

// Picker draws unused, verified questions and marks them consumed.
type Picker struct {
	ops     *persistence.DatabaseOperations
	logger  *logx.Logger
	rng     *rand.Rand
	accents Weights
	sexes   Weights
}

// NewPicker creates a picker. The accent and sex weight maps supply values
// for questions whose columns are still unassigned; they may be nil when
// every candidate row already carries both.
func NewPicker(ops *persistence.DatabaseOperations, accents, sexes Weights) *Picker {
	return &Picker{
		ops:     ops,
		logger:  logx.NewLogger("bank"),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		accents: accents,
		sexes:   sexes,
	}
}

// WithRand replaces the random source. Tests use this for determinism.
func (p *Picker) WithRand(rng *rand.Rand) *Picker {
	p.rng = rng
	return p
}

// Pick dispenses one question for the part and level. Missing accent or sex
// is drawn from the weight maps, the TTS voice is resolved, and the row is
// marked used. Callers distinguish an empty bank via
// persistence.ErrNoUnusedQuestion.
func (p *Picker) Pick(part, level int) (*Result, error) {
	q, err := p.ops.PickUnused(part, level)
	if err != nil {
		return nil, err
	}

	accent := q.Accent
	if accent == "" {
		if accent, err = p.accents.Choose(p.rng); err != nil {
			return nil, fmt.Errorf("failed to choose accent for question %d: %w", q.ID, err)
		}
	}
	sex := q.Sex
	if sex == "" {
		if sex, err = p.sexes.Choose(p.rng); err != nil {
			return nil, fmt.Errorf("failed to choose sex for question %d: %w", q.ID, err)
		}
	}

	tts, err := LookupTTS(accent, sex, p.rng)
	if err != nil {
		return nil, fmt.Errorf("question %d: %w", q.ID, err)
	}

	if err := p.ops.MarkUsed(q.ID, accent, sex); err != nil {
		return nil, err
	}
	q.Used = true
	q.Accent = accent
	q.Sex = sex

	p.logger.Info("dispensed question %d (part %d, level %d) accent=%s sex=%s voice=%s/%s",
		q.ID, part, level, accent, sex, tts.Engine, tts.Voice)

	return &Result{Question: q, TTS: tts}, nil
}
