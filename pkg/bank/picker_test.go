package bank

import (
	"errors"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toeicq/pkg/persistence"
)

func newTestOps(t *testing.T) *persistence.DatabaseOperations {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := persistence.InitializeDatabase(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return persistence.NewDatabaseOperations(db, "bank-test")
}

func insertVerified(t *testing.T, ops *persistence.DatabaseOperations, part, level int, accent, sex string) *persistence.Question {
	t.Helper()
	q := &persistence.Question{
		Question: "Who approved the budget?",
		A:        "Mr. Ito did.", B: "By Friday.", C: "In the lobby.",
		Answer: "A", Accent: accent, Sex: sex,
	}
	require.NoError(t, ops.InsertQuestions(part, level, []*persistence.Question{q}))
	require.NoError(t, ops.UpdateVerification(q.ID, persistence.StatusValid, "answer matched"))
	return q
}

func TestPickAssignsVoiceAndMarksUsed(t *testing.T) {
	ops := newTestOps(t)
	q := insertVerified(t, ops, 2, 3, "am", "woman")

	picker := NewPicker(ops, nil, nil).WithRand(rand.New(rand.NewSource(1)))
	result, err := picker.Pick(2, 3)
	require.NoError(t, err)

	assert.Equal(t, q.ID, result.ID)
	assert.Equal(t, "am", result.Accent)
	assert.Equal(t, "woman", result.Sex)
	assert.Contains(t, []string{"en-US-Neural2-E", "Joanna"}, result.TTS.Voice)

	stored, err := ops.GetQuestionByID(q.ID)
	require.NoError(t, err)
	assert.True(t, stored.Used)

	_, err = picker.Pick(2, 3)
	assert.True(t, errors.Is(err, persistence.ErrNoUnusedQuestion))
}

func TestPickFillsMissingAccentAndSex(t *testing.T) {
	ops := newTestOps(t)
	q := insertVerified(t, ops, 2, 3, "", "")

	picker := NewPicker(ops,
		Weights{"br": 100},
		Weights{"man": 100},
	).WithRand(rand.New(rand.NewSource(7)))

	result, err := picker.Pick(2, 3)
	require.NoError(t, err)
	assert.Equal(t, "br", result.Accent)
	assert.Equal(t, "man", result.Sex)

	stored, err := ops.GetQuestionByID(q.ID)
	require.NoError(t, err)
	assert.Equal(t, "br", stored.Accent)
	assert.Equal(t, "man", stored.Sex)
}

func TestPickFailsWithoutWeightsForMissingColumns(t *testing.T) {
	ops := newTestOps(t)
	insertVerified(t, ops, 2, 3, "", "")

	picker := NewPicker(ops, nil, nil).WithRand(rand.New(rand.NewSource(1)))
	_, err := picker.Pick(2, 3)
	require.Error(t, err)
}

func TestPickUnknownVoiceCombination(t *testing.T) {
	ops := newTestOps(t)
	insertVerified(t, ops, 2, 3, "uk", "man")

	picker := NewPicker(ops, nil, nil).WithRand(rand.New(rand.NewSource(1)))
	_, err := picker.Pick(2, 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no TTS settings")
}

func TestLookupTTSNormalizesInput(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	tts, err := LookupTTS(" AM ", "Man", rng)
	require.NoError(t, err)
	assert.Contains(t, []string{"en-US-Neural2-C", "Matthew"}, tts.Voice)

	_, err = LookupTTS("", "man", rng)
	require.Error(t, err)
}

func TestWeightsChoose(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	only, err := Weights{"au": 5}.Choose(rng)
	require.NoError(t, err)
	assert.Equal(t, "au", only)

	counts := map[string]int{}
	w := Weights{"am": 90, "cn": 10}
	for i := 0; i < 200; i++ {
		name, err := w.Choose(rng)
		require.NoError(t, err)
		counts[name]++
	}
	assert.Greater(t, counts["am"], counts["cn"])

	_, err = Weights{}.Choose(rng)
	require.Error(t, err)

	_, err = Weights{"am": 0}.Choose(rng)
	require.Error(t, err)
}

func TestParseWeights(t *testing.T) {
	w, err := ParseWeights(`{"am":70,"au":30}`)
	require.NoError(t, err)
	assert.Equal(t, Weights{"am": 70, "au": 30}, w)

	empty, err := ParseWeights("")
	require.NoError(t, err)
	assert.Nil(t, empty)

	_, err = ParseWeights("{not json")
	require.Error(t, err)
}
