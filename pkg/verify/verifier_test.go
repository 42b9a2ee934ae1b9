package verify

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toeicq/pkg/llm"
	"toeicq/pkg/persistence"
)

type scriptedClient struct {
	responses []string
	requests  []llm.CompletionRequest
}

func (c *scriptedClient) Complete(_ context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
	c.requests = append(c.requests, req)
	idx := len(c.requests) - 1
	if idx >= len(c.responses) {
		idx = len(c.responses) - 1
	}
	return llm.CompletionResponse{Content: c.responses[idx]}, nil
}

func (c *scriptedClient) GetModelName() string { return "scripted" }

func newTestOps(t *testing.T) *persistence.DatabaseOperations {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := persistence.InitializeDatabase(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return persistence.NewDatabaseOperations(db, "verify-test")
}

func insertPart2(t *testing.T, ops *persistence.DatabaseOperations, answer string) *persistence.Question {
	t.Helper()
	q := &persistence.Question{
		Question: "Where should I leave the report?",
		A:        "Since last March.",
		B:        "On my desk, please.",
		C:        "Yes, twice.",
		Answer:   answer,
	}
	require.NoError(t, ops.InsertQuestions(2, 3, []*persistence.Question{q}))
	return q
}

func TestRunMarksValidOnMatch(t *testing.T) {
	ops := newTestOps(t)
	q := insertPart2(t, ops, "B")

	client := &scriptedClient{responses: []string{`{"A":5,"B":90,"C":5}`}}
	v := NewVerifier(ops, client, Config{})

	stats, err := v.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, &Stats{Processed: 1, Valid: 1}, stats)

	got, err := ops.GetQuestionByID(q.ID)
	require.NoError(t, err)
	assert.Equal(t, persistence.StatusValid, got.Valid)
	assert.Contains(t, got.ValidStatus, "matched")
}

func TestRunMarksInvalidOnMismatch(t *testing.T) {
	ops := newTestOps(t)
	q := insertPart2(t, ops, "A")

	client := &scriptedClient{responses: []string{`{"A":5,"B":90,"C":5}`}}
	v := NewVerifier(ops, client, Config{})

	stats, err := v.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, &Stats{Processed: 1, Invalid: 1}, stats)

	got, err := ops.GetQuestionByID(q.ID)
	require.NoError(t, err)
	assert.Equal(t, persistence.StatusInvalid, got.Valid)
	assert.Contains(t, got.ValidStatus, "mismatch")
}

func TestRunMarksInvalidOnLowConfidence(t *testing.T) {
	ops := newTestOps(t)
	insertPart2(t, ops, "B")

	client := &scriptedClient{responses: []string{`{"A":20,"B":60,"C":20}`}}
	v := NewVerifier(ops, client, Config{})

	stats, err := v.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, &Stats{Processed: 1, Invalid: 1}, stats)
}

func TestRunMarksErrorOnGarbageResponse(t *testing.T) {
	ops := newTestOps(t)
	q := insertPart2(t, ops, "B")

	client := &scriptedClient{responses: []string{`I cannot answer that.`}}
	v := NewVerifier(ops, client, Config{})

	stats, err := v.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, &Stats{Processed: 1, Errors: 1}, stats)

	got, err := ops.GetQuestionByID(q.ID)
	require.NoError(t, err)
	assert.Equal(t, persistence.StatusError, got.Valid)
}

func TestRunCrossCheckMustAgree(t *testing.T) {
	ops := newTestOps(t)
	insertPart2(t, ops, "B")

	primary := &scriptedClient{responses: []string{`{"A":5,"B":90,"C":5}`}}
	cross := &scriptedClient{responses: []string{`{"A":90,"B":5,"C":5}`}}
	v := NewVerifier(ops, primary, Config{CrossClient: cross})

	stats, err := v.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, &Stats{Processed: 1, Invalid: 1}, stats)
	assert.Len(t, cross.requests, 1)
}

func TestRunCustomThreshold(t *testing.T) {
	ops := newTestOps(t)
	insertPart2(t, ops, "B")

	client := &scriptedClient{responses: []string{`{"A":20,"B":60,"C":20}`}}
	v := NewVerifier(ops, client, Config{Threshold: 50})

	stats, err := v.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, &Stats{Processed: 1, Valid: 1}, stats)
}

func TestSolveAttachesPart1Image(t *testing.T) {
	ops := newTestOps(t)

	photoRoot := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(photoRoot, "p1"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(photoRoot, "p1", "scene.png"), []byte("not a real png"), 0o644))

	q := &persistence.Question{
		A: "She is painting a fence.", B: "She is sweeping.", C: "She is watering plants.",
		D: "She is closing a window.", Answer: "C",
		ImgPrompt: "A woman watering plants.", Img: "scene.png",
	}
	require.NoError(t, ops.InsertQuestions(1, 2, []*persistence.Question{q}))

	client := &scriptedClient{responses: []string{`{"A":0,"B":5,"C":91,"D":4}`}}
	v := NewVerifier(ops, client, Config{PhotoRoot: photoRoot})

	stats, err := v.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, &Stats{Processed: 1, Valid: 1}, stats)

	require.Len(t, client.requests, 1)
	require.Len(t, client.requests[0].Messages, 1)
	images := client.requests[0].Messages[0].Images
	require.Len(t, images, 1)
	assert.Equal(t, "image/png", images[0].MediaType)
}

func TestRunPart3Set(t *testing.T) {
	ops := newTestOps(t)

	script, _ := json.Marshal([]scriptLine{
		{Speaker: "man1", Line: "Did the shipment arrive?"},
		{Speaker: "woman1", Line: "Yes, this morning."},
	})
	q := &persistence.Question{
		Question: `["What arrived?","When did it arrive?","What will the woman do?"]`,
		Answer:   `["A","B","C"]`,
		A:        `["A shipment","Last week","Leave"]`,
		B:        `["A letter","This morning","Call a client"]`,
		C:        `["A guest","Tomorrow","Check the inventory"]`,
		D:        `["An invoice","At noon","Unpack alone"]`,
		Prompt:   string(script),
	}
	require.NoError(t, ops.InsertQuestions(3, 4, []*persistence.Question{q}))

	client := &scriptedClient{responses: []string{
		`[{"A":92,"B":3,"C":3,"D":2},{"A":2,"B":95,"C":2,"D":1},{"A":0,"B":5,"C":90,"D":5}]`,
	}}
	v := NewVerifier(ops, client, Config{})

	stats, err := v.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, &Stats{Processed: 1, Valid: 1}, stats)

	prompt := client.requests[0].Messages[0].Content
	assert.Contains(t, prompt, "Did the shipment arrive?")
	assert.Contains(t, prompt, "Question3: What will the woman do?")
}
