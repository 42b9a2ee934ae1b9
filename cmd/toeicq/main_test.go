package main

import (
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toeicq/pkg/config"
	"toeicq/pkg/persistence"
)

func TestImgCommandRecordsRenderedFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Cleanup(func() {
		_ = persistence.Reset()
		config.SetConfigForTesting(nil)
	})

	dbPath := filepath.Join(dir, "bank.db")
	db, err := persistence.InitializeDatabase(dbPath)
	require.NoError(t, err)
	seed := persistence.NewDatabaseOperations(db, "seed")
	qs := []*persistence.Question{{
		Answer:    "A",
		A:         "A man is painting a fence.",
		B:         "A man is mowing the lawn.",
		C:         "A man is washing a car.",
		D:         "A man is raking leaves.",
		ImgPrompt: "a man painting a wooden fence in a backyard",
	}}
	require.NoError(t, seed.InsertQuestions(1, 2, qs))
	require.NoError(t, db.Close())

	code := run([]string{"img", "--db", dbPath,
		"--id", strconv.FormatInt(qs[0].ID, 10), "--file", "fence.png"})
	require.Equal(t, 0, code)

	db, err = persistence.InitializeDatabase(dbPath)
	require.NoError(t, err)
	defer db.Close()
	got, err := persistence.NewDatabaseOperations(db, "").GetQuestionByID(qs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "fence.png", got.Img)
}

func TestImgCommandRequiresExistingQuestion(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Cleanup(func() {
		_ = persistence.Reset()
		config.SetConfigForTesting(nil)
	})

	dbPath := filepath.Join(dir, "bank.db")
	code := run([]string{"img", "--db", dbPath, "--id", "42", "--file", "missing.png"})
	assert.Equal(t, 1, code)
}

func TestConfigCommandPersistsModelSelection(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Cleanup(func() { config.SetConfigForTesting(nil) })

	code := run([]string{"config", "--generator", config.ModelClaudeSonnet4})
	require.Equal(t, 0, code)

	// Reload from disk to prove the selection was persisted.
	config.SetConfigForTesting(nil)
	require.NoError(t, config.LoadConfig(dir))
	cfg, err := config.GetConfig()
	require.NoError(t, err)
	assert.Equal(t, config.ModelClaudeSonnet4, cfg.Models.Generator)
	assert.Equal(t, config.DefaultVerifierModel, cfg.Models.Verifier)
}

func TestConfigCommandRejectsUnknownModel(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Cleanup(func() { config.SetConfigForTesting(nil) })

	code := run([]string{"config", "--generator", "llama-3-70b"})
	assert.Equal(t, 1, code)
}
