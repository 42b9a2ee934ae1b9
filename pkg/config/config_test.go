package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigCreatesDefaults(t *testing.T) {
	dir := t.TempDir()
	defer SetConfigForTesting(nil)

	require.NoError(t, LoadConfig(dir))

	cfg, err := GetConfig()
	require.NoError(t, err)

	assert.Equal(t, SchemaVersion, cfg.SchemaVersion)
	assert.Equal(t, DefaultGeneratorModel, cfg.Models.Generator)
	assert.Equal(t, DefaultVerifierModel, cfg.Models.Verifier)
	assert.Equal(t, DefaultCrossModel, cfg.Models.CrossVerifier)
	assert.Equal(t, DefaultDatabasePath, cfg.Database.Path)
	assert.Equal(t, DefaultConfidenceThreshold, cfg.Verify.ConfidenceThreshold)

	// Config file should now exist on disk.
	_, err = os.Stat(filepath.Join(dir, ProjectConfigDir, ProjectConfigFilename))
	assert.NoError(t, err)
}

func TestLoadConfigPreservesExistingValues(t *testing.T) {
	dir := t.TempDir()
	defer SetConfigForTesting(nil)

	configDir := filepath.Join(dir, ProjectConfigDir)
	require.NoError(t, os.MkdirAll(configDir, 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(configDir, ProjectConfigFilename),
		[]byte(`{"schema_version":"1.0","database":{"path":"custom/questions.db"}}`),
		0o644,
	))

	require.NoError(t, LoadConfig(dir))

	cfg, err := GetConfig()
	require.NoError(t, err)
	assert.Equal(t, "custom/questions.db", cfg.Database.Path)
	// Missing sections are filled with defaults.
	assert.Equal(t, DefaultGeneratorModel, cfg.Models.Generator)
}

func TestLoadConfigRejectsUnparseableFile(t *testing.T) {
	dir := t.TempDir()
	defer SetConfigForTesting(nil)

	configDir := filepath.Join(dir, ProjectConfigDir)
	require.NoError(t, os.MkdirAll(configDir, 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(configDir, ProjectConfigFilename),
		[]byte("{not json"),
		0o644,
	))

	err := LoadConfig(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be parsed")
}

func TestGetModelProvider(t *testing.T) {
	provider, err := GetModelProvider(ModelGPT5Mini)
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, provider)

	provider, err = GetModelProvider(ModelClaudeSonnet4)
	require.NoError(t, err)
	assert.Equal(t, ProviderAnthropic, provider)

	// Pattern inference for unknown model names.
	provider, err = GetModelProvider("gpt-6-preview")
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, provider)

	_, err = GetModelProvider("mystery-model")
	assert.Error(t, err)
}

func TestUpdateModelsRejectsUnknownModel(t *testing.T) {
	dir := t.TempDir()
	defer SetConfigForTesting(nil)

	require.NoError(t, LoadConfig(dir))

	err := UpdateModels(&ModelsConfig{
		Generator:     "mystery-model",
		Verifier:      DefaultVerifierModel,
		CrossVerifier: DefaultCrossModel,
	})
	require.Error(t, err)

	// Old selection is restored on failure.
	cfg, err := GetConfig()
	require.NoError(t, err)
	assert.Equal(t, DefaultGeneratorModel, cfg.Models.Generator)
}

func TestSecretsRoundTrip(t *testing.T) {
	dir := t.TempDir()

	secrets := map[string]string{
		EnvOpenAIAPIKey:    "sk-test-key",
		EnvAnthropicAPIKey: "sk-ant-test-key",
	}
	require.NoError(t, EncryptSecretsFile(dir, "hunter2", secrets))
	assert.True(t, SecretsFileExists(dir))

	decrypted, err := DecryptSecretsFile(dir, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, secrets, decrypted)

	_, err = DecryptSecretsFile(dir, "wrong-passphrase")
	assert.Error(t, err)
}

func TestEnsureSecretsLoadedServesAPIKeys(t *testing.T) {
	dir := t.TempDir()
	defer SetDecryptedSecrets(nil)

	require.NoError(t, EncryptSecretsFile(dir, "hunter2", map[string]string{
		EnvOpenAIAPIKey: "sk-from-secrets",
	}))

	t.Setenv(EnvOpenAIAPIKey, "")
	t.Setenv(EnvAnthropicAPIKey, "")
	t.Setenv(EnvSecretsPassphrase, "hunter2")

	require.NoError(t, EnsureSecretsLoaded(dir))

	key, err := GetAPIKey(ProviderOpenAI)
	require.NoError(t, err)
	assert.Equal(t, "sk-from-secrets", key)
}

func TestEnsureSecretsLoadedSkipsWhenEnvComplete(t *testing.T) {
	dir := t.TempDir()
	defer SetDecryptedSecrets(nil)

	require.NoError(t, EncryptSecretsFile(dir, "hunter2", map[string]string{
		EnvOpenAIAPIKey: "sk-from-secrets",
	}))

	// With both keys in the environment the file must not be decrypted,
	// so the wrong passphrase cannot fail the call.
	t.Setenv(EnvOpenAIAPIKey, "sk-env")
	t.Setenv(EnvAnthropicAPIKey, "sk-ant-env")
	t.Setenv(EnvSecretsPassphrase, "wrong")

	require.NoError(t, EnsureSecretsLoaded(dir))
	assert.Empty(t, GetSecret(EnvOpenAIAPIKey))
}

func TestEnsureSecretsLoadedNoFile(t *testing.T) {
	t.Setenv(EnvOpenAIAPIKey, "")
	t.Setenv(EnvAnthropicAPIKey, "")
	assert.NoError(t, EnsureSecretsLoaded(t.TempDir()))
}

func TestGetAPIKeyPrecedence(t *testing.T) {
	t.Setenv(EnvOpenAIAPIKey, "from-env")
	SetDecryptedSecrets(map[string]string{EnvOpenAIAPIKey: "from-secrets"})
	defer SetDecryptedSecrets(nil)

	key, err := GetAPIKey(ProviderOpenAI)
	require.NoError(t, err)
	assert.Equal(t, "from-env", key)

	t.Setenv(EnvOpenAIAPIKey, "")
	key, err = GetAPIKey(ProviderOpenAI)
	require.NoError(t, err)
	assert.Equal(t, "from-secrets", key)
}
