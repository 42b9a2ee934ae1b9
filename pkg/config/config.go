// Package config provides configuration loading, validation, and management
// for the TOEIC question pipeline.
//
// The package keeps a single global Config instance in memory, protected by a
// mutex. GetConfig() returns the config BY VALUE (copy, not reference) to
// prevent external mutation; all updates go through the Update* functions,
// which validate and persist atomically. Schema changes MUST increment
// SchemaVersion.
//
// Model pricing and provider mappings are hardcoded in KnownModels and
// ProviderPatterns, not user-configurable.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"toeicq/pkg/logx"
)

// Global config instance with mutex protection.
// projectDir is set once during LoadConfig and never changes.
//
//nolint:gochecknoglobals // Intentional singleton pattern for config management
var (
	config     *Config
	projectDir string
	logger     *logx.Logger
	mu         sync.RWMutex
)

func getLogger() *logx.Logger {
	if logger == nil {
		logger = logx.NewLogger("config")
	}
	return logger
}

// LogInfo logs an info message using the config logger.
func LogInfo(format string, args ...interface{}) {
	getLogger().Info(format, args...)
}

// ModelInfo contains static information about a known LLM model.
type ModelInfo struct {
	Provider        string  // API provider (anthropic, openai)
	InputCPM        float64 // Cost per million input tokens (USD)
	OutputCPM       float64 // Cost per million output tokens (USD)
	MaxOutputTokens int     // Maximum output tokens per request
	Vision          bool    // Whether the model accepts image input
}

// KnownModels registry contains pricing and provider information for common
// models. Unknown models are inferred via ProviderPatterns.
//
//nolint:gochecknoglobals // Intentional global for static model registry
var KnownModels = map[string]ModelInfo{
	ModelGPT5Mini: {
		Provider:        ProviderOpenAI,
		InputCPM:        0.25,
		OutputCPM:       2.0,
		MaxOutputTokens: 16384,
		Vision:          true,
	},
	ModelGPT5: {
		Provider:        ProviderOpenAI,
		InputCPM:        20.0,
		OutputCPM:       60.0,
		MaxOutputTokens: 4096,
		Vision:          true,
	},
	ModelGPT4o: {
		Provider:        ProviderOpenAI,
		InputCPM:        2.5,
		OutputCPM:       10.0,
		MaxOutputTokens: 4096,
		Vision:          true,
	},
	ModelClaudeSonnet4: {
		Provider:        ProviderAnthropic,
		InputCPM:        3.0,
		OutputCPM:       15.0,
		MaxOutputTokens: 8192,
		Vision:          true,
	},
	ModelClaudeHaiku35: {
		Provider:        ProviderAnthropic,
		InputCPM:        0.8,
		OutputCPM:       4.0,
		MaxOutputTokens: 8192,
		Vision:          true,
	},
}

// ProviderPattern represents a pattern for inferring provider from model name.
type ProviderPattern struct {
	Prefix   string
	Provider string
}

// ProviderPatterns defines rules for inferring providers from unknown model
// names, so new models work without code changes.
//
//nolint:gochecknoglobals // Intentional global for inference rules
var ProviderPatterns = []ProviderPattern{
	{"claude", ProviderAnthropic},
	{"gpt", ProviderOpenAI},
	{"o1", ProviderOpenAI},
	{"o3", ProviderOpenAI},
	{"o4", ProviderOpenAI},
}

// GetModelProvider returns the API provider for a given model.
// Returns an error if the model cannot be mapped to a provider.
func GetModelProvider(modelName string) (string, error) {
	if info, exists := KnownModels[modelName]; exists {
		return info.Provider, nil
	}

	for i := range ProviderPatterns {
		if strings.HasPrefix(modelName, ProviderPatterns[i].Prefix) {
			return ProviderPatterns[i].Provider, nil
		}
	}

	return "", fmt.Errorf("unknown model '%s': no known provider mapping or pattern match", modelName)
}

// GetModelInfo returns the ModelInfo for a given model name, or a conservative
// default with inferred provider if the model is not in KnownModels.
func GetModelInfo(modelName string) (ModelInfo, bool) {
	if info, exists := KnownModels[modelName]; exists {
		return info, true
	}

	provider := ""
	for i := range ProviderPatterns {
		if strings.HasPrefix(modelName, ProviderPatterns[i].Prefix) {
			provider = ProviderPatterns[i].Provider
			break
		}
	}

	return ModelInfo{
		Provider:        provider,
		InputCPM:        0.0, // No cost tracking for unknown models
		OutputCPM:       0.0,
		MaxOutputTokens: 4096,
	}, false
}

// Constants bundled together for easy maintenance.
const (
	// TOEIC parameter bounds.
	MinPart  = 1
	MaxPart  = 4
	MinLevel = 1
	MaxLevel = 5

	// Verification behavior.
	DefaultConfidenceThreshold = 85 // Minimum per-question confidence to accept

	// Retry behavior for LLM calls.
	MaxRetryAttempts       = 3
	RetryBackoffMultiplier = 2.0

	// Model name constants.
	ModelGPT5Mini      = "gpt-5-mini-2025-08-07"
	ModelGPT5          = "gpt-5"
	ModelGPT4o         = "gpt-4o"
	ModelClaudeSonnet4 = "claude-sonnet-4-5"
	ModelClaudeHaiku35 = "claude-3-5-haiku-latest"

	DefaultGeneratorModel = ModelGPT5Mini
	DefaultVerifierModel  = ModelGPT5Mini
	DefaultCrossModel     = ModelClaudeSonnet4

	// Provider constants.
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"

	// API key environment variable names.
	EnvOpenAIAPIKey    = "OPENAI_API_KEY"
	EnvAnthropicAPIKey = "ANTHROPIC_API_KEY"

	// Passphrase for the encrypted secrets file. When unset and the file
	// exists, the CLI prompts interactively.
	EnvSecretsPassphrase = "TOEICQ_SECRETS_PASSPHRASE"

	// Project config constants.
	ProjectConfigDir      = ".toeicq"
	ProjectConfigFilename = "config.json"
	DefaultDatabasePath   = "data/toeic.db"
	DefaultPhotoRoot      = "assets/photo/toeic"
	DefaultWorkspaceDir   = "workspace"
	DefaultPipelineFile   = "pipeline.yaml"
	DefaultLogRotation    = 4
	SchemaVersion         = "1.0"
)

// ModelsConfig selects which models each operation uses.
type ModelsConfig struct {
	Generator     string `json:"generator"`      // Model for question generation
	Verifier      string `json:"verifier"`       // Model for answer verification
	CrossVerifier string `json:"cross_verifier"` // Second-provider model for --cross verification
}

// DatabaseConfig contains question store settings.
type DatabaseConfig struct {
	Path string `json:"path"` // SQLite database file path (default: data/toeic.db)
}

// AssetsConfig locates rendered question assets on disk.
type AssetsConfig struct {
	// PhotoRoot is the directory holding question images, organized as
	// <PhotoRoot>/p<part>/<filename>.
	PhotoRoot string `json:"photo_root"`
}

// PipelineConfig contains stage-runner settings.
type PipelineConfig struct {
	WorkspaceDir string `json:"workspace_dir"` // Directory whose subdirectories are pipeline entries
	File         string `json:"file"`          // Pipeline definition file (default: pipeline.yaml)
}

// MetricsConfig defines configuration for metrics collection.
type MetricsConfig struct {
	Enabled        bool   `json:"enabled"`         // Whether Prometheus metrics are recorded
	PrometheusURL  string `json:"prometheus_url"`  // Prometheus server URL for stats queries
	PushgatewayURL string `json:"pushgateway_url"` // Pushgateway URL metrics are pushed to on exit; empty disables the push
}

// VerifyConfig contains verification thresholds.
type VerifyConfig struct {
	ConfidenceThreshold int `json:"confidence_threshold"` // Minimum confidence score (default: 85)
}

// LogsConfig contains log file management configuration.
type LogsConfig struct {
	RotationCount int `json:"rotation_count"` // Number of old log files to keep (default: 4)
}

// ProjectInfo contains basic project metadata.
type ProjectInfo struct {
	Name string `json:"name"`
}

// Config represents the persisted project configuration.
// Contains only user-configurable settings; pricing and provider mappings are
// hardcoded in KnownModels.
type Config struct {
	SchemaVersion string `json:"schema_version"` // MUST increment for breaking changes

	Project  *ProjectInfo    `json:"project"`
	Models   *ModelsConfig   `json:"models"`
	Database *DatabaseConfig `json:"database"`
	Assets   *AssetsConfig   `json:"assets"`
	Pipeline *PipelineConfig `json:"pipeline"`
	Metrics  *MetricsConfig  `json:"metrics"`
	Verify   *VerifyConfig   `json:"verify"`
	Logs     *LogsConfig     `json:"logs"`
}

// GetConfig returns the current global config BY VALUE (copy, not reference).
// Must call LoadConfig first to initialize the global config.
func GetConfig() (Config, error) {
	mu.RLock()
	defer mu.RUnlock()
	if config == nil {
		return Config{}, fmt.Errorf("config not initialized - call LoadConfig first")
	}
	return *config, nil
}

// GetProjectDir returns the current project directory.
func GetProjectDir() string {
	mu.RLock()
	defer mu.RUnlock()
	return projectDir
}

// GetProjectConfigDir returns the path to the .toeicq directory.
// Must call LoadConfig first to initialize projectDir.
func GetProjectConfigDir() (string, error) {
	mu.RLock()
	defer mu.RUnlock()
	if projectDir == "" {
		return "", fmt.Errorf("config not initialized - call LoadConfig first")
	}
	return filepath.Join(projectDir, ProjectConfigDir), nil
}

// SetConfigForTesting sets the global config for testing purposes.
// Pass nil to reset. Bypasses normal initialization; tests only.
func SetConfigForTesting(cfg *Config) {
	mu.Lock()
	defer mu.Unlock()
	config = cfg
	if cfg == nil {
		projectDir = ""
	}
}

// LoadConfig loads the configuration from <projectDir>/.toeicq/config.json
// into the global singleton.
//
// Behavior:
// - Missing file: creates new config with defaults and saves it
// - Existing file: loads and validates, applying defaults for missing fields
// - Unparseable file: returns error to avoid overwriting user changes
func LoadConfig(inputProjectDir string) error {
	mu.Lock()
	defer mu.Unlock()

	projectDir = inputProjectDir
	configPath := filepath.Join(projectDir, ProjectConfigDir, ProjectConfigFilename)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		getLogger().Info("Config file not found, creating new config at %s", configPath)
		config = createDefaultConfig()
		if err := validateConfig(config); err != nil {
			return fmt.Errorf("default config validation failed: %w", err)
		}
		if err := saveConfigLocked(); err != nil {
			return fmt.Errorf("failed to save initial config: %w", err)
		}
		return nil
	}

	getLogger().Info("Loading config from %s", configPath)
	loadedConfig, err := loadConfigFromFile(configPath)
	if err != nil {
		return fmt.Errorf("fatal: config file exists but cannot be parsed (to avoid overwriting your changes): %w", err)
	}

	applyDefaults(loadedConfig)
	if err := validateConfig(loadedConfig); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	config = loadedConfig

	// Save config back to disk with applied defaults, so old files pick up
	// new sections.
	if err := saveConfigLocked(); err != nil {
		return fmt.Errorf("failed to save config with applied defaults: %w", err)
	}

	return nil
}

// UpdateModels updates the model selection atomically and persists to disk.
func UpdateModels(models *ModelsConfig) error {
	mu.Lock()
	defer mu.Unlock()

	if config == nil {
		return fmt.Errorf("config not initialized - call LoadConfig first")
	}

	oldModels := config.Models
	config.Models = models

	for _, name := range []string{models.Generator, models.Verifier, models.CrossVerifier} {
		if _, err := GetModelProvider(name); err != nil {
			config.Models = oldModels
			return fmt.Errorf("invalid model selection: %w", err)
		}
	}

	return saveConfigLocked()
}

// UpdateDatabase updates the database settings atomically and persists to disk.
func UpdateDatabase(db *DatabaseConfig) error {
	mu.Lock()
	defer mu.Unlock()

	if config == nil {
		return fmt.Errorf("config not initialized - call LoadConfig first")
	}
	if db.Path == "" {
		return fmt.Errorf("database path cannot be empty")
	}

	config.Database = db
	return saveConfigLocked()
}

func createDefaultConfig() *Config {
	cfg := &Config{SchemaVersion: SchemaVersion}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults fills in any missing sections or fields.
func applyDefaults(cfg *Config) {
	if cfg.SchemaVersion == "" {
		cfg.SchemaVersion = SchemaVersion
	}
	if cfg.Project == nil {
		cfg.Project = &ProjectInfo{Name: "toeicq"}
	}
	if cfg.Models == nil {
		cfg.Models = &ModelsConfig{}
	}
	if cfg.Models.Generator == "" {
		cfg.Models.Generator = DefaultGeneratorModel
	}
	if cfg.Models.Verifier == "" {
		cfg.Models.Verifier = DefaultVerifierModel
	}
	if cfg.Models.CrossVerifier == "" {
		cfg.Models.CrossVerifier = DefaultCrossModel
	}
	if cfg.Database == nil {
		cfg.Database = &DatabaseConfig{}
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = DefaultDatabasePath
	}
	if cfg.Assets == nil {
		cfg.Assets = &AssetsConfig{}
	}
	if cfg.Assets.PhotoRoot == "" {
		cfg.Assets.PhotoRoot = DefaultPhotoRoot
	}
	if cfg.Pipeline == nil {
		cfg.Pipeline = &PipelineConfig{}
	}
	if cfg.Pipeline.WorkspaceDir == "" {
		cfg.Pipeline.WorkspaceDir = DefaultWorkspaceDir
	}
	if cfg.Pipeline.File == "" {
		cfg.Pipeline.File = DefaultPipelineFile
	}
	if cfg.Metrics == nil {
		cfg.Metrics = &MetricsConfig{Enabled: true}
	}
	if cfg.Verify == nil {
		cfg.Verify = &VerifyConfig{}
	}
	if cfg.Verify.ConfidenceThreshold == 0 {
		cfg.Verify.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	if cfg.Logs == nil {
		cfg.Logs = &LogsConfig{}
	}
	if cfg.Logs.RotationCount == 0 {
		cfg.Logs.RotationCount = DefaultLogRotation
	}
}

// validateConfig rejects configs that cannot drive the pipeline.
func validateConfig(cfg *Config) error {
	if cfg.Models == nil {
		return fmt.Errorf("models section is required")
	}
	for _, name := range []string{cfg.Models.Generator, cfg.Models.Verifier, cfg.Models.CrossVerifier} {
		if _, err := GetModelProvider(name); err != nil {
			return fmt.Errorf("model validation failed: %w", err)
		}
	}
	if cfg.Database == nil || cfg.Database.Path == "" {
		return fmt.Errorf("database path cannot be empty")
	}
	if cfg.Verify != nil && (cfg.Verify.ConfidenceThreshold < 1 || cfg.Verify.ConfidenceThreshold > 100) {
		return fmt.Errorf("confidence threshold must be between 1 and 100, got %d", cfg.Verify.ConfidenceThreshold)
	}
	return nil
}

func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &cfg, nil
}

// saveConfigLocked persists the global config atomically (write temp, rename).
// Caller must hold mu.
func saveConfigLocked() error {
	configDir := filepath.Join(projectDir, ProjectConfigDir)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	configPath := filepath.Join(configDir, ProjectConfigFilename)
	tmpPath := configPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := os.Rename(tmpPath, configPath); err != nil {
		return fmt.Errorf("failed to replace config file: %w", err)
	}
	return nil
}

// GetAPIKey resolves the API key for a provider, preferring the environment
// and falling back to decrypted secrets.
func GetAPIKey(provider string) (string, error) {
	var envName string
	switch provider {
	case ProviderOpenAI:
		envName = EnvOpenAIAPIKey
	case ProviderAnthropic:
		envName = EnvAnthropicAPIKey
	default:
		return "", fmt.Errorf("unknown provider: %s", provider)
	}

	if key := os.Getenv(envName); key != "" {
		return key, nil
	}
	if key := GetSecret(envName); key != "" {
		return key, nil
	}
	return "", fmt.Errorf("no API key for provider %s: set %s or add it to the secrets file", provider, envName)
}
