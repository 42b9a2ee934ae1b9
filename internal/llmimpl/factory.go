// Package llmimpl wires provider clients into the middleware chain used by
// the generator, verifier, and cross-verifier.
package llmimpl

import (
	"fmt"
	"time"

	"toeicq/internal/llmimpl/anthropic"
	"toeicq/internal/llmimpl/openaiofficial"
	"toeicq/pkg/config"
	"toeicq/pkg/llm"
	metricsmw "toeicq/pkg/llm/middleware/metrics"
	"toeicq/pkg/llm/middleware/retry"
	"toeicq/pkg/logx"
	"toeicq/pkg/metrics"
)

// Factory creates LLM clients with the full middleware chain applied.
type Factory struct {
	recorder metrics.Recorder
	logger   *logx.Logger
	batchID  string
	part     int
}

// NewFactory creates a client factory tagging all requests with the given
// batch ID and TOEIC part.
func NewFactory(recorder metrics.Recorder, logger *logx.Logger, batchID string, part int) *Factory {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Factory{
		recorder: recorder,
		logger:   logger,
		batchID:  batchID,
		part:     part,
	}
}

// NewClient creates an LLM client for the given model with metrics and retry
// middleware applied.
func (f *Factory) NewClient(modelName string) (llm.Client, error) {
	provider, err := config.GetModelProvider(modelName)
	if err != nil {
		return nil, fmt.Errorf("failed to determine provider for model %s: %w", modelName, err)
	}

	apiKey, err := config.GetAPIKey(provider)
	if err != nil {
		return nil, fmt.Errorf("failed to get API key for provider %s: %w", provider, err)
	}

	var rawClient llm.Client
	switch provider {
	case config.ProviderAnthropic:
		rawClient = anthropic.NewClaudeClientWithModel(apiKey, modelName)
	case config.ProviderOpenAI:
		rawClient = openaiofficial.NewOfficialClientWithModel(apiKey, modelName)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}

	retryPolicy := retry.NewPolicy(retry.Config{
		MaxAttempts:   config.MaxRetryAttempts,
		InitialDelay:  500 * time.Millisecond,
		MaxDelay:      30 * time.Second,
		BackoffFactor: config.RetryBackoffMultiplier,
		Jitter:        true,
	}, nil)

	// Metrics -> Retry -> RawClient, so each logical request is recorded once
	// regardless of how many attempts the retry layer makes.
	client := llm.Chain(rawClient,
		metricsmw.Middleware(f.recorder, nil, f.batchID, f.part, f.logger),
		retry.Middleware(retryPolicy),
	)

	return client, nil
}
