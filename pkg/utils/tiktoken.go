// Package utils provides tiktoken-based token counting utilities.
package utils

import (
	"fmt"

	"github.com/tiktoken-go/tokenizer"

	"toeicq/pkg/config"
)

// TokenCounter provides accurate token counting for different models.
type TokenCounter struct {
	codec tokenizer.Codec
}

// NewTokenCounter creates a new token counter for the specified model.
// Supported models are defined as constants in config package. All use GPT-4 encoding.
func NewTokenCounter(model string) (*TokenCounter, error) {
	// Map model names to tiktoken models, defaulting to GPT-4
	var tikModel tokenizer.Model
	switch model {
	case config.ModelGPT5Mini, config.ModelGPT5, config.ModelGPT4o:
		tikModel = tokenizer.GPT4
	case config.ModelClaudeSonnet4, config.ModelClaudeHaiku35:
		// Claude uses a similar tokenization, approximate with GPT-4 encoding
		tikModel = tokenizer.GPT4
	default:
		// Default to GPT-4 encoding for unknown models
		tikModel = tokenizer.GPT4
	}

	codec, err := tokenizer.ForModel(tikModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create tokenizer codec for model %s: %w", model, err)
	}

	return &TokenCounter{codec: codec}, nil
}

// CountTokens returns the number of tokens in the given text.
func (tc *TokenCounter) CountTokens(text string) int {
	if tc.codec == nil {
		// Fallback to character-based estimation (4 chars ≈ 1 token)
		return len(text) / 4
	}

	count, err := tc.codec.Count(text)
	if err != nil {
		// Fallback to character-based estimation on error
		return len(text) / 4
	}

	return count
}

// CountTokensSimple provides a simple token counting function without requiring a TokenCounter instance.
// Uses GPT-4 encoding by default.
func CountTokensSimple(text string) int {
	counter, err := NewTokenCounter("gpt-4")
	if err != nil {
		// Fallback to character-based estimation
		return len(text) / 4
	}
	return counter.CountTokens(text)
}

// ValidateTokenLimit checks if text exceeds the specified token limit.
// Returns true if within limit, false if exceeds limit.
func (tc *TokenCounter) ValidateTokenLimit(text string, limit int) bool {
	return tc.CountTokens(text) <= limit
}
