package llmerrors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		errorType ErrorType
		retryable bool
	}{
		{ErrorTypeRateLimit, true},
		{ErrorTypeTransient, true},
		{ErrorTypeEmptyResponse, true},
		{ErrorTypeAuth, false},
		{ErrorTypeBadPrompt, false},
		{ErrorTypeBadOutput, false},
		{ErrorTypeServiceUnavailable, false},
	}

	for _, tt := range tests {
		t.Run(tt.errorType.String(), func(t *testing.T) {
			err := NewError(tt.errorType, "test")
			if err.IsRetryable() != tt.retryable {
				t.Errorf("IsRetryable() = %v, want %v", err.IsRetryable(), tt.retryable)
			}
		})
	}
}

func TestTypeOfUnwrapsThroughWrapping(t *testing.T) {
	inner := NewErrorWithStatus(ErrorTypeRateLimit, 429, "too many requests")
	wrapped := fmt.Errorf("request failed: %w", inner)

	if got := TypeOf(wrapped); got != ErrorTypeRateLimit {
		t.Errorf("TypeOf(wrapped) = %v, want rate_limit", got)
	}
	if !Is(wrapped, ErrorTypeRateLimit) {
		t.Error("Is(wrapped, rate_limit) = false, want true")
	}
	if TypeOf(errors.New("plain")) != ErrorTypeUnknown {
		t.Error("plain errors should classify as unknown")
	}
}

func TestServiceUnavailableFromExhaustedRetries(t *testing.T) {
	cause := NewError(ErrorTypeTransient, "connection reset")
	err := NewServiceUnavailableError(cause, 3)

	if !IsServiceUnavailable(err) {
		t.Error("expected service unavailable classification")
	}
	if err.IsRetryable() {
		t.Error("exhausted-retry errors must not be retryable")
	}
	if !errors.Is(err, cause) {
		t.Error("expected the transient cause to remain in the chain")
	}
}

func TestSanitizePromptTruncatesLargeInput(t *testing.T) {
	prompt := strings.Repeat("abcdefghij", 200)
	out := SanitizePrompt(prompt, 400)

	if len(out) >= len(prompt) {
		t.Errorf("sanitized prompt not truncated: %d chars", len(out))
	}
	if !strings.Contains(out, "hash:") {
		t.Error("expected content hash in sanitized prompt")
	}

	short := "keep me"
	if SanitizePrompt(short, 400) != short {
		t.Error("short prompts should pass through unchanged")
	}
}
