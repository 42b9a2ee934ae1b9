// Package retry provides retry middleware for LLM clients.
package retry

import (
	"context"
	"fmt"
	"time"

	"toeicq/pkg/llm"
	"toeicq/pkg/llmerrors"
)

// Middleware returns a middleware function that wraps an LLM client with retry logic.
// It will retry failed requests according to the configured policy, with exponential backoff.
func Middleware(policy *Policy) llm.Middleware {
	return func(next llm.Client) llm.Client {
		return llm.WrapClient(
			func(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
				var lastErr error

				for attempt := 1; attempt <= policy.Config.MaxAttempts; attempt++ {
					// Wait for backoff delay (except on first attempt)
					if attempt > 1 {
						delay := policy.CalculateDelay(attempt)
						if delay > 0 {
							select {
							case <-ctx.Done():
								return llm.CompletionResponse{}, fmt.Errorf("retry cancelled: %w", ctx.Err())
							case <-time.After(delay):
								// Continue with retry
							}
						}
					}

					resp, err := next.Complete(ctx, req)
					if err == nil {
						return resp, nil
					}

					lastErr = err

					if !policy.ShouldRetry(err) {
						break
					}

					if attempt >= policy.Config.MaxAttempts {
						break
					}
				}

				// Exhausted retries on a retryable error: report persistent unavailability
				// so callers can stop the batch instead of burning more requests
				if policy.ShouldRetry(lastErr) {
					return llm.CompletionResponse{}, llmerrors.NewServiceUnavailableError(lastErr, policy.Config.MaxAttempts)
				}
				return llm.CompletionResponse{}, lastErr
			},
			func() string {
				return next.GetModelName()
			},
		)
	}
}
