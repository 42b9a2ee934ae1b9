// Package metrics provides metrics middleware for LLM clients.
package metrics

import (
	"context"
	"time"

	"toeicq/pkg/config"
	"toeicq/pkg/llm"
	"toeicq/pkg/llmerrors"
	"toeicq/pkg/logx"
	"toeicq/pkg/metrics"
	"toeicq/pkg/utils"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// UsageExtractor is a function that extracts token usage from a request and response.
type UsageExtractor func(req llm.CompletionRequest, resp llm.CompletionResponse) (promptTokens, completionTokens int)

// DefaultUsageExtractor provides a default implementation using TikToken for token counting.
func DefaultUsageExtractor(req llm.CompletionRequest, resp llm.CompletionResponse) (promptTokens, completionTokens int) {
	// Count prompt tokens from all messages
	var promptText string
	for i := range req.Messages {
		promptText += req.Messages[i].Content + "\n"
	}
	promptTokens = utils.CountTokensSimple(promptText)

	// Count completion tokens from response content
	completionTokens = utils.CountTokensSimple(resp.Content)

	return promptTokens, completionTokens
}

// Middleware returns a middleware function that records metrics for LLM operations.
// It tracks request latency, token usage, estimated cost, success/failure rates,
// and error types, tagged with the batch ID and TOEIC part being processed.
func Middleware(recorder metrics.Recorder, usageExtractor UsageExtractor, batchID string, part int, logger *logx.Logger) llm.Middleware {
	if usageExtractor == nil {
		usageExtractor = DefaultUsageExtractor
	}

	return func(next llm.Client) llm.Client {
		return llm.WrapClient(
			func(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
				start := time.Now()

				model := next.GetModelName()

				resp, err := next.Complete(ctx, req)
				duration := time.Since(start)

				var promptTokens, completionTokens int
				if err == nil {
					promptTokens, completionTokens = usageExtractor(req, resp)
				}

				errorType := ""
				if err != nil {
					errorType = llmerrors.TypeOf(err).String()
				}

				recorder.ObserveRequest(
					model,
					batchID,
					part,
					promptTokens,
					completionTokens,
					estimateCost(model, promptTokens, completionTokens),
					err == nil,
					errorType,
					duration,
				)

				if logger != nil {
					status := statusSuccess
					if err != nil {
						status = statusError
					}
					totalTokens := promptTokens + completionTokens
					logger.Debug("LLM request: model=%s batch=%s part=%d tokens=%d+%d=%d status=%s duration=%dms",
						model, batchID, part, promptTokens, completionTokens, totalTokens, status, duration.Milliseconds())
				}

				return resp, err //nolint:wrapcheck // Middleware should pass through errors unchanged
			},
			func() string {
				return next.GetModelName()
			},
		)
	}
}

// estimateCost computes the approximate USD cost of a request from the per-model
// pricing table. Unknown models cost zero.
func estimateCost(model string, promptTokens, completionTokens int) float64 {
	info, _ := config.GetModelInfo(model)
	return float64(promptTokens)/1e6*info.InputCPM + float64(completionTokens)/1e6*info.OutputCPM
}
