// Package anthropic provides Anthropic Claude client implementation for LLM interface.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"toeicq/pkg/config"
	"toeicq/pkg/llm"
	"toeicq/pkg/llmerrors"
)

// ClaudeClient wraps the Anthropic API client to implement llm.Client interface.
type ClaudeClient struct {
	client anthropic.Client
	model  anthropic.Model
}

// NewClaudeClient creates a new Claude client wrapper (raw client, middleware applied at higher level).
func NewClaudeClient(apiKey string) llm.Client {
	return NewClaudeClientWithModel(apiKey, config.DefaultCrossModel)
}

// NewClaudeClientWithModel creates a new Claude client with specific model (raw client, middleware applied at higher level).
func NewClaudeClientWithModel(apiKey, model string) llm.Client {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &ClaudeClient{
		client: client,
		model:  anthropic.Model(model),
	}
}

// ensureAlternation prepares messages for Anthropic API requirements.
// 1. Extracts system messages to top-level system parameter
// 2. Merges consecutive non-assistant messages into single user messages
// 3. Ensures strict user↔assistant alternation
// 4. Validates sequence ends with user message.
func ensureAlternation(messages []llm.CompletionMessage) (systemPrompt string, alternating []llm.CompletionMessage, err error) {
	if len(messages) == 0 {
		return "", nil, fmt.Errorf("message list cannot be empty")
	}

	// Step 1: Extract system messages
	var systemParts []string
	var nonSystemMessages []llm.CompletionMessage

	for i := range messages {
		msg := &messages[i]
		if msg.Role == llm.RoleSystem {
			systemParts = append(systemParts, msg.Content)
		} else {
			nonSystemMessages = append(nonSystemMessages, *msg)
		}
	}

	systemPrompt = strings.Join(systemParts, "\n\n")

	if len(nonSystemMessages) == 0 {
		return "", nil, fmt.Errorf("must have at least one non-system message")
	}

	// Step 2: Merge consecutive non-assistant messages
	var merged []llm.CompletionMessage
	var currentUserParts []string
	var currentUserImages []llm.ImageAttachment

	for i := range nonSystemMessages {
		msg := &nonSystemMessages[i]

		if msg.Role == llm.RoleAssistant {
			// Flush any accumulated user messages first
			if len(currentUserParts) > 0 || len(currentUserImages) > 0 {
				merged = append(merged, llm.CompletionMessage{
					Role:    llm.RoleUser,
					Content: strings.Join(currentUserParts, "\n\n"),
					Images:  currentUserImages,
				})
				currentUserParts = nil
				currentUserImages = nil
			}

			merged = append(merged, *msg)
		} else {
			currentUserParts = append(currentUserParts, msg.Content)
			currentUserImages = append(currentUserImages, msg.Images...)
		}
	}

	// Flush any remaining user messages
	if len(currentUserParts) > 0 || len(currentUserImages) > 0 {
		merged = append(merged, llm.CompletionMessage{
			Role:    llm.RoleUser,
			Content: strings.Join(currentUserParts, "\n\n"),
			Images:  currentUserImages,
		})
	}

	// Step 3: Validate alternation
	for i := range merged {
		msg := &merged[i]

		if i > 0 {
			prevMsg := &merged[i-1]
			if msg.Role == prevMsg.Role {
				return "", nil, fmt.Errorf("alternation violation at index %d: consecutive %s messages", i, msg.Role)
			}
		}

		if i == 0 && msg.Role != llm.RoleUser {
			return "", nil, fmt.Errorf("first message must be user role, got: %s", msg.Role)
		}
	}

	// Step 4: Ensure ends with user message
	lastMsg := &merged[len(merged)-1]
	if lastMsg.Role != llm.RoleUser {
		return "", nil, fmt.Errorf("last message must be user role, got: %s", lastMsg.Role)
	}

	return systemPrompt, merged, nil
}

// Complete implements the llm.Client interface.
func (c *ClaudeClient) Complete(ctx context.Context, in llm.CompletionRequest) (llm.CompletionResponse, error) {
	systemPrompt, alternatingMessages, err := ensureAlternation(in.Messages)
	if err != nil {
		return llm.CompletionResponse{}, llmerrors.NewError(llmerrors.ErrorTypeBadPrompt, fmt.Sprintf("message alternation error: %v", err))
	}

	messages := make([]anthropic.MessageParam, 0, len(alternatingMessages))
	for i := range alternatingMessages {
		msg := &alternatingMessages[i]
		role := anthropic.MessageParamRole(msg.Role)

		blocks := make([]anthropic.ContentBlockParamUnion, 0, 1+len(msg.Images))
		for _, img := range msg.Images {
			blocks = append(blocks, anthropic.NewImageBlockBase64(img.MediaType, img.Data))
		}
		if msg.Content != "" {
			blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
		}

		messages = append(messages, anthropic.MessageParam{
			Role:    role,
			Content: blocks,
		})
	}

	maxTokens := int64(in.MaxTokens)
	params := anthropic.MessageNewParams{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(float64(in.Temperature)),
	}

	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{
			Text: systemPrompt,
			Type: "text",
		}}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return llm.CompletionResponse{}, c.classifyError(err)
	}

	if resp == nil || len(resp.Content) == 0 {
		// Empty response is a specific type of retryable error
		return llm.CompletionResponse{}, llmerrors.NewError(llmerrors.ErrorTypeEmptyResponse, "received empty or nil response from Claude API")
	}

	var responseText string
	for i := range resp.Content {
		block := &resp.Content[i]
		if block.Type == "text" {
			textBlock := block.AsText()
			responseText += textBlock.Text
		}
	}

	return llm.CompletionResponse{
		Content:    responseText,
		StopReason: string(resp.StopReason),
	}, nil
}

// GetModelName returns the model name for this client.
func (c *ClaudeClient) GetModelName() string {
	return string(c.model)
}

// classifyError maps Anthropic SDK errors to our structured error types.
func (c *ClaudeClient) classifyError(err error) *llmerrors.Error {
	if err == nil {
		return nil
	}

	errStr := err.Error()

	if errors.Is(err, context.DeadlineExceeded) {
		return llmerrors.NewErrorWithCause(llmerrors.ErrorTypeTransient, err, "request timeout")
	}
	if errors.Is(err, context.Canceled) {
		return llmerrors.NewErrorWithCause(llmerrors.ErrorTypeTransient, err, "request canceled")
	}

	// Anthropic SDK typically includes status codes in error messages
	statusCode := extractStatusCode(errStr)

	switch statusCode {
	case 401:
		return llmerrors.NewErrorWithStatus(llmerrors.ErrorTypeAuth, statusCode, "authentication failed - check API key")
	case 403:
		return llmerrors.NewErrorWithStatus(llmerrors.ErrorTypeAuth, statusCode, "permission denied - check API access")
	case 429:
		return llmerrors.NewErrorWithStatus(llmerrors.ErrorTypeRateLimit, statusCode, "rate limit exceeded")
	case 400:
		return llmerrors.NewErrorWithStatus(llmerrors.ErrorTypeBadPrompt, statusCode, "bad request - check prompt format and parameters")
	case 500, 502, 503, 504:
		return llmerrors.NewErrorWithStatus(llmerrors.ErrorTypeTransient, statusCode, "server error")
	}

	lower := strings.ToLower(errStr)

	if strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection") ||
		strings.Contains(errStr, "network") ||
		strings.Contains(errStr, "temporary") ||
		strings.Contains(errStr, "EOF") ||
		strings.Contains(errStr, "reset") {
		return llmerrors.NewErrorWithCause(llmerrors.ErrorTypeTransient, err, "network or connection error")
	}

	if strings.Contains(lower, "rate") ||
		strings.Contains(lower, "quota") ||
		strings.Contains(lower, "limit") {
		return llmerrors.NewErrorWithCause(llmerrors.ErrorTypeRateLimit, err, "rate limiting detected")
	}

	if strings.Contains(lower, "auth") ||
		strings.Contains(lower, "key") ||
		strings.Contains(lower, "unauthorized") {
		return llmerrors.NewErrorWithCause(llmerrors.ErrorTypeAuth, err, "authentication error")
	}

	if strings.Contains(lower, "invalid") ||
		strings.Contains(lower, "malformed") ||
		strings.Contains(lower, "too large") {
		return llmerrors.NewErrorWithCause(llmerrors.ErrorTypeBadPrompt, err, "prompt or request error")
	}

	return llmerrors.NewErrorWithCause(llmerrors.ErrorTypeUnknown, err, "unclassified error")
}

// extractStatusCode attempts to extract HTTP status code from error string.
func extractStatusCode(errStr string) int {
	patterns := []string{
		"status code: ",
		"status: ",
		"HTTP ",
		"code ",
	}

	for _, pattern := range patterns {
		if idx := strings.Index(strings.ToLower(errStr), strings.ToLower(pattern)); idx != -1 {
			start := idx + len(pattern)
			if start < len(errStr) {
				end := start + 3
				if end > len(errStr) {
					end = len(errStr)
				}
				statusStr := errStr[start:end]

				switch {
				case strings.HasPrefix(statusStr, "400"):
					return 400
				case strings.HasPrefix(statusStr, "401"):
					return 401
				case strings.HasPrefix(statusStr, "403"):
					return 403
				case strings.HasPrefix(statusStr, "429"):
					return 429
				case strings.HasPrefix(statusStr, "500"):
					return 500
				case strings.HasPrefix(statusStr, "502"):
					return 502
				case strings.HasPrefix(statusStr, "503"):
					return 503
				case strings.HasPrefix(statusStr, "504"):
					return 504
				}
			}
		}
	}

	return 0
}
