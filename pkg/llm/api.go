// Package llm provides interfaces and types for Large Language Model client implementations.
package llm

import (
	"context"
	"fmt"
)

// CompletionRole represents the role of a message in a conversation.
type CompletionRole string

const (
	// RoleSystem indicates a system message that provides instructions or context.
	RoleSystem CompletionRole = "system"
	// RoleUser indicates a message from the human user.
	RoleUser CompletionRole = "user"
	// RoleAssistant indicates a message from the AI assistant.
	RoleAssistant CompletionRole = "assistant"
)

const (
	// GeneratorMaxTokens defines the maximum tokens for question generation responses.
	// A batch of part 3 sets (script + three questions each) is the largest payload.
	GeneratorMaxTokens = 16000

	// VerifierMaxTokens defines the maximum tokens for verification responses.
	// The solver returns a small JSON confidence map per question.
	VerifierMaxTokens = 2000

	// TemperatureDefault is the default temperature for question generation.
	// Allows variety across generated questions while staying on format.
	TemperatureDefault = 0.7

	// TemperatureDeterministic is the temperature for verification and solving.
	// Near-greedy so confidence scores are reproducible.
	TemperatureDeterministic = 0.1
)

// ImageAttachment carries an image to include in a message. Data is
// base64-encoded with no data-URL prefix; MediaType is the MIME type
// (image/jpeg, image/png, ...).
type ImageAttachment struct {
	MediaType string
	Data      string
}

// DataURL returns the attachment encoded as a data URL for APIs that take
// image references by URL.
func (a ImageAttachment) DataURL() string {
	return fmt.Sprintf("data:%s;base64,%s", a.MediaType, a.Data)
}

// CompletionMessage represents a message in a completion request.
type CompletionMessage struct {
	Content string
	Images  []ImageAttachment
	Role    CompletionRole
}

// CompletionRequest represents a request to generate a completion.
type CompletionRequest struct {
	Messages    []CompletionMessage
	MaxTokens   int
	Temperature float32
}

// CompletionResponse represents a response from a completion request.
type CompletionResponse struct {
	Content    string // Main response text
	StopReason string // Why the response stopped: "end_turn", "max_tokens", "refusal", etc.
}

// Client defines the interface for language model interactions.
type Client interface {
	// Complete generates a completion synchronously.
	Complete(ctx context.Context, in CompletionRequest) (CompletionResponse, error)

	// GetModelName returns the model name for this client.
	GetModelName() string
}

// NewCompletionRequest creates a new completion request with default values.
func NewCompletionRequest(messages []CompletionMessage) CompletionRequest {
	return CompletionRequest{
		Messages:    messages,
		MaxTokens:   GeneratorMaxTokens,
		Temperature: TemperatureDefault,
	}
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) CompletionMessage {
	return CompletionMessage{
		Role:    RoleSystem,
		Content: content,
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) CompletionMessage {
	return CompletionMessage{
		Role:    RoleUser,
		Content: content,
	}
}

// NewUserImageMessage creates a user message carrying text plus image attachments.
func NewUserImageMessage(content string, images ...ImageAttachment) CompletionMessage {
	return CompletionMessage{
		Role:    RoleUser,
		Content: content,
		Images:  images,
	}
}
