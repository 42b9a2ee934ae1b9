// Package openaiofficial provides OpenAI client implementation using the official OpenAI Go package.
package openaiofficial

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"

	"toeicq/pkg/config"
	"toeicq/pkg/llm"
	"toeicq/pkg/llmerrors"
)

// OfficialClient wraps the official OpenAI Go client to implement llm.Client interface.
type OfficialClient struct {
	client openai.Client
	model  string
}

// NewOfficialClient creates a new OpenAI client using the official Go package (raw client, middleware applied at higher level).
func NewOfficialClient(apiKey string) llm.Client {
	return NewOfficialClientWithModel(apiKey, config.DefaultGeneratorModel)
}

// NewOfficialClientWithModel creates a new OpenAI client with specific model using the official package (raw client, middleware applied at higher level).
func NewOfficialClientWithModel(apiKey, model string) llm.Client {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OfficialClient{
		client: client,
		model:  model,
	}
}

// hasImages reports whether any message carries an image attachment.
func hasImages(messages []llm.CompletionMessage) bool {
	for i := range messages {
		if len(messages[i].Images) > 0 {
			return true
		}
	}
	return false
}

// buildTextInput combines messages into a single input string for the Responses API.
func buildTextInput(messages []llm.CompletionMessage) string {
	var inputText string
	for i := range messages {
		msg := &messages[i]
		switch msg.Role {
		case llm.RoleSystem:
			inputText += fmt.Sprintf("System: %s\n\n", msg.Content)
		case llm.RoleUser:
			inputText += msg.Content
		case llm.RoleAssistant:
			inputText += fmt.Sprintf("Assistant: %s\n\n", msg.Content)
		}
	}
	return inputText
}

// buildItemInput converts messages to a Responses API input item list. Used when
// a message carries image attachments, which cannot ride on the string input.
func buildItemInput(messages []llm.CompletionMessage) responses.ResponseInputParam {
	items := make(responses.ResponseInputParam, 0, len(messages))
	for i := range messages {
		msg := &messages[i]

		content := make(responses.ResponseInputMessageContentListParam, 0, 1+len(msg.Images))
		if msg.Content != "" {
			content = append(content, responses.ResponseInputContentUnionParam{
				OfInputText: &responses.ResponseInputTextParam{Text: msg.Content},
			})
		}
		for _, img := range msg.Images {
			content = append(content, responses.ResponseInputContentUnionParam{
				OfInputImage: &responses.ResponseInputImageParam{
					ImageURL: openai.String(img.DataURL()),
					Detail:   responses.ResponseInputImageDetailAuto,
				},
			})
		}

		items = append(items, responses.ResponseInputItemUnionParam{
			OfMessage: &responses.EasyInputMessageParam{
				Role: responses.EasyInputMessageRole(msg.Role),
				Content: responses.EasyInputMessageContentUnionParam{
					OfInputItemContentList: content,
				},
			},
		})
	}
	return items
}

// Complete implements the llm.Client interface using the Responses API.
func (o *OfficialClient) Complete(ctx context.Context, in llm.CompletionRequest) (llm.CompletionResponse, error) {
	// Cap MaxTokens to model's actual limit to prevent API errors
	maxTokens := in.MaxTokens
	if info, known := config.GetModelInfo(o.model); known && info.MaxOutputTokens > 0 {
		if maxTokens > info.MaxOutputTokens {
			maxTokens = info.MaxOutputTokens
		}
	}

	params := responses.ResponseNewParams{
		Model:           o.model,
		MaxOutputTokens: openai.Int(int64(maxTokens)),
	}

	if hasImages(in.Messages) {
		params.Input = responses.ResponseNewParamsInputUnion{OfInputItemList: buildItemInput(in.Messages)}
	} else {
		params.Input = responses.ResponseNewParamsInputUnion{OfString: openai.String(buildTextInput(in.Messages))}
	}

	resp, err := o.client.Responses.New(ctx, params)
	if err != nil {
		return llm.CompletionResponse{}, fmt.Errorf("OpenAI Responses API failed: %w", err)
	}

	if resp == nil {
		return llm.CompletionResponse{}, llmerrors.NewError(llmerrors.ErrorTypeEmptyResponse, "empty response from OpenAI Responses API")
	}

	content := resp.OutputText()
	if content == "" {
		return llm.CompletionResponse{}, llmerrors.NewError(llmerrors.ErrorTypeEmptyResponse, "no text output in OpenAI response")
	}

	return llm.CompletionResponse{
		Content: content,
	}, nil
}

// GetModelName returns the model name for this client.
func (o *OfficialClient) GetModelName() string {
	return o.model
}
