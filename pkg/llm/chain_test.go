package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingClient struct {
	calls *[]string
	name  string
}

func (c *recordingClient) Complete(_ context.Context, _ CompletionRequest) (CompletionResponse, error) {
	*c.calls = append(*c.calls, c.name)
	return CompletionResponse{Content: "base"}, nil
}

func (c *recordingClient) GetModelName() string {
	return c.name
}

func tagMiddleware(tag string, calls *[]string) Middleware {
	return func(next Client) Client {
		return WrapClient(
			func(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
				*calls = append(*calls, tag)
				return next.Complete(ctx, req)
			},
			next.GetModelName,
		)
	}
}

func TestChainOrdering(t *testing.T) {
	var calls []string
	base := &recordingClient{name: "base", calls: &calls}

	client := Chain(base,
		tagMiddleware("outer", &calls),
		tagMiddleware("inner", &calls),
	)

	resp, err := client.Complete(context.Background(), NewCompletionRequest(nil))
	require.NoError(t, err)
	assert.Equal(t, "base", resp.Content)
	assert.Equal(t, []string{"outer", "inner", "base"}, calls)
}

func TestChainNoMiddleware(t *testing.T) {
	var calls []string
	base := &recordingClient{name: "base", calls: &calls}
	assert.Equal(t, Client(base), Chain(base))
}

func TestChainPreservesModelName(t *testing.T) {
	var calls []string
	base := &recordingClient{name: "gpt-5-mini-2025-08-07", calls: &calls}
	client := Chain(base, tagMiddleware("mw", &calls))
	assert.Equal(t, "gpt-5-mini-2025-08-07", client.GetModelName())
}

func TestImageAttachmentDataURL(t *testing.T) {
	a := ImageAttachment{MediaType: "image/jpeg", Data: "aGVsbG8="}
	assert.Equal(t, "data:image/jpeg;base64,aGVsbG8=", a.DataURL())
}
