// Package llm provides middleware chaining for LLM clients.
package llm

import (
	"context"
)

// Middleware represents a function that wraps a Client with additional behavior.
// Middleware functions are composed using Chain() to create a processing pipeline.
type Middleware func(next Client) Client

// clientFunc is an adapter that allows plain functions to implement the Client interface.
type clientFunc struct {
	complete     func(context.Context, CompletionRequest) (CompletionResponse, error)
	getModelName func() string
}

func (f clientFunc) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	return f.complete(ctx, req)
}

// GetModelName delegates to the wrapped function.
func (f clientFunc) GetModelName() string {
	return f.getModelName()
}

// WrapClient creates a new Client using the provided function implementations.
// This is a helper for middleware implementations that need to wrap behavior.
func WrapClient(
	complete func(context.Context, CompletionRequest) (CompletionResponse, error),
	getModelName func() string,
) Client {
	return clientFunc{
		complete:     complete,
		getModelName: getModelName,
	}
}

// Chain composes multiple middlewares around a base Client.
// Middlewares are applied in order, with earlier middlewares being outermost.
//
// For example: Chain(client, mw1, mw2, mw3) creates the call stack:
//
//	mw1 -> mw2 -> mw3 -> client
//
// This means mw1 runs first and has the opportunity to modify the request
// or short-circuit before it reaches mw2, mw3, and finally the base client.
func Chain(base Client, middlewares ...Middleware) Client {
	// Apply middlewares in reverse order so that the first middleware
	// in the slice becomes the outermost wrapper
	client := base
	for i := len(middlewares) - 1; i >= 0; i-- {
		client = middlewares[i](client)
	}
	return client
}
