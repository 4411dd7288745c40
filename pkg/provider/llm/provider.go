// Package llm defines the Provider interface for Large Language Model
// backends.
//
// An LLM provider wraps a remote or local model API (e.g., Gemini through
// its OpenAI-compatible endpoint, OpenAI, or a local Ollama instance) and
// exposes one uniform operation for the correction pipeline: send a
// completion request, receive the full text response. The pipeline is batch
// oriented and strictly sequential, so there is no streaming surface.
//
// Implementors must be safe for concurrent use and must propagate context
// cancellation promptly.
package llm

import "context"

// CompletionRequest carries everything the model needs to produce a
// response. At minimum Messages must be non-empty; a zero-value request is
// invalid.
type CompletionRequest struct {
	// Messages is the ordered conversation. The correction pipeline sends
	// a single user message per batch.
	Messages []Message

	// SystemPrompt is an optional high-priority instruction injected
	// before the conversation. Providers without a dedicated system slot
	// prepend it as a "system"-role message.
	SystemPrompt string

	// Temperature controls output randomness in [0.0, 2.0]. Zero means
	// use the provider default.
	Temperature float64

	// MaxTokens caps the completion length. Zero means provider default.
	MaxTokens int
}

// CompletionResponse is the full, non-streaming model reply.
type CompletionResponse struct {
	// Content is the text of the reply.
	Content string

	// Usage contains token accounting for this request/response pair.
	Usage Usage
}

// Provider is the abstraction over any LLM backend. Implementations return
// an error for transport failures, authentication problems, and context
// cancellation; they never interpret the response content.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}
