// Package llm implements the AI continuation client: a provider abstraction
// over Gemini and OpenAI-compatible endpoints, a model fallback chain, and
// normalization of provider errors into the continuation taxonomy.
package llm

import "context"

// GenerationParams are the sampling parameters sent with every generation
// call. Continuation requests use the fixed defaults; they are not
// user-tunable per request.
type GenerationParams struct {
	MaxOutputTokens int32
	Temperature     float32
	TopP            float32
	TopK            float32
}

// DefaultGenerationParams returns the fixed sampling parameters for
// paragraph continuation.
func DefaultGenerationParams() GenerationParams {
	return GenerationParams{
		MaxOutputTokens: 500,
		Temperature:     0.7,
		TopP:            0.95,
		TopK:            40,
	}
}

// Result is a successful generation: the extracted text and the model that
// produced it.
type Result struct {
	Text  string
	Model string
}

// Provider issues a single generation call against one model.
// Implementations return errors already normalized into the
// core.ContinuationError taxonomy, including the empty-extraction case.
type Provider interface {
	// Name identifies the provider in logs ("gemini", "openai").
	Name() string

	// Generate runs one generation request. Stateless between calls.
	Generate(ctx context.Context, model, prompt string, params GenerationParams) (*Result, error)
}
