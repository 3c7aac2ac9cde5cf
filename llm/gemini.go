package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"inkwell/core"
)

// GeminiProvider generates text through the Gemini API.
type GeminiProvider struct {
	client *genai.Client
}

// NewGeminiProvider creates a provider authenticated with the given API key.
func NewGeminiProvider(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, core.ErrMissingCredential()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{client: client}, nil
}

// Name implements Provider.
func (p *GeminiProvider) Name() string { return "gemini" }

// Generate implements Provider. One request, fixed sampling parameters,
// errors normalized into the continuation taxonomy.
func (p *GeminiProvider) Generate(ctx context.Context, model, prompt string, params GenerationParams) (*Result, error) {
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: params.MaxOutputTokens,
		Temperature:     genai.Ptr(params.Temperature),
		TopP:            genai.Ptr(params.TopP),
		TopK:            genai.Ptr(params.TopK),
	}

	resp, err := p.client.Models.GenerateContent(ctx, model, genai.Text(prompt), config)
	if err != nil {
		return nil, mapGeminiError(model, err)
	}

	text := extractGeminiText(resp)
	if strings.TrimSpace(text) == "" {
		return nil, core.ErrEmptyResponse(model)
	}

	return &Result{Text: text, Model: model}, nil
}

// extractGeminiText pulls generated text from the response using the
// prioritized chain: the direct Text accessor first, then the first
// candidate's content parts concatenated, then the remaining candidates.
func extractGeminiText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	if text := resp.Text(); strings.TrimSpace(text) != "" {
		return text
	}

	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		var sb strings.Builder
		for _, part := range cand.Content.Parts {
			if part != nil {
				sb.WriteString(part.Text)
			}
		}
		if strings.TrimSpace(sb.String()) != "" {
			return sb.String()
		}
	}

	return ""
}

// mapGeminiError normalizes a genai error. The SDK exposes the HTTP status
// through APIError; anything else is classified by message signature.
func mapGeminiError(model string, err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return normalizeProviderError("Gemini", model, apiErr.Code, err)
	}
	return normalizeProviderError("Gemini", model, 0, err)
}
