package llm

import (
	"context"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"inkwell/core"
)

// OpenAIProvider generates text through an OpenAI-compatible chat-completions
// endpoint. Used for self-hosted and local models; the endpoint resolves
// through the TEXT_LLM_URL -> BASE_LLM_URL fallback.
type OpenAIProvider struct {
	client *openai.Client
}

// NewOpenAIProvider creates a provider for the given key and endpoint.
// An empty baseURL targets the public OpenAI API.
func NewOpenAIProvider(apiKey, baseURL, fallbackURL string) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, core.ErrMissingCredential()
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	} else if fallbackURL != "" {
		clientConfig.BaseURL = fallbackURL
	}

	return &OpenAIProvider{client: openai.NewClientWithConfig(clientConfig)}, nil
}

// Name implements Provider.
func (p *OpenAIProvider) Name() string { return "openai" }

// Generate implements Provider. The chat-completions API has no top-k
// parameter; the remaining sampling settings map directly.
func (p *OpenAIProvider) Generate(ctx context.Context, model, prompt string, params GenerationParams) (*Result, error) {
	resp, err := p.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			MaxTokens:   int(params.MaxOutputTokens),
			Temperature: params.Temperature,
			TopP:        params.TopP,
		},
	)
	if err != nil {
		return nil, mapOpenAIError(model, err)
	}

	text := extractOpenAIText(&resp)
	if strings.TrimSpace(text) == "" {
		return nil, core.ErrEmptyResponse(model)
	}

	return &Result{Text: text, Model: model}, nil
}

// extractOpenAIText pulls generated text from a chat completion: the first
// choice's message content, then its multi-part content, then remaining
// choices.
func extractOpenAIText(resp *openai.ChatCompletionResponse) string {
	for _, choice := range resp.Choices {
		if strings.TrimSpace(choice.Message.Content) != "" {
			return choice.Message.Content
		}
		var sb strings.Builder
		for _, part := range choice.Message.MultiContent {
			if part.Type == openai.ChatMessagePartTypeText {
				sb.WriteString(part.Text)
			}
		}
		if strings.TrimSpace(sb.String()) != "" {
			return sb.String()
		}
	}
	return ""
}

// mapOpenAIError normalizes a go-openai error using its HTTP status when
// present.
func mapOpenAIError(model string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return normalizeProviderError("OpenAI", model, apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return normalizeProviderError("OpenAI", model, reqErr.HTTPStatusCode, err)
	}
	return normalizeProviderError("OpenAI", model, 0, err)
}
