package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"inkwell/core"
	"inkwell/logging"
)

// ContinuationRequest is the input to ContinueWriting. Text must be
// non-empty after trimming; the client rejects it before any network call
// otherwise.
type ContinuationRequest struct {
	Text string
}

// ContinuationResponse carries the generated continuation. Never empty: an
// empty extraction is a failure, not a response.
type ContinuationResponse struct {
	Continuation string
	Model        string
}

// ClientConfig configures a continuation Client.
type ClientConfig struct {
	// Provider issues generation calls. A nil provider means no credential
	// is configured; ContinueWriting then fails with a ConfigurationError.
	Provider Provider

	// Models is the ordered fallback chain. Empty uses DefaultModelChain.
	Models []string

	// Params are the sampling parameters. Zero value uses the defaults.
	Params GenerationParams

	// Retry is the backoff budget around the whole fallback chain.
	Retry core.RetryConfig

	// Logger is optional.
	Logger *logging.Logger
}

// Client orchestrates a continuation request: validation, prompt
// construction, the model fallback chain, retry with backoff, and error
// normalization. Stateless between calls; safe for concurrent use.
type Client struct {
	provider Provider
	models   []string
	params   GenerationParams
	retry    core.RetryConfig
	logger   *logging.Logger
}

// NewClient creates a continuation client.
func NewClient(cfg ClientConfig) *Client {
	models := cfg.Models
	if len(models) == 0 {
		models = DefaultModelChain()
	}
	params := cfg.Params
	if params.MaxOutputTokens == 0 {
		params = DefaultGenerationParams()
	}
	return &Client{
		provider: cfg.Provider,
		models:   models,
		params:   params,
		retry:    cfg.Retry,
		logger:   cfg.Logger,
	}
}

// ContinueWriting generates a continuation for the request text.
//
// Failure modes: ConfigurationError when no credential/provider is
// configured, ValidationError when the trimmed input is empty (no network
// call is made), and otherwise a normalized error from the taxonomy once the
// retry budget and the fallback chain are both exhausted.
func (c *Client) ContinueWriting(ctx context.Context, req ContinuationRequest) (*ContinuationResponse, error) {
	if c.provider == nil {
		return nil, core.ErrMissingCredential()
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, core.ErrEmptyInput()
	}

	prompt := BuildContinuationPrompt(req.Text)

	result, err := core.Retry(ctx, c.retry, func(ctx context.Context) (*Result, error) {
		return c.tryModels(ctx, prompt)
	})
	if err != nil {
		return nil, err
	}

	return &ContinuationResponse{
		Continuation: result.Text,
		Model:        result.Model,
	}, nil
}

// tryModels walks the fallback chain once. A model-unavailable failure
// advances to the next model; any other failure aborts the chain and
// propagates so the retry layer can classify it. An exhausted chain yields
// an aggregate error naming the last failure.
func (c *Client) tryModels(ctx context.Context, prompt string) (*Result, error) {
	log := &AttemptLog{}

	for _, model := range c.models {
		start := time.Now()
		result, err := c.provider.Generate(ctx, model, prompt, c.params)
		log.Record(model, err, time.Since(start))

		if err == nil {
			c.logDebug("continuation generated",
				zap.String("model", model),
				zap.Int("attempts", log.Len()),
			)
			return result, nil
		}

		if core.IsModelUnavailable(err) {
			c.logDebug("model unavailable, trying next",
				zap.String("model", model),
				zap.Error(err),
			)
			continue
		}

		c.logDebug("generation failed", zap.String("attempts", log.Summary()))
		return nil, err
	}

	c.logDebug("model chain exhausted", zap.String("attempts", log.Summary()))
	return nil, core.NewContinuationError(
		core.KindGeneration,
		fmt.Sprintf("All models failed; last error: %v", log.LastErr()),
		log.LastErr(),
	)
}

func (c *Client) logDebug(msg string, fields ...zap.Field) {
	if c.logger != nil {
		c.logger.Debug(msg, fields...)
	}
}
