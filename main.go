// Command inkwell runs the backend for the AI-assisted writing editor: the
// editor state machine, the continuation client with model fallback, the
// typewriter streamer, and the HTTP/WebSocket surface the browser consumes.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"inkwell/core"
	"inkwell/llm"
	"inkwell/logging"
	"inkwell/webui"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Use fmt here since logger isn't initialized yet
		fmt.Printf("Warning: .env file not found: %v\n", err)
	}

	config, err := core.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(core.ExitCodeError)
	}

	logger, err := logging.NewLogger(config.DevMode, config.LogFilePath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(core.ExitCodeError)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Printf("Failed to sync logger: %v\n", syncErr)
		}
	}()

	fmt.Println("Running startup validation...")
	result := core.NewValidationSuite(config).WithShowProgress(true).Validate()
	if !result.Success {
		logger.Error("Startup validation failed",
			zap.Int("failed_steps", result.FailedSteps),
		)
		os.Exit(core.ExitCodeError)
	}

	logger.Info("Configuration loaded",
		zap.String("host", config.WebUIHost),
		zap.Int("port", config.WebUIPort),
		zap.Int("max_retries", config.MaxRetries),
		zap.Duration("retry_delay", config.RetryDelay),
		zap.Duration("ai_timeout", config.AITimeout),
		zap.Bool("dev_mode", config.DevMode),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := buildContinuationClient(ctx, config, logger)
	if err != nil {
		logger.Fatal("Failed to build continuation client", zap.Error(err))
	}

	server := webui.NewServer(webui.ServerConfig{
		Host:            config.WebUIHost,
		Port:            config.WebUIPort,
		ShutdownTimeout: config.ShutdownTimeout,
		AITimeout:       config.AITimeout,
	}, client, logger)

	// Handle interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Received interrupt signal. Shutting down...")
		cancel()
	}()

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start(ctx)
	}()

	select {
	case <-ctx.Done():
	case err := <-errChan:
		if err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}

	if err := server.Shutdown(context.Background()); err != nil {
		logger.Error("Shutdown error", zap.Error(err))
	}
	logger.Info("Goodbye!")
}

// buildContinuationClient selects the AI provider from configuration and
// assembles the continuation client around it. No credential is not an
// error here: the client surfaces it as a configuration error on the first
// continuation request.
func buildContinuationClient(ctx context.Context, config *core.Config, logger *logging.Logger) (*llm.Client, error) {
	var provider llm.Provider

	switch {
	case config.GeminiAPIKey != "":
		gemini, err := llm.NewGeminiProvider(ctx, config.GeminiAPIKey)
		if err != nil {
			return nil, err
		}
		provider = gemini
		logger.Info("Using Gemini provider")

	case config.OpenAIAPIKey != "" && config.OpenAIEndpoint() != "":
		openai, err := llm.NewOpenAIProvider(config.OpenAIAPIKey, config.TextLLMURL, config.BaseLLMURL)
		if err != nil {
			return nil, err
		}
		provider = openai
		logger.Info("Using OpenAI-compatible provider",
			zap.String("endpoint", config.OpenAIEndpoint()),
		)

	default:
		logger.Warn("No AI credential configured; continuation requests will fail until one is set")
	}

	models := llm.DefaultModelChain()
	if config.ModelsFile != "" {
		loaded, err := llm.LoadModelChain(config.ModelsFile)
		if err != nil {
			return nil, err
		}
		models = loaded
		logger.Info("Loaded model fallback chain",
			zap.String("file", config.ModelsFile),
			zap.Int("models", len(models)),
		)
	}

	return llm.NewClient(llm.ClientConfig{
		Provider: provider,
		Models:   models,
		Params: llm.GenerationParams{
			MaxOutputTokens: int32(config.MaxOutputTokens),
			Temperature:     float32(config.Temperature),
			TopP:            float32(config.TopP),
			TopK:            float32(config.TopK),
		},
		Retry: core.RetryConfig{
			MaxAttempts:  config.MaxRetries,
			InitialDelay: config.RetryDelay,
		},
		Logger: logger,
	}), nil
}
