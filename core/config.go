package core

import "time"

// Config holds all runtime configuration, loaded from the environment
// (optionally seeded from a .env file by main).
type Config struct {
	// AI credentials. GeminiAPIKey selects the Gemini provider; when it is
	// absent and an OpenAI-compatible endpoint is configured, that
	// endpoint is used instead. Absence of both is not a startup error:
	// per the continuation contract it surfaces as a ConfigurationError
	// at request time.
	GeminiAPIKey string
	OpenAIAPIKey string

	// OpenAI-compatible endpoint URLs. TextLLMURL takes precedence,
	// BaseLLMURL is the fallback.
	TextLLMURL string
	BaseLLMURL string

	// ModelsFile optionally points at a YAML file overriding the model
	// fallback chain.
	ModelsFile string

	// Retry budget for generation calls.
	MaxRetries int
	RetryDelay time.Duration

	// AITimeout bounds a single continuation cycle end to end.
	AITimeout time.Duration

	// Fixed sampling parameters for continuation requests.
	MaxOutputTokens int
	Temperature     float64
	TopP            float64
	TopK            int

	// Web UI server.
	WebUIHost       string
	WebUIPort       int
	ShutdownTimeout time.Duration

	// Logging.
	LogFilePath string
	DevMode     bool
}

// LoadConfig reads configuration from the environment, applying defaults for
// everything optional. It never fails on a missing credential; see
// Config.HasCredential.
func LoadConfig() (*Config, error) {
	return &Config{
		GeminiAPIKey: GetEnvOrDefault("GEMINI_API_KEY", ""),
		OpenAIAPIKey: GetEnvOrDefault("OPENAI_API_KEY", ""),
		TextLLMURL:   GetEnvOrDefault("TEXT_LLM_URL", ""),
		BaseLLMURL:   GetEnvOrDefault("BASE_LLM_URL", ""),
		ModelsFile:   GetEnvOrDefault("MODELS_FILE", ""),

		MaxRetries: ParseIntEnv("MAX_RETRIES", DefaultMaxAttempts),
		RetryDelay: ParseMillisEnv("RETRY_DELAY_MS", 1000),
		AITimeout:  ParseDurationEnv("AI_TIMEOUT", 60),

		MaxOutputTokens: ParseIntEnv("MAX_OUTPUT_TOKENS", 500),
		Temperature:     ParseFloat64Env("TEMPERATURE", 0.7),
		TopP:            ParseFloat64Env("TOP_P", 0.95),
		TopK:            ParseIntEnv("TOP_K", 40),

		WebUIHost:       GetEnvOrDefault("WEBUI_HOST", "localhost"),
		WebUIPort:       ParseIntEnv("WEBUI_PORT", 3000),
		ShutdownTimeout: ParseDurationEnv("SHUTDOWN_TIMEOUT", 30),

		LogFilePath: GetEnvOrDefault("LOG_FILE", "inkwell.log"),
		DevMode:     ParseBoolEnv("DEV_MODE", false),
	}, nil
}

// HasCredential reports whether any usable AI credential is configured.
func (c *Config) HasCredential() bool {
	return c.GeminiAPIKey != "" || (c.OpenAIAPIKey != "" && c.OpenAIEndpoint() != "")
}

// OpenAIEndpoint resolves the OpenAI-compatible base URL using the
// TextLLMURL -> BaseLLMURL fallback.
func (c *Config) OpenAIEndpoint() string {
	if c.TextLLMURL != "" {
		return c.TextLLMURL
	}
	return c.BaseLLMURL
}
