package llm

import (
	"fmt"
	"strings"
	"time"

	"sorrymonster/pkg/config"
)

// Config selects the provider and its connection settings. Sampling
// temperature is chosen per request by the caller.
type Config struct {
	Provider  string
	Model     string
	APIKey    string
	APIURL    string
	MaxTokens int
	Timeout   time.Duration
}

func LoadConfig() Config {
	return Config{
		Provider:  config.GetEnv("LLM_PROVIDER", "openai"),
		Model:     config.GetEnv("LLM_MODEL", "gpt-4o-mini"),
		APIKey:    config.GetEnv("LLM_API_KEY", ""),
		APIURL:    config.GetEnv("LLM_API_URL", ""),
		MaxTokens: config.GetEnvInt("LLM_MAX_TOKENS", 1200),
		Timeout:   config.GetEnvDuration("LLM_TIMEOUT", 60*time.Second),
	}
}

// NewProvider builds the configured provider. Ollama speaks the OpenAI chat
// protocol, so it reuses the OpenAI client with a local base URL.
// The stub provider needs a responder and is wired by the caller.
func NewProvider(cfg Config) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("LLM_API_KEY is required for provider %q", cfg.Provider)
		}
		return NewOpenAIProvider(cfg), nil
	case "ollama":
		if cfg.APIURL == "" {
			cfg.APIURL = "http://localhost:11434/v1"
		}
		return NewOpenAIProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}
