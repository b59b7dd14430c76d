package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
)

const (
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// Providers lists the accepted provider names.
var Providers = []string{ProviderGemini, ProviderOllama, ProviderOpenAI}

// CheckModel is the lighter model used for connectivity checks.
const CheckModel = "gemini-2.5-flash-lite"

// DefaultModel returns the model used when none is configured.
func DefaultModel(provider string) string {
	switch provider {
	case ProviderOllama:
		return "mistral"
	case ProviderOpenAI:
		return "gpt-4o-mini"
	default:
		return "gemini-2.5-flash"
	}
}

// RequiresAPIKey reports whether the provider is a hosted API.
func RequiresAPIKey(provider string) bool {
	return provider != ProviderOllama
}

func newModel(ctx context.Context, config ChatConfig) (llms.Model, error) {
	switch strings.ToLower(config.Provider) {
	case ProviderGemini, "googleai":
		if config.APIKey == "" {
			return nil, fmt.Errorf("gemini API key not found")
		}
		return googleai.New(ctx,
			googleai.WithAPIKey(config.APIKey),
			googleai.WithDefaultModel(config.Model),
			googleai.WithDefaultMaxTokens(config.MaxTokens),
			googleai.WithDefaultTemperature(config.Temperature),
		)
	case ProviderOllama:
		baseURL := config.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default Ollama URL
		}
		return ollama.New(ollama.WithModel(config.Model), ollama.WithServerURL(baseURL))
	case ProviderOpenAI:
		if config.APIKey == "" {
			return nil, fmt.Errorf("openai API key not found")
		}
		return NewOpenAIModel(config.APIKey, config.BaseURL, config.Model), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", config.Provider)
	}
}
