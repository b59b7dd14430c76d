package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tmc/langchaingo/llms"
	"golang.org/x/time/rate"
)

// ChatConfig represents the configuration for a chat engine.
type ChatConfig struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string // Ollama server or OpenAI-compatible endpoint
	Temperature float64
	MaxTokens   int
	MaxWords    int
	RateLimit   float64 // calls per second; zero disables limiting
	Timeout     time.Duration
	Logger      zerolog.Logger
}

// ChatEngine is an engine that uses an LLM to simplify medical text.
type ChatEngine struct {
	config  ChatConfig
	llm     llms.Model
	limiter *rate.Limiter
}

func applyDefaults(config *ChatConfig) error {
	if config.Provider == "" {
		config.Provider = ProviderGemini
	}
	if config.Model == "" {
		config.Model = DefaultModel(config.Provider)
	}
	if config.Temperature < 0 || config.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2")
	}
	if config.MaxTokens < 0 {
		return fmt.Errorf("max tokens cannot be negative")
	} else if config.MaxTokens == 0 {
		config.MaxTokens = 2000
	}
	if config.MaxWords == 0 {
		config.MaxWords = DefaultMaxWords
	}
	if config.Timeout == 0 {
		config.Timeout = 2 * time.Minute
	}
	return nil
}

// NewWithConfig creates a new ChatEngine talking to the configured provider.
func NewWithConfig(ctx context.Context, config ChatConfig) (*ChatEngine, error) {
	if err := applyDefaults(&config); err != nil {
		return nil, err
	}

	model, err := newModel(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}

	return newEngine(model, config), nil
}

// NewWithModel wraps an already constructed model.
func NewWithModel(model llms.Model, config ChatConfig) (*ChatEngine, error) {
	if model == nil {
		return nil, errors.New("model is required")
	}
	if err := applyDefaults(&config); err != nil {
		return nil, err
	}
	return newEngine(model, config), nil
}

func newEngine(model llms.Model, config ChatConfig) *ChatEngine {
	var limiter *rate.Limiter
	if config.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RateLimit), 1)
	}
	return &ChatEngine{
		config:  config,
		llm:     model,
		limiter: limiter,
	}
}

// ModelName reports the model requests are sent to.
func (ce *ChatEngine) ModelName() string {
	return ce.config.Model
}

func (ce *ChatEngine) wait(ctx context.Context) error {
	if ce.limiter == nil {
		return nil
	}
	if err := ce.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}
	return nil
}

func (ce *ChatEngine) callOptions(extra ...llms.CallOption) []llms.CallOption {
	opts := []llms.CallOption{
		llms.WithModel(ce.config.Model),
		llms.WithTemperature(ce.config.Temperature),
		llms.WithMaxTokens(ce.config.MaxTokens),
	}
	return append(opts, extra...)
}

// Simplify sends the medical text to the model once and returns the plain
// language rewrite.
func (ce *ChatEngine) Simplify(ctx context.Context, text string) (string, error) {
	return ce.generate(ctx, BuildPrompt(text, ce.config.MaxWords))
}

// Ping sends a trivial prompt to confirm the key and model are usable.
func (ce *ChatEngine) Ping(ctx context.Context) (string, error) {
	return ce.generate(ctx, "Hello")
}

func (ce *ChatEngine) generate(ctx context.Context, prompt string) (string, error) {
	if err := ce.wait(ctx); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, ce.config.Timeout)
	defer cancel()

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	start := time.Now()
	response, err := ce.llm.GenerateContent(ctx, content, ce.callOptions()...)
	if err != nil {
		return "", fmt.Errorf("chat error: %w", err)
	}
	if response == nil || len(response.Choices) == 0 || response.Choices[0] == nil {
		return "", errors.New("chat error: no response from LLM")
	}

	ce.config.Logger.Debug().
		Str("model", ce.config.Model).
		Dur("elapsed", time.Since(start)).
		Msg("completion received")

	return strings.TrimSpace(response.Choices[0].Content), nil
}

// SimplifyStream generates a stream of response chunks. A chunk prefixed
// with "Error:" reports a failure and ends the stream.
func (ce *ChatEngine) SimplifyStream(ctx context.Context, text string) (<-chan string, error) {
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, BuildPrompt(text, ce.config.MaxWords)),
	}

	resultChan := make(chan string)

	go func() {
		defer close(resultChan)

		if err := ce.wait(ctx); err != nil {
			resultChan <- fmt.Sprintf("Error: %v", err)
			return
		}

		ctx, cancel := context.WithTimeout(ctx, ce.config.Timeout)
		defer cancel()

		streamed := false
		stream := llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			if len(chunk) == 0 {
				return nil
			}
			streamed = true
			select {
			case resultChan <- string(chunk):
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})

		response, err := ce.llm.GenerateContent(ctx, content, ce.callOptions(stream)...)
		if err != nil {
			resultChan <- fmt.Sprintf("Error: %v", err)
			return
		}

		if streamed {
			return
		}

		// Providers without streaming support return the whole answer at once.
		if response == nil {
			resultChan <- "Error: No response from LLM"
			return
		}
		for _, choice := range response.Choices {
			if choice != nil && choice.Content != "" {
				resultChan <- choice.Content
			}
		}
	}()

	return resultChan, nil
}
