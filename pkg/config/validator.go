package config

import (
	"fmt"
	"net/url"
	"strings"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var knownProviders = []string{"gemini", "ollama", "openai"}

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	// Validate LLM config
	known := false
	for _, p := range knownProviders {
		if c.LLM.Provider == p {
			known = true
		}
	}
	if !known {
		errors = append(errors, ValidationError{
			Field:   "llm.provider",
			Message: fmt.Sprintf("provider must be one of %s", strings.Join(knownProviders, ", ")),
		})
	}

	if c.LLM.Provider != "ollama" && c.LLM.APIKey == "" {
		errors = append(errors, ValidationError{
			Field:   "llm.api_key",
			Message: "API key not found; set GEMINI_API_KEY or llm.api_key",
		})
	}

	if c.LLM.BaseURL != "" {
		if u, err := url.Parse(c.LLM.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errors = append(errors, ValidationError{
				Field:   "llm.base_url",
				Message: "invalid base URL",
			})
		}
	}

	if c.LLM.MaxTokens < 1 || c.LLM.MaxTokens > 65536 {
		errors = append(errors, ValidationError{
			Field:   "llm.max_tokens",
			Message: "max_tokens must be between 1 and 65536",
		})
	}

	if t := c.LLM.Temperature; t != nil && (*t < 0 || *t > 2) {
		errors = append(errors, ValidationError{
			Field:   "llm.temperature",
			Message: "temperature must be between 0 and 2",
		})
	}

	if r := c.LLM.RateLimit; r != nil && *r < 0 {
		errors = append(errors, ValidationError{
			Field:   "llm.rate_limit",
			Message: "rate_limit cannot be negative",
		})
	}

	// Validate Extract config
	if c.Extract.MaxChars < 1 {
		errors = append(errors, ValidationError{
			Field:   "extract.max_chars",
			Message: "max_chars must be positive",
		})
	}

	if c.Extract.TextLayerPages < 1 || c.Extract.RenderPages < 1 {
		errors = append(errors, ValidationError{
			Field:   "extract.pages",
			Message: "text_layer_pages and render_pages must be positive",
		})
	}

	if c.Extract.RenderDPI < 36 || c.Extract.RenderDPI > 600 {
		errors = append(errors, ValidationError{
			Field:   "extract.render_dpi",
			Message: "render_dpi must be between 36 and 600",
		})
	}

	if c.Extract.MaxImageSide < 1 {
		errors = append(errors, ValidationError{
			Field:   "extract.max_image_side",
			Message: "max_image_side must be positive",
		})
	}

	if c.Extract.EarlyExitChars > c.Extract.MaxChars {
		errors = append(errors, ValidationError{
			Field:   "extract.early_exit_chars",
			Message: "early_exit_chars cannot exceed max_chars",
		})
	}

	// Validate Server config
	if c.Server.MaxUploadBytes < int64(c.Server.LargeFileBytes) {
		errors = append(errors, ValidationError{
			Field:   "server.max_upload_bytes",
			Message: "max_upload_bytes must be at least large_file_bytes",
		})
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("unknown log level: %s", c.Log.Level),
		})
	}

	return errors
}
