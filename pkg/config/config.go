package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LLM struct {
		Provider    string  `yaml:"provider"`
		Model       string  `yaml:"model"`
		CheckModel  string  `yaml:"check_model"`
		APIKey      string  `yaml:"api_key"`
		BaseURL     string  `yaml:"base_url"`
		MaxTokens   int     `yaml:"max_tokens"`
		MaxWords    int     `yaml:"max_words"`
		// Temperature and RateLimit are pointers so an explicit 0 survives
		// defaulting. A rate limit of 0 disables limiting.
		Temperature *float64 `yaml:"temperature"`
		RateLimit   *float64 `yaml:"rate_limit"`
		TimeoutSecs int     `yaml:"timeout_seconds"`
	} `yaml:"llm"`

	Extract struct {
		MaxChars          int      `yaml:"max_chars"`
		TextLayerPages    int      `yaml:"text_layer_pages"`
		RenderPages       int      `yaml:"render_pages"`
		MinPageChars      int      `yaml:"min_page_chars"`
		MinTextLayerChars int      `yaml:"min_text_layer_chars"`
		RenderDPI         int      `yaml:"render_dpi"`
		EarlyExitChars    int      `yaml:"early_exit_chars"`
		MaxImageSide      int      `yaml:"max_image_side"`
		OCRLanguages      []string `yaml:"ocr_languages"`
	} `yaml:"extract"`

	Safety struct {
		Keywords []string `yaml:"keywords"`
	} `yaml:"safety"`

	Server struct {
		Addr           string `yaml:"addr"`
		MaxUploadBytes int64  `yaml:"max_upload_bytes"`
		LargeFileBytes int    `yaml:"large_file_bytes"`
		PreviewChars   int    `yaml:"preview_chars"`
		Streaming      bool   `yaml:"streaming"`
	} `yaml:"server"`

	Log struct {
		Level string `yaml:"level"`
		JSON  bool   `yaml:"json"`
	} `yaml:"log"`
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/medisimplify/config.yaml"),
			"/etc/medisimplify/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	// Merge with environment variables
	mergeWithEnv(&config)

	// Apply defaults for unset values
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	mergeWithEnv(config)
	applyDefaults(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.LLM.Provider == "" {
		config.LLM.Provider = "gemini"
	}
	if config.LLM.Model == "" {
		switch config.LLM.Provider {
		case "ollama":
			config.LLM.Model = "mistral"
		case "openai":
			config.LLM.Model = "gpt-4o-mini"
		default:
			config.LLM.Model = "gemini-2.5-flash"
		}
	}
	if config.LLM.CheckModel == "" {
		config.LLM.CheckModel = config.LLM.Model
		if config.LLM.Provider == "gemini" {
			config.LLM.CheckModel = "gemini-2.5-flash-lite"
		}
	}
	if config.LLM.BaseURL == "" && config.LLM.Provider == "ollama" {
		config.LLM.BaseURL = "http://localhost:11434"
	}
	if config.LLM.MaxTokens == 0 {
		config.LLM.MaxTokens = 2000
	}
	if config.LLM.MaxWords == 0 {
		config.LLM.MaxWords = 500
	}
	if config.LLM.Temperature == nil {
		config.LLM.Temperature = float64Ptr(0.7)
	}
	if config.LLM.RateLimit == nil {
		config.LLM.RateLimit = float64Ptr(1.0)
	}
	if config.LLM.TimeoutSecs == 0 {
		config.LLM.TimeoutSecs = 120
	}

	if config.Extract.MaxChars == 0 {
		config.Extract.MaxChars = 8000
	}
	if config.Extract.TextLayerPages == 0 {
		config.Extract.TextLayerPages = 10
	}
	if config.Extract.RenderPages == 0 {
		config.Extract.RenderPages = 5
	}
	if config.Extract.MinPageChars == 0 {
		config.Extract.MinPageChars = 50
	}
	if config.Extract.MinTextLayerChars == 0 {
		config.Extract.MinTextLayerChars = 200
	}
	if config.Extract.RenderDPI == 0 {
		config.Extract.RenderDPI = 150
	}
	if config.Extract.EarlyExitChars == 0 {
		config.Extract.EarlyExitChars = 5000
	}
	if config.Extract.MaxImageSide == 0 {
		config.Extract.MaxImageSide = 1500
	}
	if len(config.Extract.OCRLanguages) == 0 {
		config.Extract.OCRLanguages = []string{"eng"}
	}

	if config.Server.Addr == "" {
		config.Server.Addr = ":8080"
	}
	if config.Server.MaxUploadBytes == 0 {
		config.Server.MaxUploadBytes = 50 << 20
	}
	if config.Server.LargeFileBytes == 0 {
		config.Server.LargeFileBytes = 5 << 20
	}
	if config.Server.PreviewChars == 0 {
		config.Server.PreviewChars = 1000
	}

	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
}

func float64Ptr(v float64) *float64 {
	return &v
}

func mergeWithEnv(config *Config) {
	if provider := os.Getenv("MEDISIMPLIFY_PROVIDER"); provider != "" {
		config.LLM.Provider = provider
	}
	if model := os.Getenv("MEDISIMPLIFY_MODEL"); model != "" {
		config.LLM.Model = model
	}
	if config.LLM.APIKey == "" {
		config.LLM.APIKey = apiKeyFromEnv(config.LLM.Provider)
	}
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" && config.LLM.Provider == "ollama" {
		config.LLM.BaseURL = baseURL
	}
	if port := os.Getenv("PORT"); port != "" {
		config.Server.Addr = ":" + port
	}
}

// SetProvider switches the LLM provider and re-resolves the settings that
// depend on it. Explicit values for the previous provider are dropped.
func (c *Config) SetProvider(provider string) {
	if provider == "" || provider == c.LLM.Provider {
		return
	}
	c.LLM.Provider = provider
	c.LLM.Model = ""
	c.LLM.CheckModel = ""
	c.LLM.BaseURL = ""
	c.LLM.APIKey = apiKeyFromEnv(provider)
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" && provider == "ollama" {
		c.LLM.BaseURL = baseURL
	}
	applyDefaults(c)
}

func apiKeyFromEnv(provider string) string {
	var names []string
	switch provider {
	case "openai":
		names = []string{"OPENAI_API_KEY"}
	case "ollama":
		return ""
	default:
		names = []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}
	}
	for _, name := range names {
		if key := os.Getenv(name); key != "" {
			return key
		}
	}
	return ""
}
