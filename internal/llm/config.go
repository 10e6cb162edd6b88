package llm

import (
	"fmt"
	"os"
	"time"
)

// Provider names accepted in Config.Provider.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
	// ProviderNone disables the LLM; callers fall back to local grading.
	ProviderNone = "none"
)

// Config holds all LLM provider configuration.
type Config struct {
	// Provider selects the backend, one of the Provider* names.
	Provider string `yaml:"provider"`

	Anthropic  AnthropicConfig  `yaml:"anthropic"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
	Gemini     GeminiConfig     `yaml:"gemini"`
	OpenRouter OpenRouterConfig `yaml:"openrouter"`
	Retry      RetryConfig      `yaml:"retry"`

	// Timeout bounds a single request including retries. Zero leaves the
	// caller's deadline in charge.
	Timeout time.Duration `yaml:"timeout"`
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

// OpenRouterConfig holds OpenRouter-specific configuration.
type OpenRouterConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	InitialWait time.Duration `yaml:"initial_wait"`
	MaxWait     time.Duration `yaml:"max_wait"`
	Multiplier  float64       `yaml:"multiplier"`
}

// DefaultConfig returns the defaults: OpenAI's small model with two
// attempts per request. The session layer adds its own retry on top.
func DefaultConfig() Config {
	return Config{
		Provider:   ProviderOpenAI,
		Anthropic:  AnthropicConfig{Model: "claude-haiku"},
		OpenAI:     OpenAIConfig{Model: "gpt-4o-mini"},
		Gemini:     GeminiConfig{Model: "gemini-flash"},
		OpenRouter: OpenRouterConfig{Model: "openai/gpt-4o-mini"},
		Retry: RetryConfig{
			MaxAttempts: 2,
			InitialWait: 500 * time.Millisecond,
			MaxWait:     5 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 45 * time.Second,
	}
}

// envOverrides maps STUDYLOOP_* variables onto config fields.
func (c *Config) envOverrides() []struct {
	name string
	dst  *string
} {
	return []struct {
		name string
		dst  *string
	}{
		{"STUDYLOOP_LLM_PROVIDER", &c.Provider},
		{"STUDYLOOP_ANTHROPIC_API_KEY", &c.Anthropic.APIKey},
		{"STUDYLOOP_ANTHROPIC_MODEL", &c.Anthropic.Model},
		{"STUDYLOOP_ANTHROPIC_BASE_URL", &c.Anthropic.BaseURL},
		{"STUDYLOOP_OPENAI_API_KEY", &c.OpenAI.APIKey},
		{"STUDYLOOP_OPENAI_MODEL", &c.OpenAI.Model},
		{"STUDYLOOP_OPENAI_BASE_URL", &c.OpenAI.BaseURL},
		{"STUDYLOOP_GEMINI_API_KEY", &c.Gemini.APIKey},
		{"STUDYLOOP_GEMINI_MODEL", &c.Gemini.Model},
		{"STUDYLOOP_GEMINI_BASE_URL", &c.Gemini.BaseURL},
		{"STUDYLOOP_OPENROUTER_API_KEY", &c.OpenRouter.APIKey},
		{"STUDYLOOP_OPENROUTER_MODEL", &c.OpenRouter.Model},
	}
}

// ApplyEnv overrides fields from STUDYLOOP_* environment variables. When
// no provider key is set that way, the vendors' standard variables are
// checked with DiscoverConfig.
func (c *Config) ApplyEnv() {
	for _, o := range c.envOverrides() {
		if v := os.Getenv(o.name); v != "" {
			*o.dst = v
		}
	}
	if c.Validate() == nil {
		return
	}
	if found, ok := DiscoverConfig(); ok {
		c.Provider = found.Provider
		switch found.Provider {
		case ProviderGemini:
			c.Gemini.APIKey = found.Gemini.APIKey
		case ProviderOpenAI:
			c.OpenAI.APIKey = found.OpenAI.APIKey
		case ProviderAnthropic:
			c.Anthropic.APIKey = found.Anthropic.APIKey
		case ProviderOpenRouter:
			c.OpenRouter.APIKey = found.OpenRouter.APIKey
		}
	}
}

// ConfigFromEnv builds a Config from defaults and the environment.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	cfg.ApplyEnv()
	return cfg
}

// DiscoverConfig checks the vendors' standard API key variables
// (OpenAI, Gemini, Anthropic, OpenRouter) and returns a Config for the
// first one found.
func DiscoverConfig() (Config, bool) {
	cfg := DefaultConfig()

	if k := os.Getenv("OPENAI_API_KEY"); k != "" {
		cfg.Provider = ProviderOpenAI
		cfg.OpenAI.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("GEMINI_API_KEY"); k != "" {
		cfg.Provider = ProviderGemini
		cfg.Gemini.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("ANTHROPIC_API_KEY"); k != "" {
		cfg.Provider = ProviderAnthropic
		cfg.Anthropic.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("OPENROUTER_API_KEY"); k != "" {
		cfg.Provider = ProviderOpenRouter
		cfg.OpenRouter.APIKey = k
		return cfg, true
	}

	return Config{}, false
}

// Enabled reports whether a real or mock provider is selected.
func (c Config) Enabled() bool {
	return c.Provider != "" && c.Provider != ProviderNone
}

// Validate checks that the selected provider has its required API key set.
func (c Config) Validate() error {
	missing := func(env string) error {
		return fmt.Errorf("%s is required for the %s provider", env, c.Provider)
	}
	switch c.Provider {
	case ProviderAnthropic:
		if c.Anthropic.APIKey == "" {
			return missing("STUDYLOOP_ANTHROPIC_API_KEY")
		}
	case ProviderOpenAI:
		if c.OpenAI.APIKey == "" {
			return missing("STUDYLOOP_OPENAI_API_KEY")
		}
	case ProviderGemini:
		if c.Gemini.APIKey == "" {
			return missing("STUDYLOOP_GEMINI_API_KEY")
		}
	case ProviderOpenRouter:
		if c.OpenRouter.APIKey == "" {
			return missing("STUDYLOOP_OPENROUTER_API_KEY")
		}
	case ProviderMock, ProviderNone:
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	return nil
}
