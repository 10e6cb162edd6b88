package llm

import (
	"errors"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

const (
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

	// OpenRouter lists requests under the app named by these headers.
	openRouterReferer = "https://github.com/abhisek/studyloop"
	openRouterTitle   = "studyloop"
)

// NewOpenRouterProvider returns a Provider on OpenRouter's
// OpenAI-compatible API. Model IDs are OpenRouter's "vendor/model" names
// and are passed through unchanged.
func NewOpenRouterProvider(cfg OpenRouterConfig) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openrouter API key is required")
	}

	config := openai.DefaultConfig(cfg.APIKey)
	config.BaseURL = cfg.BaseURL
	if config.BaseURL == "" {
		config.BaseURL = defaultOpenRouterBaseURL
	}
	config.HTTPClient = &http.Client{Transport: &headerTransport{
		base: http.DefaultTransport,
		headers: map[string]string{
			"HTTP-Referer": openRouterReferer,
			"X-Title":      openRouterTitle,
		},
	}}

	b := &openaiBackend{client: openai.NewClientWithConfig(config)}
	return newVendorProvider(ProviderOpenRouter, cfg.Model, b), nil
}

// headerTransport adds fixed headers to every request.
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	for k, v := range t.headers {
		r.Header.Set(k, v)
	}
	return t.base.RoundTrip(r)
}
