package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/studyloop/internal/llm"
)

func TestOpenRouterProvider_Grading(t *testing.T) {
	var header http.Header
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/chat/completions", r.URL.Path)
		header = r.Header.Clone()
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeJSON(w, http.StatusOK, chatCompletion("anthropic/claude-3-haiku", verdictJSON, "stop"))
	}))
	t.Cleanup(server.Close)

	p, err := llm.NewOpenRouterProvider(llm.OpenRouterConfig{
		APIKey:  "sk-or-test",
		Model:   "anthropic/claude-3-haiku",
		BaseURL: server.URL + "/api/v1",
	})
	require.NoError(t, err)
	assert.Equal(t, "anthropic/claude-3-haiku", p.ModelID())

	resp, err := p.Generate(context.Background(), gradingRequest())
	require.NoError(t, err)
	assert.JSONEq(t, verdictJSON, string(resp.Content))
	assert.Equal(t, "anthropic/claude-3-haiku", resp.Model)

	assert.Equal(t, "anthropic/claude-3-haiku", body["model"])
	assert.Equal(t, "Bearer sk-or-test", header.Get("Authorization"))
	assert.Equal(t, "https://github.com/abhisek/studyloop", header.Get("HTTP-Referer"))
	assert.Equal(t, "studyloop", header.Get("X-Title"))
}

func TestOpenRouterProvider_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error": map[string]any{"message": "Rate limit exceeded", "code": 429},
		})
	}))
	t.Cleanup(server.Close)

	p, err := llm.NewOpenRouterProvider(llm.OpenRouterConfig{APIKey: "sk-or-test", Model: "openai/gpt-4o-mini", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), gradingRequest())
	var rl *llm.ErrRateLimit
	assert.ErrorAs(t, err, &rl)
}

func TestNewOpenRouterProvider_RequiresKey(t *testing.T) {
	_, err := llm.NewOpenRouterProvider(llm.OpenRouterConfig{Model: "openai/gpt-4o-mini"})
	assert.Error(t, err)
}
