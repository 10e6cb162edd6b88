package llm

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePurpose(t *testing.T) {
	for _, p := range Purposes() {
		got, err := ParsePurpose(string(p))
		require.NoError(t, err)
		assert.Equal(t, p, got)
		assert.True(t, p.Valid())
	}

	got, err := ParsePurpose("  Follow-Up ")
	require.NoError(t, err)
	assert.Equal(t, PurposeFollowUp, got)

	_, err = ParsePurpose("grading")
	assert.ErrorContains(t, err, "evaluate, follow-up, example, keywords")
	assert.False(t, Purpose("").Valid())
}

func TestMockProvider_ServesByPurpose(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Purpose: PurposeFollowUp, Content: json.RawMessage(`{"questions":[]}`)},
		MockResponse{Purpose: PurposeEvaluate, Content: json.RawMessage(`{"verdict":"incorrect","score":0,"rationale":"No."}`)},
		MockResponse{Content: json.RawMessage(`{"keywords":["osmosis"]}`)},
	)

	resp, err := mock.Generate(context.Background(), askFor(PurposeEvaluate))
	require.NoError(t, err)
	assert.Contains(t, string(resp.Content), "incorrect")

	resp, err = mock.Generate(context.Background(), askFor(PurposeKeywords))
	require.NoError(t, err)
	assert.Contains(t, string(resp.Content), "osmosis")

	resp, err = mock.Generate(context.Background(), askFor(PurposeFollowUp))
	require.NoError(t, err)
	assert.JSONEq(t, `{"questions":[]}`, string(resp.Content))

	_, err = mock.Generate(context.Background(), askFor(PurposeEvaluate))
	var un *ErrProviderUnavailable
	assert.ErrorAs(t, err, &un)

	assert.Equal(t, 4, mock.CallCount())
	assert.Len(t, mock.CallsFor(PurposeEvaluate), 2)
	assert.Equal(t, 300, mock.CallsFor(PurposeEvaluate)[0].MaxTokens)
}

func TestMockProvider_AppliesRequestCheck(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{}`)})
	_, err := mock.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "x"}}})
	assert.Error(t, err)
	assert.Zero(t, mock.CallCount())

	mock.AddResponse(MockResponse{Err: &ErrRateLimit{}})
	resp, err := mock.Generate(context.Background(), askFor(PurposeExample))
	require.NoError(t, err)
	assert.Equal(t, StopEnd, resp.StopReason)
	_, err = mock.Generate(context.Background(), askFor(PurposeExample))
	var rl *ErrRateLimit
	assert.ErrorAs(t, err, &rl)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"openai with key", Config{Provider: ProviderOpenAI, OpenAI: OpenAIConfig{APIKey: "sk"}}, ""},
		{"openai without key", Config{Provider: ProviderOpenAI}, "STUDYLOOP_OPENAI_API_KEY"},
		{"anthropic without key", Config{Provider: ProviderAnthropic}, "STUDYLOOP_ANTHROPIC_API_KEY"},
		{"gemini without key", Config{Provider: ProviderGemini}, "STUDYLOOP_GEMINI_API_KEY"},
		{"openrouter without key", Config{Provider: ProviderOpenRouter}, "STUDYLOOP_OPENROUTER_API_KEY"},
		{"mock", Config{Provider: ProviderMock}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
