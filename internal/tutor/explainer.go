package tutor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/abhisek/studyloop/internal/bank"
	"github.com/abhisek/studyloop/internal/llm"
)

// Explainer writes a worked example for a weak topic.
type Explainer struct {
	provider llm.Provider
	cfg      Config
}

// NewExplainer returns an Explainer backed by provider.
func NewExplainer(provider llm.Provider, cfg Config) *Explainer {
	return &Explainer{provider: provider, cfg: cfg}
}

// Explain implements session.Explainer.
func (x *Explainer) Explain(ctx context.Context, q bank.QuestionRecord) (string, error) {
	resp, err := x.provider.Generate(ctx, llm.Request{
		Purpose:     llm.PurposeExample,
		System:      exampleSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: buildExampleMessage(q, x.cfg)}},
		Schema:      ExampleSchema,
		MaxTokens:   x.cfg.LongMaxTokens,
		Temperature: 0.5,
	})
	if err != nil {
		return "", fmt.Errorf("example generation: %w", err)
	}

	var out struct {
		Example string `json:"example"`
	}
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return "", fmt.Errorf("parse example: %w", err)
	}
	return strings.TrimSpace(out.Example), nil
}

// KeywordExtractor reduces a topic to a short video search query.
type KeywordExtractor struct {
	provider llm.Provider
	cfg      Config
}

// NewKeywordExtractor returns an extractor backed by provider.
func NewKeywordExtractor(provider llm.Provider, cfg Config) *KeywordExtractor {
	return &KeywordExtractor{provider: provider, cfg: cfg}
}

// Query returns up to three space-separated keywords for topic.
func (k *KeywordExtractor) Query(ctx context.Context, topic string) (string, error) {
	resp, err := k.provider.Generate(ctx, llm.Request{
		Purpose:     llm.PurposeKeywords,
		System:      keywordsSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: buildKeywordsMessage(topic)}},
		Schema:      KeywordsSchema,
		MaxTokens:   k.cfg.MaxTokens,
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("keyword extraction: %w", err)
	}

	var out struct {
		Keywords []string `json:"keywords"`
	}
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return "", fmt.Errorf("parse keywords: %w", err)
	}

	var kept []string
	for _, kw := range out.Keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			kept = append(kept, kw)
		}
		if len(kept) == 3 {
			break
		}
	}
	if len(kept) == 0 {
		return topic, nil
	}
	return strings.Join(kept, " "), nil
}
