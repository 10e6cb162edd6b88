package tutor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/studyloop/internal/bank"
	"github.com/abhisek/studyloop/internal/llm"
	"github.com/abhisek/studyloop/internal/session"
)

// FollowUpGenerator writes multiple-choice check questions after a missed
// answer.
type FollowUpGenerator struct {
	provider llm.Provider
	cfg      Config
}

// NewFollowUpGenerator returns a generator backed by provider.
func NewFollowUpGenerator(provider llm.Provider, cfg Config) *FollowUpGenerator {
	return &FollowUpGenerator{provider: provider, cfg: cfg}
}

type followUpOutput struct {
	Questions []struct {
		Prompt  string            `json:"prompt"`
		Choices map[string]string `json:"choices"`
		Correct string            `json:"correct"`
	} `json:"questions"`
}

// Generate implements session.FollowUps. Malformed questions are dropped;
// an error is returned only when none is usable.
func (g *FollowUpGenerator) Generate(ctx context.Context, q bank.QuestionRecord, answer string, eval session.Evaluation) ([]bank.QuestionRecord, error) {
	resp, err := g.provider.Generate(ctx, llm.Request{
		Purpose:     llm.PurposeFollowUp,
		System:      followUpSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: buildFollowUpMessage(q, answer, eval.Rationale, g.cfg)}},
		Schema:      FollowUpSchema,
		MaxTokens:   g.cfg.LongMaxTokens,
		Temperature: 0.7,
	})
	if err != nil {
		return nil, fmt.Errorf("follow-up generation: %w", err)
	}

	var out followUpOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("parse follow-up quiz: %w", err)
	}

	var questions []bank.QuestionRecord
	for _, raw := range out.Questions {
		correct := strings.ToUpper(strings.TrimSpace(raw.Correct))
		prompt := strings.TrimSpace(raw.Prompt)
		if prompt == "" || len(raw.Choices) < 2 || raw.Choices[correct] == "" {
			continue
		}
		questions = append(questions, bank.QuestionRecord{
			ID:            fmt.Sprintf("%s-check-%d", q.ID, len(questions)+1),
			Topic:         q.Topic,
			Prompt:        prompt,
			Difficulty:    q.Difficulty,
			Type:          bank.TypeMultipleChoice,
			CorrectAnswer: correct,
			Choices:       raw.Choices,
		})
		if len(questions) == g.cfg.FollowUpQuestions {
			break
		}
	}
	if len(questions) == 0 {
		return nil, errors.New("follow-up quiz had no usable questions")
	}
	return questions, nil
}
