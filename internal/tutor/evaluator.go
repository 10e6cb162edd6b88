// Package tutor holds the LLM-backed session collaborators: answer
// grading, follow-up quizzes, worked examples and search keywords.
package tutor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/abhisek/studyloop/internal/bank"
	"github.com/abhisek/studyloop/internal/llm"
	"github.com/abhisek/studyloop/internal/profile"
	"github.com/abhisek/studyloop/internal/session"
)

// Evaluator grades answers. Multiple-choice questions are graded locally;
// open questions go to the LLM, or to keyword overlap when no provider is
// configured.
type Evaluator struct {
	provider llm.Provider
	cfg      Config
}

// NewEvaluator returns an Evaluator. provider may be nil.
func NewEvaluator(provider llm.Provider, cfg Config) *Evaluator {
	return &Evaluator{provider: provider, cfg: cfg}
}

type evaluationOutput struct {
	Verdict   string  `json:"verdict"`
	Score     float64 `json:"score"`
	Rationale string  `json:"rationale"`
}

// Evaluate implements session.Evaluator.
func (e *Evaluator) Evaluate(ctx context.Context, q bank.QuestionRecord, answer string) (session.Evaluation, error) {
	if q.Type == bank.TypeMultipleChoice {
		return gradeChoice(q, answer), nil
	}
	if e.provider == nil {
		return gradeOverlap(q, answer), nil
	}

	resp, err := e.provider.Generate(ctx, llm.Request{
		Purpose:     llm.PurposeEvaluate,
		System:      evaluateSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: buildEvaluateMessage(q, answer, e.cfg)}},
		Schema:      EvaluationSchema,
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: e.cfg.Temperature,
	})
	if err != nil {
		return session.Evaluation{}, classify(fmt.Errorf("evaluate %s: %w", q.ID, err))
	}

	var out evaluationOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return session.Evaluation{}, &session.TransientError{Err: fmt.Errorf("parse evaluation: %w", err)}
	}
	v := profile.Verdict(out.Verdict)
	if !v.Valid() {
		return session.Evaluation{}, &session.TransientError{Err: fmt.Errorf("unknown verdict %q", out.Verdict)}
	}
	return session.Evaluation{
		Verdict:   v,
		Score:     clamp01(out.Score),
		Rationale: strings.TrimSpace(out.Rationale),
	}, nil
}

// classify marks provider errors the session may retry.
func classify(err error) error {
	if llm.IsTransient(err) {
		return &session.TransientError{Err: err}
	}
	return err
}

func gradeChoice(q bank.QuestionRecord, answer string) session.Evaluation {
	if q.CheckChoice(answer) {
		return session.Evaluation{Verdict: profile.VerdictCorrect, Score: 1, Rationale: "Correct."}
	}
	return session.Evaluation{
		Verdict:   profile.VerdictIncorrect,
		Score:     0,
		Rationale: fmt.Sprintf("The correct option is %s: %s.", q.CorrectAnswer, q.CorrectChoiceText()),
	}
}

// gradeOverlap scores an open answer by the share of the reference
// answer's words it contains.
func gradeOverlap(q bank.QuestionRecord, answer string) session.Evaluation {
	ref := words(q.CorrectAnswer)
	got := make(map[string]bool)
	for _, w := range words(answer) {
		got[w] = true
	}
	if len(ref) == 0 || len(got) == 0 {
		return session.Evaluation{Verdict: profile.VerdictIncorrect, Rationale: "Expected: " + q.CorrectAnswer}
	}

	hit := 0
	for _, w := range ref {
		if got[w] {
			hit++
		}
	}
	recall := float64(hit) / float64(len(ref))
	switch {
	case recall == 1:
		return session.Evaluation{Verdict: profile.VerdictCorrect, Score: 1, Rationale: "Matches the reference answer."}
	case recall >= 0.5:
		return session.Evaluation{Verdict: profile.VerdictPartial, Score: recall, Rationale: "Partly right. Expected: " + q.CorrectAnswer}
	default:
		return session.Evaluation{Verdict: profile.VerdictIncorrect, Score: 0, Rationale: "Expected: " + q.CorrectAnswer}
	}
}

// words lowercases s and splits it on anything that is not a letter or a
// digit, dropping duplicates.
func words(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]bool, len(fields))
	out := fields[:0]
	for _, f := range fields {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}

func clamp01(x float64) float64 {
	return min(max(x, 0), 1)
}
