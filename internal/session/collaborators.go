package session

import (
	"context"
	"time"

	"github.com/abhisek/studyloop/internal/bank"
	"github.com/abhisek/studyloop/internal/profile"
)

// Evaluation is an evaluator's judgement of one answer.
type Evaluation struct {
	Verdict   profile.Verdict
	Score     float64
	Rationale string
}

// Evaluator grades an answer against a question. Implementations should
// return the same evaluation for identical inputs.
type Evaluator interface {
	Evaluate(ctx context.Context, q bank.QuestionRecord, answer string) (Evaluation, error)
}

// AudioCapture is a recorded spoken answer.
type AudioCapture struct {
	// Path is a local audio file.
	Path     string
	Duration time.Duration
}

// Recorder captures a spoken answer.
type Recorder interface {
	Record(ctx context.Context) (AudioCapture, error)
}

// Transcriber converts a capture to text. Unintelligible or empty audio is
// reported as an error.
type Transcriber interface {
	Transcribe(ctx context.Context, audio AudioCapture) (string, error)
}

// AnswerSource reads a typed answer. Returning ErrStop ends the session.
type AnswerSource interface {
	ReadAnswer(ctx context.Context, q bank.QuestionRecord) (string, error)
}

// Resource is a learning resource suggested for a weak topic.
type Resource struct {
	Title       string
	URL         string
	Description string
}

// Recommender searches for resources on a topic.
type Recommender interface {
	Search(ctx context.Context, topic string) ([]Resource, error)
}

// Explainer produces a short worked example for a question's topic.
type Explainer interface {
	Explain(ctx context.Context, q bank.QuestionRecord) (string, error)
}

// FollowUps generates quick multiple-choice check questions after a missed
// answer.
type FollowUps interface {
	Generate(ctx context.Context, q bank.QuestionRecord, answer string, eval Evaluation) ([]bank.QuestionRecord, error)
}

// AnswerSourceFunc adapts a function to AnswerSource.
type AnswerSourceFunc func(ctx context.Context, q bank.QuestionRecord) (string, error)

func (f AnswerSourceFunc) ReadAnswer(ctx context.Context, q bank.QuestionRecord) (string, error) {
	return f(ctx, q)
}

// EvaluatorFunc adapts a function to Evaluator.
type EvaluatorFunc func(ctx context.Context, q bank.QuestionRecord, answer string) (Evaluation, error)

func (f EvaluatorFunc) Evaluate(ctx context.Context, q bank.QuestionRecord, answer string) (Evaluation, error) {
	return f(ctx, q, answer)
}
