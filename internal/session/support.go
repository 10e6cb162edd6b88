package session

import (
	"context"

	"github.com/abhisek/studyloop/internal/bank"
	"github.com/abhisek/studyloop/internal/mastery"
	"github.com/abhisek/studyloop/internal/profile"
)

// support runs the optional learning aids after an attempt: resources and a
// worked example for weak topics, and a follow-up quiz after a missed study
// question. Failures are logged and never end the session. It returns true
// when the learner stopped during the quiz.
func (r *run) support(ctx context.Context, q bank.QuestionRecord, a profile.AttemptRecord, d mastery.Delta) bool {
	if d.After.Score < r.cfg.RecommendBelow && !r.recommended[q.Topic] {
		r.recommended[q.Topic] = true
		r.recommend(ctx, q)
	}

	if r.state.Mode == profile.ModeStudy && r.cfg.FollowUpQuiz && r.deps.FollowUps != nil &&
		a.Verdict != profile.VerdictCorrect && a.SubmittedAnswer != "" {
		return r.followUp(ctx, q, a)
	}
	return false
}

func (r *run) recommend(ctx context.Context, q bank.QuestionRecord) {
	if r.deps.Explainer != nil {
		cctx, cancel := context.WithTimeout(ctx, r.cfg.CollaboratorTimeout)
		text, err := r.deps.Explainer.Explain(cctx, q)
		cancel()
		if err != nil {
			r.log.Warn("worked example unavailable", "topic", q.Topic, "error", err)
		} else if text != "" {
			r.deps.Sink.Emit(ExampleShown{Topic: q.Topic, Text: text})
		}
	}

	if r.deps.Recommender == nil {
		return
	}
	cctx, cancel := context.WithTimeout(ctx, r.cfg.CollaboratorTimeout)
	resources, err := r.deps.Recommender.Search(cctx, q.Topic)
	cancel()
	if err != nil {
		r.log.Warn("resource search failed", "topic", q.Topic, "error", err)
		resources = nil
	}
	r.deps.Sink.Emit(ResourcesFound{Topic: q.Topic, Resources: resources})
}

func (r *run) followUp(ctx context.Context, q bank.QuestionRecord, a profile.AttemptRecord) bool {
	cctx, cancel := context.WithTimeout(ctx, r.cfg.CollaboratorTimeout)
	questions, err := r.deps.FollowUps.Generate(cctx, q, a.SubmittedAnswer, Evaluation{
		Verdict:   a.Verdict,
		Score:     a.Score,
		Rationale: a.Rationale,
	})
	cancel()
	if err != nil {
		r.log.Warn("follow-up quiz unavailable", "question", q.ID, "error", err)
		return false
	}
	if len(questions) == 0 || r.deps.Answers == nil {
		return false
	}

	r.deps.Sink.Emit(FollowUpStarted{Topic: q.Topic, Questions: questions})
	correct := 0
	for _, fq := range questions {
		answer, err := r.deps.Answers.ReadAnswer(ctx, fq)
		if stopped(ctx, err) {
			return true
		}
		ok := err == nil && fq.CheckChoice(answer)
		if ok {
			correct++
		}
		r.deps.Sink.Emit(FollowUpAnswered{Question: fq, Answer: answer, Correct: ok})
	}
	r.deps.Sink.Emit(FollowUpCompleted{Topic: q.Topic, Correct: correct, Total: len(questions)})
	return false
}
