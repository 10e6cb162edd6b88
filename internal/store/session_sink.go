package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/abhisek/studyloop/internal/session"
)

// SessionRecorder is a session.Sink that writes the history of a session
// to the event log. Write failures are logged and never reach the session.
type SessionRecorder struct {
	repo   EventRepo
	ctx    context.Context
	logger *slog.Logger

	sessionID string
	studentID string
	mode      string
}

// NewSessionRecorder returns a recorder writing to repo. Writes use a
// context detached from ctx's cancellation so the final events of a
// stopped session are kept.
func NewSessionRecorder(ctx context.Context, repo EventRepo, logger *slog.Logger) *SessionRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionRecorder{repo: repo, ctx: context.WithoutCancel(ctx), logger: logger}
}

// Emit implements session.Sink.
func (r *SessionRecorder) Emit(e session.Event) {
	data, ok := r.convert(e)
	if !ok {
		return
	}
	data.SessionID = r.sessionID
	data.StudentID = r.studentID
	data.Mode = r.mode
	if err := r.repo.AppendSessionEvent(r.ctx, data); err != nil {
		r.logger.Warn("failed to record session event", "kind", data.Kind, "session", r.sessionID, "error", err)
	}
}

func (r *SessionRecorder) convert(e session.Event) (SessionEventData, bool) {
	switch ev := e.(type) {
	case session.SessionStarted:
		r.sessionID = ev.SessionID
		r.studentID = ev.StudentID
		r.mode = string(ev.Mode)
		return SessionEventData{Kind: SessionKindStarted, Detail: fmt.Sprintf("budget=%d", ev.Budget)}, true
	case session.MasteryUpdated:
		a := ev.Attempt
		return SessionEventData{
			Kind:       SessionKindAttempt,
			QuestionID: a.QuestionID,
			Topic:      a.Topic,
			Verdict:    string(a.Verdict),
			Score:      a.Score,
			Detail:     fmt.Sprintf("mastery %.2f -> %.2f", ev.Delta.Before.Score, ev.Delta.After.Score),
		}, true
	case session.ResourcesFound:
		return SessionEventData{
			Kind:   SessionKindResources,
			Topic:  ev.Topic,
			Detail: fmt.Sprintf("%d resources", len(ev.Resources)),
		}, true
	case session.FollowUpCompleted:
		score := 0.0
		if ev.Total > 0 {
			score = float64(ev.Correct) / float64(ev.Total)
		}
		return SessionEventData{
			Kind:   SessionKindFollowUp,
			Topic:  ev.Topic,
			Score:  score,
			Detail: fmt.Sprintf("%d/%d", ev.Correct, ev.Total),
		}, true
	case session.SessionCompleted:
		return SessionEventData{
			Kind:   SessionKindCompleted,
			Score:  ev.Summary.RunningScore,
			Detail: string(ev.Summary.Reason),
		}, true
	case session.SessionAborted:
		return SessionEventData{
			Kind:   SessionKindAborted,
			Score:  ev.Summary.RunningScore,
			Detail: ev.Err.Error(),
		}, true
	}
	return SessionEventData{}, false
}
