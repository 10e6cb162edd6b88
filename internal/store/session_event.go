package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// Session event kinds. RecentSessions aggregates started and attempt.
const (
	SessionKindStarted   = "started"
	SessionKindAttempt   = "attempt"
	SessionKindFollowUp  = "follow-up"
	SessionKindResources = "resources"
	SessionKindCompleted = "completed"
	SessionKindAborted   = "aborted"
)

var sessionEventColumns = []string{
	"id", "sequence", "timestamp", "session_id", "student_id", "kind",
	"mode", "question_id", "topic", "verdict", "score", "detail",
}

func (r *eventRepo) AppendSessionEvent(ctx context.Context, data SessionEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	ins := builder().Insert(tableSessionEvents).
		Columns(sessionEventColumns[1:]...).
		Values(
			seqNum,
			time.Now().UnixNano(),
			data.SessionID,
			data.StudentID,
			data.Kind,
			data.Mode,
			data.QuestionID,
			data.Topic,
			data.Verdict,
			data.Score,
			data.Detail,
		)
	if err := exec(ctx, r.drv, ins); err != nil {
		return fmt.Errorf("save session event: %w", err)
	}
	return nil
}

func (r *eventRepo) QuerySessionEvents(ctx context.Context, sessionID string) ([]SessionEvent, error) {
	sel := builder().Select(sessionEventColumns...).
		From(entsql.Table(tableSessionEvents)).
		Where(entsql.EQ("session_id", sessionID)).
		OrderBy("sequence")

	var out []SessionEvent
	err := query(ctx, r.drv, sel, func(rows *entsql.Rows) error {
		var e SessionEvent
		var ts int64
		if err := rows.Scan(
			&e.ID, &e.Sequence, &ts, &e.SessionID, &e.StudentID, &e.Kind,
			&e.Mode, &e.QuestionID, &e.Topic, &e.Verdict, &e.Score, &e.Detail,
		); err != nil {
			return err
		}
		e.Timestamp = fromNanos(ts)
		out = append(out, e)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query session events: %w", err)
	}
	return out, nil
}

func (r *eventRepo) RecentSessions(ctx context.Context, studentID string, limit int) ([]SessionOverview, error) {
	sel := builder().Select(
		"session_id",
		entsql.As(entsql.Max("mode"), "mode"),
		entsql.As(entsql.Min("timestamp"), "started"),
		entsql.As(fmt.Sprintf("SUM(CASE WHEN kind = '%s' THEN 1 ELSE 0 END)", SessionKindAttempt), "answered"),
		entsql.As(fmt.Sprintf("SUM(CASE WHEN kind = '%s' AND verdict = 'correct' THEN 1 ELSE 0 END)", SessionKindAttempt), "correct"),
	).
		From(entsql.Table(tableSessionEvents)).
		Where(entsql.EQ("student_id", studentID)).
		GroupBy("session_id").
		OrderBy(entsql.Desc(entsql.Min("sequence")))
	if limit > 0 {
		sel.Limit(limit)
	}

	var out []SessionOverview
	err := query(ctx, r.drv, sel, func(rows *entsql.Rows) error {
		o := SessionOverview{StudentID: studentID}
		var started int64
		if err := rows.Scan(&o.SessionID, &o.Mode, &started, &o.Answered, &o.Correct); err != nil {
			return err
		}
		o.Started = fromNanos(started)
		out = append(out, o)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query recent sessions: %w", err)
	}
	return out, nil
}
