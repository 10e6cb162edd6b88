package store

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

// Table names.
const (
	tableStudents      = "students"
	tableTopicMastery  = "topic_mastery"
	tableAttempts      = "attempts"
	tableLLMRequests   = "llm_request_events"
	tableSessionEvents = "session_events"
)

// schema is applied on every Open. Timestamps are stored as Unix
// nanoseconds in UTC.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS students (
		id TEXT PRIMARY KEY,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS topic_mastery (
		student_id TEXT NOT NULL REFERENCES students(id) ON DELETE CASCADE,
		topic TEXT NOT NULL,
		score REAL NOT NULL CHECK (score >= 0 AND score <= 1),
		attempts INTEGER NOT NULL,
		last_updated INTEGER NOT NULL,
		PRIMARY KEY (student_id, topic)
	)`,
	`CREATE TABLE IF NOT EXISTS attempts (
		student_id TEXT NOT NULL REFERENCES students(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		question_id TEXT NOT NULL,
		topic TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		mode TEXT NOT NULL,
		submitted_answer TEXT NOT NULL,
		verdict TEXT NOT NULL,
		score REAL NOT NULL,
		rationale TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (student_id, position)
	)`,
	`CREATE TABLE IF NOT EXISTS llm_request_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence INTEGER NOT NULL UNIQUE,
		timestamp INTEGER NOT NULL,
		provider TEXT NOT NULL,
		model TEXT NOT NULL,
		purpose TEXT NOT NULL,
		input_tokens INTEGER NOT NULL DEFAULT 0,
		output_tokens INTEGER NOT NULL DEFAULT 0,
		latency_ms INTEGER NOT NULL DEFAULT 0,
		success INTEGER NOT NULL,
		error_message TEXT NOT NULL DEFAULT '',
		request_body TEXT NOT NULL DEFAULT '',
		response_body TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS session_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence INTEGER NOT NULL UNIQUE,
		timestamp INTEGER NOT NULL,
		session_id TEXT NOT NULL,
		student_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		mode TEXT NOT NULL DEFAULT '',
		question_id TEXT NOT NULL DEFAULT '',
		topic TEXT NOT NULL DEFAULT '',
		verdict TEXT NOT NULL DEFAULT '',
		score REAL NOT NULL DEFAULT 0,
		detail TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_session_events_session ON session_events(session_id)`,
}

func migrate(ctx context.Context, drv *entsql.Driver) error {
	for _, stmt := range schema {
		if err := drv.Exec(ctx, stmt, []any{}, nil); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
