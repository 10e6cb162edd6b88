package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/studyloop/internal/profile"
)

// SQLiteProfileStore persists profiles in the students, topic_mastery and
// attempts tables.
type SQLiteProfileStore struct {
	drv *entsql.Driver
	// lockPath is the database file; empty for in-memory databases.
	lockPath string
	mu       sync.Mutex
}

var _ profile.Store = (*SQLiteProfileStore)(nil)

// Load returns the stored profile, or an empty one for an unknown student.
func (s *SQLiteProfileStore) Load(ctx context.Context, studentID string) (*profile.StudentProfile, error) {
	p := profile.New(studentID)

	sel := builder().Select("topic", "score", "attempts", "last_updated").
		From(entsql.Table(tableTopicMastery)).
		Where(entsql.EQ("student_id", studentID)).
		OrderBy("topic")
	err := query(ctx, s.drv, sel, func(rows *entsql.Rows) error {
		var m profile.TopicMastery
		var updated int64
		if err := rows.Scan(&m.Topic, &m.Score, &m.Attempts, &updated); err != nil {
			return err
		}
		m.LastUpdated = fromNanos(updated)
		p.Mastery[m.Topic] = m
		return nil
	})
	if err != nil {
		return nil, &profile.PersistenceError{Op: "load", StudentID: studentID, Err: err}
	}

	sel = builder().Select("question_id", "topic", "timestamp", "mode", "submitted_answer", "verdict", "score", "rationale").
		From(entsql.Table(tableAttempts)).
		Where(entsql.EQ("student_id", studentID)).
		OrderBy("position")
	err = query(ctx, s.drv, sel, func(rows *entsql.Rows) error {
		var a profile.AttemptRecord
		var ts int64
		var mode, verdict string
		if err := rows.Scan(&a.QuestionID, &a.Topic, &ts, &mode, &a.SubmittedAnswer, &verdict, &a.Score, &a.Rationale); err != nil {
			return err
		}
		a.Timestamp = fromNanos(ts)
		a.Mode = profile.Mode(mode)
		a.Verdict = profile.Verdict(verdict)
		p.Attempts = append(p.Attempts, a)
		return nil
	})
	if err != nil {
		return nil, &profile.PersistenceError{Op: "load", StudentID: studentID, Err: err}
	}

	return p, nil
}

// Save replaces everything stored for p.StudentID in one transaction.
func (s *SQLiteProfileStore) Save(ctx context.Context, p *profile.StudentProfile) error {
	release, err := s.lock(ctx)
	if err != nil {
		return &profile.PersistenceError{Op: "save", StudentID: p.StudentID, Err: err}
	}
	defer release()

	if err := s.withTx(ctx, func(tx dialect.Tx) error {
		return writeProfile(ctx, tx, p)
	}); err != nil {
		return &profile.PersistenceError{Op: "save", StudentID: p.StudentID, Err: err}
	}
	return nil
}

// Delete removes a student's profile. Deleting an unknown student is not
// an error.
func (s *SQLiteProfileStore) Delete(ctx context.Context, studentID string) error {
	release, err := s.lock(ctx)
	if err != nil {
		return &profile.PersistenceError{Op: "delete", StudentID: studentID, Err: err}
	}
	defer release()

	err = s.withTx(ctx, func(tx dialect.Tx) error {
		return clearProfile(ctx, tx, studentID, true)
	})
	if err != nil {
		return &profile.PersistenceError{Op: "delete", StudentID: studentID, Err: err}
	}
	return nil
}

// StudentIDs lists every stored student, sorted.
func (s *SQLiteProfileStore) StudentIDs(ctx context.Context) ([]string, error) {
	sel := builder().Select("id").From(entsql.Table(tableStudents)).OrderBy("id")
	var ids []string
	err := query(ctx, s.drv, sel, func(rows *entsql.Rows) error {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		ids = append(ids, id)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return ids, nil
}

func (s *SQLiteProfileStore) lock(ctx context.Context) (func() error, error) {
	s.mu.Lock()
	if s.lockPath == "" {
		return func() error { s.mu.Unlock(); return nil }, nil
	}
	release, err := acquireLock(ctx, s.lockPath)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	return func() error {
		defer s.mu.Unlock()
		return release()
	}, nil
}

func (s *SQLiteProfileStore) withTx(ctx context.Context, fn func(tx dialect.Tx) error) error {
	tx, err := s.drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func writeProfile(ctx context.Context, tx dialect.Tx, p *profile.StudentProfile) error {
	now := time.Now().UnixNano()
	upsert := builder().Insert(tableStudents).
		Columns("id", "created_at", "updated_at").
		Values(p.StudentID, now, now).
		OnConflict(
			entsql.ConflictColumns("id"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				u.SetExcluded("updated_at")
			}),
		)
	if err := exec(ctx, tx, upsert); err != nil {
		return fmt.Errorf("upsert student: %w", err)
	}

	if err := clearProfile(ctx, tx, p.StudentID, false); err != nil {
		return err
	}

	for _, topic := range p.Topics() {
		m := p.Mastery[topic]
		ins := builder().Insert(tableTopicMastery).
			Columns("student_id", "topic", "score", "attempts", "last_updated").
			Values(p.StudentID, m.Topic, m.Score, m.Attempts, m.LastUpdated.UnixNano())
		if err := exec(ctx, tx, ins); err != nil {
			return fmt.Errorf("insert mastery %q: %w", topic, err)
		}
	}

	for i, a := range p.Attempts {
		ins := builder().Insert(tableAttempts).
			Columns("student_id", "position", "question_id", "topic", "timestamp", "mode", "submitted_answer", "verdict", "score", "rationale").
			Values(p.StudentID, i, a.QuestionID, a.Topic, a.Timestamp.UnixNano(), string(a.Mode), a.SubmittedAnswer, string(a.Verdict), a.Score, a.Rationale)
		if err := exec(ctx, tx, ins); err != nil {
			return fmt.Errorf("insert attempt %d: %w", i, err)
		}
	}
	return nil
}

func clearProfile(ctx context.Context, tx dialect.Tx, studentID string, student bool) error {
	tables := []string{tableTopicMastery, tableAttempts}
	if student {
		tables = append(tables, tableStudents)
	}
	for _, t := range tables {
		col := "student_id"
		if t == tableStudents {
			col = "id"
		}
		del := builder().Delete(t).Where(entsql.EQ(col, studentID))
		if err := exec(ctx, tx, del); err != nil {
			return fmt.Errorf("clear %s: %w", t, err)
		}
	}
	return nil
}
