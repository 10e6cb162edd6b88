package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/studyloop/internal/profile"
)

var t0 = time.Date(2026, 3, 1, 10, 0, 0, 123456789, time.UTC)

type profileStore interface {
	profile.Store
	Delete(ctx context.Context, studentID string) error
	StudentIDs(ctx context.Context) ([]string, error)
}

func profileStores(t *testing.T) map[string]func(t *testing.T) profileStore {
	return map[string]func(t *testing.T) profileStore{
		"sqlite": func(t *testing.T) profileStore {
			return openTestStore(t).Profiles()
		},
		"json": func(t *testing.T) profileStore {
			return NewJSONProfileStore(filepath.Join(t.TempDir(), "student_history.json"))
		},
	}
}

func sampleProfile(id string) *profile.StudentProfile {
	p := profile.New(id)
	p.Mastery["fractions"] = profile.TopicMastery{Topic: "fractions", Score: 0.45, Attempts: 2, LastUpdated: t0.Add(time.Minute)}
	p.Mastery["decimals"] = profile.TopicMastery{Topic: "decimals", Score: 1, Attempts: 1, LastUpdated: t0.Add(2 * time.Minute)}
	profile.RecordAttempt(p, profile.AttemptRecord{
		QuestionID: "q1", Topic: "fractions", Timestamp: t0, Mode: profile.ModeStudy,
		SubmittedAnswer: "3/4", Verdict: profile.VerdictCorrect, Score: 0.9, Rationale: "right",
	})
	profile.RecordAttempt(p, profile.AttemptRecord{
		QuestionID: "q2", Topic: "fractions", Timestamp: t0.Add(time.Minute), Mode: profile.ModeStudy,
		SubmittedAnswer: "", Verdict: profile.VerdictIncorrect, Score: 0,
	})
	profile.RecordAttempt(p, profile.AttemptRecord{
		QuestionID: "q7", Topic: "decimals", Timestamp: t0.Add(2 * time.Minute), Mode: profile.ModeReview,
		SubmittedAnswer: "zero point five", Verdict: profile.VerdictCorrect, Score: 1, Rationale: "ok",
	})
	return p
}

func TestProfileStore_SaveLoadRoundTrip(t *testing.T) {
	for name, open := range profileStores(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			ctx := context.Background()
			want := sampleProfile("alice")

			require.NoError(t, s.Save(ctx, want))
			got, err := s.Load(ctx, "alice")
			require.NoError(t, err)
			assert.Equal(t, want, got)

			// Saving what was loaded changes nothing.
			require.NoError(t, s.Save(ctx, got))
			again, err := s.Load(ctx, "alice")
			require.NoError(t, err)
			assert.Equal(t, want, again)
		})
	}
}

func TestProfileStore_UnknownStudentIsEmpty(t *testing.T) {
	for name, open := range profileStores(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			p, err := s.Load(context.Background(), "nobody")
			require.NoError(t, err)
			assert.Equal(t, "nobody", p.StudentID)
			assert.Empty(t, p.Mastery)
			assert.NotNil(t, p.Mastery)
			assert.Empty(t, p.Attempts)
		})
	}
}

func TestProfileStore_SaveOverwrites(t *testing.T) {
	for name, open := range profileStores(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			ctx := context.Background()
			require.NoError(t, s.Save(ctx, sampleProfile("alice")))

			smaller := profile.New("alice")
			smaller.Mastery["algebra"] = profile.TopicMastery{Topic: "algebra", Score: 0.1, Attempts: 1, LastUpdated: t0}
			profile.RecordAttempt(smaller, profile.AttemptRecord{QuestionID: "a1", Topic: "algebra", Timestamp: t0, Mode: profile.ModeStudy, Verdict: profile.VerdictPartial, Score: 0.1})
			require.NoError(t, s.Save(ctx, smaller))

			got, err := s.Load(ctx, "alice")
			require.NoError(t, err)
			assert.Equal(t, smaller, got)
		})
	}
}

func TestProfileStore_StudentsAreIsolated(t *testing.T) {
	for name, open := range profileStores(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			ctx := context.Background()
			require.NoError(t, s.Save(ctx, sampleProfile("alice")))
			require.NoError(t, s.Save(ctx, sampleProfile("bob")))

			ids, err := s.StudentIDs(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"alice", "bob"}, ids)

			require.NoError(t, s.Delete(ctx, "alice"))
			alice, err := s.Load(ctx, "alice")
			require.NoError(t, err)
			assert.Empty(t, alice.Attempts)

			bob, err := s.Load(ctx, "bob")
			require.NoError(t, err)
			assert.Len(t, bob.Attempts, 3)

			assert.NoError(t, s.Delete(ctx, "never-existed"))
		})
	}
}

func TestProfileStore_ConcurrentSaves(t *testing.T) {
	for name, open := range profileStores(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			ctx := context.Background()

			var wg sync.WaitGroup
			errs := make(chan error, 8)
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					id := string(rune('a' + i))
					errs <- s.Save(ctx, sampleProfile(id))
				}(i)
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				require.NoError(t, err)
			}

			ids, err := s.StudentIDs(ctx)
			require.NoError(t, err)
			assert.Len(t, ids, 8)
		})
	}
}

func TestJSONProfileStore_Layout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "student_history.json")
	s := NewJSONProfileStore(path)
	require.NoError(t, s.Save(context.Background(), sampleProfile("alice")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"alice"`)
	assert.Contains(t, string(data), `"mastery"`)
	assert.Contains(t, string(data), `"attempts"`)
	assert.Contains(t, string(data), `"question_id": "q1"`)

	leftovers, err := filepath.Glob(path + ".*.tmp")
	require.NoError(t, err)
	assert.Empty(t, leftovers, "temp files are cleaned up")
}

func TestJSONProfileStore_PersistenceError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	// The parent "directory" is a regular file, so the save must fail.
	s := NewJSONProfileStore(filepath.Join(blocker, "history.json"))
	err := s.Save(context.Background(), sampleProfile("alice"))

	var pe *profile.PersistenceError
	require.True(t, errors.As(err, &pe), "got %v", err)
	assert.Equal(t, "save", pe.Op)
	assert.Equal(t, "alice", pe.StudentID)
}

func TestJSONProfileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewJSONProfileStore(path).Load(context.Background(), "alice")
	var pe *profile.PersistenceError
	assert.ErrorAs(t, err, &pe)
}

func TestSQLiteProfileStore_ClosedDB(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "closed.db"))
	require.NoError(t, err)
	profiles := s.Profiles()
	s.Close()

	err = profiles.Save(context.Background(), sampleProfile("alice"))
	var pe *profile.PersistenceError
	assert.ErrorAs(t, err, &pe)
}
