package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/abhisek/studyloop/internal/bank"
	"github.com/abhisek/studyloop/internal/mastery"
	"github.com/abhisek/studyloop/internal/profile"
	"github.com/abhisek/studyloop/internal/selector"
)

var t0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

// memStore is an in-memory profile.Store.
type memStore struct {
	mu       sync.Mutex
	profiles map[string]*profile.StudentProfile
	saves    int
	// failAfter lets that many saves succeed and fails the rest; negative
	// disables failures.
	failAfter int
}

func newMemStore() *memStore {
	return &memStore{profiles: make(map[string]*profile.StudentProfile), failAfter: -1}
}

func (m *memStore) Load(_ context.Context, id string) (*profile.StudentProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.profiles[id]; ok {
		return p.Clone(), nil
	}
	return profile.New(id), nil
}

func (m *memStore) Save(_ context.Context, p *profile.StudentProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAfter >= 0 && m.saves >= m.failAfter {
		return &profile.PersistenceError{Op: "save", StudentID: p.StudentID, Err: errors.New("disk full")}
	}
	m.saves++
	m.profiles[p.StudentID] = p.Clone()
	return nil
}

func (m *memStore) stored(t *testing.T, id string) *profile.StudentProfile {
	t.Helper()
	p, err := m.Load(context.Background(), id)
	require.NoError(t, err)
	return p
}

// scriptedAnswers replays answers in order; an entry that is an error is
// returned as such. After the script runs out it returns ErrStop.
type scriptedAnswers struct {
	script []any
	asked  []string
}

func (s *scriptedAnswers) ReadAnswer(ctx context.Context, q bank.QuestionRecord) (string, error) {
	s.asked = append(s.asked, q.ID)
	if len(s.script) == 0 {
		return "", ErrStop
	}
	next := s.script[0]
	s.script = s.script[1:]
	switch v := next.(type) {
	case error:
		return "", v
	case func(context.Context) (string, error):
		return v(ctx)
	default:
		return v.(string), nil
	}
}

// answerAll returns the same answer forever.
func answerAll(text string) AnswerSource {
	return AnswerSourceFunc(func(context.Context, bank.QuestionRecord) (string, error) { return text, nil })
}

// exactEvaluator grades by case-insensitive match with the reference answer.
type exactEvaluator struct {
	calls int
	// failures are returned, in order, before grading resumes.
	failures []error
}

func (e *exactEvaluator) Evaluate(ctx context.Context, q bank.QuestionRecord, answer string) (Evaluation, error) {
	e.calls++
	if len(e.failures) > 0 {
		err := e.failures[0]
		e.failures = e.failures[1:]
		return Evaluation{}, err
	}
	if strings.EqualFold(strings.TrimSpace(answer), q.CorrectAnswer) {
		return Evaluation{Verdict: profile.VerdictCorrect, Score: 1, Rationale: "matches"}, nil
	}
	return Evaluation{Verdict: profile.VerdictIncorrect, Score: 0, Rationale: "does not match"}, nil
}

type fakeRecorder struct{ calls int }

func (r *fakeRecorder) Record(ctx context.Context) (AudioCapture, error) {
	r.calls++
	return AudioCapture{Path: "/tmp/answer.wav", Duration: time.Second}, nil
}

// scriptedTranscriber returns errors from its script, then text.
type scriptedTranscriber struct {
	errs  []error
	text  string
	calls int
}

func (s *scriptedTranscriber) Transcribe(ctx context.Context, _ AudioCapture) (string, error) {
	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return "", err
	}
	return s.text, nil
}

type fakeRecommender struct {
	topics []string
	err    error
}

func (f *fakeRecommender) Search(ctx context.Context, topic string) ([]Resource, error) {
	f.topics = append(f.topics, topic)
	if f.err != nil {
		return nil, f.err
	}
	return []Resource{{Title: "Intro to " + topic, URL: "https://www.youtube.com/watch?v=x"}}, nil
}

type fakeFollowUps struct{ calls int }

func (f *fakeFollowUps) Generate(ctx context.Context, q bank.QuestionRecord, answer string, eval Evaluation) ([]bank.QuestionRecord, error) {
	f.calls++
	var out []bank.QuestionRecord
	for i, correct := range []string{"A", "B", "C"} {
		out = append(out, bank.QuestionRecord{
			ID:            q.ID + "-f" + string(rune('1'+i)),
			Topic:         q.Topic,
			Prompt:        "check",
			Type:          bank.TypeMultipleChoice,
			CorrectAnswer: correct,
			Choices:       map[string]string{"A": "a", "B": "b", "C": "c", "D": "d"},
		})
	}
	return out, nil
}

// eventLog collects events.
type eventLog struct {
	events []Event
}

func (l *eventLog) Emit(e Event) { l.events = append(l.events, e) }

func eventsOf[T Event](l *eventLog) []T {
	var out []T
	for _, e := range l.events {
		if v, ok := e.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

func testBank(t *testing.T) *bank.Bank {
	t.Helper()
	b, err := bank.New([]bank.QuestionRecord{
		{ID: "q1", Topic: "A", Prompt: "p1", CorrectAnswer: "one", Difficulty: bank.DifficultyEasy, Type: bank.TypeOpen},
		{ID: "q2", Topic: "A", Prompt: "p2", CorrectAnswer: "two", Difficulty: bank.DifficultyHard, Type: bank.TypeOpen},
		{ID: "q3", Topic: "B", Prompt: "p3", CorrectAnswer: "three", Difficulty: bank.DifficultyEasy, Type: bank.TypeOpen},
	})
	require.NoError(t, err)
	return b
}

// testClock advances one second per call.
func testClock() func() time.Time {
	now := t0
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.FollowUpQuiz = false
	cfg.CollaboratorTimeout = time.Second
	return cfg
}

func newTestEngine(t *testing.T, deps Deps, cfg Config) *Engine {
	t.Helper()
	if deps.Bank == nil {
		deps.Bank = testBank(t)
	}
	if deps.Selector == nil {
		deps.Selector = selector.New(selector.DefaultConfig())
	}
	if deps.Tracker == nil {
		deps.Tracker = mastery.NewTracker(mastery.DefaultConfig())
	}
	if deps.Now == nil {
		deps.Now = testClock()
	}
	e, err := New(deps, cfg)
	require.NoError(t, err)
	return e
}
