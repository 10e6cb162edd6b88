// Package profile holds a student's learning history: per-topic mastery
// and the chronological list of answered questions.
package profile

import (
	"fmt"
	"maps"
	"slices"
	"time"
)

// Mode is the session mode an attempt was made in.
type Mode string

const (
	ModeStudy  Mode = "study"
	ModeReview Mode = "review"
)

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeStudy, ModeReview:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown mode %q (want study or review)", s)
	}
}

// Verdict is the evaluator's judgement of an answer.
type Verdict string

const (
	VerdictCorrect   Verdict = "correct"
	VerdictPartial   Verdict = "partial"
	VerdictIncorrect Verdict = "incorrect"
)

// Valid reports whether v is one of the known verdicts.
func (v Verdict) Valid() bool {
	switch v {
	case VerdictCorrect, VerdictPartial, VerdictIncorrect:
		return true
	}
	return false
}

// PassScore is the score at or above which a correct answer counts as
// understood.
const PassScore = 0.6

// AttemptRecord is one answered question. Records are append-only.
type AttemptRecord struct {
	QuestionID      string    `json:"question_id"`
	Topic           string    `json:"topic"`
	Timestamp       time.Time `json:"timestamp"`
	Mode            Mode      `json:"mode"`
	SubmittedAnswer string    `json:"submitted_answer"`
	Verdict         Verdict   `json:"verdict"`
	Score           float64   `json:"score"`
	Rationale       string    `json:"rationale,omitempty"`
}

// Passed reports whether the attempt was judged correct with a score of at
// least PassScore.
func (a AttemptRecord) Passed() bool {
	return a.Verdict == VerdictCorrect && a.Score >= PassScore
}

// Missed reports whether the attempt was judged incorrect or scored below
// PassScore.
func (a AttemptRecord) Missed() bool {
	return a.Verdict == VerdictIncorrect || a.Score < PassScore
}

// TopicMastery is the running mastery estimate for one topic.
type TopicMastery struct {
	Topic       string    `json:"topic"`
	Score       float64   `json:"score"`
	Attempts    int       `json:"attempts"`
	LastUpdated time.Time `json:"last_updated"`
}

// StudentProfile is everything persisted about one student.
type StudentProfile struct {
	StudentID string
	Mastery   map[string]TopicMastery
	Attempts  []AttemptRecord
}

// New returns an empty profile for studentID.
func New(studentID string) *StudentProfile {
	return &StudentProfile{
		StudentID: studentID,
		Mastery:   make(map[string]TopicMastery),
	}
}

// RecordAttempt appends a to p and returns p. It does not persist.
func RecordAttempt(p *StudentProfile, a AttemptRecord) *StudentProfile {
	p.Attempts = append(p.Attempts, a)
	return p
}

// MasteryFor returns the mastery entry for topic, if any.
func (p *StudentProfile) MasteryFor(topic string) (TopicMastery, bool) {
	m, ok := p.Mastery[topic]
	return m, ok
}

// Topics returns the topics with a mastery entry, sorted.
func (p *StudentProfile) Topics() []string {
	return slices.Sorted(maps.Keys(p.Mastery))
}

// AttemptsFor returns the attempts on questionID in chronological order.
func (p *StudentProfile) AttemptsFor(questionID string) []AttemptRecord {
	var out []AttemptRecord
	for _, a := range p.Attempts {
		if a.QuestionID == questionID {
			out = append(out, a)
		}
	}
	return out
}

// LastAttempted maps each attempted question id to the time of its most
// recent attempt.
func (p *StudentProfile) LastAttempted() map[string]time.Time {
	out := make(map[string]time.Time, len(p.Attempts))
	for _, a := range p.Attempts {
		if t, ok := out[a.QuestionID]; !ok || a.Timestamp.After(t) {
			out[a.QuestionID] = a.Timestamp
		}
	}
	return out
}

// ReviewCandidates returns the ids of questions that were missed at least
// once and never passed, sorted.
func (p *StudentProfile) ReviewCandidates() []string {
	missed := make(map[string]bool)
	passed := make(map[string]bool)
	for _, a := range p.Attempts {
		if a.Passed() {
			passed[a.QuestionID] = true
		}
		if a.Missed() {
			missed[a.QuestionID] = true
		}
	}
	var out []string
	for id := range missed {
		if !passed[id] {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

// Clone returns a deep copy of p.
func (p *StudentProfile) Clone() *StudentProfile {
	c := &StudentProfile{
		StudentID: p.StudentID,
		Mastery:   maps.Clone(p.Mastery),
		Attempts:  slices.Clone(p.Attempts),
	}
	if c.Mastery == nil {
		c.Mastery = make(map[string]TopicMastery)
	}
	return c
}
