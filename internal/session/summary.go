package session

import (
	"slices"
	"strings"
	"time"

	"github.com/abhisek/studyloop/internal/mastery"
	"github.com/abhisek/studyloop/internal/profile"
)

// Summary describes a finished session. It only counts attempts that were
// persisted.
type Summary struct {
	SessionID string
	StudentID string
	Mode      profile.Mode
	Reason    EndReason

	Attempts int
	Correct  int
	// Skipped counts questions recorded as incorrect after running out of
	// answer tries.
	Skipped      int
	RunningScore float64
	Duration     time.Duration

	// Topics lists mastery movement per topic, sorted by topic.
	Topics []TopicDelta
}

// AverageScore returns RunningScore / Attempts, or 0 with no attempts.
func (s Summary) AverageScore() float64 {
	if s.Attempts == 0 {
		return 0
	}
	return s.RunningScore / float64(s.Attempts)
}

// Accuracy returns the share of attempts judged correct.
func (s Summary) Accuracy() float64 {
	if s.Attempts == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Attempts)
}

// TopicDelta is the mastery of one topic at the start and end of a session.
type TopicDelta struct {
	Topic string
	// HadBefore is false when the topic was first attempted this session.
	HadBefore bool
	Before    float64
	After     float64
	Attempts  int
}

// Change returns After - Before.
func (d TopicDelta) Change() float64 { return d.After - d.Before }

// tally accumulates the summary as attempts are persisted.
type tally struct {
	summary Summary
	topics  map[string]*TopicDelta
}

func newTally(sessionID, studentID string, mode profile.Mode) *tally {
	return &tally{
		summary: Summary{SessionID: sessionID, StudentID: studentID, Mode: mode},
		topics:  make(map[string]*TopicDelta),
	}
}

func (t *tally) record(a profile.AttemptRecord, d mastery.Delta, skipped bool) {
	t.summary.Attempts++
	t.summary.RunningScore += a.Score
	if a.Verdict == profile.VerdictCorrect {
		t.summary.Correct++
	}
	if skipped {
		t.summary.Skipped++
	}

	td, ok := t.topics[d.Topic]
	if !ok {
		td = &TopicDelta{Topic: d.Topic, HadBefore: d.HadBefore, Before: d.Before.Score}
		t.topics[d.Topic] = td
	}
	td.After = d.After.Score
	td.Attempts++
}

func (t *tally) finish(reason EndReason, elapsed time.Duration) Summary {
	s := t.summary
	s.Reason = reason
	s.Duration = elapsed
	s.Topics = make([]TopicDelta, 0, len(t.topics))
	for _, td := range t.topics {
		s.Topics = append(s.Topics, *td)
	}
	slices.SortFunc(s.Topics, func(a, b TopicDelta) int { return strings.Compare(a.Topic, b.Topic) })
	return s
}
