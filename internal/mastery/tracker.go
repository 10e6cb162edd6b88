// Package mastery maintains per-topic mastery scores as an exponential
// moving average of attempt scores.
package mastery

import (
	"fmt"

	"github.com/abhisek/studyloop/internal/profile"
)

// DefaultBaseAlpha is the steady-state EMA weight of a new attempt.
const DefaultBaseAlpha = 0.3

// Config tunes the tracker.
type Config struct {
	// BaseAlpha is the minimum weight given to the newest attempt. Early
	// attempts get more weight (1/(n+1)) until that drops below BaseAlpha.
	BaseAlpha float64 `yaml:"base_alpha"`
}

// DefaultConfig returns the default tracker configuration.
func DefaultConfig() Config {
	return Config{BaseAlpha: DefaultBaseAlpha}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.BaseAlpha <= 0 || c.BaseAlpha > 1 {
		return fmt.Errorf("mastery: base_alpha must be in (0, 1], got %v", c.BaseAlpha)
	}
	return nil
}

// Tracker computes mastery updates.
type Tracker struct {
	cfg Config
}

// NewTracker creates a tracker. A zero BaseAlpha falls back to the default.
func NewTracker(cfg Config) *Tracker {
	if cfg.BaseAlpha == 0 {
		cfg.BaseAlpha = DefaultBaseAlpha
	}
	return &Tracker{cfg: cfg}
}

// Alpha returns the weight given to the attempt that follows prevAttempts
// earlier attempts.
func (t *Tracker) Alpha(prevAttempts int) float64 {
	return max(t.cfg.BaseAlpha, 1/float64(prevAttempts+1))
}

// Update returns the mastery entry that results from applying a to prev.
// A nil prev means the topic has no history yet.
func (t *Tracker) Update(prev *profile.TopicMastery, a profile.AttemptRecord) profile.TopicMastery {
	score := clamp(a.Score, 0, 1)
	if prev == nil {
		return profile.TopicMastery{
			Topic:       a.Topic,
			Score:       score,
			Attempts:    1,
			LastUpdated: a.Timestamp,
		}
	}

	alpha := t.Alpha(prev.Attempts)
	return profile.TopicMastery{
		Topic:       prev.Topic,
		Score:       clamp(prev.Score+alpha*(score-prev.Score), 0, 1),
		Attempts:    prev.Attempts + 1,
		LastUpdated: a.Timestamp,
	}
}

// Delta describes how one attempt moved a topic's mastery.
type Delta struct {
	Topic string
	// HadBefore is false when this was the topic's first attempt.
	HadBefore bool
	Before    profile.TopicMastery
	After     profile.TopicMastery
}

// Change returns After.Score - Before.Score (Before counts as 0 when absent).
func (d Delta) Change() float64 {
	return d.After.Score - d.Before.Score
}

// Apply appends a to p and replaces the topic's mastery entry.
func (t *Tracker) Apply(p *profile.StudentProfile, a profile.AttemptRecord) Delta {
	if p.Mastery == nil {
		p.Mastery = make(map[string]profile.TopicMastery)
	}

	d := Delta{Topic: a.Topic}
	var prev *profile.TopicMastery
	if m, ok := p.Mastery[a.Topic]; ok {
		d.HadBefore = true
		d.Before = m
		prev = &m
	}

	d.After = t.Update(prev, a)
	p.Mastery[a.Topic] = d.After
	profile.RecordAttempt(p, a)
	return d
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
