// Package selector picks the next question for a session from the bank,
// steering towards weak topics at a difficulty that tracks mastery.
package selector

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/abhisek/studyloop/internal/bank"
	"github.com/abhisek/studyloop/internal/profile"
)

// ErrExhausted is returned by Outcome.Err when no eligible question remains.
var ErrExhausted = errors.New("no eligible question remains")

// Sampling is the strategy used to pick a topic from the weighted set.
type Sampling string

const (
	// SamplingGreedy always picks the highest-weight topic.
	SamplingGreedy Sampling = "greedy"
	// SamplingWeighted draws a topic with probability proportional to its
	// weight.
	SamplingWeighted Sampling = "weighted"
)

// Config tunes question selection.
type Config struct {
	// Mastery at or below EasyMax selects easy questions.
	EasyMax float64 `yaml:"easy_max"`
	// Mastery at or below MediumMax (and above EasyMax) selects medium ones.
	MediumMax float64  `yaml:"medium_max"`
	Sampling  Sampling `yaml:"sampling"`
}

// DefaultConfig returns the default selection policy.
func DefaultConfig() Config {
	return Config{
		EasyMax:   0.4,
		MediumMax: 0.7,
		Sampling:  SamplingGreedy,
	}
}

// Validate checks that the bands are ordered and the sampling is known.
func (c Config) Validate() error {
	if c.EasyMax < 0 || c.EasyMax > c.MediumMax || c.MediumMax > 1 {
		return fmt.Errorf("selector: bands must satisfy 0 <= easy_max <= medium_max <= 1, got %v/%v", c.EasyMax, c.MediumMax)
	}
	switch c.Sampling {
	case "", SamplingGreedy, SamplingWeighted:
		return nil
	default:
		return fmt.Errorf("selector: unknown sampling %q", c.Sampling)
	}
}

// Outcome is the result of a selection: either a question or exhaustion.
type Outcome struct {
	Question  bank.QuestionRecord
	Exhausted bool
	// Review is true when the question came from the review pool rather
	// than the study policy.
	Review bool
}

// Err returns ErrExhausted for an exhausted outcome and nil otherwise.
func (o Outcome) Err() error {
	if o.Exhausted {
		return ErrExhausted
	}
	return nil
}

// Option configures a Selector.
type Option func(*Selector)

// WithRand sets the random source used by weighted sampling.
func WithRand(rng *rand.Rand) Option {
	return func(s *Selector) { s.rng = rng }
}

// Selector chooses questions.
type Selector struct {
	cfg Config
	rng *rand.Rand
}

// New creates a Selector.
func New(cfg Config, opts ...Option) *Selector {
	if cfg.Sampling == "" {
		cfg.Sampling = SamplingGreedy
	}
	s := &Selector{cfg: cfg}
	for _, o := range opts {
		o(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	return s
}

// Band maps a mastery score to the target difficulty. Boundary values go
// to the lower difficulty.
func (s *Selector) Band(score float64) bank.Difficulty {
	switch {
	case score <= s.cfg.EasyMax:
		return bank.DifficultyEasy
	case score <= s.cfg.MediumMax:
		return bank.DifficultyMedium
	default:
		return bank.DifficultyHard
	}
}

// Select returns the next question for p in the given mode. Questions whose
// ids are in exhausted are never returned.
//
// In review mode the candidates are limited to questions the student missed
// and never passed; when none remain the study policy applies.
func (s *Selector) Select(b *bank.Bank, p *profile.StudentProfile, mode profile.Mode, exhausted map[string]bool) (Outcome, error) {
	if b == nil {
		return Outcome{}, errors.New("selector: nil bank")
	}
	if p == nil {
		return Outcome{}, errors.New("selector: nil profile")
	}

	pool := make(map[string]bool)
	review := false
	if mode == profile.ModeReview {
		for _, id := range p.ReviewCandidates() {
			if b.Has(id) && !exhausted[id] {
				pool[id] = true
			}
		}
		review = len(pool) > 0
	}
	if !review {
		for q := range b.All() {
			if !exhausted[q.ID] {
				pool[q.ID] = true
			}
		}
	}
	if len(pool) == 0 {
		return Outcome{Exhausted: true}, nil
	}

	topics := s.weighTopics(b, p, pool)
	topic := s.pickTopic(topics)

	q, ok := s.pickQuestion(b, p, topic, pool)
	if !ok {
		// weighTopics only returns topics with at least one pooled question.
		return Outcome{}, fmt.Errorf("selector: topic %q has no eligible question", topic.Name)
	}
	return Outcome{Question: q, Review: review}, nil
}

// TopicWeight is a candidate topic and its selection weight.
type TopicWeight struct {
	Name     string
	Mastery  float64
	Attempts int
	Weight   float64
}

// weighTopics returns every topic with at least one pooled question, sorted
// by name.
func (s *Selector) weighTopics(b *bank.Bank, p *profile.StudentProfile, pool map[string]bool) []TopicWeight {
	var out []TopicWeight
	for _, name := range b.Topics() {
		has := false
		for q := range b.Filter(bank.ByTopic(name)) {
			if pool[q.ID] {
				has = true
				break
			}
		}
		if !has {
			continue
		}
		tw := TopicWeight{Name: name, Weight: 1}
		if m, ok := p.MasteryFor(name); ok {
			tw.Mastery = m.Score
			tw.Attempts = m.Attempts
			tw.Weight = 1 - m.Score
		}
		out = append(out, tw)
	}
	return out
}

func (s *Selector) pickTopic(topics []TopicWeight) TopicWeight {
	if s.cfg.Sampling == SamplingWeighted {
		return s.sampleTopic(topics)
	}
	return slices.MinFunc(topics, func(a, b TopicWeight) int {
		if a.Weight != b.Weight {
			if a.Weight > b.Weight {
				return -1
			}
			return 1
		}
		if a.Attempts != b.Attempts {
			return a.Attempts - b.Attempts
		}
		return strings.Compare(a.Name, b.Name)
	})
}

func (s *Selector) sampleTopic(topics []TopicWeight) TopicWeight {
	var total float64
	for _, t := range topics {
		total += t.Weight
	}
	if total <= 0 {
		return topics[s.rng.IntN(len(topics))]
	}
	r := s.rng.Float64() * total
	for _, t := range topics {
		if r < t.Weight {
			return t
		}
		r -= t.Weight
	}
	return topics[len(topics)-1]
}

// pickQuestion chooses among the topic's pooled questions at the target
// difficulty, falling back to the nearest difficulty (lower first).
func (s *Selector) pickQuestion(b *bank.Bank, p *profile.StudentProfile, topic TopicWeight, pool map[string]bool) (bank.QuestionRecord, bool) {
	last := p.LastAttempted()
	for _, d := range difficultyOrder(s.Band(topic.Mastery)) {
		var candidates []bank.QuestionRecord
		for q := range b.Filter(bank.ByTopic(topic.Name).WithDifficulty(d)) {
			if pool[q.ID] {
				candidates = append(candidates, q)
			}
		}
		if len(candidates) == 0 {
			continue
		}
		return slices.MinFunc(candidates, func(a, b bank.QuestionRecord) int {
			ta, tb := last[a.ID], last[b.ID]
			if c := ta.Compare(tb); c != 0 {
				return c
			}
			return strings.Compare(a.ID, b.ID)
		}), true
	}
	return bank.QuestionRecord{}, false
}

// difficultyOrder lists every difficulty by distance from target, with the
// lower one first on ties.
func difficultyOrder(target bank.Difficulty) []bank.Difficulty {
	order := []bank.Difficulty{target}
	for delta := bank.Difficulty(1); delta < bank.Difficulty(len(bank.Difficulties)); delta++ {
		if lo := target - delta; lo >= bank.DifficultyEasy {
			order = append(order, lo)
		}
		if hi := target + delta; hi <= bank.DifficultyHard {
			order = append(order, hi)
		}
	}
	return order
}

// Weights returns the selection weight of every topic in the bank for p,
// ignoring session exhaustion.
func (s *Selector) Weights(b *bank.Bank, p *profile.StudentProfile) []TopicWeight {
	pool := make(map[string]bool, b.Len())
	for q := range b.All() {
		pool[q.ID] = true
	}
	return s.weighTopics(b, p, pool)
}
