package session

import (
	"fmt"
	"time"
)

// Config tunes the session loop.
type Config struct {
	// Budget is the maximum number of questions per session; 0 means
	// unlimited.
	Budget int `yaml:"budget"`
	// MaxAnswerTries is how many times a question is presented before it is
	// recorded as incorrect.
	MaxAnswerTries int `yaml:"max_answer_tries"`
	// EvaluatorRetries is how many times a transient evaluator failure is
	// retried.
	EvaluatorRetries int `yaml:"evaluator_retries"`
	// CollaboratorTimeout bounds each evaluator, transcriber, recommender
	// and generator call.
	CollaboratorTimeout time.Duration `yaml:"collaborator_timeout"`
	// RecommendBelow triggers resource recommendations and worked examples
	// when a topic's mastery drops below it.
	RecommendBelow float64 `yaml:"recommend_below"`
	// FollowUpQuiz enables the check quiz after a missed study question.
	FollowUpQuiz bool `yaml:"follow_up_quiz"`
	// ReviewTyped makes review mode read typed answers instead of recording
	// speech.
	ReviewTyped bool `yaml:"review_typed"`
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{
		Budget:              10,
		MaxAnswerTries:      3,
		EvaluatorRetries:    1,
		CollaboratorTimeout: 60 * time.Second,
		RecommendBelow:      0.4,
		FollowUpQuiz:        true,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch {
	case c.Budget < 0:
		return fmt.Errorf("session: budget must be >= 0, got %d", c.Budget)
	case c.MaxAnswerTries < 1:
		return fmt.Errorf("session: max_answer_tries must be >= 1, got %d", c.MaxAnswerTries)
	case c.EvaluatorRetries < 0:
		return fmt.Errorf("session: evaluator_retries must be >= 0, got %d", c.EvaluatorRetries)
	case c.CollaboratorTimeout <= 0:
		return fmt.Errorf("session: collaborator_timeout must be positive, got %s", c.CollaboratorTimeout)
	case c.RecommendBelow < 0 || c.RecommendBelow > 1:
		return fmt.Errorf("session: recommend_below must be in [0, 1], got %v", c.RecommendBelow)
	}
	return nil
}
