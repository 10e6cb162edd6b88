package tutor

// Config holds generation settings for the tutor's LLM calls.
type Config struct {
	// MaxTokens bounds grading and keyword responses.
	MaxTokens int `yaml:"max_tokens"`
	// LongMaxTokens bounds follow-up quizzes and worked examples.
	LongMaxTokens int     `yaml:"long_max_tokens"`
	Temperature   float64 `yaml:"temperature"`
	// FollowUpQuestions is how many check questions a follow-up quiz has.
	FollowUpQuestions int `yaml:"follow_up_questions"`
	// Language, when set, is the language the learner is addressed in.
	// Empty means the language of the question.
	Language string `yaml:"language"`
}

// DefaultConfig returns the defaults used by the CLI.
func DefaultConfig() Config {
	return Config{
		MaxTokens:         300,
		LongMaxTokens:     900,
		Temperature:       0.2,
		FollowUpQuestions: 3,
	}
}
