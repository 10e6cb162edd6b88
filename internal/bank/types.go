package bank

import (
	"fmt"
	"sort"
	"strings"
)

// Difficulty is the ordered difficulty of a question.
type Difficulty int

const (
	DifficultyEasy Difficulty = iota
	DifficultyMedium
	DifficultyHard
)

// Difficulties lists every difficulty in ascending order.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

func (d Difficulty) String() string {
	switch d {
	case DifficultyEasy:
		return "easy"
	case DifficultyMedium:
		return "medium"
	case DifficultyHard:
		return "hard"
	default:
		return fmt.Sprintf("difficulty(%d)", int(d))
	}
}

// ParseDifficulty accepts "easy", "medium" or "hard" (case-insensitive).
// The Italian level names used by older banks ("base", "intermedio",
// "avanzato") are accepted as aliases.
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy", "base":
		return DifficultyEasy, nil
	case "medium", "intermedio":
		return DifficultyMedium, nil
	case "hard", "avanzato":
		return DifficultyHard, nil
	}
	return 0, fmt.Errorf("unknown difficulty %q", s)
}

func (d Difficulty) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Difficulty) UnmarshalText(b []byte) error {
	v, err := ParseDifficulty(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// QuestionType is how the learner answers a question.
type QuestionType string

const (
	TypeOpen           QuestionType = "open"
	TypeMultipleChoice QuestionType = "multiple_choice"
)

// QuestionRecord is a single catalogued question. Records are values and
// are never modified after the bank is loaded.
type QuestionRecord struct {
	ID         string
	Topic      string
	Prompt     string
	Difficulty Difficulty
	Type       QuestionType

	// CorrectAnswer is the reference answer. For multiple-choice questions
	// it holds the key of the correct option.
	CorrectAnswer string

	// Choices maps option keys ("A", "B", ...) to option text.
	// Empty for open questions.
	Choices map[string]string
}

// ChoiceKeys returns the option keys in sorted order.
func (q QuestionRecord) ChoiceKeys() []string {
	keys := make([]string, 0, len(q.Choices))
	for k := range q.Choices {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CorrectChoiceText returns the text of the correct option, or the raw
// answer for open questions.
func (q QuestionRecord) CorrectChoiceText() string {
	if q.Type == TypeMultipleChoice {
		if text, ok := q.Choices[q.CorrectAnswer]; ok {
			return text
		}
	}
	return q.CorrectAnswer
}

// CheckChoice reports whether answer selects the correct option of a
// multiple-choice question. The option key ("b", "B)", "B.") or the option
// text is accepted, case-insensitively.
func (q QuestionRecord) CheckChoice(answer string) bool {
	if q.Type != TypeMultipleChoice {
		return false
	}
	a := strings.TrimSpace(answer)
	a = strings.TrimRight(a, ").:")
	if strings.EqualFold(a, q.CorrectAnswer) {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(q.CorrectChoiceText()))
}
