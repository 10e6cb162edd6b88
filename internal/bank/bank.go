package bank

import (
	"fmt"
	"iter"
	"sort"
)

// Bank is an immutable catalogue of questions keyed by id.
type Bank struct {
	questions map[string]QuestionRecord
	ids       []string // sorted ascending
	topics    []string // sorted ascending, unique
}

// New builds a bank from records. It fails with *LoadError when a record
// has an empty id or when two records share an id.
func New(records []QuestionRecord) (*Bank, error) {
	b := &Bank{questions: make(map[string]QuestionRecord, len(records))}
	seenTopics := make(map[string]bool)

	for i, q := range records {
		if q.ID == "" {
			return nil, &LoadError{Err: fmt.Errorf("question %d: empty id", i)}
		}
		if _, dup := b.questions[q.ID]; dup {
			return nil, &LoadError{Err: fmt.Errorf("duplicate question id %q", q.ID)}
		}
		b.questions[q.ID] = cloneRecord(q)
		b.ids = append(b.ids, q.ID)
		if !seenTopics[q.Topic] {
			seenTopics[q.Topic] = true
			b.topics = append(b.topics, q.Topic)
		}
	}

	sort.Strings(b.ids)
	sort.Strings(b.topics)
	return b, nil
}

// Get returns the question with the given id.
func (b *Bank) Get(id string) (QuestionRecord, error) {
	q, ok := b.questions[id]
	if !ok {
		return QuestionRecord{}, fmt.Errorf("question %q: %w", id, ErrNotFound)
	}
	return cloneRecord(q), nil
}

// Has reports whether id is in the bank.
func (b *Bank) Has(id string) bool {
	_, ok := b.questions[id]
	return ok
}

// Len returns the number of questions.
func (b *Bank) Len() int {
	return len(b.ids)
}

// Topics returns the distinct topics in ascending order.
func (b *Bank) Topics() []string {
	out := make([]string, len(b.topics))
	copy(out, b.topics)
	return out
}

// Filter narrows a bank scan. Nil fields match everything.
type Filter struct {
	Topic      *string
	Difficulty *Difficulty
	Type       *QuestionType
}

// ByTopic returns a Filter matching a single topic.
func ByTopic(topic string) Filter {
	return Filter{Topic: &topic}
}

// WithDifficulty returns a copy of f that also matches on difficulty.
func (f Filter) WithDifficulty(d Difficulty) Filter {
	f.Difficulty = &d
	return f
}

// WithType returns a copy of f that also matches on question type.
func (f Filter) WithType(t QuestionType) Filter {
	f.Type = &t
	return f
}

func (f Filter) matches(q QuestionRecord) bool {
	if f.Topic != nil && q.Topic != *f.Topic {
		return false
	}
	if f.Difficulty != nil && q.Difficulty != *f.Difficulty {
		return false
	}
	if f.Type != nil && q.Type != *f.Type {
		return false
	}
	return true
}

// Filter returns the matching questions in ascending id order. The
// sequence is lazy and can be ranged over any number of times.
func (b *Bank) Filter(f Filter) iter.Seq[QuestionRecord] {
	return func(yield func(QuestionRecord) bool) {
		for _, id := range b.ids {
			q := b.questions[id]
			if !f.matches(q) {
				continue
			}
			if !yield(cloneRecord(q)) {
				return
			}
		}
	}
}

// All returns every question in ascending id order.
func (b *Bank) All() iter.Seq[QuestionRecord] {
	return b.Filter(Filter{})
}

func cloneRecord(q QuestionRecord) QuestionRecord {
	if q.Choices != nil {
		choices := make(map[string]string, len(q.Choices))
		for k, v := range q.Choices {
			choices[k] = v
		}
		q.Choices = choices
	}
	return q
}
