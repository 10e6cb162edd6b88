package llm

import (
	"fmt"
	"strings"
)

// Purpose says what a request is for. It is recorded with every request
// in the event log and selects per-purpose generation defaults.
type Purpose string

const (
	// PurposeEvaluate grades a learner's answer against the reference.
	PurposeEvaluate Purpose = "evaluate"
	// PurposeFollowUp builds the check quiz after a missed question.
	PurposeFollowUp Purpose = "follow-up"
	// PurposeExample writes a worked example for a weak topic.
	PurposeExample Purpose = "example"
	// PurposeKeywords turns a topic into video search keywords.
	PurposeKeywords Purpose = "keywords"
)

// purposeDefaults fill in MaxTokens and Temperature when a request leaves
// them zero.
var purposeDefaults = map[Purpose]struct {
	maxTokens   int
	temperature float64
}{
	PurposeEvaluate: {maxTokens: 300, temperature: 0},
	PurposeFollowUp: {maxTokens: 900, temperature: 0.7},
	PurposeExample:  {maxTokens: 900, temperature: 0.5},
	PurposeKeywords: {maxTokens: 100, temperature: 0},
}

// Purposes lists every known purpose in display order.
func Purposes() []Purpose {
	return []Purpose{PurposeEvaluate, PurposeFollowUp, PurposeExample, PurposeKeywords}
}

// ParsePurpose accepts a purpose name, ignoring case and surrounding space.
func ParsePurpose(s string) (Purpose, error) {
	p := Purpose(strings.ToLower(strings.TrimSpace(s)))
	if p.Valid() {
		return p, nil
	}
	names := make([]string, 0, len(purposeDefaults))
	for _, k := range Purposes() {
		names = append(names, string(k))
	}
	return "", fmt.Errorf("unknown purpose %q (want one of %s)", s, strings.Join(names, ", "))
}

// Valid reports whether p is one of the known purposes.
func (p Purpose) Valid() bool {
	_, ok := purposeDefaults[p]
	return ok
}

func (p Purpose) String() string { return string(p) }
