package tutor

import "github.com/abhisek/studyloop/internal/llm"

// EvaluationSchema is the structured verdict for one answer.
var EvaluationSchema = &llm.Schema{
	Name:        "answer-evaluation",
	Description: "A verdict on a learner's answer compared with the reference answer",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"verdict": map[string]any{
				"type":        "string",
				"enum":        []any{"correct", "partial", "incorrect"},
				"description": "Overall judgement of the answer",
			},
			"score": map[string]any{
				"type":        "number",
				"minimum":     0,
				"maximum":     1,
				"description": "Quality of the answer from 0 (wrong or empty) to 1 (fully correct)",
			},
			"rationale": map[string]any{
				"type":        "string",
				"description": "Short feedback: what is right, what is wrong and how to improve",
			},
		},
		"required":             []any{"verdict", "score", "rationale"},
		"additionalProperties": false,
	},
}

// FollowUpSchema is a set of multiple-choice check questions.
var FollowUpSchema = &llm.Schema{
	Name:        "follow-up-quiz",
	Description: "Multiple-choice questions checking the concept behind a missed question",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"prompt": map[string]any{
							"type":        "string",
							"description": "The question text",
						},
						"choices": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"A": map[string]any{"type": "string"},
								"B": map[string]any{"type": "string"},
								"C": map[string]any{"type": "string"},
								"D": map[string]any{"type": "string"},
							},
							"required":             []any{"A", "B", "C", "D"},
							"additionalProperties": false,
						},
						"correct": map[string]any{
							"type":        "string",
							"enum":        []any{"A", "B", "C", "D"},
							"description": "Key of the single correct option",
						},
					},
					"required":             []any{"prompt", "choices", "correct"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"questions"},
		"additionalProperties": false,
	},
}

// ExampleSchema wraps a worked example.
var ExampleSchema = &llm.Schema{
	Name:        "worked-example",
	Description: "A short practical example explaining a concept",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"example": map[string]any{
				"type":        "string",
				"description": "The example in plain text, a few short paragraphs at most",
			},
		},
		"required":             []any{"example"},
		"additionalProperties": false,
	},
}

// KeywordsSchema is a short list of search keywords.
var KeywordsSchema = &llm.Schema{
	Name:        "search-keywords",
	Description: "Keywords for a video search about a concept",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"keywords": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Three search keywords, most specific first",
			},
		},
		"required":             []any{"keywords"},
		"additionalProperties": false,
	},
}
