package bank

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// questionSchema describes one question. required lists the mandatory
// fields; the keyed layout takes the id from the map key instead.
func questionSchema(required ...any) map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"id":         map[string]any{"type": "string", "minLength": 1},
			"topic":      map[string]any{"type": "string", "minLength": 1},
			"prompt":     map[string]any{"type": "string", "minLength": 1},
			"answer":     map[string]any{"type": "string", "minLength": 1},
			"difficulty": map[string]any{"type": "string"},
			"type": map[string]any{
				"type": "string",
				"enum": []any{string(TypeOpen), string(TypeMultipleChoice)},
			},
			"choices": map[string]any{
				"type":                 "object",
				"additionalProperties": map[string]any{"type": "string"},
			},
		},
		"required": required,
	}
}

// documentSchema describes a versioned question bank document.
var documentSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"version": map[string]any{
			"type":        "string",
			"description": "Semantic version of the bank format, e.g. v1 or v1.2.0",
		},
		"questions": map[string]any{
			"type":  "array",
			"items": questionSchema("id", "topic", "prompt", "answer", "difficulty"),
		},
	},
	"required": []any{"questions"},
}

// keyedSchema describes a bank stored as a map from question id to record:
// {"cells-1": {"topic": ..., "prompt": ..., ...}}.
var keyedSchema = map[string]any{
	"type":                 "object",
	"minProperties":        1,
	"additionalProperties": questionSchema("topic", "prompt", "answer", "difficulty"),
}

// legacySchema describes the flat array layout of older banks:
// [{"domanda": ..., "risposta": ..., "livello": ..., "opzioni": {...}}].
var legacySchema = map[string]any{
	"type": "array",
	"items": map[string]any{
		"type": "object",
		"properties": map[string]any{
			"domanda":   map[string]any{"type": "string", "minLength": 1},
			"risposta":  map[string]any{"type": "string", "minLength": 1},
			"livello":   map[string]any{"type": "string"},
			"argomento": map[string]any{"type": "string"},
			"opzioni": map[string]any{
				"type":                 "object",
				"additionalProperties": map[string]any{"type": "string"},
			},
		},
		"required": []any{"domanda", "risposta", "livello"},
	},
}

// schemas holds the compiled validators for each accepted layout.
type schemas struct {
	document *jsonschema.Schema
	keyed    *jsonschema.Schema
	legacy   *jsonschema.Schema
}

var (
	compileOnce sync.Once
	compiled    schemas
	compileErr  error
)

func compiledSchemas() (schemas, error) {
	compileOnce.Do(func() {
		if compiled.document, compileErr = compileSchema("bank-document", documentSchema); compileErr != nil {
			return
		}
		if compiled.keyed, compileErr = compileSchema("bank-keyed", keyedSchema); compileErr != nil {
			return
		}
		compiled.legacy, compileErr = compileSchema("bank-legacy", legacySchema)
	})
	return compiled, compileErr
}

func compileSchema(name string, def map[string]any) (*jsonschema.Schema, error) {
	// The compiler wants decoded JSON values, not Go map literals with
	// typed slices, so round-trip through encoding/json.
	raw, err := json.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("marshal %s schema: %w", name, err)
	}
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse %s schema: %w", name, err)
	}

	c := jsonschema.NewCompiler()
	url := fmt.Sprintf("schema://%s.json", name)
	if err := c.AddResource(url, parsed); err != nil {
		return nil, fmt.Errorf("add %s schema: %w", name, err)
	}
	return c.Compile(url)
}
