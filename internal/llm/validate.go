package llm

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// compiled caches compiled schemas per *Schema, so two schemas that share
// a name never share a validator.
var compiled sync.Map // map[*Schema]*jsonschema.Schema

// Validate checks raw against schema and returns *ErrInvalidResponse when
// it is not JSON or does not conform. A nil schema accepts anything.
func Validate(schema *Schema, raw json.RawMessage) error {
	if schema == nil {
		return nil
	}

	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return &ErrInvalidResponse{Content: raw, Err: fmt.Errorf("invalid JSON: %w", err)}
	}

	c, err := compile(schema)
	if err != nil {
		return &ErrInvalidResponse{Content: raw, Err: err}
	}
	if err := c.Validate(value); err != nil {
		return &ErrInvalidResponse{Content: raw, Err: fmt.Errorf("%s: %w", schema.Name, err)}
	}
	return nil
}

func compile(schema *Schema) (*jsonschema.Schema, error) {
	if c, ok := compiled.Load(schema); ok {
		return c.(*jsonschema.Schema), nil
	}

	// The compiler takes decoded JSON values, so Go literals such as []any
	// of ints are normalized through encoding/json first.
	b, err := json.Marshal(schema.Definition)
	if err != nil {
		return nil, fmt.Errorf("schema %q: marshal: %w", schema.Name, err)
	}
	var def any
	if err := json.Unmarshal(b, &def); err != nil {
		return nil, fmt.Errorf("schema %q: parse: %w", schema.Name, err)
	}

	jc := jsonschema.NewCompiler()
	url := "schema://" + schema.Name + ".json"
	if err := jc.AddResource(url, def); err != nil {
		return nil, fmt.Errorf("schema %q: %w", schema.Name, err)
	}
	c, err := jc.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("schema %q: compile: %w", schema.Name, err)
	}
	actual, _ := compiled.LoadOrStore(schema, c)
	return actual.(*jsonschema.Schema), nil
}
