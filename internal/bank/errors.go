package bank

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when the bank has no question with the
// requested id.
var ErrNotFound = errors.New("question not found")

// LoadError indicates a question bank source could not be loaded: the
// document is malformed, fails schema validation, or repeats an id.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("load question bank: %v", e.Err)
	}
	return fmt.Sprintf("load question bank %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
