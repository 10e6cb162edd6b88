package profile

import (
	"context"
	"fmt"
)

// Store loads and saves student profiles.
//
// Load returns a fresh empty profile for an unknown student. Save replaces
// everything persisted for the student atomically; I/O failures are
// reported as *PersistenceError.
type Store interface {
	Load(ctx context.Context, studentID string) (*StudentProfile, error)
	Save(ctx context.Context, p *StudentProfile) error
}

// PersistenceError indicates a profile could not be read or written.
type PersistenceError struct {
	Op        string // "load", "save" or "delete"
	StudentID string
	Err       error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s profile %q: %v", e.Op, e.StudentID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
