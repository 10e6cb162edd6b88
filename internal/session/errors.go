package session

import (
	"context"
	"errors"
	"fmt"
)

// ErrStop is returned by an AnswerSource or Recorder when the learner asks
// to end the session.
var ErrStop = errors.New("session stopped by user")

// ErrNoAnswer is reported when an acquired answer is blank.
var ErrNoAnswer = errors.New("no answer given")

// TransientError marks a collaborator failure that may succeed on retry.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return fmt.Sprintf("transient: %v", e.Err) }

func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err is worth retrying: a TransientError or a
// collaborator deadline.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te) || errors.Is(err, context.DeadlineExceeded)
}

// FatalError ends a session early. The partial summary is still returned
// alongside it.
type FatalError struct {
	State State
	Err   error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("session aborted while %s: %v", e.State, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }
