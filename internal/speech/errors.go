// Package speech records spoken answers and turns them into text.
package speech

import (
	"errors"
	"fmt"
)

// ErrUnintelligible is reported when audio was transcribed but held no
// usable speech.
var ErrUnintelligible = errors.New("no intelligible speech")

// TranscriptionError is a failure to turn a recording into text.
type TranscriptionError struct {
	Path string
	Err  error
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("transcribe %s: %v", e.Path, e.Err)
}

func (e *TranscriptionError) Unwrap() error { return e.Err }

// RecordingError is a failure of the recording command.
type RecordingError struct {
	Command string
	Output  string
	Err     error
}

func (e *RecordingError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("record with %s: %v: %s", e.Command, e.Err, e.Output)
	}
	return fmt.Sprintf("record with %s: %v", e.Command, e.Err)
}

func (e *RecordingError) Unwrap() error { return e.Err }
