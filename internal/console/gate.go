package console

import (
	"context"
	"fmt"
	"time"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/studyloop/internal/session"
)

// GatedRecorder waits for the learner to press Enter before each recording,
// so the learner can think before speaking. Typing the stop command at the
// gate ends the session.
type GatedRecorder struct {
	next     session.Recorder
	prompter *Prompter
	duration time.Duration
}

// NewGatedRecorder wraps next. duration is only used for the on-screen hint.
func NewGatedRecorder(next session.Recorder, p *Prompter, duration time.Duration) *GatedRecorder {
	return &GatedRecorder{next: next, prompter: p, duration: duration}
}

// Record implements session.Recorder.
func (g *GatedRecorder) Record(ctx context.Context) (session.AudioCapture, error) {
	label := fmt.Sprintf("Press Enter and speak (%s to stop) ", StopCommand)
	if err := g.prompter.WaitForEnter(ctx, label); err != nil {
		return session.AudioCapture{}, err
	}
	if g.duration > 0 {
		lipgloss.Fprintln(g.prompter.out, hintStyle.Render(fmt.Sprintf("Recording for %s...", g.duration)))
	}
	return g.next.Record(ctx)
}
