package session

import (
	"fmt"

	"github.com/abhisek/studyloop/internal/bank"
	"github.com/abhisek/studyloop/internal/profile"
)

// State is a state of the session state machine.
type State int

const (
	StateIdle State = iota
	StateModeSelected
	StatePresenting
	StateAwaitingAnswer
	StateEvaluating
	StateRecording
	StateCompleted
)

var stateNames = [...]string{
	StateIdle:           "idle",
	StateModeSelected:   "mode-selected",
	StatePresenting:     "presenting",
	StateAwaitingAnswer: "awaiting-answer",
	StateEvaluating:     "evaluating",
	StateRecording:      "recording",
	StateCompleted:      "completed",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// transitions lists the legal successors of every state.
var transitions = map[State][]State{
	StateIdle:           {StateModeSelected},
	StateModeSelected:   {StatePresenting, StateCompleted},
	StatePresenting:     {StateAwaitingAnswer, StateCompleted},
	StateAwaitingAnswer: {StateEvaluating, StatePresenting, StateRecording, StateCompleted},
	StateEvaluating:     {StateRecording, StateCompleted},
	StateRecording:      {StatePresenting, StateCompleted},
}

// CanTransition reports whether the machine may move from one state to
// another.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// EndReason says why a session reached StateCompleted.
type EndReason string

const (
	EndBudget    EndReason = "budget"
	EndExhausted EndReason = "exhausted"
	EndStopped   EndReason = "stopped"
	EndFailed    EndReason = "failed"
)

// SessionState is the transient state owned by one Run. It is never
// persisted.
type SessionState struct {
	SessionID string
	Mode      profile.Mode
	State     State

	// Current is the question being asked, nil between questions.
	Current *bank.QuestionRecord
	// Review is true when Current came from the review pool.
	Review bool
	// Tries counts failed answer acquisitions for Current.
	Tries int
	// Answer is the acquired answer for Current.
	Answer string

	// Remaining is the number of questions left in the budget; negative
	// means unlimited.
	Remaining int
	// Presented counts distinct questions shown.
	Presented int
	// RunningScore is the sum of recorded attempt scores.
	RunningScore float64

	// Exhausted holds every question id presented this session.
	Exhausted map[string]bool
}
