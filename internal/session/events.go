package session

import (
	"time"

	"github.com/abhisek/studyloop/internal/bank"
	"github.com/abhisek/studyloop/internal/mastery"
	"github.com/abhisek/studyloop/internal/profile"
)

// Event is a structured notification emitted by the engine. The set of
// events is closed; presentation layers switch on the concrete type.
type Event interface {
	isEvent()
}

// Sink receives session events.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) Emit(e Event) { f(e) }

// MultiSink fans events out to several sinks in order.
type MultiSink []Sink

func (m MultiSink) Emit(e Event) {
	for _, s := range m {
		if s != nil {
			s.Emit(e)
		}
	}
}

// Discard is a Sink that drops every event.
var Discard Sink = SinkFunc(func(Event) {})

type (
	// SessionStarted is emitted once the mode is fixed and the profile loaded.
	SessionStarted struct {
		SessionID string
		StudentID string
		Mode      profile.Mode
		// Budget is the question limit; 0 means unlimited.
		Budget int
	}

	// QuestionPresented is emitted every time a question is shown,
	// including re-presentations after a failed answer.
	QuestionPresented struct {
		Number   int
		Question bank.QuestionRecord
		Try      int
		Review   bool
	}

	// ListeningStarted is emitted before a spoken answer is recorded.
	ListeningStarted struct {
		Question bank.QuestionRecord
	}

	// AnswerFailed reports an answer that could not be obtained.
	AnswerFailed struct {
		Question bank.QuestionRecord
		Try      int
		MaxTries int
		Err      error
	}

	// AnswerSkipped is emitted when a question runs out of answer tries and
	// is recorded as incorrect.
	AnswerSkipped struct {
		Question bank.QuestionRecord
	}

	// EvaluationRetried reports a transient evaluator failure that will be
	// retried.
	EvaluationRetried struct {
		Question bank.QuestionRecord
		Err      error
	}

	// AnswerEvaluated carries the verdict for an answer.
	AnswerEvaluated struct {
		Question   bank.QuestionRecord
		Answer     string
		Evaluation Evaluation
	}

	// MasteryUpdated is emitted after the attempt has been persisted.
	MasteryUpdated struct {
		Attempt profile.AttemptRecord
		Delta   mastery.Delta
	}

	// ResourcesFound lists recommended resources for a weak topic. Resources
	// is empty when the search failed or found nothing.
	ResourcesFound struct {
		Topic     string
		Resources []Resource
	}

	// ExampleShown carries a worked example for a weak topic.
	ExampleShown struct {
		Topic string
		Text  string
	}

	// FollowUpStarted opens a follow-up quiz.
	FollowUpStarted struct {
		Topic     string
		Questions []bank.QuestionRecord
	}

	// FollowUpAnswered grades one follow-up question.
	FollowUpAnswered struct {
		Question bank.QuestionRecord
		Answer   string
		Correct  bool
	}

	// FollowUpCompleted closes a follow-up quiz.
	FollowUpCompleted struct {
		Topic   string
		Correct int
		Total   int
	}

	// SessionCompleted is the final event of a session that ended normally.
	SessionCompleted struct {
		Summary Summary
	}

	// SessionAborted is the final event of a session ended by a fatal error.
	SessionAborted struct {
		Summary Summary
		Err     error
	}

	// StateChanged reports every state machine transition.
	StateChanged struct {
		From, To State
		At       time.Time
	}
)

func (SessionStarted) isEvent()    {}
func (QuestionPresented) isEvent() {}
func (ListeningStarted) isEvent()  {}
func (AnswerFailed) isEvent()      {}
func (AnswerSkipped) isEvent()     {}
func (EvaluationRetried) isEvent() {}
func (AnswerEvaluated) isEvent()   {}
func (MasteryUpdated) isEvent()    {}
func (ResourcesFound) isEvent()    {}
func (ExampleShown) isEvent()      {}
func (FollowUpStarted) isEvent()   {}
func (FollowUpAnswered) isEvent()  {}
func (FollowUpCompleted) isEvent() {}
func (SessionCompleted) isEvent()  {}
func (SessionAborted) isEvent()    {}
func (StateChanged) isEvent()      {}
