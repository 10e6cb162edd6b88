// Package session runs the adaptive study loop: it picks questions,
// collects and grades answers, updates mastery and persists the profile
// after every attempt.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/studyloop/internal/bank"
	"github.com/abhisek/studyloop/internal/mastery"
	"github.com/abhisek/studyloop/internal/profile"
	"github.com/abhisek/studyloop/internal/selector"
)

// Deps are the engine's collaborators. Bank, Store, Selector, Tracker and
// Evaluator are required. Answers, or Recorder and Transcriber, are
// required depending on the mode.
type Deps struct {
	Bank      *bank.Bank
	Store     profile.Store
	Selector  *selector.Selector
	Tracker   *mastery.Tracker
	Evaluator Evaluator

	Answers     AnswerSource
	Recorder    Recorder
	Transcriber Transcriber

	// Optional.
	Recommender Recommender
	Explainer   Explainer
	FollowUps   FollowUps
	Sink        Sink
	Logger      *slog.Logger
	// Now defaults to time.Now in UTC.
	Now func() time.Time
}

// Engine runs sessions.
type Engine struct {
	deps Deps
	cfg  Config
}

// New validates deps and cfg and returns an Engine.
func New(deps Deps, cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch {
	case deps.Bank == nil:
		return nil, errors.New("session: bank is required")
	case deps.Store == nil:
		return nil, errors.New("session: profile store is required")
	case deps.Selector == nil:
		return nil, errors.New("session: selector is required")
	case deps.Tracker == nil:
		return nil, errors.New("session: mastery tracker is required")
	case deps.Evaluator == nil:
		return nil, errors.New("session: evaluator is required")
	}
	if deps.Sink == nil {
		deps.Sink = Discard
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Engine{deps: deps, cfg: cfg}, nil
}

// Supports reports whether the engine has the collaborators needed to run
// a session in mode.
func (e *Engine) Supports(mode profile.Mode) error {
	if mode == profile.ModeReview && !e.cfg.ReviewTyped {
		if e.deps.Recorder == nil || e.deps.Transcriber == nil {
			return errors.New("session: review mode needs a recorder and a transcriber")
		}
		return nil
	}
	if e.deps.Answers == nil {
		return errors.New("session: an answer source is required")
	}
	return nil
}

// Run executes one session for studentID in mode and returns its summary.
// On a fatal error the partial summary is returned together with a
// *FatalError.
func (e *Engine) Run(ctx context.Context, studentID string, mode profile.Mode) (*Summary, error) {
	if _, err := profile.ParseMode(string(mode)); err != nil {
		return nil, err
	}
	if err := e.Supports(mode); err != nil {
		return nil, err
	}

	r := &run{
		Engine:      e,
		studentID:   studentID,
		started:     e.deps.Now(),
		recommended: make(map[string]bool),
		state: SessionState{
			SessionID: uuid.NewString(),
			Mode:      mode,
			State:     StateIdle,
			Remaining: -1,
			Exhausted: make(map[string]bool),
		},
	}
	if e.cfg.Budget > 0 {
		r.state.Remaining = e.cfg.Budget
	}
	r.tally = newTally(r.state.SessionID, studentID, mode)
	r.log = e.deps.Logger.With("session", r.state.SessionID, "student", studentID, "mode", string(mode))

	return r.loop(ctx)
}

// run is the state of one Run call.
type run struct {
	*Engine
	studentID   string
	profile     *profile.StudentProfile
	state       SessionState
	tally       *tally
	started     time.Time
	reason      EndReason
	eval        Evaluation
	skipped     bool
	recommended map[string]bool
	log         *slog.Logger
}

func (r *run) loop(ctx context.Context) (*Summary, error) {
	for r.state.State != StateCompleted {
		next, err := r.step(ctx)
		if err != nil {
			return r.abort(err)
		}
		if err := r.transition(next); err != nil {
			return r.abort(err)
		}
	}

	s := r.tally.finish(r.reason, r.deps.Now().Sub(r.started))
	r.deps.Sink.Emit(SessionCompleted{Summary: s})
	r.log.Info("session completed", "reason", string(s.Reason), "attempts", s.Attempts, "correct", s.Correct)
	return &s, nil
}

func (r *run) abort(err error) (*Summary, error) {
	var fe *FatalError
	if !errors.As(err, &fe) {
		fe = &FatalError{State: r.state.State, Err: err}
	}
	s := r.tally.finish(EndFailed, r.deps.Now().Sub(r.started))
	r.deps.Sink.Emit(SessionAborted{Summary: s, Err: fe})
	r.log.Error("session aborted", "state", fe.State.String(), "error", fe.Err)
	return &s, fe
}

func (r *run) transition(to State) error {
	from := r.state.State
	if !CanTransition(from, to) {
		return fmt.Errorf("illegal transition %s -> %s", from, to)
	}
	r.state.State = to
	r.log.Debug("transition", "from", from.String(), "to", to.String())
	r.deps.Sink.Emit(StateChanged{From: from, To: to, At: r.deps.Now()})
	return nil
}

// complete records why the session ends and returns StateCompleted.
func (r *run) complete(reason EndReason) State {
	r.reason = reason
	return StateCompleted
}

// stopped reports whether err means the learner stopped the session.
func stopped(ctx context.Context, err error) bool {
	return errors.Is(err, ErrStop) || ctx.Err() != nil
}

func (r *run) step(ctx context.Context) (State, error) {
	switch r.state.State {
	case StateIdle:
		return r.selectMode(ctx)
	case StateModeSelected:
		if ctx.Err() != nil {
			return r.complete(EndStopped), nil
		}
		return StatePresenting, nil
	case StatePresenting:
		return r.present(ctx)
	case StateAwaitingAnswer:
		return r.awaitAnswer(ctx)
	case StateEvaluating:
		return r.evaluate(ctx)
	case StateRecording:
		return r.record(ctx)
	default:
		return 0, fmt.Errorf("no step for state %s", r.state.State)
	}
}

func (r *run) selectMode(ctx context.Context) (State, error) {
	p, err := r.deps.Store.Load(ctx, r.studentID)
	if err != nil {
		return 0, &FatalError{State: StateIdle, Err: err}
	}
	r.profile = p
	r.deps.Sink.Emit(SessionStarted{
		SessionID: r.state.SessionID,
		StudentID: r.studentID,
		Mode:      r.state.Mode,
		Budget:    r.cfg.Budget,
	})
	r.log.Info("session started", "questions", r.deps.Bank.Len(), "budget", r.cfg.Budget)
	return StateModeSelected, nil
}

func (r *run) present(ctx context.Context) (State, error) {
	if ctx.Err() != nil {
		return r.complete(EndStopped), nil
	}

	// A question whose answer failed is presented again.
	if r.state.Current == nil {
		if r.state.Remaining == 0 {
			return r.complete(EndBudget), nil
		}
		out, err := r.deps.Selector.Select(r.deps.Bank, r.profile, r.state.Mode, r.state.Exhausted)
		if err != nil {
			return 0, &FatalError{State: StatePresenting, Err: err}
		}
		if out.Exhausted {
			return r.complete(EndExhausted), nil
		}
		q := out.Question
		r.state.Current = &q
		r.state.Review = out.Review
		r.state.Tries = 0
		r.state.Exhausted[q.ID] = true
		r.state.Presented++
		if r.state.Remaining > 0 {
			r.state.Remaining--
		}
	}

	r.deps.Sink.Emit(QuestionPresented{
		Number:   r.state.Presented,
		Question: *r.state.Current,
		Try:      r.state.Tries + 1,
		Review:   r.state.Review,
	})
	return StateAwaitingAnswer, nil
}

func (r *run) awaitAnswer(ctx context.Context) (State, error) {
	q := *r.state.Current
	answer, err := r.acquire(ctx, q)
	switch {
	case err == nil:
		r.state.Answer = answer
		return StateEvaluating, nil
	case stopped(ctx, err):
		r.log.Info("stopped while awaiting answer", "question", q.ID)
		return r.complete(EndStopped), nil
	}

	r.state.Tries++
	r.deps.Sink.Emit(AnswerFailed{Question: q, Try: r.state.Tries, MaxTries: r.cfg.MaxAnswerTries, Err: err})
	r.log.Warn("answer failed", "question", q.ID, "try", r.state.Tries, "error", err)
	if r.state.Tries < r.cfg.MaxAnswerTries {
		return StatePresenting, nil
	}

	r.deps.Sink.Emit(AnswerSkipped{Question: q})
	r.state.Answer = ""
	r.eval = Evaluation{Verdict: profile.VerdictIncorrect, Score: 0, Rationale: "no answer after repeated attempts"}
	r.skipped = true
	return StateRecording, nil
}

// acquire obtains an answer for q: typed in study mode, spoken in review
// mode.
func (r *run) acquire(ctx context.Context, q bank.QuestionRecord) (string, error) {
	var (
		text string
		err  error
	)
	if r.state.Mode == profile.ModeReview && !r.cfg.ReviewTyped {
		text, err = r.listen(ctx, q)
	} else {
		text, err = r.deps.Answers.ReadAnswer(ctx, q)
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrNoAnswer
	}
	return text, nil
}

func (r *run) listen(ctx context.Context, q bank.QuestionRecord) (string, error) {
	r.deps.Sink.Emit(ListeningStarted{Question: q})
	audio, err := r.deps.Recorder.Record(ctx)
	if err != nil {
		return "", err
	}

	tctx, cancel := context.WithTimeout(ctx, r.cfg.CollaboratorTimeout)
	defer cancel()
	return r.deps.Transcriber.Transcribe(tctx, audio)
}

func (r *run) evaluate(ctx context.Context) (State, error) {
	q := *r.state.Current
	var lastErr error
	for try := 0; try <= r.cfg.EvaluatorRetries; try++ {
		eval, err := r.evaluateOnce(ctx, q, r.state.Answer)
		if err == nil && ctx.Err() != nil {
			// A verdict that arrives after a stop is dropped with its answer.
			r.log.Info("stopped while evaluating", "question", q.ID)
			return r.complete(EndStopped), nil
		}
		if err == nil {
			r.eval = eval
			r.skipped = false
			r.deps.Sink.Emit(AnswerEvaluated{Question: q, Answer: r.state.Answer, Evaluation: eval})
			return StateRecording, nil
		}
		if ctx.Err() != nil {
			r.log.Info("stopped while evaluating", "question", q.ID)
			return r.complete(EndStopped), nil
		}
		lastErr = err
		if !IsTransient(err) {
			break
		}
		if try < r.cfg.EvaluatorRetries {
			r.deps.Sink.Emit(EvaluationRetried{Question: q, Err: err})
			r.log.Warn("evaluator failed, retrying", "question", q.ID, "error", err)
		}
	}
	return 0, &FatalError{State: StateEvaluating, Err: fmt.Errorf("evaluate %s: %w", q.ID, lastErr)}
}

func (r *run) evaluateOnce(ctx context.Context, q bank.QuestionRecord, answer string) (Evaluation, error) {
	ectx, cancel := context.WithTimeout(ctx, r.cfg.CollaboratorTimeout)
	defer cancel()

	eval, err := r.deps.Evaluator.Evaluate(ectx, q, answer)
	if err != nil {
		return Evaluation{}, err
	}
	if !eval.Verdict.Valid() {
		return Evaluation{}, &TransientError{Err: fmt.Errorf("evaluator returned unknown verdict %q", eval.Verdict)}
	}
	if eval.Score < 0 || eval.Score > 1 {
		return Evaluation{}, &TransientError{Err: fmt.Errorf("evaluator returned score %v outside [0, 1]", eval.Score)}
	}
	return eval, nil
}

func (r *run) record(ctx context.Context) (State, error) {
	q := *r.state.Current
	if !r.deps.Bank.Has(q.ID) {
		return 0, &FatalError{State: StateRecording, Err: fmt.Errorf("record %s: %w", q.ID, bank.ErrNotFound)}
	}

	attempt := profile.AttemptRecord{
		QuestionID:      q.ID,
		Topic:           q.Topic,
		Timestamp:       r.deps.Now(),
		Mode:            r.state.Mode,
		SubmittedAnswer: r.state.Answer,
		Verdict:         r.eval.Verdict,
		Score:           r.eval.Score,
		Rationale:       r.eval.Rationale,
	}

	// Work on a copy so a failed save leaves the in-memory profile matching
	// what is persisted.
	next := r.profile.Clone()
	delta := r.deps.Tracker.Apply(next, attempt)

	// The attempt is persisted even if the learner stops right now.
	if err := r.deps.Store.Save(context.WithoutCancel(ctx), next); err != nil {
		return 0, &FatalError{State: StateRecording, Err: err}
	}
	r.profile = next
	r.tally.record(attempt, delta, r.skipped)
	r.state.RunningScore += attempt.Score
	r.deps.Sink.Emit(MasteryUpdated{Attempt: attempt, Delta: delta})

	r.state.Current = nil
	r.state.Answer = ""
	r.state.Tries = 0

	if ctx.Err() != nil {
		return r.complete(EndStopped), nil
	}
	if r.support(ctx, q, attempt, delta) {
		return r.complete(EndStopped), nil
	}
	return StatePresenting, nil
}
