package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/studyloop/internal/bank"
	"github.com/abhisek/studyloop/internal/profile"
)

var errUnintelligible = errors.New("transcription failed: unintelligible audio")

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Deps{}, DefaultConfig())
	assert.Error(t, err)

	_, err = New(Deps{Bank: testBank(t)}, Config{})
	assert.Error(t, err, "invalid config is rejected")
}

func TestRun_StudyUntilBudget(t *testing.T) {
	store := newMemStore()
	log := &eventLog{}
	cfg := testConfig()
	cfg.Budget = 2
	e := newTestEngine(t, Deps{
		Store:     store,
		Evaluator: &exactEvaluator{},
		Answers:   &scriptedAnswers{script: []any{"one", "wrong"}},
		Sink:      log,
	}, cfg)

	sum, err := e.Run(context.Background(), "alice", profile.ModeStudy)
	require.NoError(t, err)

	assert.Equal(t, EndBudget, sum.Reason)
	assert.Equal(t, 2, sum.Attempts)
	assert.Equal(t, 1, sum.Correct)
	assert.InDelta(t, 1.0, sum.RunningScore, 1e-9)
	assert.NotEmpty(t, sum.SessionID)

	p := store.stored(t, "alice")
	require.Len(t, p.Attempts, 2)
	assert.Equal(t, profile.VerdictCorrect, p.Attempts[0].Verdict)
	assert.Equal(t, profile.ModeStudy, p.Attempts[0].Mode)
	assert.Equal(t, "wrong", p.Attempts[1].SubmittedAnswer)
	assert.Equal(t, 2, store.saves, "profile saved after every attempt")

	require.Len(t, eventsOf[SessionCompleted](log), 1)
	require.Len(t, eventsOf[SessionStarted](log), 1)
}

func TestRun_FollowsStateMachine(t *testing.T) {
	log := &eventLog{}
	cfg := testConfig()
	cfg.Budget = 1
	e := newTestEngine(t, Deps{
		Store:     newMemStore(),
		Evaluator: &exactEvaluator{},
		Answers:   answerAll("one"),
		Sink:      log,
	}, cfg)

	_, err := e.Run(context.Background(), "alice", profile.ModeStudy)
	require.NoError(t, err)

	var path []State
	for _, ch := range eventsOf[StateChanged](log) {
		assert.True(t, CanTransition(ch.From, ch.To), "%s -> %s", ch.From, ch.To)
		path = append(path, ch.To)
	}
	assert.Equal(t, []State{
		StateModeSelected, StatePresenting, StateAwaitingAnswer,
		StateEvaluating, StateRecording, StatePresenting, StateCompleted,
	}, path)
}

func TestRun_ExhaustsPoolWithoutRepeats(t *testing.T) {
	store := newMemStore()
	answers := &scriptedAnswers{script: []any{"x", "x", "x", "x", "x"}}
	cfg := testConfig()
	cfg.Budget = 0
	e := newTestEngine(t, Deps{Store: store, Evaluator: &exactEvaluator{}, Answers: answers}, cfg)

	sum, err := e.Run(context.Background(), "alice", profile.ModeStudy)
	require.NoError(t, err)

	assert.Equal(t, EndExhausted, sum.Reason)
	assert.Equal(t, 3, sum.Attempts)
	assert.ElementsMatch(t, []string{"q1", "q2", "q3"}, answers.asked)
}

func TestRun_MasteryMatchesAttempts(t *testing.T) {
	store := newMemStore()
	cfg := testConfig()
	cfg.Budget = 0
	e := newTestEngine(t, Deps{
		Store:     store,
		Evaluator: &exactEvaluator{},
		Answers:   &scriptedAnswers{script: []any{"one", "nope", "three"}},
	}, cfg)

	// Two sessions over the same profile.
	for i := 0; i < 2; i++ {
		_, err := e.Run(context.Background(), "alice", profile.ModeStudy)
		require.NoError(t, err)
	}

	p := store.stored(t, "alice")
	counts := map[string]int{}
	for _, a := range p.Attempts {
		counts[a.Topic]++
	}
	for topic, m := range p.Mastery {
		assert.Equal(t, counts[topic], m.Attempts, "topic %s", topic)
		assert.GreaterOrEqual(t, m.Score, 0.0)
		assert.LessOrEqual(t, m.Score, 1.0)
	}
}

func TestRun_SummaryTopicDeltas(t *testing.T) {
	store := newMemStore()
	seed := profile.New("alice")
	seed.Mastery["A"] = profile.TopicMastery{Topic: "A", Score: 0.5, Attempts: 2, LastUpdated: t0}
	seed.Mastery["B"] = profile.TopicMastery{Topic: "B", Score: 0.9, Attempts: 5, LastUpdated: t0}
	require.NoError(t, store.Save(context.Background(), seed))

	cfg := testConfig()
	cfg.Budget = 1
	e := newTestEngine(t, Deps{
		Store: store,
		Evaluator: EvaluatorFunc(func(context.Context, bank.QuestionRecord, string) (Evaluation, error) {
			return Evaluation{Verdict: profile.VerdictCorrect, Score: 1}, nil
		}),
		Answers: answerAll("anything"),
	}, cfg)

	sum, err := e.Run(context.Background(), "alice", profile.ModeStudy)
	require.NoError(t, err)
	require.Len(t, sum.Topics, 1)
	d := sum.Topics[0]
	assert.Equal(t, "A", d.Topic)
	assert.True(t, d.HadBefore)
	assert.InDelta(t, 0.5, d.Before, 1e-9)
	assert.InDelta(t, 0.667, d.After, 1e-3)
	assert.Equal(t, 1, d.Attempts)
}

func TestRun_ReviewTranscriptionFailsThreeTimes(t *testing.T) {
	store := newMemStore()
	seed := profile.New("alice")
	profile.RecordAttempt(seed, profile.AttemptRecord{QuestionID: "q1", Topic: "A", Verdict: profile.VerdictIncorrect, Timestamp: t0, Mode: profile.ModeStudy})
	seed.Mastery["A"] = profile.TopicMastery{Topic: "A", Score: 0, Attempts: 1, LastUpdated: t0}
	require.NoError(t, store.Save(context.Background(), seed))

	log := &eventLog{}
	rec := &fakeRecorder{}
	tr := &scriptedTranscriber{errs: []error{errUnintelligible, errUnintelligible, errUnintelligible}, text: "one"}
	eval := &exactEvaluator{}
	cfg := testConfig()
	cfg.Budget = 2
	e := newTestEngine(t, Deps{Store: store, Evaluator: eval, Recorder: rec, Transcriber: tr, Sink: log}, cfg)

	sum, err := e.Run(context.Background(), "alice", profile.ModeReview)
	require.NoError(t, err)

	p := store.stored(t, "alice")
	require.Len(t, p.Attempts, 3)
	skipped := p.Attempts[1]
	assert.Equal(t, "q1", skipped.QuestionID)
	assert.Equal(t, profile.VerdictIncorrect, skipped.Verdict)
	assert.Equal(t, 0.0, skipped.Score)
	assert.Equal(t, profile.ModeReview, skipped.Mode)

	// The session moved on to a second question, which was answered.
	assert.Equal(t, 2, sum.Attempts)
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, 4, tr.calls)
	assert.Equal(t, 4, rec.calls)
	assert.Equal(t, 1, eval.calls, "skipped questions are not evaluated")

	fails := eventsOf[AnswerFailed](log)
	require.Len(t, fails, 3)
	assert.Equal(t, 3, fails[2].Try)
	assert.Len(t, eventsOf[AnswerSkipped](log), 1)
	assert.Len(t, eventsOf[ListeningStarted](log), 4)

	presented := eventsOf[QuestionPresented](log)
	require.Len(t, presented, 4)
	assert.True(t, presented[0].Review)
	assert.Equal(t, []int{1, 2, 3}, []int{presented[0].Try, presented[1].Try, presented[2].Try})
}

func TestRun_ReviewRecoversAfterFailure(t *testing.T) {
	store := newMemStore()
	tr := &scriptedTranscriber{errs: []error{errUnintelligible}, text: "one"}
	cfg := testConfig()
	cfg.Budget = 1
	e := newTestEngine(t, Deps{Store: store, Evaluator: &exactEvaluator{}, Recorder: &fakeRecorder{}, Transcriber: tr}, cfg)

	sum, err := e.Run(context.Background(), "alice", profile.ModeReview)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Attempts)
	assert.Equal(t, 0, sum.Skipped)
	assert.Equal(t, "one", store.stored(t, "alice").Attempts[0].SubmittedAnswer)
}

func TestRun_ReviewTyped(t *testing.T) {
	cfg := testConfig()
	cfg.Budget = 1
	cfg.ReviewTyped = true
	e := newTestEngine(t, Deps{Store: newMemStore(), Evaluator: &exactEvaluator{}, Answers: answerAll("one")}, cfg)

	sum, err := e.Run(context.Background(), "alice", profile.ModeReview)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Attempts)
}

func TestRun_ReviewNeedsRecorder(t *testing.T) {
	e := newTestEngine(t, Deps{Store: newMemStore(), Evaluator: &exactEvaluator{}, Answers: answerAll("x")}, testConfig())
	_, err := e.Run(context.Background(), "alice", profile.ModeReview)
	assert.Error(t, err)
}

func TestRun_BlankAnswersCountAsFailures(t *testing.T) {
	store := newMemStore()
	cfg := testConfig()
	cfg.Budget = 1
	e := newTestEngine(t, Deps{
		Store:     store,
		Evaluator: &exactEvaluator{},
		Answers:   &scriptedAnswers{script: []any{"", "   ", "\n"}},
	}, cfg)

	sum, err := e.Run(context.Background(), "alice", profile.ModeStudy)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, profile.VerdictIncorrect, store.stored(t, "alice").Attempts[0].Verdict)
}

func TestRun_EvaluatorTransientRetriedOnce(t *testing.T) {
	log := &eventLog{}
	eval := &exactEvaluator{failures: []error{&TransientError{Err: errors.New("rate limited")}}}
	cfg := testConfig()
	cfg.Budget = 1
	e := newTestEngine(t, Deps{Store: newMemStore(), Evaluator: eval, Answers: answerAll("one"), Sink: log}, cfg)

	sum, err := e.Run(context.Background(), "alice", profile.ModeStudy)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Correct)
	assert.Equal(t, 2, eval.calls)
	assert.Len(t, eventsOf[EvaluationRetried](log), 1)
}

func TestRun_EvaluatorPersistentFailureIsFatal(t *testing.T) {
	store := newMemStore()
	log := &eventLog{}
	transient := &TransientError{Err: errors.New("provider unavailable")}
	eval := &exactEvaluator{}
	cfg := testConfig()
	cfg.Budget = 3
	answers := &scriptedAnswers{script: []any{"one", "two", "three"}}
	e := newTestEngine(t, Deps{Store: store, Evaluator: eval, Answers: answers, Sink: log}, cfg)

	// Fail only from the second question on.
	e.deps.Evaluator = EvaluatorFunc(func(ctx context.Context, q bank.QuestionRecord, answer string) (Evaluation, error) {
		if eval.calls >= 1 {
			eval.calls++
			return Evaluation{}, transient
		}
		return eval.Evaluate(ctx, q, answer)
	})

	sum, err := e.Run(context.Background(), "alice", profile.ModeStudy)
	var fe *FatalError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, StateEvaluating, fe.State)
	assert.ErrorIs(t, err, transient)
	assert.Equal(t, 3, eval.calls, "one success, then a failure and its single retry")

	require.NotNil(t, sum)
	assert.Equal(t, EndFailed, sum.Reason)
	assert.Equal(t, 1, sum.Attempts, "partial summary covers persisted attempts only")
	assert.Len(t, store.stored(t, "alice").Attempts, 1)
	assert.Len(t, eventsOf[SessionAborted](log), 1)
}

func TestRun_EvaluatorPermanentFailureNotRetried(t *testing.T) {
	eval := &exactEvaluator{failures: []error{errors.New("invalid api key")}}
	cfg := testConfig()
	e := newTestEngine(t, Deps{Store: newMemStore(), Evaluator: eval, Answers: answerAll("one")}, cfg)

	_, err := e.Run(context.Background(), "alice", profile.ModeStudy)
	var fe *FatalError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 1, eval.calls)
}

func TestRun_EvaluatorTimeoutIsTransient(t *testing.T) {
	calls := 0
	slow := EvaluatorFunc(func(ctx context.Context, q bank.QuestionRecord, answer string) (Evaluation, error) {
		calls++
		if calls == 1 {
			<-ctx.Done()
			return Evaluation{}, ctx.Err()
		}
		return Evaluation{Verdict: profile.VerdictPartial, Score: 0.5}, nil
	})
	cfg := testConfig()
	cfg.Budget = 1
	cfg.CollaboratorTimeout = 20 * time.Millisecond
	e := newTestEngine(t, Deps{Store: newMemStore(), Evaluator: slow, Answers: answerAll("one")}, cfg)

	sum, err := e.Run(context.Background(), "alice", profile.ModeStudy)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.InDelta(t, 0.5, sum.RunningScore, 1e-9)
}

func TestRun_InvalidEvaluationIsRetried(t *testing.T) {
	calls := 0
	bad := EvaluatorFunc(func(context.Context, bank.QuestionRecord, string) (Evaluation, error) {
		calls++
		if calls == 1 {
			return Evaluation{Verdict: "maybe", Score: 2}, nil
		}
		return Evaluation{Verdict: profile.VerdictCorrect, Score: 1}, nil
	})
	cfg := testConfig()
	cfg.Budget = 1
	e := newTestEngine(t, Deps{Store: newMemStore(), Evaluator: bad, Answers: answerAll("one")}, cfg)

	sum, err := e.Run(context.Background(), "alice", profile.ModeStudy)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Correct)
}

func TestRun_SaveFailureHalts(t *testing.T) {
	store := newMemStore()
	store.failAfter = 1
	answers := &scriptedAnswers{script: []any{"one", "two", "three"}}
	cfg := testConfig()
	cfg.Budget = 3
	e := newTestEngine(t, Deps{Store: store, Evaluator: &exactEvaluator{}, Answers: answers}, cfg)

	sum, err := e.Run(context.Background(), "alice", profile.ModeStudy)
	var pe *profile.PersistenceError
	require.ErrorAs(t, err, &pe)
	var fe *FatalError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, StateRecording, fe.State)

	assert.Equal(t, 1, sum.Attempts, "the unsaved attempt is not reported")
	assert.Len(t, answers.asked, 2, "no question is asked after the failed save")
	assert.Len(t, store.stored(t, "alice").Attempts, 1)
}

func TestRun_ExplicitStop(t *testing.T) {
	store := newMemStore()
	cfg := testConfig()
	cfg.Budget = 5
	e := newTestEngine(t, Deps{
		Store:     store,
		Evaluator: &exactEvaluator{},
		Answers:   &scriptedAnswers{script: []any{"one", ErrStop}},
	}, cfg)

	sum, err := e.Run(context.Background(), "alice", profile.ModeStudy)
	require.NoError(t, err)
	assert.Equal(t, EndStopped, sum.Reason)
	assert.Equal(t, 1, sum.Attempts)
	assert.Len(t, store.stored(t, "alice").Attempts, 1)
}

func TestRun_CancelDuringEvaluationDropsInFlight(t *testing.T) {
	store := newMemStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	eval := EvaluatorFunc(func(ectx context.Context, q bank.QuestionRecord, answer string) (Evaluation, error) {
		calls++
		if calls == 2 {
			cancel()
			<-ectx.Done()
			return Evaluation{}, ectx.Err()
		}
		return Evaluation{Verdict: profile.VerdictCorrect, Score: 1}, nil
	})
	cfg := testConfig()
	cfg.Budget = 3
	e := newTestEngine(t, Deps{Store: store, Evaluator: eval, Answers: answerAll("x")}, cfg)

	sum, err := e.Run(ctx, "alice", profile.ModeStudy)
	require.NoError(t, err)
	assert.Equal(t, EndStopped, sum.Reason)
	assert.Equal(t, 1, sum.Attempts)
	assert.Equal(t, 2, calls, "cancellation is not retried")
	assert.Len(t, store.stored(t, "alice").Attempts, 1)
}

func TestRun_CancelDuringEvaluationDropsLateVerdict(t *testing.T) {
	store := newMemStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	eval := EvaluatorFunc(func(context.Context, bank.QuestionRecord, string) (Evaluation, error) {
		calls++
		if calls == 2 {
			cancel()
		}
		return Evaluation{Verdict: profile.VerdictCorrect, Score: 1}, nil
	})
	cfg := testConfig()
	cfg.Budget = 3
	e := newTestEngine(t, Deps{Store: store, Evaluator: eval, Answers: answerAll("x")}, cfg)

	sum, err := e.Run(ctx, "alice", profile.ModeStudy)
	require.NoError(t, err)
	assert.Equal(t, EndStopped, sum.Reason)
	assert.Equal(t, 1, sum.Attempts)
	assert.Equal(t, 2, calls)
	assert.Len(t, store.stored(t, "alice").Attempts, 1)
}

func TestRun_CancelWhileAwaitingAnswer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	answers := &scriptedAnswers{script: []any{
		"one",
		func(ctx context.Context) (string, error) {
			cancel()
			return "", ctx.Err()
		},
	}}
	store := newMemStore()
	e := newTestEngine(t, Deps{Store: store, Evaluator: &exactEvaluator{}, Answers: answers}, testConfig())

	sum, err := e.Run(ctx, "alice", profile.ModeStudy)
	require.NoError(t, err)
	assert.Equal(t, EndStopped, sum.Reason)
	assert.Len(t, store.stored(t, "alice").Attempts, 1)
}

func TestRun_LoadFailureIsFatal(t *testing.T) {
	failing := &failingStore{err: &profile.PersistenceError{Op: "load", StudentID: "alice", Err: errors.New("corrupt")}}
	e := newTestEngine(t, Deps{Store: failing, Evaluator: &exactEvaluator{}, Answers: answerAll("x")}, testConfig())

	sum, err := e.Run(context.Background(), "alice", profile.ModeStudy)
	var pe *profile.PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 0, sum.Attempts)
}

type failingStore struct{ err error }

func (f *failingStore) Load(context.Context, string) (*profile.StudentProfile, error) { return nil, f.err }
func (f *failingStore) Save(context.Context, *profile.StudentProfile) error { return f.err }

func TestRun_ReviewOnlyAsksMissedQuestions(t *testing.T) {
	store := newMemStore()
	seed := profile.New("alice")
	add := func(id, topic string, v profile.Verdict, score float64) {
		profile.RecordAttempt(seed, profile.AttemptRecord{QuestionID: id, Topic: topic, Verdict: v, Score: score, Timestamp: t0, Mode: profile.ModeStudy})
	}
	add("q1", "A", profile.VerdictCorrect, 1)
	add("q2", "A", profile.VerdictIncorrect, 0)
	add("q3", "B", profile.VerdictCorrect, 0.9)
	seed.Mastery["A"] = profile.TopicMastery{Topic: "A", Score: 0.5, Attempts: 2, LastUpdated: t0}
	seed.Mastery["B"] = profile.TopicMastery{Topic: "B", Score: 0.9, Attempts: 1, LastUpdated: t0}
	require.NoError(t, store.Save(context.Background(), seed))

	answers := &scriptedAnswers{script: []any{"two"}}
	cfg := testConfig()
	cfg.Budget = 1
	cfg.ReviewTyped = true
	e := newTestEngine(t, Deps{Store: store, Evaluator: &exactEvaluator{}, Answers: answers}, cfg)

	_, err := e.Run(context.Background(), "alice", profile.ModeReview)
	require.NoError(t, err)
	assert.Equal(t, []string{"q2"}, answers.asked)
}

func TestRun_RecommendsForWeakTopicOnce(t *testing.T) {
	log := &eventLog{}
	rec := &fakeRecommender{}
	cfg := testConfig()
	cfg.Budget = 0
	e := newTestEngine(t, Deps{
		Store:       newMemStore(),
		Evaluator:   &exactEvaluator{},
		Answers:     answerAll("wrong"),
		Recommender: rec,
		Explainer: explainerFunc(func(ctx context.Context, q bank.QuestionRecord) (string, error) {
			return "Example for " + q.Topic, nil
		}),
		Sink: log,
	}, cfg)

	_, err := e.Run(context.Background(), "alice", profile.ModeStudy)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"A", "B"}, rec.topics, "one search per weak topic")
	found := eventsOf[ResourcesFound](log)
	require.Len(t, found, 2)
	assert.NotEmpty(t, found[0].Resources)
	assert.Len(t, eventsOf[ExampleShown](log), 2)
}

func TestRun_RecommenderFailureIsSwallowed(t *testing.T) {
	log := &eventLog{}
	cfg := testConfig()
	cfg.Budget = 1
	e := newTestEngine(t, Deps{
		Store:       newMemStore(),
		Evaluator:   &exactEvaluator{},
		Answers:     answerAll("wrong"),
		Recommender: &fakeRecommender{err: errors.New("quota exceeded")},
		Sink:        log,
	}, cfg)

	sum, err := e.Run(context.Background(), "alice", profile.ModeStudy)
	require.NoError(t, err)
	assert.Equal(t, EndBudget, sum.Reason)
	found := eventsOf[ResourcesFound](log)
	require.Len(t, found, 1)
	assert.Empty(t, found[0].Resources)
}

func TestRun_NoRecommendationAboveThreshold(t *testing.T) {
	rec := &fakeRecommender{}
	cfg := testConfig()
	cfg.Budget = 1
	e := newTestEngine(t, Deps{Store: newMemStore(), Evaluator: &exactEvaluator{}, Answers: answerAll("one"), Recommender: rec}, cfg)

	_, err := e.Run(context.Background(), "alice", profile.ModeStudy)
	require.NoError(t, err)
	assert.Empty(t, rec.topics)
}

type explainerFunc func(ctx context.Context, q bank.QuestionRecord) (string, error)

func (f explainerFunc) Explain(ctx context.Context, q bank.QuestionRecord) (string, error) {
	return f(ctx, q)
}

func TestRun_FollowUpQuizAfterMiss(t *testing.T) {
	log := &eventLog{}
	fu := &fakeFollowUps{}
	cfg := testConfig()
	cfg.Budget = 1
	cfg.FollowUpQuiz = true
	answers := &scriptedAnswers{script: []any{"wrong", "A", "b", "D"}}
	e := newTestEngine(t, Deps{
		Store:     newMemStore(),
		Evaluator: &exactEvaluator{},
		Answers:   answers,
		FollowUps: fu,
		Sink:      log,
	}, cfg)

	sum, err := e.Run(context.Background(), "alice", profile.ModeStudy)
	require.NoError(t, err)
	assert.Equal(t, 1, fu.calls)
	assert.Equal(t, 1, sum.Attempts, "follow-up answers are not attempts")

	done := eventsOf[FollowUpCompleted](log)
	require.Len(t, done, 1)
	assert.Equal(t, 2, done[0].Correct)
	assert.Equal(t, 3, done[0].Total)
	assert.Len(t, eventsOf[FollowUpAnswered](log), 3)
}

func TestRun_NoFollowUpAfterCorrect(t *testing.T) {
	fu := &fakeFollowUps{}
	cfg := testConfig()
	cfg.Budget = 1
	cfg.FollowUpQuiz = true
	e := newTestEngine(t, Deps{Store: newMemStore(), Evaluator: &exactEvaluator{}, Answers: answerAll("one"), FollowUps: fu}, cfg)

	_, err := e.Run(context.Background(), "alice", profile.ModeStudy)
	require.NoError(t, err)
	assert.Zero(t, fu.calls)
}

func TestRun_StopDuringFollowUp(t *testing.T) {
	store := newMemStore()
	cfg := testConfig()
	cfg.Budget = 3
	cfg.FollowUpQuiz = true
	answers := &scriptedAnswers{script: []any{"wrong", "A", ErrStop}}
	e := newTestEngine(t, Deps{Store: store, Evaluator: &exactEvaluator{}, Answers: answers, FollowUps: &fakeFollowUps{}}, cfg)

	sum, err := e.Run(context.Background(), "alice", profile.ModeStudy)
	require.NoError(t, err)
	assert.Equal(t, EndStopped, sum.Reason)
	assert.Len(t, store.stored(t, "alice").Attempts, 1)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StateIdle, StateModeSelected))
	assert.True(t, CanTransition(StateRecording, StatePresenting))
	assert.False(t, CanTransition(StateIdle, StatePresenting))
	assert.False(t, CanTransition(StateCompleted, StatePresenting))
	assert.False(t, CanTransition(StateEvaluating, StateAwaitingAnswer))
}

func TestSummaryRatios(t *testing.T) {
	s := Summary{Attempts: 4, Correct: 1, RunningScore: 2}
	assert.InDelta(t, 0.5, s.AverageScore(), 1e-9)
	assert.InDelta(t, 0.25, s.Accuracy(), 1e-9)
	assert.Zero(t, Summary{}.AverageScore())
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(&TransientError{Err: errors.New("x")}))
	assert.True(t, IsTransient(context.DeadlineExceeded))
	assert.False(t, IsTransient(errors.New("bad key")))
	assert.False(t, IsTransient(context.Canceled))
}
