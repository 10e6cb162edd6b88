package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abhisek/studyloop/internal/console"
	"github.com/abhisek/studyloop/internal/llm"
	"github.com/abhisek/studyloop/internal/mastery"
	"github.com/abhisek/studyloop/internal/profile"
	"github.com/abhisek/studyloop/internal/resources"
	"github.com/abhisek/studyloop/internal/selector"
	"github.com/abhisek/studyloop/internal/session"
	"github.com/abhisek/studyloop/internal/speech"
	"github.com/abhisek/studyloop/internal/store"
	"github.com/abhisek/studyloop/internal/tutor"
)

var studyCmd = &cobra.Command{
	Use:   "study",
	Short: "Answer new questions, weakest topics first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSession(cmd, profile.ModeStudy)
	},
}

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Answer missed questions again, out loud",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSession(cmd, profile.ModeReview)
	},
}

func init() {
	for _, c := range []*cobra.Command{studyCmd, reviewCmd} {
		c.Flags().IntP("budget", "n", -1, "Maximum questions per session, 0 for no limit")
	}
	reviewCmd.Flags().Bool("typed", false, "Type answers instead of recording them")
}

// runSession runs one session. An empty mode asks the learner to pick one.
func runSession(cmd *cobra.Command, mode profile.Mode) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	if typed, _ := cmd.Flags().GetBool("typed"); typed {
		e.cfg.Session.ReviewTyped = true
	}

	out := cmd.OutOrStdout()
	prompter := console.NewPrompter(cmd.InOrStdin(), out)

	deps, cleanup, err := buildDeps(ctx, e, prompter, out)
	if err != nil {
		return err
	}
	defer cleanup()

	engine, err := session.New(deps, e.cfg.Session)
	if err != nil {
		return err
	}

	if mode == "" {
		items := console.DefaultModes()
		for i := range items {
			items[i].Disabled = engine.Supports(items[i].Mode) != nil
		}
		mode, err = prompter.PickMode(ctx, items)
		if errors.Is(err, session.ErrStop) || errors.Is(err, context.Canceled) {
			return nil
		}
		if err != nil {
			return err
		}
	} else if err := engine.Supports(mode); err != nil {
		return fmt.Errorf("%s mode unavailable: %w", mode, err)
	}

	_, err = engine.Run(ctx, e.cfg.Student, mode)
	return err
}

// buildDeps wires the engine's collaborators from configuration. Optional
// collaborators that cannot be built are left out with a log line.
func buildDeps(ctx context.Context, e *env, prompter *console.Prompter, out io.Writer) (session.Deps, func(), error) {
	var closers []func() error
	cleanup := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				e.logger.Warn("cleanup", "error", err)
			}
		}
	}

	b, err := e.loadBank()
	if err != nil {
		return session.Deps{}, nil, err
	}

	deps := session.Deps{
		Bank:     b,
		Store:    e.profiles,
		Selector: selector.New(e.cfg.Selector),
		Tracker:  mastery.NewTracker(e.cfg.Mastery),
		Answers:  prompter,
		Sink: session.MultiSink{
			console.NewPrinter(out),
			store.NewSessionRecorder(ctx, e.store.EventRepo(), e.logger),
		},
		Logger: e.logger,
	}

	var provider llm.Provider
	if e.cfg.LLM.Enabled() {
		provider, err = llm.NewProvider(ctx, e.cfg.LLM, e.store.EventRepo(), e.logger)
		if err != nil {
			e.logger.Warn("LLM provider not configured, grading locally", "error", err)
			provider = nil
		}
	}
	deps.Evaluator = tutor.NewEvaluator(provider, e.cfg.Tutor)

	var queries resources.QueryBuilder
	if provider != nil {
		deps.FollowUps = tutor.NewFollowUpGenerator(provider, e.cfg.Tutor)
		deps.Explainer = tutor.NewExplainer(provider, e.cfg.Tutor)
		queries = tutor.NewKeywordExtractor(provider, e.cfg.Tutor)
	}

	if e.cfg.Resources.APIKey != "" {
		rec, err := resources.NewYouTubeRecommender(ctx, e.cfg.Resources, queries)
		if err != nil {
			e.logger.Warn("video recommendations unavailable", "error", err)
		} else {
			deps.Recommender = rec
		}
	}

	if !e.cfg.Session.ReviewTyped {
		if tr, err := speech.NewWhisperTranscriber(e.cfg.Speech); err != nil {
			e.logger.Info("speech transcription unavailable", "error", err)
		} else {
			deps.Transcriber = tr
		}
		if rec, err := speech.NewCommandRecorder(e.cfg.Recorder); err != nil {
			e.logger.Info("audio recording unavailable", "error", err)
		} else {
			closers = append(closers, rec.Close)
			deps.Recorder = console.NewGatedRecorder(rec, prompter, e.cfg.Recorder.Duration)
		}
	}

	return deps, cleanup, nil
}
