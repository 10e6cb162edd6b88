package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/abhisek/studyloop/internal/bank"
	"github.com/abhisek/studyloop/internal/config"
	"github.com/abhisek/studyloop/internal/profile"
	"github.com/abhisek/studyloop/internal/store"
)

// profileStore is what commands need from either profile backend.
type profileStore interface {
	profile.Store
	Delete(ctx context.Context, studentID string) error
	StudentIDs(ctx context.Context) ([]string, error)
}

// env is the shared state opened by every data command.
type env struct {
	cfg      config.Config
	logger   *slog.Logger
	store    *store.Store
	profiles profileStore
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	required := path != ""
	if path == "" {
		path = config.DefaultPath()
	}

	cfg, err := config.Load(path, required)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if v, _ := flags.GetString("bank"); v != "" {
		cfg.Bank = v
	}
	if v, _ := flags.GetString("student"); v != "" {
		cfg.Student = v
	}
	if v, _ := flags.GetString("json-store"); v != "" {
		cfg.ProfileStore = "json"
		cfg.ProfilePath = v
	}
	if v, _ := flags.GetString("log-level"); v != "" {
		if _, err := config.ParseLevel(v); err != nil {
			return config.Config{}, err
		}
		cfg.LogLevel = v
	}
	if f := flags.Lookup("budget"); f != nil && f.Changed {
		n, _ := flags.GetInt("budget")
		if n < 0 {
			return config.Config{}, fmt.Errorf("--budget must be >= 0, got %d", n)
		}
		cfg.Session.Budget = n
	}
	return cfg, nil
}

// newLogger writes text logs to stderr at the configured level.
func newLogger(level string) *slog.Logger {
	lvl, err := config.ParseLevel(level)
	if err != nil {
		lvl = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// openEnv loads configuration and opens the database and profile store.
// The caller must call close.
func openEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if cfg.Student == "" {
		return nil, errors.New("no student id: pass --student or set STUDYLOOP_STUDENT")
	}
	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	e := &env{cfg: cfg, logger: logger, store: st}
	switch cfg.ProfileStore {
	case "json":
		path := cfg.ProfilePath
		if path == "" {
			path = filepath.Join(filepath.Dir(dbPath), "profiles.json")
		}
		e.profiles = store.NewJSONProfileStore(path)
		logger.Debug("using JSON profile store", "path", path)
	default:
		e.profiles = st.Profiles()
	}
	return e, nil
}

func (e *env) close() {
	if err := e.store.Close(); err != nil {
		e.logger.Warn("close store", "error", err)
	}
}

// loadBank loads the configured question bank.
func (e *env) loadBank() (*bank.Bank, error) {
	if e.cfg.Bank == "" {
		return nil, errors.New("no question bank: pass --bank or set STUDYLOOP_BANK")
	}
	b, err := bank.LoadFile(e.cfg.Bank)
	if err != nil {
		return nil, err
	}
	e.logger.Info("question bank loaded", "path", e.cfg.Bank, "questions", b.Len(), "topics", len(b.Topics()))
	return b, nil
}
