package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/studyloop/internal/selector"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		if k, _, _ := strings.Cut(kv, "="); strings.HasPrefix(k, "STUDYLOOP_") {
			t.Setenv(k, "")
			os.Unsetenv(k)
		}
	}
	for _, k := range []string{"OPENAI_API_KEY", "GEMINI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY", "YOUTUBE_API_KEY"} {
		t.Setenv(k, "")
	}
	t.Chdir(t.TempDir())
}

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	clearEnv(t)
	t.Setenv("USER", "alice")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), false)
	require.NoError(t, err)
	assert.Equal(t, Default().Session, cfg.Session)
	assert.Equal(t, "alice", cfg.Student)
	assert.Equal(t, "sqlite", cfg.ProfileStore)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"), true)
	assert.Error(t, err)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
bank: /data/biology.yaml
student: bob
mastery:
  base_alpha: 0.25
selector:
  easy_max: 0.3
  sampling: weighted
session:
  budget: 5
  collaborator_timeout: 20s
  follow_up_quiz: false
llm:
  provider: mock
recorder:
  duration: 8s
`), 0o644))

	cfg, err := Load(path, true)
	require.NoError(t, err)
	assert.Equal(t, "/data/biology.yaml", cfg.Bank)
	assert.Equal(t, "bob", cfg.Student)
	assert.Equal(t, 0.25, cfg.Mastery.BaseAlpha)
	assert.Equal(t, 0.3, cfg.Selector.EasyMax)
	assert.Equal(t, 0.7, cfg.Selector.MediumMax, "unset keys keep their defaults")
	assert.Equal(t, selector.SamplingWeighted, cfg.Selector.Sampling)
	assert.Equal(t, 5, cfg.Session.Budget)
	assert.Equal(t, 20*time.Second, cfg.Session.CollaboratorTimeout)
	assert.False(t, cfg.Session.FollowUpQuiz)
	assert.Equal(t, 3, cfg.Session.MaxAnswerTries)
	assert.Equal(t, "mock", cfg.LLM.Provider)
	assert.Equal(t, 8*time.Second, cfg.Recorder.Duration)
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	for name, body := range map[string]string{
		"bad yaml":   "session: [",
		"bad budget": "session:\n  budget: -1\n",
		"bad alpha":  "mastery:\n  base_alpha: 2\n",
		"bad store":  "profile_store: mongo\n",
		"bad level":  "log_level: loud\n",
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
			_, err := Load(path, true)
			assert.Error(t, err)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("STUDYLOOP_BANK", "env-bank.json")
	t.Setenv("STUDYLOOP_STUDENT", "carol")
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("YOUTUBE_API_KEY", "yt")
	t.Setenv("STUDYLOOP_LANGUAGE", "it")

	cfg := Default()
	cfg.ApplyEnv()
	assert.Equal(t, "env-bank.json", cfg.Bank)
	assert.Equal(t, "carol", cfg.Student)
	assert.Equal(t, "sk-openai", cfg.LLM.OpenAI.APIKey)
	assert.Equal(t, "sk-openai", cfg.Speech.APIKey, "whisper reuses the OpenAI key")
	assert.Equal(t, "yt", cfg.Resources.APIKey)
	assert.Equal(t, "it", cfg.Resources.Language)

	t.Setenv("STUDYLOOP_WHISPER_API_KEY", "sk-whisper")
	cfg = Default()
	cfg.ApplyEnv()
	assert.Equal(t, "sk-whisper", cfg.Speech.APIKey)
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("STUDYLOOP_STUDENT", "")
	os.Unsetenv("STUDYLOOP_STUDENT")
	require.NoError(t, os.WriteFile(".env", []byte("STUDYLOOP_STUDENT=dora\n"), 0o644))

	cfg, err := Load("missing.yaml", false)
	require.NoError(t, err)
	assert.Equal(t, "dora", cfg.Student)
}

func TestWrite_RoundTripsWithoutKeys(t *testing.T) {
	clearEnv(t)
	cfg := Default()
	cfg.LLM.OpenAI.APIKey = "secret"
	cfg.Session.Budget = 7
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, Write(path, cfg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")

	got, err := Load(path, true)
	require.NoError(t, err)
	assert.Equal(t, 7, got.Session.Budget)
	assert.Equal(t, cfg.Session.CollaboratorTimeout, got.Session.CollaboratorTimeout)
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, l)
	l, err = ParseLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, l)
	_, err = ParseLevel("chatty")
	assert.Error(t, err)
}
