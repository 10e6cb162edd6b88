// Package config loads studyloop's settings from an optional YAML file and
// the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/studyloop/internal/llm"
	"github.com/abhisek/studyloop/internal/mastery"
	"github.com/abhisek/studyloop/internal/resources"
	"github.com/abhisek/studyloop/internal/selector"
	"github.com/abhisek/studyloop/internal/session"
	"github.com/abhisek/studyloop/internal/speech"
	"github.com/abhisek/studyloop/internal/tutor"
)

// Config is the full application configuration.
type Config struct {
	// Bank is the question bank file.
	Bank string `yaml:"bank"`
	// Student is the default student id.
	Student string `yaml:"student"`
	// ProfileStore is "sqlite" (default) or "json".
	ProfileStore string `yaml:"profile_store"`
	// ProfilePath is the JSON profile document, used with the json store.
	ProfilePath string `yaml:"profile_path"`
	LogLevel    string `yaml:"log_level"`

	Mastery   mastery.Config        `yaml:"mastery"`
	Selector  selector.Config       `yaml:"selector"`
	Session   session.Config        `yaml:"session"`
	LLM       llm.Config            `yaml:"llm"`
	Tutor     tutor.Config          `yaml:"tutor"`
	Speech    speech.Config         `yaml:"speech"`
	Recorder  speech.RecorderConfig `yaml:"recorder"`
	Resources resources.Config      `yaml:"resources"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Bank:         "questions.json",
		ProfileStore: "sqlite",
		LogLevel:     "warn",
		Mastery:      mastery.DefaultConfig(),
		Selector:     selector.DefaultConfig(),
		Session:      session.DefaultConfig(),
		LLM:          llm.DefaultConfig(),
		Tutor:        tutor.DefaultConfig(),
		Speech:       speech.DefaultConfig(),
		Recorder:     speech.DefaultRecorderConfig(),
		Resources:    resources.DefaultConfig(),
	}
}

// DefaultPath returns $STUDYLOOP_CONFIG, or config.yaml under the user
// config directory.
func DefaultPath() string {
	if p := os.Getenv("STUDYLOOP_CONFIG"); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "studyloop.yaml"
	}
	return filepath.Join(dir, "studyloop", "config.yaml")
}

// Load reads .env from the working directory, then the YAML file at path
// over the defaults, then environment overrides. A missing file is an
// error only when required is set.
func Load(path string, required bool) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !required:
	default:
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides settings from STUDYLOOP_* variables and fills API keys
// from the vendors' standard variables.
func (c *Config) ApplyEnv() {
	setIf(&c.Bank, os.Getenv("STUDYLOOP_BANK"))
	setIf(&c.Student, os.Getenv("STUDYLOOP_STUDENT"))
	setIf(&c.ProfileStore, os.Getenv("STUDYLOOP_PROFILE_STORE"))
	setIf(&c.ProfilePath, os.Getenv("STUDYLOOP_PROFILE_PATH"))
	setIf(&c.LogLevel, os.Getenv("STUDYLOOP_LOG_LEVEL"))

	c.LLM.ApplyEnv()

	// Whisper shares the OpenAI key unless given its own.
	setIf(&c.Speech.APIKey, c.LLM.OpenAI.APIKey)
	setIf(&c.Speech.APIKey, os.Getenv("OPENAI_API_KEY"))
	setIf(&c.Speech.APIKey, os.Getenv("STUDYLOOP_OPENAI_API_KEY"))
	setIf(&c.Speech.APIKey, os.Getenv("STUDYLOOP_WHISPER_API_KEY"))
	setIf(&c.Speech.Language, os.Getenv("STUDYLOOP_LANGUAGE"))

	setIf(&c.Resources.APIKey, os.Getenv("YOUTUBE_API_KEY"))
	setIf(&c.Resources.APIKey, os.Getenv("STUDYLOOP_YOUTUBE_API_KEY"))
	setIf(&c.Resources.Language, c.Speech.Language)

	if c.Student == "" {
		setIf(&c.Student, os.Getenv("USER"))
		setIf(&c.Student, os.Getenv("USERNAME"))
	}
}

// setIf assigns v to *dst when v is not empty. Later calls win.
func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Mastery.Validate(); err != nil {
		return fmt.Errorf("config: mastery: %w", err)
	}
	if err := c.Selector.Validate(); err != nil {
		return fmt.Errorf("config: selector: %w", err)
	}
	if err := c.Session.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	switch c.ProfileStore {
	case "sqlite", "json":
	default:
		return fmt.Errorf("config: profile_store must be sqlite or json, got %q", c.ProfileStore)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// ParseLevel maps debug, info, warn or error to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return l, nil
}

// Write saves cfg as YAML at path, creating parent directories. API keys
// are left out.
func Write(path string, cfg Config) error {
	cfg.LLM.Anthropic.APIKey = ""
	cfg.LLM.OpenAI.APIKey = ""
	cfg.LLM.Gemini.APIKey = ""
	cfg.LLM.OpenRouter.APIKey = ""
	cfg.Speech.APIKey = ""
	cfg.Resources.APIKey = ""

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create dir: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}
