package speech

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/abhisek/studyloop/internal/session"
)

// Config configures the Whisper transcriber.
type Config struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	// Language is an ISO-639-1 hint such as "it" or "en"; empty lets the
	// model detect it.
	Language string `yaml:"language"`
	// NoSpeechThreshold rejects a transcript when every segment's
	// no-speech probability is above it.
	NoSpeechThreshold float64 `yaml:"no_speech_threshold"`
}

// DefaultConfig returns the transcriber defaults.
func DefaultConfig() Config {
	return Config{Model: openai.Whisper1, NoSpeechThreshold: 0.8}
}

// WhisperTranscriber implements session.Transcriber with OpenAI's audio
// transcription API.
type WhisperTranscriber struct {
	client *openai.Client
	cfg    Config
}

// NewWhisperTranscriber returns a transcriber for cfg.
func NewWhisperTranscriber(cfg Config) (*WhisperTranscriber, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("speech: an OpenAI API key is required for transcription")
	}
	if cfg.Model == "" {
		cfg.Model = openai.Whisper1
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	return &WhisperTranscriber{client: openai.NewClientWithConfig(oc), cfg: cfg}, nil
}

// Transcribe implements session.Transcriber.
func (w *WhisperTranscriber) Transcribe(ctx context.Context, audio session.AudioCapture) (string, error) {
	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.cfg.Model,
		FilePath: audio.Path,
		Language: w.cfg.Language,
		Format:   openai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &TranscriptionError{Path: audio.Path, Err: err}
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" || w.silent(resp) {
		return "", &TranscriptionError{Path: audio.Path, Err: ErrUnintelligible}
	}
	return text, nil
}

// silent reports whether every segment is likely to be noise.
func (w *WhisperTranscriber) silent(resp openai.AudioResponse) bool {
	if w.cfg.NoSpeechThreshold <= 0 || len(resp.Segments) == 0 {
		return false
	}
	for _, s := range resp.Segments {
		if s.NoSpeechProb <= w.cfg.NoSpeechThreshold {
			return false
		}
	}
	return true
}

func (w *WhisperTranscriber) String() string {
	return fmt.Sprintf("whisper(%s)", w.cfg.Model)
}
