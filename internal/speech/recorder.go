package speech

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/abhisek/studyloop/internal/session"
)

// DefaultRecordCommand records 16 kHz mono WAV with ALSA's arecord.
// {file} and {seconds} are substituted before running.
var DefaultRecordCommand = []string{"arecord", "-q", "-f", "S16_LE", "-r", "16000", "-c", "1", "-d", "{seconds}", "{file}"}

// RecorderConfig configures CommandRecorder.
type RecorderConfig struct {
	Command  []string      `yaml:"command"`
	Duration time.Duration `yaml:"duration"`
	// Dir holds the recordings; empty means a fresh temporary directory.
	Dir string `yaml:"dir"`
}

// DefaultRecorderConfig records ten seconds with arecord.
func DefaultRecorderConfig() RecorderConfig {
	return RecorderConfig{Command: DefaultRecordCommand, Duration: 10 * time.Second}
}

// CommandRecorder implements session.Recorder by running an external
// recording program for a fixed duration.
type CommandRecorder struct {
	cfg     RecorderConfig
	ownsDir bool

	mu   sync.Mutex
	n    int
	last string
}

// NewCommandRecorder checks that the recording program exists and
// prepares the output directory.
func NewCommandRecorder(cfg RecorderConfig) (*CommandRecorder, error) {
	if len(cfg.Command) == 0 {
		cfg.Command = DefaultRecordCommand
	}
	if cfg.Duration <= 0 {
		return nil, fmt.Errorf("speech: recording duration must be positive, got %s", cfg.Duration)
	}
	if _, err := exec.LookPath(cfg.Command[0]); err != nil {
		return nil, fmt.Errorf("speech: recorder %q not found: %w", cfg.Command[0], err)
	}

	r := &CommandRecorder{cfg: cfg}
	if cfg.Dir == "" {
		dir, err := os.MkdirTemp("", "studyloop-audio-")
		if err != nil {
			return nil, fmt.Errorf("speech: create audio dir: %w", err)
		}
		r.cfg.Dir = dir
		r.ownsDir = true
	} else if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("speech: create audio dir: %w", err)
	}
	return r, nil
}

// Record implements session.Recorder. The previous recording is removed
// first, so at most one file is kept on disk.
func (r *CommandRecorder) Record(ctx context.Context) (session.AudioCapture, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.last != "" {
		os.Remove(r.last)
		r.last = ""
	}
	r.n++
	path := filepath.Join(r.cfg.Dir, fmt.Sprintf("answer-%03d.wav", r.n))
	args := expandArgs(r.cfg.Command, path, r.cfg.Duration)

	start := time.Now()
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return session.AudioCapture{}, ctx.Err()
		}
		return session.AudioCapture{}, &RecordingError{Command: args[0], Output: strings.TrimSpace(stderr.String()), Err: err}
	}

	info, err := os.Stat(path)
	if err != nil {
		return session.AudioCapture{}, &RecordingError{Command: args[0], Err: err}
	}
	if info.Size() == 0 {
		return session.AudioCapture{}, &RecordingError{Command: args[0], Err: fmt.Errorf("empty recording %s", path)}
	}
	r.last = path
	return session.AudioCapture{Path: path, Duration: time.Since(start)}, nil
}

// Close removes the recordings, and the directory if it was created by
// NewCommandRecorder.
func (r *CommandRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ownsDir {
		return os.RemoveAll(r.cfg.Dir)
	}
	if r.last != "" {
		return os.Remove(r.last)
	}
	return nil
}

func expandArgs(tmpl []string, path string, d time.Duration) []string {
	secs := strconv.Itoa(max(1, int(d.Round(time.Second)/time.Second)))
	out := make([]string, len(tmpl))
	for i, a := range tmpl {
		a = strings.ReplaceAll(a, "{file}", path)
		out[i] = strings.ReplaceAll(a, "{seconds}", secs)
	}
	return out
}
