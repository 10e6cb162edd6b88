//go:build unix

package speech

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandArgs(t *testing.T) {
	got := expandArgs(DefaultRecordCommand, "/tmp/a.wav", 7400*time.Millisecond)
	assert.Equal(t, []string{"arecord", "-q", "-f", "S16_LE", "-r", "16000", "-c", "1", "-d", "7", "/tmp/a.wav"}, got)
	assert.Equal(t, []string{"rec", "1"}, expandArgs([]string{"rec", "{seconds}"}, "", 100*time.Millisecond))
}

func TestCommandRecorder_Records(t *testing.T) {
	dir := t.TempDir()
	r, err := NewCommandRecorder(RecorderConfig{
		Command:  []string{"sh", "-c", `printf 'RIFF' > "$0"`, "{file}"},
		Duration: time.Second,
		Dir:      dir,
	})
	require.NoError(t, err)

	first, err := r.Record(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "answer-001.wav"), first.Path)
	assert.FileExists(t, first.Path)

	second, err := r.Record(context.Background())
	require.NoError(t, err)
	assert.NoFileExists(t, first.Path, "previous recording is removed")
	assert.FileExists(t, second.Path)

	require.NoError(t, r.Close())
	assert.NoFileExists(t, second.Path)
	assert.DirExists(t, dir, "caller-owned dir is kept")
}

func TestCommandRecorder_TempDirRemovedOnClose(t *testing.T) {
	r, err := NewCommandRecorder(RecorderConfig{
		Command:  []string{"sh", "-c", `printf 'RIFF' > "$0"`, "{file}"},
		Duration: time.Second,
	})
	require.NoError(t, err)
	c, err := r.Record(context.Background())
	require.NoError(t, err)
	require.NoError(t, r.Close())
	_, err = os.Stat(filepath.Dir(c.Path))
	assert.True(t, os.IsNotExist(err))
}

func TestCommandRecorder_Failures(t *testing.T) {
	dir := t.TempDir()

	failing, err := NewCommandRecorder(RecorderConfig{
		Command:  []string{"sh", "-c", "echo 'no capture device' >&2; exit 1"},
		Duration: time.Second,
		Dir:      dir,
	})
	require.NoError(t, err)
	_, err = failing.Record(context.Background())
	var re *RecordingError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "no capture device", re.Output)

	empty, err := NewCommandRecorder(RecorderConfig{
		Command:  []string{"sh", "-c", `: > "$0"`, "{file}"},
		Duration: time.Second,
		Dir:      dir,
	})
	require.NoError(t, err)
	_, err = empty.Record(context.Background())
	assert.ErrorAs(t, err, &re)

	_, err = NewCommandRecorder(RecorderConfig{Command: []string{"definitely-not-a-recorder"}, Duration: time.Second})
	assert.Error(t, err)
	_, err = NewCommandRecorder(RecorderConfig{Command: []string{"sh"}})
	assert.Error(t, err)
}

func TestCommandRecorder_Canceled(t *testing.T) {
	r, err := NewCommandRecorder(RecorderConfig{
		Command:  []string{"sleep", "5"},
		Duration: time.Second,
		Dir:      t.TempDir(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = r.Record(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
