package session

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinePrompter(t *testing.T) {
	var out bytes.Buffer
	p := NewLinePrompter(bufio.NewReader(strings.NewReader(" 3 \nq")), &out)

	got, err := p.NextSelection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "3", got)
	assert.Contains(t, out.String(), "Pick a sentence number (or 'q' to quit) > ")

	got, err = p.NextSelection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "q", got)

	_, err = p.NextSelection(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestConsoleRecorder_FileProduced(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_recording.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFF"), 0o644))

	var out bytes.Buffer
	r := NewConsoleRecorder(bufio.NewReader(strings.NewReader("\n")), &out)
	r.tick = time.Millisecond

	assert.True(t, r.AwaitRecording(context.Background(), path, 3*time.Second))
	assert.Contains(t, out.String(), "3...")
	assert.Contains(t, out.String(), "1...")
	assert.Contains(t, out.String(), path)
	assert.Contains(t, out.String(), "Press Enter when your recording is ready")
}

func TestConsoleRecorder_FileMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_recording.wav")

	r := NewConsoleRecorder(bufio.NewReader(strings.NewReader("\n")), io.Discard)
	assert.False(t, r.AwaitRecording(context.Background(), path, 0))
}

func TestConsoleRecorder_CancelledDuringCountdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_recording.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFF"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewConsoleRecorder(bufio.NewReader(strings.NewReader("\n")), io.Discard)
	r.tick = time.Hour
	assert.False(t, r.AwaitRecording(ctx, path, 5*time.Second))
}

func TestConsoleRecorder_ClosedInputIsNotConfirmation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_recording.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFF"), 0o644))

	for _, input := range []string{"", "no newline"} {
		r := NewConsoleRecorder(bufio.NewReader(strings.NewReader(input)), io.Discard)
		assert.False(t, r.AwaitRecording(context.Background(), path, 0), "input %q", input)
	}
}
