package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// LinePrompter reads one selection per line.
type LinePrompter struct {
	in     *bufio.Reader
	out    io.Writer
	prompt string
}

// NewLinePrompter shares in with any other console reader of the same stream.
func NewLinePrompter(in *bufio.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{
		in:     in,
		out:    out,
		prompt: "Pick a sentence number (or 'q' to quit) > ",
	}
}

// NextSelection prints the prompt and returns the trimmed line.
func (p *LinePrompter) NextSelection(_ context.Context) (string, error) {
	fmt.Fprintf(p.out, "\n%s", p.prompt)
	return readLine(p.in)
}

// ConsoleRecorder is the manual recording gate: the learner records with
// any tool, saves the WAV at the given path and confirms with Enter.
type ConsoleRecorder struct {
	in   *bufio.Reader
	out  io.Writer
	tick time.Duration
}

// NewConsoleRecorder creates a recorder counting down once per second.
func NewConsoleRecorder(in *bufio.Reader, out io.Writer) *ConsoleRecorder {
	return &ConsoleRecorder{in: in, out: out, tick: time.Second}
}

// AwaitRecording counts down timeoutHint, waits for confirmation and checks
// the file exists.
func (r *ConsoleRecorder) AwaitRecording(ctx context.Context, path string, timeoutHint time.Duration) bool {
	seconds := int(timeoutHint / time.Second)

	fmt.Fprintf(r.out, "\n  [Recording, %ds]\n", seconds)
	fmt.Fprintf(r.out, "  Place your WAV file (16-bit, mono, 16 kHz) at: %s\n", path)
	fmt.Fprintln(r.out, "  Then press Enter to continue...")

	if seconds > 0 {
		ticker := time.NewTicker(r.tick)
		defer ticker.Stop()
		for remaining := seconds; remaining > 0; remaining-- {
			fmt.Fprintf(r.out, "    %d...", remaining)
			select {
			case <-ctx.Done():
				fmt.Fprintln(r.out)
				return false
			case <-ticker.C:
			}
		}
		fmt.Fprintln(r.out)
	}

	// Closed input is not a confirmation; a file left from an earlier
	// iteration must not be scored against this sentence.
	fmt.Fprint(r.out, "  Press Enter when your recording is ready > ")
	if _, err := r.in.ReadString('\n'); err != nil {
		fmt.Fprintln(r.out)
		return false
	}

	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// readLine returns the next line without its terminator. A final line
// without a newline is returned with a nil error.
func readLine(in *bufio.Reader) (string, error) {
	line, err := in.ReadString('\n')
	if err != nil {
		if err == io.EOF && line != "" {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}
