// Package report renders practice output for a terminal.
package report

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lexiqai/pronunciation-tutor/internal/catalog"
	"github.com/lexiqai/pronunciation-tutor/internal/feedback"
	"github.com/lexiqai/pronunciation-tutor/internal/session"
	"github.com/lexiqai/pronunciation-tutor/internal/speech"
)

const ruleWidth = 60

type styles struct {
	title   lipgloss.Style
	label   lipgloss.Style
	flagged lipgloss.Style
	problem lipgloss.Style
	tip     lipgloss.Style
	grades  map[feedback.Grade]lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title:   r.NewStyle().Bold(true),
		label:   r.NewStyle().Faint(true),
		flagged: r.NewStyle().Foreground(lipgloss.Color("9")),
		problem: r.NewStyle().Foreground(lipgloss.Color("11")),
		tip:     r.NewStyle().Italic(true),
		grades: map[feedback.Grade]lipgloss.Style{
			feedback.Excellent:      r.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
			feedback.Good:           r.NewStyle().Foreground(lipgloss.Color("10")),
			feedback.Fair:           r.NewStyle().Foreground(lipgloss.Color("11")),
			feedback.NeedsWork:      r.NewStyle().Foreground(lipgloss.Color("208")),
			feedback.KeepPracticing: r.NewStyle().Foreground(lipgloss.Color("9")),
		},
	}
}

// Console writes everything the learner sees. It implements session.Sink.
type Console struct {
	out    io.Writer
	styles styles
}

var _ session.Sink = (*Console)(nil)

// NewConsole styles output for out; colors are dropped when out is not a terminal.
func NewConsole(out io.Writer) *Console {
	return &Console{out: out, styles: newStyles(lipgloss.NewRenderer(out))}
}

func (c *Console) printf(format string, args ...interface{}) {
	fmt.Fprintf(c.out, format, args...)
}

func (c *Console) section(title string) {
	rule := strings.Repeat("=", ruleWidth)
	c.printf("%s\n  %s\n%s\n", rule, c.styles.title.Render(title), rule)
}

// Welcome prints the banner and the numbered sentence list.
func (c *Console) Welcome(sentences []catalog.Sentence) {
	c.section("PRONUNCIATION TUTOR")
	c.printf("  Practice your English pronunciation with AI feedback\n")
	c.printf("\nAvailable sentences:\n\n")
	c.Sentences(sentences)
}

// Sentences prints the 1-based list.
func (c *Console) Sentences(sentences []catalog.Sentence) {
	for _, s := range sentences {
		c.printf("  %d. %s\n", s.Number(), s.Text)
	}
}

// Stage announces the step about to run.
func (c *Console) Stage(state session.State, sentence catalog.Sentence) {
	switch state {
	case session.Synthesizing:
		c.printf("\n  Target: %q\n", sentence.Text)
		c.printf("\n  Step 1: Generating reference audio...\n")
	case session.AwaitingRecording:
		c.printf("\n  Step 2: Record yourself saying the sentence.\n")
	case session.Transcribing:
		c.printf("\n  Step 3: Transcribing your recording...\n")
	case session.Assessing:
		c.printf("  Step 4: Scoring pronunciation...\n")
	}
}

// ReferenceSaved tells the learner where the reference clip is.
func (c *Console) ReferenceSaved(path string) {
	c.printf("  Reference audio saved to: %s\n", path)
	c.printf("  (Play this file to hear the correct pronunciation)\n")
}

// Problem surfaces a recovered error.
func (c *Console) Problem(err error) {
	c.printf("  %s\n", c.styles.problem.Render(describeProblem(err)))
}

func describeProblem(err error) string {
	var (
		inputErr    *catalog.InputError
		serviceErr  *speech.ServiceError
		unavailable *session.RecordingUnavailableError
	)
	switch {
	case errors.As(err, &inputErr):
		return inputErr.Error()
	case errors.As(err, &unavailable):
		return fmt.Sprintf("%v\n  Skipping, no recording found.", unavailable)
	case errors.As(err, &serviceErr):
		switch serviceErr.Operation {
		case speech.OpSynthesize:
			return fmt.Sprintf("TTS error: %v\n  Could not generate reference audio. Continuing anyway...", serviceErr)
		case speech.OpTranscribe:
			return fmt.Sprintf("STT error: %v", serviceErr)
		case speech.OpAssess:
			return fmt.Sprintf("Assessment error: %v", serviceErr)
		}
		return serviceErr.Error()
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}

// Report prints the full pronunciation report.
func (c *Console) Report(r feedback.Report) {
	c.printf("\n")
	c.section("PRONUNCIATION REPORT")

	grade := c.styles.grades[r.Grade].Render(r.Grade.String())
	c.printf("\n  %s : %.1f / 100  (%s)\n", c.styles.label.Render("Overall Score"), r.OverallScore, grade)
	c.printf("  %s : %s\n", c.styles.label.Render("Target       "), r.ReferenceText)
	c.printf("  %s : %s\n", c.styles.label.Render("You Said     "), r.TranscribedText)

	rows := make([][]string, 0, len(r.Words))
	for _, w := range r.Words {
		details := "[" + formatPhonemes(w.Phonemes) + "]"
		if w.Flagged {
			details += " *"
		}
		rows = append(rows, []string{w.Word, fmt.Sprintf("%.1f", w.Score), details})
	}
	if len(rows) > 0 {
		c.printf("\n")
		lines := formatTable([]string{"WORD", "SCORE", "PHONEME DETAILS"}, rows, map[int]bool{1: true})
		for i, line := range lines {
			// rows start after header and rule
			if i >= 2 && r.Words[i-2].Flagged {
				line = c.styles.flagged.Render(line)
			}
			c.printf("  %s\n", line)
		}
	}

	if len(r.WeakPhonemes) > 0 {
		c.printf("\n  %s\n", c.styles.title.Render("FOCUS AREAS:"))
		for _, p := range r.WeakPhonemes {
			c.printf("    - '%s' in '%s' (score: %.0f): practice this sound slowly\n", p.Phoneme, p.Word, p.Score)
		}
	}

	c.printf("\n  %s\n\n", c.styles.tip.Render(r.ClosingTip))
}

// Goodbye ends the session.
func (c *Console) Goodbye() {
	c.printf("\nKeep practicing! Goodbye.\n\n")
}

// Synthesis describes a saved text-to-speech clip.
func (c *Console) Synthesis(text, voice string, speed float64, path string, size int) {
	c.section("Text-to-Speech (Synthesis)")
	c.printf("\nText     : %s\n", text)
	c.printf("Voice    : %s\n", voice)
	c.printf("Speed    : %gx\n", speed)
	c.printf("Saved to : %s (%.1f KB)\n", path, float64(size)/1024)
}

// Transcription prints a transcription with word timings.
func (c *Console) Transcription(result *speech.TranscriptionResult) {
	c.section("Speech-to-Text (Transcription)")
	language := result.Language
	if language == "" {
		language = "unknown"
	}
	c.printf("\nTranscription : %s\n", result.Text)
	c.printf("Language      : %s\n", language)
	if len(result.Words) == 0 {
		return
	}
	c.printf("\n")
	rows := make([][]string, 0, len(result.Words))
	for _, w := range result.Words {
		rows = append(rows, []string{w.Word, fmt.Sprintf("%.2fs", w.Start), fmt.Sprintf("%.2fs", w.End)})
	}
	for _, line := range formatTable([]string{"WORD", "START", "END"}, rows, map[int]bool{1: true, 2: true}) {
		c.printf("  %s\n", line)
	}
}

// Assessment prints raw assessment scores without grading.
func (c *Console) Assessment(referenceText string, result *speech.AssessmentResult) {
	c.section("Pronunciation Assessment")
	c.printf("\nReference text : %s\n", referenceText)
	c.printf("Overall score  : %.1f\n", result.OverallScore)
	if len(result.Words) == 0 {
		return
	}
	c.printf("\n")
	rows := make([][]string, 0, len(result.Words))
	for _, w := range result.Words {
		rows = append(rows, []string{w.Word, fmt.Sprintf("%.1f", w.Score), "[" + formatPhonemes(w.Phonemes) + "]"})
	}
	for _, line := range formatTable([]string{"WORD", "SCORE", "PHONEMES"}, rows, map[int]bool{1: true}) {
		c.printf("  %s\n", line)
	}
}

func formatPhonemes(phonemes []speech.PhonemeScore) string {
	parts := make([]string, len(phonemes))
	for i, p := range phonemes {
		parts[i] = fmt.Sprintf("%s=%.0f", p.Phoneme, p.Score)
	}
	return strings.Join(parts, ", ")
}
