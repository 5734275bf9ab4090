// Package session drives the practice loop: pick a sentence, play a
// reference, record, transcribe, assess, report, repeat.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lexiqai/pronunciation-tutor/internal/audio"
	"github.com/lexiqai/pronunciation-tutor/internal/catalog"
	"github.com/lexiqai/pronunciation-tutor/internal/feedback"
	"github.com/lexiqai/pronunciation-tutor/internal/observability"
	"github.com/lexiqai/pronunciation-tutor/internal/speech"
)

// Prompter supplies the learner's sentence selection. io.EOF ends the session.
type Prompter interface {
	NextSelection(ctx context.Context) (string, error)
}

// Recorder blocks until the learner has produced a clip at path, or gives up.
type Recorder interface {
	AwaitRecording(ctx context.Context, path string, timeoutHint time.Duration) bool
}

// Sink receives everything the learner should see.
type Sink interface {
	Stage(state State, sentence catalog.Sentence)
	ReferenceSaved(path string)
	Problem(err error)
	Report(report feedback.Report)
	Goodbye()
}

// Options are the per-session settings taken from configuration.
type Options struct {
	Voice         string
	Speed         float64
	ReferencePath string
	RecordingPath string
	RecordWait    time.Duration
}

// Controller runs one practice iteration at a time. It is not safe for
// concurrent use, and two controllers must not share clip paths.
type Controller struct {
	catalog  *catalog.Catalog
	client   speech.Client
	prompter Prompter
	recorder Recorder
	sink     Sink
	opts     Options
	evaluate func(*speech.AssessmentResult, *speech.TranscriptionResult, string) feedback.Report

	state State

	// current iteration
	sentence      catalog.Sentence
	recording     *audio.Clip
	transcription *speech.TranscriptionResult
	assessment    *speech.AssessmentResult
	metrics       *observability.IterationMetrics
	logger        zerolog.Logger
}

// NewController wires a controller in the SelectingSentence state.
func NewController(cat *catalog.Catalog, client speech.Client, prompter Prompter, recorder Recorder, sink Sink, opts Options) *Controller {
	return &Controller{
		catalog:  cat,
		client:   client,
		prompter: prompter,
		recorder: recorder,
		sink:     sink,
		opts:     opts,
		evaluate: feedback.Evaluate,
		state:    SelectingSentence,
		logger:   observability.GetLogger(),
	}
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

// Run steps the machine until it reaches Terminated.
func (c *Controller) Run(ctx context.Context) error {
	for c.state != Terminated {
		if err := c.Step(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Step executes the current state and moves to the next one. Recoverable
// failures are reported to the sink and routed by the state rules; only an
// unreadable selection source returns an error.
func (c *Controller) Step(ctx context.Context) error {
	switch c.state {
	case SelectingSentence:
		return c.selectSentence(ctx)
	case Synthesizing:
		c.synthesize(ctx)
	case AwaitingRecording:
		c.awaitRecording(ctx)
	case Transcribing:
		c.transcribe(ctx)
	case Assessing:
		c.assess(ctx)
	case ReportingFeedback:
		c.reportFeedback()
	case Terminated:
	default:
		return fmt.Errorf("unknown session state %d", c.state)
	}
	return nil
}

// IsQuit reports whether input is a quit token.
func IsQuit(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "q", "quit", "exit":
		return true
	}
	return false
}

func (c *Controller) selectSentence(ctx context.Context) error {
	c.resetIteration()

	if err := ctx.Err(); err != nil {
		c.logger.Info().Err(err).Msg("Session cancelled")
		c.terminate()
		return nil
	}

	input, err := c.prompter.NextSelection(ctx)
	if err != nil {
		if errors.Is(err, io.EOF) {
			c.terminate()
			return nil
		}
		return fmt.Errorf("failed to read selection: %w", err)
	}

	if IsQuit(input) {
		c.terminate()
		return nil
	}

	sentence, err := c.catalog.Select(input)
	if err != nil {
		c.logger.Debug().Str("input", input).Msg("Invalid selection")
		observability.RecordError("input", "catalog")
		c.sink.Problem(err)
		return nil
	}

	c.sentence = sentence
	id := observability.NewCorrelationID()
	c.metrics = observability.NewIterationMetrics()
	c.logger = observability.WithCorrelationID(id)
	c.logger.Info().Int("sentence", sentence.Number()).Str("text", sentence.Text).Msg("Iteration started")
	c.transition(Synthesizing)
	return nil
}

// synthesize never aborts the iteration; a failure only costs the reference clip.
func (c *Controller) synthesize(ctx context.Context) {
	c.sink.Stage(Synthesizing, c.sentence)

	c.metrics.RecordStepStart(observability.StepSynthesize)
	clip, err := c.client.Synthesize(ctx, speech.SynthesisRequest{
		Text:  c.sentence.Text,
		Voice: c.opts.Voice,
		Speed: c.opts.Speed,
	})
	c.metrics.RecordStepEnd(observability.StepSynthesize, err == nil)

	if err == nil {
		err = clip.Save(c.opts.ReferencePath)
	}
	if err != nil {
		c.logger.Warn().Err(err).Msg("Reference audio unavailable, continuing")
		c.recordError(err, observability.StepSynthesize)
		c.sink.Problem(err)
	} else {
		c.logger.Debug().Str("path", clip.Path).Int("bytes", len(clip.Data)).Msg("Reference audio saved")
		c.sink.ReferenceSaved(clip.Path)
	}

	c.transition(AwaitingRecording)
}

func (c *Controller) awaitRecording(ctx context.Context) {
	c.sink.Stage(AwaitingRecording, c.sentence)

	path := c.opts.RecordingPath
	var unavailable *RecordingUnavailableError
	if !c.recorder.AwaitRecording(ctx, path, c.opts.RecordWait) {
		unavailable = &RecordingUnavailableError{Path: path}
	} else if clip, err := audio.Load(path); err != nil {
		unavailable = &RecordingUnavailableError{Path: path, Err: err}
	} else {
		c.recording = clip
		c.checkFormat(clip)
	}

	if unavailable != nil {
		c.logger.Warn().Err(unavailable).Msg("Skipping iteration, no recording")
		c.metrics.RecordError("recording_unavailable", observability.StepRecord)
		c.sink.Problem(unavailable)
		c.abort(ctx, observability.OutcomeNoRecording)
		return
	}

	c.transition(Transcribing)
}

// checkFormat only warns; the service is the judge of what it can score.
func (c *Controller) checkFormat(clip *audio.Clip) {
	f, err := clip.Format()
	if err != nil {
		c.logger.Warn().Err(err).Str("path", clip.Path).Msg("Recording is not a readable WAV file")
		return
	}
	if !f.IsExpected() {
		c.logger.Warn().Str("path", clip.Path).Str("format", f.String()).
			Msg("Recording is not 16-bit mono 16kHz PCM")
		return
	}
	c.logger.Debug().Dur("duration", f.Duration()).Msg("Recording loaded")
}

func (c *Controller) transcribe(ctx context.Context) {
	c.sink.Stage(Transcribing, c.sentence)

	c.metrics.RecordStepStart(observability.StepTranscribe)
	result, err := c.client.Transcribe(ctx, c.recording)
	c.metrics.RecordStepEnd(observability.StepTranscribe, err == nil)
	if err != nil {
		c.logger.Error().Err(err).Msg("Transcription failed")
		c.recordError(err, observability.StepTranscribe)
		c.sink.Problem(err)
		c.abort(ctx, observability.OutcomeTranscribeFailed)
		return
	}

	c.logger.Debug().Str("text", result.Text).Int("words", len(result.Words)).Msg("Transcribed")
	c.transcription = result
	c.transition(Assessing)
}

func (c *Controller) assess(ctx context.Context) {
	c.sink.Stage(Assessing, c.sentence)

	c.metrics.RecordStepStart(observability.StepAssess)
	result, err := c.client.Assess(ctx, c.recording, c.sentence.Text)
	c.metrics.RecordStepEnd(observability.StepAssess, err == nil)
	if err != nil {
		c.logger.Error().Err(err).Msg("Assessment failed")
		c.recordError(err, observability.StepAssess)
		c.sink.Problem(err)
		c.abort(ctx, observability.OutcomeAssessFailed)
		return
	}

	c.logger.Debug().Float64("overall_score", result.OverallScore).Msg("Assessed")
	c.assessment = result
	c.transition(ReportingFeedback)
}

func (c *Controller) reportFeedback() {
	report := c.evaluate(c.assessment, c.transcription, c.sentence.Text)

	c.metrics.RecordGrade(report.Grade.String())
	c.metrics.RecordOutcome(observability.OutcomeReported)
	c.logger.Info().
		Float64("overall_score", report.OverallScore).
		Str("grade", report.Grade.String()).
		Int("weak_phonemes", len(report.WeakPhonemes)).
		Msg("Iteration reported")

	c.sink.Report(report)
	c.transition(SelectingSentence)
}

func (c *Controller) recordError(err error, step string) {
	var serviceErr *speech.ServiceError
	if errors.As(err, &serviceErr) {
		c.metrics.RecordError(serviceErr.Kind(), step)
		return
	}
	c.metrics.RecordError("io", step)
}

func (c *Controller) abort(ctx context.Context, outcome string) {
	if ctx.Err() != nil {
		outcome = observability.OutcomeCancelled
	}
	c.metrics.RecordOutcome(outcome)
	c.transition(SelectingSentence)
}

func (c *Controller) terminate() {
	c.transition(Terminated)
	c.sink.Goodbye()
}

func (c *Controller) transition(next State) {
	c.logger.Debug().Str("from", c.state.String()).Str("to", next.String()).Msg("State transition")
	c.state = next
}

func (c *Controller) resetIteration() {
	c.sentence = catalog.Sentence{}
	c.recording = nil
	c.transcription = nil
	c.assessment = nil
	c.metrics = nil
	c.logger = observability.GetLogger()
}
