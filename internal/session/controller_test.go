package session

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/lexiqai/pronunciation-tutor/internal/audio"
	"github.com/lexiqai/pronunciation-tutor/internal/catalog"
	"github.com/lexiqai/pronunciation-tutor/internal/feedback"
	"github.com/lexiqai/pronunciation-tutor/internal/observability"
	"github.com/lexiqai/pronunciation-tutor/internal/speech"
)

type fakeClient struct {
	synthErr      error
	transcribeErr error
	assessErr     error
	assessment    *speech.AssessmentResult

	synthCalls      int
	transcribeCalls int
	assessCalls     int
	assessedText    string
}

func (f *fakeClient) Synthesize(_ context.Context, req speech.SynthesisRequest) (*audio.Clip, error) {
	f.synthCalls++
	if f.synthErr != nil {
		return nil, f.synthErr
	}
	return audio.NewClip("", audio.EncodePCM16([]int16{1, 2})), nil
}

func (f *fakeClient) Transcribe(_ context.Context, clip *audio.Clip) (*speech.TranscriptionResult, error) {
	f.transcribeCalls++
	if f.transcribeErr != nil {
		return nil, f.transcribeErr
	}
	return &speech.TranscriptionResult{Text: "the quick brown fox", Language: "en"}, nil
}

func (f *fakeClient) Assess(_ context.Context, clip *audio.Clip, referenceText string) (*speech.AssessmentResult, error) {
	f.assessCalls++
	f.assessedText = referenceText
	if f.assessErr != nil {
		return nil, f.assessErr
	}
	if f.assessment != nil {
		return f.assessment, nil
	}
	return &speech.AssessmentResult{OverallScore: 80}, nil
}

type scriptedPrompter struct {
	inputs []string
	err    error
}

func (p *scriptedPrompter) NextSelection(context.Context) (string, error) {
	if len(p.inputs) == 0 {
		if p.err != nil {
			return "", p.err
		}
		return "", io.EOF
	}
	next := p.inputs[0]
	p.inputs = p.inputs[1:]
	return next, nil
}

// instantRecorder writes a clip (unless produce is false) and resolves immediately.
type instantRecorder struct {
	produce bool
	calls   int
	hint    time.Duration
}

func (r *instantRecorder) AwaitRecording(_ context.Context, path string, timeoutHint time.Duration) bool {
	r.calls++
	r.hint = timeoutHint
	if !r.produce {
		return false
	}
	return os.WriteFile(path, audio.EncodePCM16([]int16{3, 4, 5}), 0o644) == nil
}

type recordingSink struct {
	stages   []State
	saved    []string
	problems []error
	reports  []feedback.Report
	goodbyes int
}

func (s *recordingSink) Stage(state State, _ catalog.Sentence) { s.stages = append(s.stages, state) }
func (s *recordingSink) ReferenceSaved(path string)            { s.saved = append(s.saved, path) }
func (s *recordingSink) Problem(err error)                     { s.problems = append(s.problems, err) }
func (s *recordingSink) Report(r feedback.Report)              { s.reports = append(s.reports, r) }
func (s *recordingSink) Goodbye()                              { s.goodbyes++ }

type ControllerSuite struct {
	suite.Suite
	dir       string
	client    *fakeClient
	prompter  *scriptedPrompter
	recorder  *instantRecorder
	sink      *recordingSink
	evaluated int
	ctrl      *Controller
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.dir = s.T().TempDir()
	s.client = &fakeClient{}
	s.prompter = &scriptedPrompter{}
	s.recorder = &instantRecorder{produce: true}
	s.sink = &recordingSink{}
	s.evaluated = 0

	s.ctrl = NewController(catalog.Default(), s.client, s.prompter, s.recorder, s.sink, Options{
		Voice:         "af_heart",
		Speed:         0.9,
		ReferencePath: filepath.Join(s.dir, "reference_audio.wav"),
		RecordingPath: filepath.Join(s.dir, "user_recording.wav"),
		RecordWait:    5 * time.Second,
	})
	s.ctrl.evaluate = func(a *speech.AssessmentResult, t *speech.TranscriptionResult, ref string) feedback.Report {
		s.evaluated++
		return feedback.Evaluate(a, t, ref)
	}
}

func (s *ControllerSuite) step() {
	s.Require().NoError(s.ctrl.Step(context.Background()))
}

func (s *ControllerSuite) TestInitialState() {
	s.Equal(SelectingSentence, s.ctrl.State())
}

func (s *ControllerSuite) TestHappyPathVisitsEveryState() {
	s.prompter.inputs = []string{"5"}
	s.client.assessment = &speech.AssessmentResult{
		OverallScore: 92,
		Words: []speech.WordScore{{Word: "fox", Score: 95, Phonemes: []speech.PhonemeScore{
			{Phoneme: "f", Score: 98}, {Phoneme: "ks", Score: 55},
		}}},
	}

	want := []State{Synthesizing, AwaitingRecording, Transcribing, Assessing, ReportingFeedback, SelectingSentence}
	for _, next := range want {
		s.step()
		s.Equal(next, s.ctrl.State())
	}

	s.Equal(1, s.client.synthCalls)
	s.Equal(1, s.client.transcribeCalls)
	s.Equal(1, s.client.assessCalls)
	s.Equal("The quick brown fox jumps over the lazy dog.", s.client.assessedText)
	s.Equal(5*time.Second, s.recorder.hint)
	s.Equal([]string{filepath.Join(s.dir, "reference_audio.wav")}, s.sink.saved)
	s.FileExists(filepath.Join(s.dir, "reference_audio.wav"))
	s.Empty(s.sink.problems)

	s.Require().Len(s.sink.reports, 1)
	report := s.sink.reports[0]
	s.Equal(feedback.Excellent, report.Grade)
	s.Equal("the quick brown fox", report.TranscribedText)
	s.Equal([]feedback.WeakPhoneme{{Word: "fox", Phoneme: "ks", Score: 55}}, report.WeakPhonemes)
	s.Equal(feedback.TipHarderSentence, report.ClosingTip)
}

func (s *ControllerSuite) TestQuitTokensTerminate() {
	for _, token := range []string{"q", "Q", "quit", "EXIT", "  Quit  "} {
		s.SetupTest()
		s.prompter.inputs = []string{token}
		s.step()
		s.Equal(Terminated, s.ctrl.State(), "token %q", token)
		s.Equal(1, s.sink.goodbyes)
	}
}

func (s *ControllerSuite) TestQuitAfterHistoryTerminatesDirectly() {
	s.prompter.inputs = []string{"1", "nope", "2", "quit"}
	s.client.transcribeErr = &speech.ServiceError{Operation: speech.OpTranscribe, StatusCode: 500}

	s.Require().NoError(s.ctrl.Run(context.Background()))
	s.Equal(Terminated, s.ctrl.State())
	s.Equal(2, s.client.transcribeCalls)
	s.Equal(1, s.sink.goodbyes)
}

func (s *ControllerSuite) TestInvalidSelectionStaysSelecting() {
	for _, input := range []string{"0", "8", "abc", ""} {
		s.SetupTest()
		s.prompter.inputs = []string{input}
		s.step()

		s.Equal(SelectingSentence, s.ctrl.State())
		s.Require().Len(s.sink.problems, 1)
		var inputErr *catalog.InputError
		s.True(errors.As(s.sink.problems[0], &inputErr))
		s.Zero(s.client.synthCalls)
	}
}

func (s *ControllerSuite) TestSynthesisFailureContinues() {
	s.prompter.inputs = []string{"1"}
	s.client.synthErr = &speech.ServiceError{Operation: speech.OpSynthesize, StatusCode: 503}

	s.step() // select
	s.step() // synthesize
	s.Equal(AwaitingRecording, s.ctrl.State())
	s.Require().Len(s.sink.problems, 1)
	s.True(speech.IsServiceError(s.sink.problems[0]))
	s.Empty(s.sink.saved)

	for s.ctrl.State() != SelectingSentence {
		s.step()
	}
	s.Len(s.sink.reports, 1)
}

func (s *ControllerSuite) TestNoRecordingAbortsIteration() {
	s.prompter.inputs = []string{"1"}
	s.recorder.produce = false

	s.step()
	s.step()
	s.step() // await recording
	s.Equal(SelectingSentence, s.ctrl.State())
	s.Equal(1, s.recorder.calls)
	s.Zero(s.client.transcribeCalls)
	s.Zero(s.client.assessCalls)
	s.Zero(s.evaluated)

	s.Require().Len(s.sink.problems, 1)
	var unavailable *RecordingUnavailableError
	s.Require().True(errors.As(s.sink.problems[0], &unavailable))
	s.Equal(filepath.Join(s.dir, "user_recording.wav"), unavailable.Path)
	s.Equal(observability.OutcomeNoRecording, s.ctrl.metrics.Outcome())
}

func (s *ControllerSuite) TestCancelledDuringRecordingRecordsCancelledOutcome() {
	s.prompter.inputs = []string{"2"}
	s.recorder.produce = false

	s.step()
	s.step()
	s.Empty(s.ctrl.metrics.Outcome())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Require().NoError(s.ctrl.Step(ctx))

	s.Equal(SelectingSentence, s.ctrl.State())
	s.Equal(observability.OutcomeCancelled, s.ctrl.metrics.Outcome())
	s.Zero(s.client.transcribeCalls)

	s.Require().NoError(s.ctrl.Step(ctx))
	s.Equal(Terminated, s.ctrl.State())
}

func (s *ControllerSuite) TestEmptyRecordingFileAbortsIteration() {
	s.prompter.inputs = []string{"1"}
	s.ctrl.recorder = recorderFunc(func(path string) bool {
		return os.WriteFile(path, nil, 0o644) == nil
	})

	s.step()
	s.step()
	s.step()
	s.Equal(SelectingSentence, s.ctrl.State())
	s.Require().Len(s.sink.problems, 1)
	s.ErrorIs(s.sink.problems[0], audio.ErrEmptyClip)
	s.Zero(s.client.transcribeCalls)
}

func (s *ControllerSuite) TestTranscriptionFailureSkipsAssessmentAndFeedback() {
	s.prompter.inputs = []string{"3"}
	s.client.transcribeErr = &speech.ServiceError{Operation: speech.OpTranscribe, Err: errors.New("connection refused")}

	s.step()
	s.step()
	s.step()
	s.Equal(Transcribing, s.ctrl.State())
	s.step()

	s.Equal(SelectingSentence, s.ctrl.State())
	s.Zero(s.client.assessCalls)
	s.Zero(s.evaluated)
	s.Empty(s.sink.reports)
	s.Require().Len(s.sink.problems, 1)
	s.True(speech.IsServiceError(s.sink.problems[0]))
}

func (s *ControllerSuite) TestAssessmentFailureSkipsFeedback() {
	s.prompter.inputs = []string{"3"}
	s.client.assessErr = &speech.ServiceError{Operation: speech.OpAssess, StatusCode: 400, Body: "bad audio"}

	for i := 0; i < 5; i++ {
		s.step()
	}
	s.Equal(SelectingSentence, s.ctrl.State())
	s.Equal(1, s.client.assessCalls)
	s.Zero(s.evaluated)
	s.Empty(s.sink.reports)
	s.Len(s.sink.problems, 1)
}

func (s *ControllerSuite) TestEOFTerminates() {
	s.Require().NoError(s.ctrl.Run(context.Background()))
	s.Equal(Terminated, s.ctrl.State())
	s.Equal(1, s.sink.goodbyes)
}

func (s *ControllerSuite) TestPrompterErrorIsReturned() {
	s.prompter.err = errors.New("stdin closed badly")

	err := s.ctrl.Run(context.Background())
	s.Error(err)
	s.Equal(SelectingSentence, s.ctrl.State())
}

func (s *ControllerSuite) TestCancelledContextTerminatesAtSelection() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.prompter.inputs = []string{"1"}

	s.Require().NoError(s.ctrl.Run(ctx))
	s.Equal(Terminated, s.ctrl.State())
	s.Zero(s.client.synthCalls)
}

func (s *ControllerSuite) TestStagesAnnouncedInOrder() {
	s.prompter.inputs = []string{"2", "q"}
	s.Require().NoError(s.ctrl.Run(context.Background()))

	s.Equal([]State{Synthesizing, AwaitingRecording, Transcribing, Assessing}, s.sink.stages)
}

type recorderFunc func(path string) bool

func (f recorderFunc) AwaitRecording(_ context.Context, path string, _ time.Duration) bool {
	return f(path)
}

func TestIsQuit(t *testing.T) {
	for _, in := range []string{"q", "Q", "quit", "QUIT", "exit", " Exit\n"} {
		assert.True(t, IsQuit(in), in)
	}
	for _, in := range []string{"", "1", "qq", "quitting", "bye"} {
		assert.False(t, IsQuit(in), in)
	}
}

func TestStateStrings(t *testing.T) {
	require.Equal(t, "selecting_sentence", SelectingSentence.String())
	require.Equal(t, "terminated", Terminated.String())
	require.Equal(t, "unknown", State(42).String())
}
