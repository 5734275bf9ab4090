package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Step names used as metric labels
const (
	StepSynthesize = "synthesize"
	StepRecord     = "record"
	StepTranscribe = "transcribe"
	StepAssess     = "assess"
)

// Iteration outcomes
const (
	OutcomeReported         = "reported"
	OutcomeNoRecording      = "no_recording"
	OutcomeTranscribeFailed = "transcribe_failed"
	OutcomeAssessFailed     = "assess_failed"
	OutcomeCancelled        = "cancelled"
)

var (
	iterationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pronunciation_tutor_iterations_total",
		Help: "Practice iterations by outcome",
	}, []string{"outcome"})

	iterationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pronunciation_tutor_iteration_duration_seconds",
		Help:    "Wall time of a practice iteration, recording wait included",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
	})

	speechRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pronunciation_tutor_speech_requests_total",
		Help: "Remote speech service calls",
	}, []string{"operation", "status"})

	speechLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pronunciation_tutor_speech_latency_seconds",
		Help:    "Remote speech service latency in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
	}, []string{"operation"})

	gradesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pronunciation_tutor_grades_total",
		Help: "Feedback reports by grade band",
	}, []string{"grade"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pronunciation_tutor_errors_total",
		Help: "Recovered errors surfaced to the learner",
	}, []string{"type", "component"})
)

// IterationMetrics tracks metrics for a single practice iteration.
// The session is single-threaded so no locking is needed.
type IterationMetrics struct {
	startTime time.Time
	stepStart map[string]time.Time
	outcome   string
}

// NewIterationMetrics creates a new metrics tracker for an iteration
func NewIterationMetrics() *IterationMetrics {
	return &IterationMetrics{
		startTime: time.Now(),
		stepStart: make(map[string]time.Time),
	}
}

// RecordStepStart records the start of a remote call
func (m *IterationMetrics) RecordStepStart(step string) {
	m.stepStart[step] = time.Now()
}

// RecordStepEnd records the end of a remote call
func (m *IterationMetrics) RecordStepEnd(step string, success bool) {
	if start, ok := m.stepStart[step]; ok {
		speechLatency.WithLabelValues(step).Observe(time.Since(start).Seconds())
		delete(m.stepStart, step)
	}

	status := "success"
	if !success {
		status = "error"
	}
	speechRequests.WithLabelValues(step, status).Inc()
}

// RecordOutcome closes the iteration
func (m *IterationMetrics) RecordOutcome(outcome string) {
	m.outcome = outcome
	iterationsTotal.WithLabelValues(outcome).Inc()
	iterationDuration.Observe(time.Since(m.startTime).Seconds())
}

// RecordGrade counts a produced report
func (m *IterationMetrics) RecordGrade(grade string) {
	gradesTotal.WithLabelValues(grade).Inc()
}

// RecordError records a recovered error
func (m *IterationMetrics) RecordError(errorType, component string) {
	RecordError(errorType, component)
}

// RecordError records a recovered error outside any iteration
func RecordError(errorType, component string) {
	errorsTotal.WithLabelValues(errorType, component).Inc()
}

// Outcome returns the recorded outcome, empty while the iteration is running
func (m *IterationMetrics) Outcome() string {
	return m.outcome
}
