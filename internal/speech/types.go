package speech

import (
	"context"

	"github.com/lexiqai/pronunciation-tutor/internal/audio"
)

// SynthesisRequest describes a text-to-speech call
type SynthesisRequest struct {
	Text  string
	Voice string
	Speed float64
}

// WordTiming is a transcribed word with its position in the clip, in seconds
type WordTiming struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// TranscriptionResult represents what the transcription service heard
type TranscriptionResult struct {
	Text     string       `json:"text"`
	Language string       `json:"language"`
	Words    []WordTiming `json:"words"` // spoken order; empty when no timestamps were found
}

// PhonemeScore is the accuracy of one phoneme, 0-100
type PhonemeScore struct {
	Phoneme string  `json:"phoneme"`
	Score   float64 `json:"score"`
}

// WordScore is the accuracy of one reference word with its phoneme breakdown
type WordScore struct {
	Word     string         `json:"word"`
	Score    float64        `json:"score"`
	Phonemes []PhonemeScore `json:"phonemes"`
}

// AssessmentResult is the pronunciation score of a clip against reference text
type AssessmentResult struct {
	OverallScore float64     `json:"overallScore"`
	Words        []WordScore `json:"words"`
}

// Client is the capability interface to the three remote speech services.
// Every call is a single blocking round trip; failures are *ServiceError.
type Client interface {
	// Synthesize converts text to a WAV clip
	Synthesize(ctx context.Context, req SynthesisRequest) (*audio.Clip, error)

	// Transcribe returns the text spoken in the clip with word timestamps
	Transcribe(ctx context.Context, clip *audio.Clip) (*TranscriptionResult, error)

	// Assess scores the clip against the reference text
	Assess(ctx context.Context, clip *audio.Clip, referenceText string) (*AssessmentResult, error)
}
