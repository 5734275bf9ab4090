package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/lexiqai/pronunciation-tutor/internal/audio"
	"github.com/lexiqai/pronunciation-tutor/internal/config"
	"github.com/lexiqai/pronunciation-tutor/internal/observability"
)

// Operation names carried by ServiceError
const (
	OpSynthesize = "synthesize"
	OpTranscribe = "transcribe"
	OpAssess     = "assess"
)

const (
	subscriptionKeyHeader = "Ocp-Apim-Subscription-Key"

	synthesizePath = "/tts/synthesize"
	transcribePath = "/stt/transcribe/base64"
	assessPath     = "/pronunciation/assess/base64"

	// Error bodies are echoed to the learner; keep them short
	maxErrorBody = 512
)

// HTTPClient implements Client against the Speech AI REST endpoints
type HTTPClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

type synthesizeRequest struct {
	Text   string  `json:"text"`
	Voice  string  `json:"voice"`
	Speed  float64 `json:"speed"`
	Format string  `json:"format"`
}

type transcribeRequest struct {
	Audio             string `json:"audio"`
	IncludeTimestamps bool   `json:"include_timestamps"`
}

type assessRequest struct {
	Audio  string `json:"audio"`
	Text   string `json:"text"`
	Format string `json:"format"`
}

// NewHTTPClient creates a client using the credential, base URL and timeout from cfg
func NewHTTPClient(cfg *config.Config) *HTTPClient {
	return &HTTPClient{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout()},
	}
}

// Synthesize requests WAV audio for the given text
func (c *HTTPClient) Synthesize(ctx context.Context, req SynthesisRequest) (*audio.Clip, error) {
	body, err := c.post(ctx, OpSynthesize, synthesizePath, synthesizeRequest{
		Text:   req.Text,
		Voice:  req.Voice,
		Speed:  req.Speed,
		Format: "wav",
	})
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, &ServiceError{Operation: OpSynthesize, Err: audio.ErrEmptyClip}
	}
	return audio.NewClip("", body), nil
}

// Transcribe sends the clip as base64 and asks for word timestamps
func (c *HTTPClient) Transcribe(ctx context.Context, clip *audio.Clip) (*TranscriptionResult, error) {
	body, err := c.post(ctx, OpTranscribe, transcribePath, transcribeRequest{
		Audio:             clip.Base64(),
		IncludeTimestamps: true,
	})
	if err != nil {
		return nil, err
	}

	var result TranscriptionResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &ServiceError{Operation: OpTranscribe, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	for i := range result.Words {
		result.Words[i] = normalizeTiming(result.Words[i])
	}
	return &result, nil
}

// normalizeTiming keeps start >= 0 and end >= start.
func normalizeTiming(w WordTiming) WordTiming {
	if w.Start < 0 {
		w.Start = 0
	}
	if w.End < w.Start {
		w.End = w.Start
	}
	return w
}

// Assess scores the clip against referenceText
func (c *HTTPClient) Assess(ctx context.Context, clip *audio.Clip, referenceText string) (*AssessmentResult, error) {
	body, err := c.post(ctx, OpAssess, assessPath, assessRequest{
		Audio:  clip.Base64(),
		Text:   referenceText,
		Format: "wav",
	})
	if err != nil {
		return nil, err
	}

	var result AssessmentResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &ServiceError{Operation: OpAssess, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return &result, nil
}

// post performs one JSON round trip. Exactly one attempt is made.
func (c *HTTPClient) post(ctx context.Context, op, path string, payload interface{}) ([]byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, &ServiceError{Operation: op, Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return nil, &ServiceError{Operation: op, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(subscriptionKeyHeader, c.apiKey)

	logger := observability.GetLogger()
	logger.Debug().Str("operation", op).Str("url", req.URL.String()).Int("request_bytes", len(jsonData)).Msg("Calling speech service")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ServiceError{Operation: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &ServiceError{
			Operation:  op,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ServiceError{Operation: op, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	logger.Debug().Str("operation", op).Int("status", resp.StatusCode).Int("response_bytes", len(body)).Msg("Speech service responded")
	return body, nil
}
