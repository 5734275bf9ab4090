package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// APIKeyEnv is the environment variable holding the speech API subscription key.
const APIKeyEnv = "SPEECH_AI_API_KEY"

// Config holds all configuration for the pronunciation tutor
type Config struct {
	// Speech AI API configuration
	APIKey         string `envconfig:"SPEECH_AI_API_KEY" required:"true"`
	BaseURL        string `envconfig:"SPEECH_AI_BASE_URL" default:"https://apim-ai-apis.azure-api.net"`
	RequestTimeout int    `envconfig:"SPEECH_AI_TIMEOUT" default:"30"` // seconds, per remote call

	// Reference audio synthesis
	Voice string  `envconfig:"TUTOR_VOICE" default:"af_heart"`
	Speed float64 `envconfig:"TUTOR_SPEED" default:"0.9"`

	// Clip locations, overwritten every iteration
	ReferencePath string `envconfig:"TUTOR_REFERENCE_PATH" default:"reference_audio.wav"`
	RecordingPath string `envconfig:"TUTOR_RECORDING_PATH" default:"user_recording.wav"`
	RecordSeconds int    `envconfig:"TUTOR_RECORD_SECONDS" default:"5"` // countdown before the confirmation gate

	// Optional TOML file replacing the built-in sentence list
	SentencesFile string `envconfig:"TUTOR_SENTENCES_FILE" default:""`

	// Observability configuration
	LogLevel    string `envconfig:"LOG_LEVEL" default:"warn"`  // Log level: debug, info, warn, error
	LogPretty   bool   `envconfig:"LOG_PRETTY" default:"true"` // Console writer instead of JSON
	MetricsAddr string `envconfig:"METRICS_ADDR" default:""`   // e.g. :9090; empty disables the listener
}

// ConfigurationError reports configuration that makes startup impossible.
type ConfigurationError struct {
	Key string
	Err error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error (%s): %v", e.Key, e.Err)
	}
	return fmt.Sprintf("configuration error: %s is required", e.Key)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Load reads configuration from environment variables
// It first attempts to load from .env file if it exists, then from environment
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	return LoadFromEnv()
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load .env file
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		if os.Getenv(APIKeyEnv) == "" {
			return nil, &ConfigurationError{Key: APIKeyEnv}
		}
		return nil, &ConfigurationError{Key: "environment", Err: err}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// catalogConfig is the subset of Config needed without credentials
type catalogConfig struct {
	SentencesFile string `envconfig:"TUTOR_SENTENCES_FILE" default:""`
}

// LoadSentencesFile returns TUTOR_SENTENCES_FILE after the same .env preload
// as Load, without requiring the API key
func LoadSentencesFile() (string, error) {
	_ = godotenv.Load()

	var cfg catalogConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return "", &ConfigurationError{Key: "TUTOR_SENTENCES_FILE", Err: err}
	}
	return cfg.SentencesFile, nil
}

// Validate checks values envconfig cannot express as tags
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return &ConfigurationError{Key: APIKeyEnv}
	}
	if c.BaseURL == "" {
		return &ConfigurationError{Key: "SPEECH_AI_BASE_URL"}
	}
	if c.RequestTimeout <= 0 {
		return &ConfigurationError{Key: "SPEECH_AI_TIMEOUT", Err: fmt.Errorf("must be positive, got %d", c.RequestTimeout)}
	}
	if c.Speed <= 0 {
		return &ConfigurationError{Key: "TUTOR_SPEED", Err: fmt.Errorf("must be positive, got %g", c.Speed)}
	}
	if c.RecordSeconds < 0 {
		return &ConfigurationError{Key: "TUTOR_RECORD_SECONDS", Err: fmt.Errorf("must not be negative, got %d", c.RecordSeconds)}
	}
	return nil
}

// Timeout returns the per-call timeout for the speech services
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// RecordWait returns the countdown shown before the recording gate
func (c *Config) RecordWait() time.Duration {
	return time.Duration(c.RecordSeconds) * time.Second
}
