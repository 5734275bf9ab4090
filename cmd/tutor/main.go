// Package main provides the CLI entrypoint for the pronunciation tutor.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lexiqai/pronunciation-tutor/internal/audio"
	"github.com/lexiqai/pronunciation-tutor/internal/catalog"
	"github.com/lexiqai/pronunciation-tutor/internal/config"
	"github.com/lexiqai/pronunciation-tutor/internal/observability"
	"github.com/lexiqai/pronunciation-tutor/internal/report"
	"github.com/lexiqai/pronunciation-tutor/internal/session"
	"github.com/lexiqai/pronunciation-tutor/internal/speech"
)

const defaultSpeakOutput = "output_tts.wav"

var (
	flagVoice     string
	flagSpeed     float64
	flagSentences string
	flagLogLevel  string
	flagOutput    string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var cfgErr *config.ConfigurationError
		if errors.As(err, &cfgErr) && cfgErr.Key == config.APIKeyEnv {
			fmt.Fprintf(os.Stderr, "  export %s='your-subscription-key'\n", config.APIKeyEnv)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tutor",
		Short:         "Interactive pronunciation practice with graded feedback",
		Version:       observability.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          runPracticeCmd,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagVoice, "voice", "", "TTS voice (default from TUTOR_VOICE)")
	flags.Float64Var(&flagSpeed, "speed", 0, "TTS speed multiplier (default from TUTOR_SPEED)")
	flags.StringVar(&flagSentences, "sentences", "", "TOML file with a custom sentence list")
	flags.StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")

	rootCmd.AddCommand(newSentencesCmd())
	rootCmd.AddCommand(newSpeakCmd())
	rootCmd.AddCommand(newTranscribeCmd())
	rootCmd.AddCommand(newAssessCmd())

	return rootCmd
}

// loadConfig reads the environment, applies flag overrides and starts logging.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	applyStringFlag(cmd, "voice", &cfg.Voice, flagVoice)
	applyFloatFlag(cmd, "speed", &cfg.Speed, flagSpeed)
	applyStringFlag(cmd, "sentences", &cfg.SentencesFile, flagSentences)
	applyStringFlag(cmd, "log-level", &cfg.LogLevel, flagLogLevel)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}

	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()
	logger.Debug().
		Str("base_url", cfg.BaseURL).
		Dur("timeout", cfg.Timeout()).
		Str("voice", cfg.Voice).
		Float64("speed", cfg.Speed).
		Msg("Configuration loaded")
	return cfg, nil
}

func applyStringFlag(cmd *cobra.Command, name string, target *string, value string) {
	if cmd.Flags().Changed(name) {
		*target = value
	}
}

func applyFloatFlag(cmd *cobra.Command, name string, target *float64, value float64) {
	if cmd.Flags().Changed(name) {
		*target = value
	}
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if cfg.MetricsAddr != "" {
		shutdown := observability.StartServer(cfg.MetricsAddr)
		defer shutdown()
	}

	cat, err := catalog.Open(cfg.SentencesFile)
	if err != nil {
		return fmt.Errorf("failed to load sentences: %w", err)
	}

	out := cmd.OutOrStdout()
	in := bufio.NewReader(cmd.InOrStdin())
	console := report.NewConsole(out)
	console.Welcome(cat.All())

	ctrl := session.NewController(
		cat,
		speech.NewHTTPClient(cfg),
		session.NewLinePrompter(in, out),
		session.NewConsoleRecorder(in, out),
		console,
		session.Options{
			Voice:         cfg.Voice,
			Speed:         cfg.Speed,
			ReferencePath: cfg.ReferencePath,
			RecordingPath: cfg.RecordingPath,
			RecordWait:    cfg.RecordWait(),
		},
	)
	return ctrl.Run(cmd.Context())
}

func newSentencesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sentences",
		Short: "List the practice sentences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := config.LoadSentencesFile()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if cmd.Flags().Changed("sentences") {
				path = flagSentences
			}
			cat, err := catalog.Open(path)
			if err != nil {
				return fmt.Errorf("failed to load sentences: %w", err)
			}
			report.NewConsole(cmd.OutOrStdout()).Sentences(cat.All())
			return nil
		},
	}
}

func newSpeakCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "speak <text>",
		Short: "Synthesize text to a WAV file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			text := strings.Join(args, " ")
			clip, err := speech.NewHTTPClient(cfg).Synthesize(cmd.Context(), speech.SynthesisRequest{
				Text:  text,
				Voice: cfg.Voice,
				Speed: cfg.Speed,
			})
			if err != nil {
				return err
			}
			if err := clip.Save(flagOutput); err != nil {
				return err
			}
			report.NewConsole(cmd.OutOrStdout()).Synthesis(text, cfg.Voice, cfg.Speed, clip.Path, len(clip.Data))
			return nil
		},
	}
	cmd.Flags().StringVarP(&flagOutput, "output", "o", defaultSpeakOutput, "where to write the WAV file")
	return cmd
}

func newTranscribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transcribe <file.wav>",
		Short: "Transcribe a WAV file with word timestamps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			clip, err := audio.Load(args[0])
			if err != nil {
				return err
			}
			result, err := speech.NewHTTPClient(cfg).Transcribe(cmd.Context(), clip)
			if err != nil {
				return err
			}
			report.NewConsole(cmd.OutOrStdout()).Transcription(result)
			return nil
		},
	}
}

func newAssessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assess <file.wav> <reference text>",
		Short: "Score the pronunciation in a WAV file against reference text",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			clip, err := audio.Load(args[0])
			if err != nil {
				return err
			}
			reference := strings.Join(args[1:], " ")
			result, err := speech.NewHTTPClient(cfg).Assess(cmd.Context(), clip, reference)
			if err != nil {
				return err
			}
			report.NewConsole(cmd.OutOrStdout()).Assessment(reference, result)
			return nil
		},
	}
}
