package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"llm":      {"openai", "anthropic", "ollama", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile"},
	"stt":      {"whisper", "whisper-native", "openai"},
	"tts":      {"elevenlabs"},
	"classify": {"mediapipe"},
}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader] and
// [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
//
// ${VAR} references anywhere in the document are replaced from the process
// environment before decoding, so credentials can live in the environment (or
// a .env file) instead of the config file.
func LoadFromReader(r io.Reader) (*Config, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("config: read: %w", err)
	}
	expanded := os.ExpandEnv(string(raw))

	cfg := &Config{}
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.TLS != nil {
		if cfg.Server.TLS.CertFile == "" || cfg.Server.TLS.KeyFile == "" {
			errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
		}
	}

	// Provider name validation — warn for unknown provider names.
	validateProviderName("llm", cfg.Providers.LLM.Name)
	validateProviderName("stt", cfg.Providers.STT.Name)
	validateProviderName("tts", cfg.Providers.TTS.Name)
	validateProviderName("classify", cfg.Providers.Classify.Name)

	// Provider availability warnings. Missing providers disable the capture
	// modality that depends on them rather than failing startup.
	if cfg.Providers.LLM.Name == "" {
		slog.Warn("no LLM provider configured; chat requests will be rejected")
	}
	if cfg.Providers.STT.Name == "" {
		slog.Warn("no STT provider configured; voice capture will be disabled")
	}
	if cfg.Providers.Classify.Name == "" {
		slog.Warn("no gesture classifier configured; gesture capture will be disabled")
	}
	if cfg.Chat.SpeakReplies && cfg.Providers.TTS.Name == "" {
		slog.Warn("chat.speak_replies is set but no TTS provider is configured; replies will be text-only")
	}

	// Voice thresholds
	if cfg.Voice.VolumeThreshold < 0 {
		errs = append(errs, fmt.Errorf("voice.volume_threshold %d must not be negative", cfg.Voice.VolumeThreshold))
	}
	if cfg.Voice.SilenceThreshold < 0 {
		errs = append(errs, fmt.Errorf("voice.silence_threshold %s must not be negative", cfg.Voice.SilenceThreshold.Std()))
	}
	if cfg.Voice.InactivityTimeout < 0 {
		errs = append(errs, fmt.Errorf("voice.inactivity_timeout %s must not be negative", cfg.Voice.InactivityTimeout.Std()))
	}
	if cfg.Voice.MinFrames < 0 {
		errs = append(errs, fmt.Errorf("voice.min_frames %d must not be negative", cfg.Voice.MinFrames))
	}
	if cfg.Voice.SampleRate < 0 {
		errs = append(errs, fmt.Errorf("voice.sample_rate %d must not be negative", cfg.Voice.SampleRate))
	}
	if st, it := cfg.Voice.SilenceThreshold, cfg.Voice.InactivityTimeout; st > 0 && it > 0 && it < st {
		errs = append(errs, fmt.Errorf("voice.inactivity_timeout %s is shorter than voice.silence_threshold %s; utterances could never complete", it.Std(), st.Std()))
	}

	// Gesture thresholds
	if cfg.Gesture.AnalysisInterval < 0 {
		errs = append(errs, fmt.Errorf("gesture.analysis_interval %s must not be negative", cfg.Gesture.AnalysisInterval.Std()))
	}
	if cfg.Gesture.ConfirmationTime < 0 {
		errs = append(errs, fmt.Errorf("gesture.confirmation_time %s must not be negative", cfg.Gesture.ConfirmationTime.Std()))
	}
	if cfg.Gesture.MinRepetitions < 0 {
		errs = append(errs, fmt.Errorf("gesture.min_repetitions %d must not be negative", cfg.Gesture.MinRepetitions))
	}
	if cfg.Gesture.InactivityTimeout < 0 {
		errs = append(errs, fmt.Errorf("gesture.inactivity_timeout %s must not be negative", cfg.Gesture.InactivityTimeout.Std()))
	}

	// Chat
	if cfg.Chat.Temperature < 0 || cfg.Chat.Temperature > 2 {
		errs = append(errs, fmt.Errorf("chat.temperature %.2f is out of range [0, 2]", cfg.Chat.Temperature))
	}
	if cfg.Chat.MaxTokens < 0 {
		errs = append(errs, fmt.Errorf("chat.max_tokens %d must not be negative", cfg.Chat.MaxTokens))
	}
	if cfg.Chat.MaxHistoryTokens < 0 {
		errs = append(errs, fmt.Errorf("chat.max_history_tokens %d must not be negative", cfg.Chat.MaxHistoryTokens))
	}

	// Commands
	if cfg.Commands.Threshold < 0 || cfg.Commands.Threshold > 1 {
		errs = append(errs, fmt.Errorf("commands.threshold %.2f is out of range [0, 1]", cfg.Commands.Threshold))
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name — may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
