// Package config provides the configuration schema and loader for the
// voxgest server.
package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// LogLevel controls log verbosity for the voxgest server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Duration wraps time.Duration with YAML support for human-readable values
// like "2s" or "100ms".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the root configuration structure for voxgest.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Providers ProvidersConfig `yaml:"providers"`
	Voice     VoiceConfig     `yaml:"voice"`
	Gesture   GestureConfig   `yaml:"gesture"`
	Chat      ChatConfig      `yaml:"chat"`
	Commands  CommandsConfig  `yaml:"commands"`
}

// ServerConfig holds network and logging settings for the voxgest server.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// TLS configures TLS for the server. When nil, the server runs plain HTTP.
	TLS *TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate paths for enabling HTTPS.
type TLSConfig struct {
	// CertFile is the path to the PEM-encoded TLS certificate.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM-encoded TLS private key.
	KeyFile string `yaml:"key_file"`
}

// ProvidersConfig declares which external engine to use for each pipeline
// stage.
type ProvidersConfig struct {
	LLM      ProviderEntry `yaml:"llm"`
	STT      ProviderEntry `yaml:"stt"`
	TTS      ProviderEntry `yaml:"tts"`
	Classify ProviderEntry `yaml:"classify"`
}

// ProviderEntry is the common configuration block shared by all provider
// types.
type ProviderEntry struct {
	// Name selects the provider implementation (e.g., "openai", "whisper",
	// "elevenlabs", "mediapipe").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API if any.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint. For local
	// sidecars (whisper-server, the MediaPipe sidecar) it is the server
	// address.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider (e.g., "gpt-4o",
	// "base.en").
	Model string `yaml:"model"`

	// Options holds provider-specific configuration values not covered by the
	// standard fields above (e.g., "voice_id" for TTS, "language" for STT).
	Options map[string]any `yaml:"options"`
}

// StringOption returns Options[key] as a string, or "" when absent or not a
// string.
func (p ProviderEntry) StringOption(key string) string {
	v, ok := p.Options[key].(string)
	if !ok {
		return ""
	}
	return v
}

// VoiceConfig tunes the voice activity segmenter. Zero values take the
// segmenter's built-in defaults.
type VoiceConfig struct {
	// VolumeThreshold is the mean absolute amplitude above which a frame
	// counts as speech.
	VolumeThreshold int `yaml:"volume_threshold"`

	// SilenceThreshold is the silence duration that closes an utterance.
	SilenceThreshold Duration `yaml:"silence_threshold"`

	// InactivityTimeout ends the listening session when no speech is heard.
	InactivityTimeout Duration `yaml:"inactivity_timeout"`

	// MinFrames discards utterances shorter than this many frames.
	MinFrames int `yaml:"min_frames"`

	// SampleRate is the capture sample rate in Hz expected from clients.
	SampleRate int `yaml:"sample_rate"`
}

// GestureConfig tunes the gesture confirmation engine. Zero values take the
// engine's built-in defaults.
type GestureConfig struct {
	// AnalysisInterval rate-limits frame classification.
	AnalysisInterval Duration `yaml:"analysis_interval"`

	// ConfirmationTime is the rolling observation window length.
	ConfirmationTime Duration `yaml:"confirmation_time"`

	// MinRepetitions is the repeat count required inside the window.
	MinRepetitions int `yaml:"min_repetitions"`

	// InactivityTimeout ends analysis when no hand is seen.
	InactivityTimeout Duration `yaml:"inactivity_timeout"`
}

// ChatConfig tunes the conversation service.
type ChatConfig struct {
	// SystemPrompt is sent with every generation request.
	SystemPrompt string `yaml:"system_prompt"`

	// Temperature and MaxTokens are forwarded to the LLM provider.
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`

	// MaxHistoryTokens bounds the dialog window.
	MaxHistoryTokens int `yaml:"max_history_tokens"`

	// SpeakReplies synthesizes every answer for playback when a TTS provider
	// is configured.
	SpeakReplies bool `yaml:"speak_replies"`
}

// CommandsConfig tunes the spoken-shortcut filter.
type CommandsConfig struct {
	// Enabled turns spoken shortcuts on. Default off: every utterance goes to
	// the chat pipeline.
	Enabled bool `yaml:"enabled"`

	// Threshold is the minimum phrase similarity score (0–1). Zero takes the
	// filter default.
	Threshold float64 `yaml:"threshold"`
}
