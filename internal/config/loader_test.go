package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/voxgest/voxgest/internal/config"
)

func TestLoadFromReader_FullConfig(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  listen_addr: ":8080"
  log_level: debug
providers:
  llm:
    name: openai
    model: gpt-4o
    api_key: sk-test
  stt:
    name: whisper
    base_url: http://localhost:8081
  tts:
    name: elevenlabs
    api_key: el-test
    options:
      voice_id: abc123
  classify:
    name: mediapipe
    base_url: http://localhost:9090
voice:
  volume_threshold: 500
  silence_threshold: 2s
  inactivity_timeout: 5s
  min_frames: 10
  sample_rate: 16000
gesture:
  analysis_interval: 100ms
  confirmation_time: 1500ms
  min_repetitions: 3
  inactivity_timeout: 7s
chat:
  system_prompt: "You are helpful."
  temperature: 0.7
  max_tokens: 512
  max_history_tokens: 2048
  speak_replies: true
commands:
  enabled: true
  threshold: 0.82
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("listen_addr = %q", cfg.Server.ListenAddr)
	}
	if cfg.Voice.SilenceThreshold.Std() != 2*time.Second {
		t.Errorf("silence_threshold = %v", cfg.Voice.SilenceThreshold.Std())
	}
	if cfg.Gesture.AnalysisInterval.Std() != 100*time.Millisecond {
		t.Errorf("analysis_interval = %v", cfg.Gesture.AnalysisInterval.Std())
	}
	if got := cfg.Providers.TTS.StringOption("voice_id"); got != "abc123" {
		t.Errorf("voice_id option = %q", got)
	}
	if !cfg.Chat.SpeakReplies {
		t.Error("speak_replies not set")
	}
}

func TestLoadFromReader_UnknownField(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  listen_address: ":8080"
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for unknown field, got nil")
	}
}

func TestLoadFromReader_InvalidDuration(t *testing.T) {
	t.Parallel()
	yaml := `
voice:
  silence_threshold: "two seconds"
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for invalid duration, got nil")
	}
	if !strings.Contains(err.Error(), "invalid duration") {
		t.Errorf("error should mention invalid duration, got: %v", err)
	}
}

func TestLoadFromReader_ExpandsEnvReferences(t *testing.T) {
	t.Setenv("VOXGEST_TEST_API_KEY", "sk-from-env")
	yaml := `
providers:
  llm:
    name: openai
    model: gpt-4o
    api_key: ${VOXGEST_TEST_API_KEY}
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("LoadFromReader() error: %v", err)
	}
	if got := cfg.Providers.LLM.APIKey; got != "sk-from-env" {
		t.Errorf("APIKey = %q, want %q", got, "sk-from-env")
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  log_level: loud
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for invalid log level, got nil")
	}
	if !strings.Contains(err.Error(), "log_level") {
		t.Errorf("error should mention log_level, got: %v", err)
	}
}

func TestValidate_IncompleteTLS(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  tls:
    cert_file: /etc/voxgest/cert.pem
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for TLS without key_file, got nil")
	}
}

func TestValidate_InactivityShorterThanSilence(t *testing.T) {
	t.Parallel()
	yaml := `
voice:
  silence_threshold: 5s
  inactivity_timeout: 2s
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for inactivity shorter than silence threshold, got nil")
	}
	if !strings.Contains(err.Error(), "inactivity_timeout") {
		t.Errorf("error should mention inactivity_timeout, got: %v", err)
	}
}

func TestValidate_TemperatureRange(t *testing.T) {
	t.Parallel()
	yaml := `
chat:
  temperature: 3.5
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for out-of-range temperature, got nil")
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  log_level: loud
chat:
  temperature: 3.5
  max_tokens: -1
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected errors, got nil")
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "log_level") {
		t.Errorf("error should mention log_level, got: %v", err)
	}
	if !strings.Contains(errStr, "temperature") {
		t.Errorf("error should mention temperature, got: %v", err)
	}
	if !strings.Contains(errStr, "max_tokens") {
		t.Errorf("error should mention max_tokens, got: %v", err)
	}
}

func TestValidate_EmptyConfigIsValid(t *testing.T) {
	t.Parallel()
	cfg, err := config.LoadFromReader(strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg == nil {
		t.Fatal("expected config")
	}
}

func TestValidProviderNames(t *testing.T) {
	t.Parallel()
	if len(config.ValidProviderNames) == 0 {
		t.Fatal("ValidProviderNames should not be empty")
	}
	sttNames := config.ValidProviderNames["stt"]
	if len(sttNames) == 0 {
		t.Fatal("ValidProviderNames[\"stt\"] should not be empty")
	}
	found := false
	for _, n := range sttNames {
		if n == "whisper" {
			found = true
			break
		}
	}
	if !found {
		t.Error("ValidProviderNames[\"stt\"] should contain \"whisper\"")
	}
}
