// Command voxgest is the main entry point for the voxgest multimodal chat
// server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/voxgest/voxgest/internal/app"
	"github.com/voxgest/voxgest/internal/config"
	"github.com/voxgest/voxgest/internal/observe"
	"github.com/voxgest/voxgest/pkg/provider/classify"
	"github.com/voxgest/voxgest/pkg/provider/classify/mediapipe"
	"github.com/voxgest/voxgest/pkg/provider/llm"
	"github.com/voxgest/voxgest/pkg/provider/llm/anyllm"
	"github.com/voxgest/voxgest/pkg/provider/stt"
	oaistt "github.com/voxgest/voxgest/pkg/provider/stt/openai"
	"github.com/voxgest/voxgest/pkg/provider/stt/whisper"
	"github.com/voxgest/voxgest/pkg/provider/tts"
	"github.com/voxgest/voxgest/pkg/provider/tts/elevenlabs"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Environment ───────────────────────────────────────────────────────────
	// .env is optional; real environment variables win either way.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "voxgest: load .env: %v\n", err)
		return 1
	}

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "voxgest: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "voxgest: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("voxgest starting",
		"version", version,
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Telemetry ─────────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		if err := otelShutdown(context.Background()); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Instantiate providers ─────────────────────────────────────────────────
	providers, err := buildProviders(cfg)
	if err != nil {
		slog.Error("failed to build providers", "err", err)
		return 1
	}

	application, err := app.New(ctx, cfg, providers)
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}

	slog.Info("server ready — press Ctrl+C to shut down")

	if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	slog.Info("shutdown signal received, stopping…")

	if err := application.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// ─── Provider wiring ──────────────────────────────────────────────────────────

// buildProviders instantiates all providers named in cfg and returns them in
// an [app.Providers] struct for the application to consume. A missing entry
// leaves the slot nil; the dependent modality stays disabled.
func buildProviders(cfg *config.Config) (*app.Providers, error) {
	ps := &app.Providers{}

	if name := cfg.Providers.LLM.Name; name != "" {
		p, err := buildGenerator(cfg.Providers.LLM)
		if err != nil {
			return nil, fmt.Errorf("create llm provider %q: %w", name, err)
		}
		ps.LLM = p
		slog.Info("provider created", "kind", "llm", "name", name)
	}

	if name := cfg.Providers.STT.Name; name != "" {
		p, err := buildRecognizer(cfg.Providers.STT)
		if err != nil {
			return nil, fmt.Errorf("create stt provider %q: %w", name, err)
		}
		ps.STT = p
		slog.Info("provider created", "kind", "stt", "name", name)
	}

	if name := cfg.Providers.TTS.Name; name != "" {
		p, err := buildSpeaker(cfg.Providers.TTS)
		if err != nil {
			return nil, fmt.Errorf("create tts provider %q: %w", name, err)
		}
		ps.TTS = p
		slog.Info("provider created", "kind", "tts", "name", name)
	}

	if name := cfg.Providers.Classify.Name; name != "" {
		p, err := buildClassifier(cfg.Providers.Classify)
		if err != nil {
			return nil, fmt.Errorf("create classify provider %q: %w", name, err)
		}
		ps.Classify = p
		slog.Info("provider created", "kind", "classify", "name", name)
	}

	return ps, nil
}

// buildGenerator constructs an LLM generator. All backends go through the
// any-llm gateway: the provider name selects the backend, APIKey and BaseURL
// are optional per backend.
func buildGenerator(entry config.ProviderEntry) (llm.Generator, error) {
	var opts []anyllmlib.Option
	if entry.APIKey != "" {
		opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
	}
	if entry.BaseURL != "" {
		opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
	}
	return anyllm.New(entry.Name, entry.Model, opts...)
}

// buildRecognizer constructs a speech recognizer.
func buildRecognizer(entry config.ProviderEntry) (stt.Recognizer, error) {
	switch entry.Name {
	case "whisper":
		var opts []whisper.Option
		if entry.Model != "" {
			opts = append(opts, whisper.WithModel(entry.Model))
		}
		if lang := entry.StringOption("language"); lang != "" {
			opts = append(opts, whisper.WithLanguage(lang))
		}
		return whisper.New(entry.BaseURL, opts...)

	case "whisper-native":
		modelPath := entry.Model
		if modelPath == "" {
			modelPath = entry.StringOption("model_path")
		}
		var opts []whisper.NativeOption
		if lang := entry.StringOption("language"); lang != "" {
			opts = append(opts, whisper.WithNativeLanguage(lang))
		}
		return whisper.NewNative(modelPath, opts...)

	case "openai":
		var opts []oaistt.Option
		if entry.Model != "" {
			opts = append(opts, oaistt.WithModel(entry.Model))
		}
		if entry.BaseURL != "" {
			opts = append(opts, oaistt.WithBaseURL(entry.BaseURL))
		}
		if lang := entry.StringOption("language"); lang != "" {
			opts = append(opts, oaistt.WithLanguage(lang))
		}
		return oaistt.New(entry.APIKey, opts...)

	default:
		return nil, fmt.Errorf("unknown stt provider %q", entry.Name)
	}
}

// buildSpeaker constructs a speech synthesizer.
func buildSpeaker(entry config.ProviderEntry) (tts.Speaker, error) {
	switch entry.Name {
	case "elevenlabs":
		var opts []elevenlabs.Option
		if entry.Model != "" {
			opts = append(opts, elevenlabs.WithModel(entry.Model))
		}
		if entry.BaseURL != "" {
			opts = append(opts, elevenlabs.WithBaseURL(entry.BaseURL))
		}
		return elevenlabs.New(entry.APIKey, entry.StringOption("voice_id"), opts...)

	default:
		return nil, fmt.Errorf("unknown tts provider %q", entry.Name)
	}
}

// buildClassifier constructs a gesture classifier.
func buildClassifier(entry config.ProviderEntry) (classify.Classifier, error) {
	switch entry.Name {
	case "mediapipe":
		var opts []mediapipe.Option
		if n, ok := entry.Options["max_hands"].(int); ok && n > 0 {
			opts = append(opts, mediapipe.WithMaxHands(n))
		}
		if score, ok := entry.Options["min_confidence"].(float64); ok && score > 0 {
			opts = append(opts, mediapipe.WithMinConfidence(score))
		}
		return mediapipe.New(entry.BaseURL, opts...)

	default:
		return nil, fmt.Errorf("unknown classify provider %q", entry.Name)
	}
}

// ─── Logging ──────────────────────────────────────────────────────────────────

// newLogger builds the process-wide slog logger at the configured level.
func newLogger(level config.LogLevel) *slog.Logger {
	var l slog.Level
	switch level {
	case config.LogDebug:
		l = slog.LevelDebug
	case config.LogWarn:
		l = slog.LevelWarn
	case config.LogError:
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}
