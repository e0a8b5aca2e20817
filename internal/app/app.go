// Package app wires all voxgest subsystems into a running server.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run serves HTTP until the context is cancelled, and Shutdown
// tears everything down in order.
//
// For testing, inject mock implementations via functional options
// (WithAudioSource, WithMetrics, etc.). When an option is not provided, New
// creates real implementations from the config.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/voxgest/voxgest/internal/chat"
	"github.com/voxgest/voxgest/internal/command"
	"github.com/voxgest/voxgest/internal/config"
	"github.com/voxgest/voxgest/internal/gesture"
	"github.com/voxgest/voxgest/internal/health"
	"github.com/voxgest/voxgest/internal/observe"
	"github.com/voxgest/voxgest/internal/resilience"
	"github.com/voxgest/voxgest/internal/turn"
	"github.com/voxgest/voxgest/internal/voice"
	"github.com/voxgest/voxgest/internal/web"
	"github.com/voxgest/voxgest/pkg/audio"
	audiobridge "github.com/voxgest/voxgest/pkg/audio/bridge"
	"github.com/voxgest/voxgest/pkg/provider/classify"
	"github.com/voxgest/voxgest/pkg/provider/llm"
	"github.com/voxgest/voxgest/pkg/provider/stt"
	"github.com/voxgest/voxgest/pkg/provider/tts"
	"github.com/voxgest/voxgest/pkg/types"
	"github.com/voxgest/voxgest/pkg/vision"
	visionbridge "github.com/voxgest/voxgest/pkg/vision/bridge"
)

// defaultSampleRate is the capture rate assumed when the config leaves
// voice.sample_rate unset.
const defaultSampleRate = 16000

// Providers holds one interface value per provider slot. Nil means the
// provider is not configured and the modality that depends on it stays
// disabled. Populated by main.go from the config.
type Providers struct {
	LLM      llm.Generator
	STT      stt.Recognizer
	TTS      tts.Speaker
	Classify classify.Classifier
}

// App owns all subsystem lifetimes and serves the voxgest HTTP API.
type App struct {
	cfg       *config.Config
	providers *Providers

	// Subsystems — initialised in New, torn down in Shutdown.
	metrics     *observe.Metrics
	audioIn     *audiobridge.Source
	videoIn     *visionbridge.Source
	audioSource audio.Source
	videoSource vision.Source
	coord       *turn.Coordinator
	voice       *voice.Session
	gestures    *gesture.Analyzer
	chat        *chat.Service
	commands    *command.Filter
	health      *health.Handler
	server      *http.Server

	// closers are called in order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithAudioSource injects an audio source instead of creating the websocket
// ingest bridge.
func WithAudioSource(s audio.Source) Option {
	return func(a *App) { a.audioSource = s }
}

// WithVideoSource injects a video source instead of creating the websocket
// ingest bridge.
func WithVideoSource(s vision.Source) Option {
	return func(a *App) { a.videoSource = s }
}

// WithMetrics injects a metrics bundle instead of using the global default.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithHealthHandler injects a health handler instead of building one from the
// configured providers.
func WithHealthHandler(h *health.Handler) Option {
	return func(a *App) { a.health = h }
}

// ─── New ─────────────────────────────────────────────────────────────────────

// New creates an App by wiring all subsystems together. The providers struct
// comes from main.go. Use Option functions to inject test doubles for any
// subsystem.
//
// New performs all initialisation synchronously; nothing starts capturing or
// serving until Run.
func New(ctx context.Context, cfg *config.Config, providers *Providers, opts ...Option) (*App, error) {
	if providers == nil {
		providers = &Providers{}
	}
	a := &App{
		cfg:       cfg,
		providers: providers,
	}
	for _, o := range opts {
		o(a)
	}

	// ── 1. Metrics ───────────────────────────────────────────────────────
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	// ── 2. Provider guards ───────────────────────────────────────────────
	a.wrapProviders()

	// ── 3. Ingest bridges ────────────────────────────────────────────────
	a.initBridges()

	// ── 4. Gesture analysis + turn coordination ──────────────────────────
	a.initGestures(ctx)

	// ── 5. Voice capture ─────────────────────────────────────────────────
	a.initVoice(ctx)

	// ── 6. Chat ──────────────────────────────────────────────────────────
	a.initChat()

	// ── 7. Spoken shortcuts ──────────────────────────────────────────────
	a.initCommands(ctx)

	// ── 8. Health + HTTP server ──────────────────────────────────────────
	a.initHealth()
	a.initServer(ctx)

	return a, nil
}

// ─── Init helpers ────────────────────────────────────────────────────────────

// wrapProviders layers each configured provider with a circuit breaker and
// request instrumentation. The instrumentation sits outermost so breaker
// short-circuits are recorded too.
func (a *App) wrapProviders() {
	if p := a.providers.STT; p != nil {
		name := providerName(a.cfg.Providers.STT, "stt")
		guarded := resilience.NewRecognizerFallback(p, name, resilience.FallbackConfig{})
		a.providers.STT = observe.InstrumentRecognizer(name, guarded, a.metrics)
	}
	if p := a.providers.LLM; p != nil {
		name := providerName(a.cfg.Providers.LLM, "llm")
		guarded := resilience.NewGeneratorFallback(p, name, resilience.FallbackConfig{})
		a.providers.LLM = observe.InstrumentGenerator(name, guarded, a.metrics)
	}
	if p := a.providers.TTS; p != nil {
		name := providerName(a.cfg.Providers.TTS, "tts")
		guarded := resilience.NewSpeakerFallback(p, name, resilience.FallbackConfig{})
		a.providers.TTS = observe.InstrumentSpeaker(name, guarded, a.metrics)
	}
	if p := a.providers.Classify; p != nil {
		name := providerName(a.cfg.Providers.Classify, "classify")
		guarded := resilience.NewClassifierFallback(p, name, resilience.FallbackConfig{})
		a.providers.Classify = observe.InstrumentClassifier(name, guarded, a.metrics)
	}
}

// initBridges creates the websocket ingest bridges for whichever capture
// modalities have a provider, unless sources were injected.
func (a *App) initBridges() {
	if a.audioSource == nil && a.providers.STT != nil {
		rate := a.cfg.Voice.SampleRate
		if rate == 0 {
			rate = defaultSampleRate
		}
		a.audioIn = audiobridge.New(rate)
		a.audioSource = a.audioIn
		a.closers = append(a.closers, a.audioIn.Close)
	}
	if a.videoSource == nil && a.providers.Classify != nil {
		a.videoIn = visionbridge.New()
		a.videoSource = a.videoIn
		a.closers = append(a.closers, a.videoIn.Close)
	}
}

// initGestures creates the gesture analyzer and the turn coordinator. The
// analyzer's confirmation engine doubles as the coordinator's pause target;
// without a classifier the coordinator only tracks phase state.
func (a *App) initGestures(ctx context.Context) {
	if a.providers.Classify == nil || a.videoSource == nil {
		a.coord = turn.NewCoordinator(nil)
		return
	}

	emit := func(g types.ConfirmedGesture) {
		a.metrics.RecordGestureConfirmation(ctx, string(g.Type))
		a.coord.PushGesture(g)
	}
	a.gestures = gesture.NewAnalyzer(a.videoSource, a.providers.Classify, emit,
		gesture.WithEngineConfig(gesture.EngineConfig{
			AnalysisInterval:  a.cfg.Gesture.AnalysisInterval.Std(),
			ConfirmationTime:  a.cfg.Gesture.ConfirmationTime.Std(),
			MinRepetitions:    a.cfg.Gesture.MinRepetitions,
			InactivityTimeout: a.cfg.Gesture.InactivityTimeout.Std(),
		}),
		// The session gauge is owned here so every way a session can end,
		// including the inactivity timeout and spoken commands, hits it.
		gesture.WithStopCallback(func(gesture.StopReason) {
			a.metrics.ActiveGestureSessions.Add(ctx, -1)
		}),
	)
	a.coord = turn.NewCoordinator(a.gestures)
	a.closers = append(a.closers, func() error {
		a.gestures.Stop()
		return nil
	})
}

// initVoice creates the voice capture session when a recognizer is available.
func (a *App) initVoice(ctx context.Context) {
	if a.providers.STT == nil || a.audioSource == nil {
		return
	}

	emit := func(u types.Utterance) {
		a.metrics.RecordSegment(ctx, "recognized")
		a.coord.PushUtterance(u)
	}
	a.voice = voice.NewSession(a.audioSource, a.providers.STT, emit,
		voice.WithSegmenterConfig(voice.SegmenterConfig{
			VolumeThreshold:   a.cfg.Voice.VolumeThreshold,
			SilenceThreshold:  a.cfg.Voice.SilenceThreshold.Std(),
			InactivityTimeout: a.cfg.Voice.InactivityTimeout.Std(),
			MinFrames:         a.cfg.Voice.MinFrames,
		}),
		// Mirrors the gesture gauge wiring: the decrement lives on the one
		// path every session end goes through.
		voice.WithStopCallback(func(voice.StopReason) {
			a.metrics.ActiveVoiceSessions.Add(ctx, -1)
		}),
	)
	a.closers = append(a.closers, func() error {
		a.voice.Stop()
		return nil
	})
}

// initChat creates the conversation service when a generator is available.
func (a *App) initChat() {
	if a.providers.LLM == nil {
		return
	}
	history := chat.NewHistory(a.cfg.Chat.MaxHistoryTokens)
	a.chat = chat.NewService(a.providers.LLM, a.providers.TTS, a.coord, history, chat.Config{
		SystemPrompt: a.cfg.Chat.SystemPrompt,
		Temperature:  a.cfg.Chat.Temperature,
		MaxTokens:    a.cfg.Chat.MaxTokens,
		SpeakReplies: a.cfg.Chat.SpeakReplies,
	})
}

// initCommands builds the spoken-shortcut filter over the built-in command
// set. Disabled unless commands.enabled is set.
func (a *App) initCommands(ctx context.Context) {
	if !a.cfg.Commands.Enabled {
		return
	}

	var opts []command.Option
	if a.cfg.Commands.Threshold > 0 {
		opts = append(opts, command.WithThreshold(a.cfg.Commands.Threshold))
	}
	a.commands = command.New(a.builtinCommands(ctx), opts...)
}

// builtinCommands returns the spoken shortcuts every deployment gets:
// stopping voice capture, toggling the camera, and clearing the dialog.
func (a *App) builtinCommands(baseCtx context.Context) []command.Command {
	record := func(name string) {
		a.metrics.RecordCommandMatch(baseCtx, name)
	}

	return []command.Command{
		{
			Name:    "stop_listening",
			Phrases: []string{"stop listening", "stop voice input", "stop recording"},
			Action: func(ctx context.Context) (string, error) {
				record("stop_listening")
				if a.voice == nil {
					return "voice capture not configured", nil
				}
				a.voice.Stop()
				return "voice capture stopped", nil
			},
		},
		{
			Name:    "start_camera",
			Phrases: []string{"start camera", "turn on the camera", "enable gestures"},
			Action: func(ctx context.Context) (string, error) {
				record("start_camera")
				if a.gestures == nil {
					return "gesture capture not configured", nil
				}
				if a.gestures.Start(baseCtx) {
					a.metrics.ActiveGestureSessions.Add(baseCtx, 1)
					return "camera started", nil
				}
				return "camera already active", nil
			},
		},
		{
			Name:    "stop_camera",
			Phrases: []string{"stop camera", "turn off the camera", "disable gestures"},
			Action: func(ctx context.Context) (string, error) {
				record("stop_camera")
				if a.gestures == nil {
					return "gesture capture not configured", nil
				}
				a.gestures.Stop()
				return "camera stopped", nil
			},
		},
		{
			Name:    "clear_chat",
			Phrases: []string{"clear chat", "clear the history", "start over"},
			Action: func(ctx context.Context) (string, error) {
				record("clear_chat")
				if a.chat == nil {
					return "chat not configured", nil
				}
				a.chat.Reset()
				return "history cleared", nil
			},
		},
	}
}

// initHealth assembles readiness checkers for the local sidecars voxgest
// depends on. Remote SaaS providers are not probed; their failures surface
// through the circuit breakers instead.
func (a *App) initHealth() {
	if a.health != nil {
		return
	}

	var checkers []health.Checker
	if e := a.cfg.Providers.STT; e.Name == "whisper" && e.BaseURL != "" {
		checkers = append(checkers, health.HTTPChecker("whisper", e.BaseURL, nil))
	}
	if e := a.cfg.Providers.Classify; e.Name == "mediapipe" && e.BaseURL != "" {
		checkers = append(checkers, health.HTTPChecker("mediapipe", e.BaseURL, nil))
	}
	a.health = health.New(checkers...)
}

// initServer builds the HTTP shell. ctx bounds the lifetime of capture
// sessions started through the API.
func (a *App) initServer(ctx context.Context) {
	srv := web.NewServer(ctx, web.Config{
		Voice:    a.voice,
		Gestures: a.gestures,
		Coord:    a.coord,
		Chat:     a.chat,
		Commands: a.commands,
		Metrics:  a.metrics,
		Health:   a.health,
		AudioIn:  a.audioIn,
		VideoIn:  a.videoIn,
	})

	addr := a.cfg.Server.ListenAddr
	if addr == "" {
		addr = ":8080"
	}
	a.server = &http.Server{
		Addr:              addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Handler returns the full HTTP handler tree. Callers embedding voxgest under
// their own server use this instead of Run.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// ─── Run ─────────────────────────────────────────────────────────────────────

// Run serves the HTTP API and blocks until ctx is cancelled or the listener
// fails. Capture sessions are started on demand through the API, not here.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("app: serving",
			"addr", a.server.Addr,
			"tls", a.cfg.Server.TLS != nil,
			"voice", a.voice != nil,
			"gestures", a.gestures != nil,
			"chat", a.chat != nil,
		)
		var err error
		if tls := a.cfg.Server.TLS; tls != nil {
			err = a.server.ListenAndServeTLS(tls.CertFile, tls.KeyFile)
		} else {
			err = a.server.ListenAndServe()
		}
		if err == http.ErrServerClosed {
			return nil
		}
		return fmt.Errorf("app: serve: %w", err)
	})

	g.Go(func() error {
		<-ctx.Done()
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.server.Shutdown(closeCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// ─── Shutdown ────────────────────────────────────────────────────────────────

// Shutdown tears down all subsystems in init order. It respects the context
// deadline: if ctx expires before all closers finish, remaining closers are
// skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("app: shutting down", "closers", len(a.closers))

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("app: shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("app: closer error", "index", i, "err", err)
			}
		}

		slog.Info("app: shutdown complete")
	})
	return shutdownErr
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// providerName returns the configured provider name, or the kind itself when
// the provider was injected without config.
func providerName(entry config.ProviderEntry, kind string) string {
	if entry.Name != "" {
		return entry.Name
	}
	return kind
}
