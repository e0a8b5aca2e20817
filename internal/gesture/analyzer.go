package gesture

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/voxgest/voxgest/pkg/provider/classify"
	"github.com/voxgest/voxgest/pkg/types"
	"github.com/voxgest/voxgest/pkg/vision"
)

// StopReason explains why an analysis session ended.
type StopReason string

const (
	// StopRequested means Stop was called.
	StopRequested StopReason = "requested"
	// StopInactivity means no hand was seen for the inactivity timeout.
	StopInactivity StopReason = "inactivity"
	// StopSourceError means the camera source failed.
	StopSourceError StopReason = "source_error"
)

const stopJoinTimeout = 2 * time.Second

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithEngineConfig overrides the confirmation tuning.
func WithEngineConfig(cfg EngineConfig) Option {
	return func(a *Analyzer) { a.engCfg = cfg }
}

// WithClock overrides the time source used by the engine and the
// classification rate limit.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) { a.now = now }
}

// WithStopCallback registers a callback invoked once when an analysis session
// ends, with the reason. Called from the capture goroutine.
func WithStopCallback(fn func(StopReason)) Option {
	return func(a *Analyzer) { a.onStop = fn }
}

// Analyzer owns one camera stream and runs the capture loop that classifies
// frames and feeds the confirmation engine. Confirmed gestures are delivered
// through the emit callback.
type Analyzer struct {
	source     vision.Source
	classifier classify.Classifier
	emit       func(types.ConfirmedGesture)

	engCfg EngineConfig
	now    func() time.Time
	onStop func(StopReason)

	engine *Engine

	mu     sync.Mutex
	active bool
	cancel context.CancelFunc
	done   chan struct{}
}

// NewAnalyzer creates an Analyzer. emit is invoked from the capture goroutine
// for every confirmed gesture.
func NewAnalyzer(source vision.Source, classifier classify.Classifier, emit func(types.ConfirmedGesture), opts ...Option) *Analyzer {
	a := &Analyzer{
		source:     source,
		classifier: classifier,
		emit:       emit,
		now:        time.Now,
	}
	for _, o := range opts {
		o(a)
	}
	a.engine = NewEngine(a.engCfg, a.now)
	return a
}

// Start begins an analysis session. Idempotent: a second Start while running
// reports false and changes nothing. ctx bounds the whole session.
func (a *Analyzer) Start(ctx context.Context) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.active {
		return false
	}

	loopCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.done = make(chan struct{})
	a.active = true
	a.engine.Resume()

	go a.captureLoop(loopCtx, a.done)

	slog.Info("gesture: analysis started")
	return true
}

// Stop ends the current session, if any, and waits for the capture loop to
// exit with a bounded timeout. Tolerates the loop having already ended on its
// own inactivity timeout.
func (a *Analyzer) Stop() {
	a.mu.Lock()
	if !a.active {
		a.mu.Unlock()
		return
	}
	cancel, done := a.cancel, a.done
	a.mu.Unlock()

	cancel()
	select {
	case <-done:
	case <-time.After(stopJoinTimeout):
		slog.Warn("gesture: capture loop did not exit before join timeout")
	}
}

// IsActive reports whether an analysis session is running.
func (a *Analyzer) IsActive() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active
}

// Pause suspends gesture intake without releasing the camera. Together with
// Resume and Active it lets the turn coordinator hold gestures back while a
// response is generated or spoken.
func (a *Analyzer) Pause() { a.engine.Pause() }

// Resume re-arms gesture intake and resets debounce.
func (a *Analyzer) Resume() { a.engine.Resume() }

// Active is IsActive under the name the coordinator contract uses.
func (a *Analyzer) Active() bool { return a.IsActive() }

func (a *Analyzer) captureLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	reason := StopRequested
	defer func() {
		a.mu.Lock()
		a.active = false
		a.mu.Unlock()
		slog.Info("gesture: analysis stopped", "reason", string(reason))
		if a.onStop != nil {
			a.onStop(reason)
		}
	}()

	interval := a.engCfg.withDefaults().AnalysisInterval
	var lastClassify time.Time

	for {
		frame, err := a.source.ReadFrame(ctx)
		if err != nil {
			switch {
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			case errors.Is(err, vision.ErrSourceClosed):
			default:
				slog.Error("gesture: camera source failed", "err", err)
				reason = StopSourceError
			}
			return
		}

		// The camera delivers frames faster than the engine analyzes them;
		// skip classification for frames inside the analysis interval.
		now := a.now()
		if !lastClassify.IsZero() && now.Sub(lastClassify) < interval {
			continue
		}
		lastClassify = now

		observations, err := a.classifier.Classify(ctx, frame)
		if err != nil {
			// A single unreadable frame is not worth ending the session over.
			slog.Debug("gesture: classification failed", "err", err)
			continue
		}

		res := a.engine.Feed(observations)
		if res.Inactive {
			reason = StopInactivity
			return
		}
		if res.Confirmed != nil {
			slog.Info("gesture: confirmed",
				"type", string(res.Confirmed.Type),
				"text", res.Confirmed.Text)
			if a.emit != nil {
				a.emit(*res.Confirmed)
			}
		}
	}
}
