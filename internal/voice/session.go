package voice

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/voxgest/voxgest/pkg/audio"
	"github.com/voxgest/voxgest/pkg/provider/stt"
	"github.com/voxgest/voxgest/pkg/types"
)

// StartStatus reports the outcome of a Start call.
type StartStatus string

const (
	// StatusStarted means a new listening session began.
	StatusStarted StartStatus = "started"
	// StatusAlreadyListening means a session was already running; Start was a
	// no-op.
	StatusAlreadyListening StartStatus = "already_listening"
)

// StopReason explains why a listening session ended.
type StopReason string

const (
	// StopRequested means Stop was called.
	StopRequested StopReason = "requested"
	// StopInactivity means the inactivity timeout elapsed without speech.
	StopInactivity StopReason = "inactivity"
	// StopSourceError means the audio source failed; the session cannot
	// continue and the caller may start a new one.
	StopSourceError StopReason = "source_error"
)

// stopJoinTimeout bounds how long Stop waits for the capture loop to exit.
const stopJoinTimeout = 2 * time.Second

// Option configures a Session.
type Option func(*Session)

// WithSegmenterConfig overrides the segmentation thresholds.
func WithSegmenterConfig(cfg SegmenterConfig) Option {
	return func(s *Session) { s.segCfg = cfg }
}

// WithClock overrides the time source used by the segmenter.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithStopCallback registers a callback invoked once when a session ends, with
// the reason. Called from the capture goroutine.
func WithStopCallback(fn func(StopReason)) Option {
	return func(s *Session) { s.onStop = fn }
}

// Session owns one microphone stream and runs the capture loop that feeds the
// segmenter and hands completed segments to the recognizer. Recognized text is
// delivered through the emit callback.
//
// A Session can be started and stopped repeatedly; each Start creates a fresh
// listening session over the same source.
type Session struct {
	source     audio.Source
	recognizer stt.Recognizer
	emit       func(types.Utterance)

	segCfg SegmenterConfig
	now    func() time.Time
	onStop func(StopReason)

	mu        sync.Mutex
	listening bool
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewSession creates a Session. emit is invoked from the capture goroutine
// for every recognized utterance and must not block for long: recognition
// stalls until it returns.
func NewSession(source audio.Source, recognizer stt.Recognizer, emit func(types.Utterance), opts ...Option) *Session {
	s := &Session{
		source:     source,
		recognizer: recognizer,
		emit:       emit,
		now:        time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Start begins a listening session. It is idempotent: if a session is already
// running it reports StatusAlreadyListening and leaves it untouched. ctx
// bounds the whole session; cancelling it has the same effect as Stop.
func (s *Session) Start(ctx context.Context) StartStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listening {
		return StatusAlreadyListening
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.listening = true

	go s.captureLoop(loopCtx, s.done)

	slog.Info("voice: listening started")
	return StatusStarted
}

// Stop ends the current session, if any, and waits for the capture loop to
// exit with a bounded timeout. Safe to call when not listening, and tolerates
// the loop having already ended on its own inactivity timeout.
func (s *Session) Stop() {
	s.mu.Lock()
	if !s.listening {
		s.mu.Unlock()
		return
	}
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	select {
	case <-done:
	case <-time.After(stopJoinTimeout):
		slog.Warn("voice: capture loop did not exit before join timeout")
	}
}

// IsListening reports whether a capture loop is currently running.
func (s *Session) IsListening() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listening
}

func (s *Session) captureLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	reason := StopRequested
	defer func() {
		s.mu.Lock()
		s.listening = false
		s.mu.Unlock()
		slog.Info("voice: listening stopped", "reason", string(reason))
		if s.onStop != nil {
			s.onStop(reason)
		}
	}()

	seg := NewSegmenter(s.segCfg, s.now)

	for {
		frame, err := s.source.ReadFrame(ctx)
		if err != nil {
			switch {
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			case errors.Is(err, audio.ErrSourceClosed):
			default:
				slog.Error("voice: audio source failed", "err", err)
				reason = StopSourceError
			}
			return
		}

		res := seg.Feed(frame)
		if res.Inactive {
			reason = StopInactivity
			return
		}
		if res.Segment != nil {
			s.recognize(ctx, res.Segment)
		}
	}
}

// recognize converts a completed segment to WAV, runs it through the
// recognizer, and emits the resulting utterance. Recognition failures are
// per-segment: they are logged and the session keeps listening.
func (s *Session) recognize(ctx context.Context, segment *Segment) {
	wav := audio.EncodeWAV(segment.PCM, segment.SampleRate, 1)

	text, err := s.recognizer.Recognize(ctx, wav)
	if err != nil {
		if errors.Is(err, stt.ErrNotRecognized) {
			slog.Debug("voice: segment not recognized", "duration", segment.Duration())
		} else {
			slog.Warn("voice: recognition failed", "err", err)
		}
		return
	}

	slog.Info("voice: utterance recognized", "text", text, "duration", segment.Duration())
	if s.emit != nil {
		s.emit(types.Utterance{
			Text:         text,
			Duration:     segment.Duration(),
			RecognizedAt: s.now(),
		})
	}
}
