// Package gesture turns noisy per-frame gesture classifications into
// discrete confirmed commands. The Engine is the majority-vote confirmation
// state machine; the Analyzer wraps it with a camera capture loop and a
// classifier.
package gesture

import (
	"sync"
	"time"

	"github.com/voxgest/voxgest/pkg/types"
)

// Default confirmation tuning. A gesture must be seen at least three times
// inside a 1.5 s rolling window before it counts; with the camera at 16 fps
// that is roughly three hits out of 24 analyzed frames.
const (
	DefaultAnalysisInterval  = 100 * time.Millisecond
	DefaultConfirmationTime  = 1500 * time.Millisecond
	DefaultMinRepetitions    = 3
	DefaultInactivityTimeout = 7 * time.Second
)

// phraseTable maps a confirmed gesture to the chat phrase it stands for.
// Gestures outside the table are classified and counted but never confirm.
var phraseTable = map[types.GestureType]string{
	types.GestureOpenPalm:   "Hello",
	types.GestureVictory:    "Victory",
	types.GestureThumbUp:    "Awesome",
	types.GesturePointingUp: "Attention",
}

// Phrase returns the chat phrase for a gesture and whether one is defined.
func Phrase(g types.GestureType) (string, bool) {
	text, ok := phraseTable[g]
	return text, ok
}

// EngineConfig tunes the confirmation rules. Zero values take the package
// defaults.
type EngineConfig struct {
	// AnalysisInterval rate-limits intake: observations arriving faster are
	// dropped, even if the camera delivers frames more often.
	AnalysisInterval time.Duration

	// ConfirmationTime is the length of the rolling observation window.
	ConfirmationTime time.Duration

	// MinRepetitions is how many matching observations the window must hold
	// before a gesture confirms.
	MinRepetitions int

	// InactivityTimeout stops analysis when no hand has been seen for this
	// long.
	InactivityTimeout time.Duration
}

func (c EngineConfig) withDefaults() EngineConfig {
	if c.AnalysisInterval <= 0 {
		c.AnalysisInterval = DefaultAnalysisInterval
	}
	if c.ConfirmationTime <= 0 {
		c.ConfirmationTime = DefaultConfirmationTime
	}
	if c.MinRepetitions <= 0 {
		c.MinRepetitions = DefaultMinRepetitions
	}
	if c.InactivityTimeout <= 0 {
		c.InactivityTimeout = DefaultInactivityTimeout
	}
	return c
}

// Result is the outcome of feeding one batch of observations to the Engine.
type Result struct {
	// Confirmed is non-nil when the majority-vote rule fired.
	Confirmed *types.ConfirmedGesture

	// Inactive is true when the inactivity timeout has elapsed; the caller
	// should end the analysis session.
	Inactive bool
}

// Engine is the gesture confirmation state machine. It buffers observations
// over a rolling window, confirms the majority gesture once it repeats often
// enough, and debounces so the same held gesture does not confirm twice.
//
// Engine is safe for concurrent use: the analyzer loop feeds it while the
// turn coordinator pauses and resumes it from request handlers.
type Engine struct {
	cfg EngineConfig
	now func() time.Time

	mu              sync.Mutex
	paused          bool
	buf             []types.GestureObservation
	lastConfirmed   types.GestureType
	lastObservation time.Time
	lastAnalysis    time.Time
}

// NewEngine creates an Engine. The clock is injectable for tests; pass nil
// for time.Now.
func NewEngine(cfg EngineConfig, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	e := &Engine{cfg: cfg.withDefaults(), now: now}
	e.resetLocked()
	return e
}

// resetLocked clears the window, the debounce state, and the timers. Callers
// must hold mu (or be the constructor).
func (e *Engine) resetLocked() {
	e.buf = nil
	e.lastConfirmed = ""
	e.lastObservation = e.now()
	e.lastAnalysis = time.Time{}
}

// Feed processes one batch of per-frame observations. Batches arriving faster
// than the analysis interval are dropped, and a paused engine ignores intake
// entirely. An empty batch still counts toward inactivity: only seeing a hand
// refreshes the inactivity clock.
func (e *Engine) Feed(observations []types.GestureObservation) Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.paused {
		return Result{}
	}

	now := e.now()

	if now.Sub(e.lastObservation) > e.cfg.InactivityTimeout {
		return Result{Inactive: true}
	}

	if !e.lastAnalysis.IsZero() && now.Sub(e.lastAnalysis) < e.cfg.AnalysisInterval {
		return Result{}
	}
	e.lastAnalysis = now

	if len(observations) > 0 {
		e.lastObservation = now
		for _, o := range observations {
			o.DetectedAt = now
			e.buf = append(e.buf, o)
		}
	}

	e.pruneLocked(now)

	label, count := e.majorityLocked()
	if count < e.cfg.MinRepetitions || label == e.lastConfirmed {
		return Result{}
	}
	text, ok := phraseTable[label]
	if !ok {
		return Result{}
	}

	// Clearing the whole window, not just the confirmed label's entries,
	// means a second gesture accumulating concurrently loses its partial
	// count. That is intentional: one confirmation per window keeps the
	// output predictable when both hands are in view.
	e.buf = nil
	e.lastConfirmed = label

	return Result{Confirmed: &types.ConfirmedGesture{
		Type:        label,
		Text:        text,
		ConfirmedAt: now,
	}}
}

// pruneLocked drops observations older than the confirmation window.
func (e *Engine) pruneLocked(now time.Time) {
	cutoff := now.Add(-e.cfg.ConfirmationTime)
	kept := e.buf[:0]
	for _, o := range e.buf {
		if !o.DetectedAt.Before(cutoff) {
			kept = append(kept, o)
		}
	}
	e.buf = kept
}

// majorityLocked returns the most frequent gesture type in the window and its
// count.
func (e *Engine) majorityLocked() (types.GestureType, int) {
	counts := make(map[types.GestureType]int, len(e.buf))
	for _, o := range e.buf {
		counts[o.Type]++
	}
	var best types.GestureType
	bestCount := 0
	for label, count := range counts {
		if count > bestCount {
			best, bestCount = label, count
		}
	}
	return best, bestCount
}

// Pause suspends observation intake without releasing the camera. Frames may
// keep arriving; Feed becomes a no-op until Resume.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.paused = true
}

// Resume re-arms intake and resets the debounce state, so a gesture held
// through the pause can confirm again. Idempotent.
func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.paused = false
	e.resetLocked()
}

// IsPaused reports whether intake is suspended.
func (e *Engine) IsPaused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

// WindowSize returns the number of buffered observations. Intended for
// status reporting.
func (e *Engine) WindowSize() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.buf)
}
