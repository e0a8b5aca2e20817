// Package resilience guards the external engines voxgest leans on — the STT
// and TTS services, the LLM backend, and the MediaPipe sidecar — against
// cascading failures.
//
// [Breaker] is a three-state circuit breaker sized for capture-loop traffic:
// a recognizer is called once per utterance and a classifier ten times per
// second, so a dead sidecar would otherwise be hammered at capture cadence.
// [FallbackGroup] chains same-kind providers (say, a local whisper-server
// with the OpenAI transcription API behind it) with one breaker per backend.
// [RecognizerFallback], [GeneratorFallback], [SpeakerFallback], and
// [ClassifierFallback] bind the chain to the concrete provider contracts.
//
// All types are safe for concurrent use.
package resilience

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrCircuitOpen is returned by [Breaker.Do] while the breaker is open and the
// cool-off period has not yet elapsed.
var ErrCircuitOpen = errors.New("resilience: circuit open")

// State is a [Breaker] operating mode.
type State int

const (
	// StateClosed forwards every call.
	StateClosed State = iota

	// StateOpen rejects every call with [ErrCircuitOpen] until the cool-off
	// elapses.
	StateOpen

	// StateHalfOpen lets a bounded number of probe calls through to test
	// whether the backend has recovered.
	StateHalfOpen
)

var stateNames = map[State]string{
	StateClosed:   "closed",
	StateOpen:     "open",
	StateHalfOpen: "half-open",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

// BreakerConfig tunes a [Breaker]. The defaults suit per-utterance provider
// calls: five straight failures open the breaker, it cools off for 30 s, and
// three probes must succeed before normal traffic resumes.
type BreakerConfig struct {
	// Name labels the guarded backend in logs (e.g. "whisper", "mediapipe").
	Name string

	// MaxFailures is how many consecutive failures trip the breaker.
	// Default: 5.
	MaxFailures int

	// ResetTimeout is the cool-off before probing resumes. Default: 30s.
	ResetTimeout time.Duration

	// HalfOpenMax bounds concurrent-window probe calls; that many must
	// succeed to close again. Default: 3.
	HalfOpenMax int
}

func (c BreakerConfig) withDefaults() BreakerConfig {
	if c.MaxFailures <= 0 {
		c.MaxFailures = 5
	}
	if c.ResetTimeout <= 0 {
		c.ResetTimeout = 30 * time.Second
	}
	if c.HalfOpenMax <= 0 {
		c.HalfOpenMax = 3
	}
	return c
}

// Breaker is a three-state circuit breaker around one provider backend.
type Breaker struct {
	cfg BreakerConfig

	mu         sync.Mutex
	state      State
	fails      int       // consecutive failures while closed
	lastFail   time.Time // opens the probe window once ResetTimeout old
	probes     int       // calls admitted this half-open window
	probeFails int
}

// NewBreaker creates a closed [Breaker], filling zero config fields with the
// defaults documented on [BreakerConfig].
func NewBreaker(cfg BreakerConfig) *Breaker {
	return &Breaker{cfg: cfg.withDefaults()}
}

// Do runs fn unless the breaker is open. The outcome of fn feeds the state
// machine: consecutive failures open the breaker, a failed probe re-opens it,
// and enough successful probes close it again.
func (b *Breaker) Do(fn func() error) error {
	probing, err := b.admit()
	if err != nil {
		return err
	}

	err = fn()
	b.settle(err, probing)
	return err
}

// admit decides whether a call may proceed, handling the open → half-open
// transition. It reports whether the call counts as a half-open probe.
func (b *Breaker) admit() (probing bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen {
		if time.Since(b.lastFail) < b.cfg.ResetTimeout {
			return false, ErrCircuitOpen
		}
		b.state = StateHalfOpen
		b.probes = 0
		b.probeFails = 0
		slog.Info("resilience: probing backend", "backend", b.cfg.Name)
	}

	if b.state == StateHalfOpen {
		if b.probes >= b.cfg.HalfOpenMax {
			return false, ErrCircuitOpen
		}
		b.probes++
		return true, nil
	}
	return false, nil
}

// settle feeds one call outcome into the state machine.
func (b *Breaker) settle(callErr error, probing bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case callErr != nil && probing:
		// A failed probe means the backend is still down.
		b.lastFail = time.Now()
		b.probeFails++
		b.state = StateOpen
		b.fails = b.cfg.MaxFailures
		slog.Warn("resilience: probe failed, backend stays tripped", "backend", b.cfg.Name)

	case callErr != nil:
		b.lastFail = time.Now()
		b.fails++
		if b.fails >= b.cfg.MaxFailures {
			b.state = StateOpen
			slog.Warn("resilience: backend tripped",
				"backend", b.cfg.Name,
				"consecutive_failures", b.fails)
		}

	case probing:
		if b.probes-b.probeFails >= b.cfg.HalfOpenMax {
			b.state = StateClosed
			b.fails = 0
			slog.Info("resilience: backend recovered", "backend", b.cfg.Name)
		}

	default:
		b.fails = 0
	}
}

// State reports the current mode. An open breaker whose cool-off has elapsed
// reports half-open; the stored transition happens on the next [Breaker.Do].
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen && time.Since(b.lastFail) >= b.cfg.ResetTimeout {
		return StateHalfOpen
	}
	return b.state
}

// Reset forces the breaker closed and clears all failure accounting.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = StateClosed
	b.fails = 0
	b.probes = 0
	b.probeFails = 0
	slog.Info("resilience: breaker reset", "backend", b.cfg.Name)
}
