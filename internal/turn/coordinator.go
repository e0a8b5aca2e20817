// Package turn serializes the capture and generation phases of a
// conversation. While the backend produces or speaks a response, gesture
// intake is paused so a hand held in view does not immediately re-trigger a
// new request; once the response finishes, capture resumes.
//
// The coordinator also owns the two event queues the request layer drains:
// recognized utterances from the voice segmenter and confirmed gestures from
// the confirmation engine.
package turn

import (
	"log/slog"
	"sync"

	"github.com/voxgest/voxgest/pkg/types"
)

// State reports which phase the conversation is in.
type State string

const (
	// StateCapturing means gesture and voice intake are live.
	StateCapturing State = "capturing"
	// StatePaused means a response is being generated or spoken and gesture
	// intake is suspended.
	StatePaused State = "paused"
)

// Pauser is the capture-side contract the coordinator drives. The gesture
// analyzer implements it; Pause suspends observation intake without releasing
// the camera, Resume re-arms intake and resets debounce, and Active reports
// whether a capture session is running at all.
type Pauser interface {
	Pause()
	Resume()
	Active() bool
}

// Coordinator mediates between the capture engines and the generation phase.
// It is safe for concurrent use by request handlers and capture loops.
type Coordinator struct {
	mu         sync.Mutex
	state      State
	resumeOwed bool
	gestures   Pauser

	utteranceQueue *Queue[types.Utterance]
	gestureQueue   *Queue[types.ConfirmedGesture]
}

// NewCoordinator creates a Coordinator in the Capturing state. gestures may
// be nil when gesture capture is disabled; the coordinator then only tracks
// phase state.
func NewCoordinator(gestures Pauser) *Coordinator {
	return &Coordinator{
		state:          StateCapturing,
		gestures:       gestures,
		utteranceQueue: NewQueue[types.Utterance](),
		gestureQueue:   NewQueue[types.ConfirmedGesture](),
	}
}

// BeginGeneration marks the start of the generation phase and, when a gesture
// capture session is running, pauses its intake. A session that is not active
// has nothing to pause, and pausing it anyway would leave a stale resume for
// a session started mid-generation. Calling BeginGeneration while already
// paused is a no-op, so request handlers can call it without tracking phase
// state themselves.
func (c *Coordinator) BeginGeneration() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StatePaused {
		return
	}
	c.state = StatePaused
	if c.gestures != nil && c.gestures.Active() {
		c.gestures.Pause()
		c.resumeOwed = true
	}
	slog.Debug("turn: generation phase started")
}

// EndGeneration marks the end of the generation phase and resumes gesture
// intake if BeginGeneration paused it. Idempotent like BeginGeneration.
func (c *Coordinator) EndGeneration() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateCapturing {
		return
	}
	c.state = StateCapturing
	if c.resumeOwed {
		c.gestures.Resume()
		c.resumeOwed = false
	}
	slog.Debug("turn: generation phase ended")
}

// State returns the current phase.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Utterances returns the recognized-utterance queue. The voice session pushes
// onto it; the request layer pops.
func (c *Coordinator) Utterances() *Queue[types.Utterance] {
	return c.utteranceQueue
}

// Gestures returns the confirmed-gesture queue. The confirmation engine
// pushes onto it; the request layer pops.
func (c *Coordinator) Gestures() *Queue[types.ConfirmedGesture] {
	return c.gestureQueue
}

// PushUtterance enqueues a recognized utterance. Convenience for wiring the
// voice session's emit callback.
func (c *Coordinator) PushUtterance(u types.Utterance) {
	c.utteranceQueue.Push(u)
}

// PushGesture enqueues a confirmed gesture.
func (c *Coordinator) PushGesture(g types.ConfirmedGesture) {
	c.gestureQueue.Push(g)
}

// PopUtterance dequeues the oldest recognized utterance, if any.
func (c *Coordinator) PopUtterance() (types.Utterance, bool) {
	return c.utteranceQueue.Pop()
}

// PopGesture dequeues the oldest confirmed gesture, if any.
func (c *Coordinator) PopGesture() (types.ConfirmedGesture, bool) {
	return c.gestureQueue.Pop()
}
