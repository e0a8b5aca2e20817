package turn

import (
	"sync"
	"testing"

	"github.com/voxgest/voxgest/pkg/types"
)

// recordingPauser counts Pause/Resume invocations. It reports an active
// capture session unless inactive is set.
type recordingPauser struct {
	mu       sync.Mutex
	pauses   int
	resumes  int
	inactive bool
}

func (p *recordingPauser) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pauses++
}

func (p *recordingPauser) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resumes++
}

func (p *recordingPauser) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.inactive
}

func (p *recordingPauser) counts() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pauses, p.resumes
}

// TestCoordinator_InitialState checks that a new coordinator starts capturing.
func TestCoordinator_InitialState(t *testing.T) {
	c := NewCoordinator(nil)
	if got := c.State(); got != StateCapturing {
		t.Errorf("expected initial state capturing, got %q", got)
	}
}

// TestCoordinator_BeginEndCycle checks the basic pause/resume bracket.
func TestCoordinator_BeginEndCycle(t *testing.T) {
	p := &recordingPauser{}
	c := NewCoordinator(p)

	c.BeginGeneration()
	if got := c.State(); got != StatePaused {
		t.Errorf("expected paused after BeginGeneration, got %q", got)
	}
	c.EndGeneration()
	if got := c.State(); got != StateCapturing {
		t.Errorf("expected capturing after EndGeneration, got %q", got)
	}

	pauses, resumes := p.counts()
	if pauses != 1 || resumes != 1 {
		t.Errorf("expected 1 pause and 1 resume, got %d and %d", pauses, resumes)
	}
}

// TestCoordinator_BeginGenerationIdempotent checks that a double Begin pauses once.
func TestCoordinator_BeginGenerationIdempotent(t *testing.T) {
	p := &recordingPauser{}
	c := NewCoordinator(p)

	c.BeginGeneration()
	c.BeginGeneration()

	pauses, _ := p.counts()
	if pauses != 1 {
		t.Errorf("expected 1 pause after double BeginGeneration, got %d", pauses)
	}
}

// TestCoordinator_EndGenerationIdempotent checks that a double End resumes once.
func TestCoordinator_EndGenerationIdempotent(t *testing.T) {
	p := &recordingPauser{}
	c := NewCoordinator(p)

	c.BeginGeneration()
	c.EndGeneration()
	c.EndGeneration()

	_, resumes := p.counts()
	if resumes != 1 {
		t.Errorf("expected 1 resume after double EndGeneration, got %d", resumes)
	}
}

// TestCoordinator_EndWithoutBegin checks that End on a capturing coordinator is a no-op.
func TestCoordinator_EndWithoutBegin(t *testing.T) {
	p := &recordingPauser{}
	c := NewCoordinator(p)

	c.EndGeneration()

	pauses, resumes := p.counts()
	if pauses != 0 || resumes != 0 {
		t.Errorf("expected no pauser calls, got %d pauses and %d resumes", pauses, resumes)
	}
	if got := c.State(); got != StateCapturing {
		t.Errorf("expected capturing, got %q", got)
	}
}

// TestCoordinator_InactiveCaptureIsNotPaused checks that a generation phase
// leaves a stopped capture session alone: there is nothing to pause, and no
// resume is owed at the end.
func TestCoordinator_InactiveCaptureIsNotPaused(t *testing.T) {
	p := &recordingPauser{inactive: true}
	c := NewCoordinator(p)

	c.BeginGeneration()
	if got := c.State(); got != StatePaused {
		t.Errorf("expected paused, got %q", got)
	}
	c.EndGeneration()

	pauses, resumes := p.counts()
	if pauses != 0 || resumes != 0 {
		t.Errorf("expected no pauser calls on inactive capture, got %d pauses and %d resumes", pauses, resumes)
	}
}

// TestCoordinator_NilPauser checks that a coordinator without a gesture engine
// still tracks phase state.
func TestCoordinator_NilPauser(t *testing.T) {
	c := NewCoordinator(nil)
	c.BeginGeneration()
	if got := c.State(); got != StatePaused {
		t.Errorf("expected paused, got %q", got)
	}
	c.EndGeneration()
	if got := c.State(); got != StateCapturing {
		t.Errorf("expected capturing, got %q", got)
	}
}

// TestCoordinator_QueueRoundTrip checks push/pop through the coordinator helpers.
func TestCoordinator_QueueRoundTrip(t *testing.T) {
	c := NewCoordinator(nil)

	c.PushUtterance(types.Utterance{Text: "hello"})
	c.PushGesture(types.ConfirmedGesture{Type: types.GestureVictory, Text: "Yes, exactly!"})

	u, ok := c.PopUtterance()
	if !ok || u.Text != "hello" {
		t.Errorf("expected utterance hello, got %+v ok=%v", u, ok)
	}
	g, ok := c.PopGesture()
	if !ok || g.Type != types.GestureVictory {
		t.Errorf("expected victory gesture, got %+v ok=%v", g, ok)
	}

	if _, ok := c.PopUtterance(); ok {
		t.Error("expected empty utterance queue")
	}
	if _, ok := c.PopGesture(); ok {
		t.Error("expected empty gesture queue")
	}
}
