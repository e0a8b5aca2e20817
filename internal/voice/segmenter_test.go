package voice

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/voxgest/voxgest/pkg/types"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

// frameDur is the cadence of a 1024-sample frame at 16 kHz.
const frameDur = 64 * time.Millisecond

// frameAt builds a 1024-sample mono frame where every sample has the given
// amplitude.
func frameAt(amplitude int16) types.AudioFrame {
	data := make([]byte, 1024*2)
	for i := 0; i < 1024; i++ {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(amplitude))
	}
	return types.AudioFrame{Data: data, SampleRate: 16000, Channels: 1}
}

// feedFor feeds constant-amplitude frames for the given duration, advancing
// the clock one frame cadence per feed, and returns all results that carried
// a segment or inactivity signal.
func feedFor(s *Segmenter, clk *fakeClock, amplitude int16, d time.Duration) []Result {
	var events []Result
	for elapsed := time.Duration(0); elapsed < d; elapsed += frameDur {
		clk.advance(frameDur)
		res := s.Feed(frameAt(amplitude))
		if res.Segment != nil || res.Inactive {
			events = append(events, res)
		}
	}
	return events
}

// TestSegmenter_SilenceSpeechSilence checks the canonical segmentation cycle:
// leading silence, one second of speech, trailing silence long enough to close
// the segment. Exactly one segment comes out and the session stays alive.
func TestSegmenter_SilenceSpeechSilence(t *testing.T) {
	clk := newFakeClock()
	s := NewSegmenter(SegmenterConfig{}, clk.now)

	if events := feedFor(s, clk, 0, 3*time.Second); len(events) != 0 {
		t.Fatalf("leading silence produced %d events, want 0", len(events))
	}
	if events := feedFor(s, clk, 1000, time.Second); len(events) != 0 {
		t.Fatalf("speech produced %d events before silence, want 0", len(events))
	}

	events := feedFor(s, clk, 0, 2500*time.Millisecond)
	if len(events) != 1 {
		t.Fatalf("trailing silence produced %d events, want 1", len(events))
	}
	seg := events[0].Segment
	if seg == nil {
		t.Fatal("expected a completed segment, got inactivity")
	}
	// ~1 s of speech at 16 frames per second.
	if seg.Frames < 14 || seg.Frames > 17 {
		t.Errorf("expected ~16 speech frames, got %d", seg.Frames)
	}
	if got := seg.Duration(); got < 900*time.Millisecond || got > 1100*time.Millisecond {
		t.Errorf("expected ~1s segment duration, got %v", got)
	}
	if s.HasSpeech() {
		t.Error("expected speech state cleared after emission")
	}
}

// TestSegmenter_NoDoubleEmission checks that continued silence after an
// emission does not emit the same frames again.
func TestSegmenter_NoDoubleEmission(t *testing.T) {
	clk := newFakeClock()
	s := NewSegmenter(SegmenterConfig{}, clk.now)

	feedFor(s, clk, 1000, time.Second)
	events := feedFor(s, clk, 0, 3*time.Second)

	segments := 0
	for _, e := range events {
		if e.Segment != nil {
			segments++
		}
	}
	if segments != 1 {
		t.Errorf("expected exactly 1 segment, got %d", segments)
	}
}

// TestSegmenter_ShortSilenceDoesNotSplit checks that a pause shorter than the
// silence threshold keeps accumulating into the same segment.
func TestSegmenter_ShortSilenceDoesNotSplit(t *testing.T) {
	clk := newFakeClock()
	s := NewSegmenter(SegmenterConfig{}, clk.now)

	feedFor(s, clk, 1000, time.Second)
	if events := feedFor(s, clk, 0, time.Second); len(events) != 0 {
		t.Fatalf("short pause emitted %d events, want 0", len(events))
	}
	feedFor(s, clk, 1000, time.Second)

	events := feedFor(s, clk, 0, 2500*time.Millisecond)
	if len(events) != 1 || events[0].Segment == nil {
		t.Fatalf("expected one segment after final silence, got %+v", events)
	}
	// Both bursts of speech belong to the one segment.
	if got := events[0].Segment.Duration(); got < 1800*time.Millisecond {
		t.Errorf("expected both speech bursts in segment, duration %v", got)
	}
}

// TestSegmenter_ArtifactFilter checks that a too-short burst is discarded
// without emission.
func TestSegmenter_ArtifactFilter(t *testing.T) {
	clk := newFakeClock()
	s := NewSegmenter(SegmenterConfig{}, clk.now)

	// 3 frames of speech is below the 10-frame floor.
	for i := 0; i < 3; i++ {
		clk.advance(frameDur)
		s.Feed(frameAt(1000))
	}
	events := feedFor(s, clk, 0, 2500*time.Millisecond)
	for _, e := range events {
		if e.Segment != nil {
			t.Fatal("expected artifact to be discarded, got a segment")
		}
	}
	if s.HasSpeech() {
		t.Error("expected speech state cleared after discard")
	}
}

// TestSegmenter_InactivityTimeout checks that pure silence past the timeout
// reports inactivity.
func TestSegmenter_InactivityTimeout(t *testing.T) {
	clk := newFakeClock()
	s := NewSegmenter(SegmenterConfig{}, clk.now)

	events := feedFor(s, clk, 0, 6*time.Second)
	if len(events) == 0 {
		t.Fatal("expected inactivity event")
	}
	if !events[0].Inactive {
		t.Fatalf("expected first event to be inactivity, got %+v", events[0])
	}
}

// TestSegmenter_EmissionRefreshesInactivityClock checks the grace period: the
// inactivity timer restarts when a segment is emitted, so the speaker has the
// full timeout to start the next utterance.
func TestSegmenter_EmissionRefreshesInactivityClock(t *testing.T) {
	clk := newFakeClock()
	s := NewSegmenter(SegmenterConfig{}, clk.now)

	feedFor(s, clk, 1000, time.Second)
	events := feedFor(s, clk, 0, 2500*time.Millisecond)
	if len(events) != 1 || events[0].Segment == nil {
		t.Fatalf("expected one segment, got %+v", events)
	}

	// 4.5 s more silence: under the 5 s timeout counted from emission.
	events = feedFor(s, clk, 0, 4500*time.Millisecond)
	for _, e := range events {
		if e.Inactive {
			t.Fatal("inactivity fired inside the grace period")
		}
	}

	// Another second tips it over.
	events = feedFor(s, clk, 0, time.Second)
	if len(events) == 0 || !events[0].Inactive {
		t.Errorf("expected inactivity after grace period, got %+v", events)
	}
}

// TestSegmenter_SpeechRestartsInactivityClock checks that hearing speech keeps
// the session alive indefinitely.
func TestSegmenter_SpeechRestartsInactivityClock(t *testing.T) {
	clk := newFakeClock()
	s := NewSegmenter(SegmenterConfig{}, clk.now)

	for i := 0; i < 4; i++ {
		feedFor(s, clk, 0, 4*time.Second)
		clk.advance(frameDur)
		res := s.Feed(frameAt(1000))
		if res.Inactive {
			t.Fatalf("inactivity fired on cycle %d despite periodic speech", i)
		}
	}
}

// TestSegmenter_CustomThresholds checks that configured thresholds are honored.
func TestSegmenter_CustomThresholds(t *testing.T) {
	clk := newFakeClock()
	s := NewSegmenter(SegmenterConfig{
		VolumeThreshold:  2000,
		SilenceThreshold: 500 * time.Millisecond,
		MinFrames:        2,
	}, clk.now)

	// Amplitude 1000 is below the raised threshold: treated as silence.
	if events := feedFor(s, clk, 1000, time.Second); len(events) != 0 {
		t.Fatal("sub-threshold amplitude should not start a segment")
	}
	if s.HasSpeech() {
		t.Fatal("expected no speech state")
	}

	feedFor(s, clk, 3000, 500*time.Millisecond)
	events := feedFor(s, clk, 0, time.Second)
	if len(events) != 1 || events[0].Segment == nil {
		t.Fatalf("expected one segment with shortened silence threshold, got %+v", events)
	}
}

// TestSegmenter_Reset checks that Reset discards accumulated speech.
func TestSegmenter_Reset(t *testing.T) {
	clk := newFakeClock()
	s := NewSegmenter(SegmenterConfig{}, clk.now)

	feedFor(s, clk, 1000, time.Second)
	s.Reset()
	if s.HasSpeech() {
		t.Error("expected no speech state after Reset")
	}

	events := feedFor(s, clk, 0, 3*time.Second)
	for _, e := range events {
		if e.Segment != nil {
			t.Fatal("expected no segment after Reset discarded the buffer")
		}
	}
}
