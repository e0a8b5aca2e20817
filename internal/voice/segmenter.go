// Package voice turns a continuous audio-frame stream into discrete spoken
// utterances. The Segmenter is the pure state machine that finds
// speech/silence boundaries; the Session wraps it with a capture loop, a
// speech recognizer, and lifecycle management.
package voice

import (
	"time"

	"github.com/voxgest/voxgest/pkg/audio"
	"github.com/voxgest/voxgest/pkg/types"
)

// Default segmentation thresholds. Volume is mean absolute amplitude of a
// 16-bit PCM frame; 500 reliably separates speech from room noise on typical
// consumer microphones without per-device calibration.
const (
	DefaultVolumeThreshold   = 500
	DefaultSilenceThreshold  = 2 * time.Second
	DefaultInactivityTimeout = 5 * time.Second

	// DefaultMinFrames discards segments shorter than ~0.25 s at the standard
	// 1024-sample frame size. Keyboard clicks and chair squeaks routinely
	// cross the volume threshold for a frame or two.
	DefaultMinFrames = 10
)

// SegmenterConfig tunes the boundary detection thresholds. Zero values take
// the package defaults.
type SegmenterConfig struct {
	// VolumeThreshold is the mean absolute amplitude above which a frame
	// counts as speech.
	VolumeThreshold int

	// SilenceThreshold is how long the signal must stay below the volume
	// threshold before an accumulated segment is considered complete.
	SilenceThreshold time.Duration

	// InactivityTimeout ends the session when no speech has been heard for
	// this long.
	InactivityTimeout time.Duration

	// MinFrames is the artifact filter: segments with fewer speech frames are
	// discarded without emission.
	MinFrames int
}

func (c SegmenterConfig) withDefaults() SegmenterConfig {
	if c.VolumeThreshold <= 0 {
		c.VolumeThreshold = DefaultVolumeThreshold
	}
	if c.SilenceThreshold <= 0 {
		c.SilenceThreshold = DefaultSilenceThreshold
	}
	if c.InactivityTimeout <= 0 {
		c.InactivityTimeout = DefaultInactivityTimeout
	}
	if c.MinFrames <= 0 {
		c.MinFrames = DefaultMinFrames
	}
	return c
}

// Segment is one complete utterance worth of speech frames.
type Segment struct {
	// PCM is the concatenated 16-bit mono samples of all speech frames.
	PCM []byte

	// SampleRate of the captured audio.
	SampleRate int

	// Frames is the number of speech frames accumulated.
	Frames int
}

// Duration returns the playback length of the segment.
func (s Segment) Duration() time.Duration {
	if s.SampleRate <= 0 {
		return 0
	}
	samples := len(s.PCM) / 2
	return time.Duration(samples) * time.Second / time.Duration(s.SampleRate)
}

// Result is the outcome of feeding one frame to the Segmenter.
type Result struct {
	// Segment is non-nil when a completed utterance is ready for recognition.
	Segment *Segment

	// Inactive is true when the inactivity timeout has elapsed; the caller
	// should end the session and release the capture source.
	Inactive bool
}

// Segmenter is the speech/silence boundary state machine. It is not safe for
// concurrent use; a Session feeds it from a single capture loop.
type Segmenter struct {
	cfg SegmenterConfig
	now func() time.Time

	hasSpeech    bool
	silenceStart time.Time
	lastSpeech   time.Time
	buf          []byte
	frames       int
	sampleRate   int
}

// NewSegmenter creates a Segmenter with the given thresholds. The clock is
// injectable for tests; pass nil for time.Now.
func NewSegmenter(cfg SegmenterConfig, now func() time.Time) *Segmenter {
	if now == nil {
		now = time.Now
	}
	s := &Segmenter{cfg: cfg.withDefaults(), now: now}
	s.Reset()
	return s
}

// Reset clears all accumulated state and restarts the inactivity clock, as on
// a fresh listening session.
func (s *Segmenter) Reset() {
	s.hasSpeech = false
	s.silenceStart = time.Time{}
	s.lastSpeech = s.now()
	s.buf = nil
	s.frames = 0
	s.sampleRate = 0
}

// Feed processes one captured frame and reports whether it completed a
// segment or tripped the inactivity timeout. Exactly one Result field is set
// per call, or neither.
func (s *Segmenter) Feed(frame types.AudioFrame) Result {
	now := s.now()

	if now.Sub(s.lastSpeech) > s.cfg.InactivityTimeout {
		return Result{Inactive: true}
	}

	amplitude := audio.MeanAbs(frame.Data)

	if amplitude > float64(s.cfg.VolumeThreshold) {
		s.hasSpeech = true
		s.silenceStart = time.Time{}
		s.lastSpeech = now
		s.buf = append(s.buf, frame.Data...)
		s.frames++
		if s.sampleRate == 0 {
			s.sampleRate = frame.SampleRate
		}
		return Result{}
	}

	if !s.hasSpeech {
		return Result{}
	}

	if s.silenceStart.IsZero() {
		s.silenceStart = now
		return Result{}
	}

	if now.Sub(s.silenceStart) < s.cfg.SilenceThreshold {
		return Result{}
	}

	// Silence held long enough: the utterance is complete. Short segments are
	// dropped as artifacts either way, and the inactivity clock is refreshed
	// so the speaker gets a grace period before the session times out.
	segment := (*Segment)(nil)
	if s.frames >= s.cfg.MinFrames {
		segment = &Segment{PCM: s.buf, SampleRate: s.sampleRate, Frames: s.frames}
	}

	s.hasSpeech = false
	s.silenceStart = time.Time{}
	s.lastSpeech = now
	s.buf = nil
	s.frames = 0
	s.sampleRate = 0

	return Result{Segment: segment}
}

// HasSpeech reports whether the segmenter is currently accumulating a
// segment.
func (s *Segmenter) HasSpeech() bool {
	return s.hasSpeech
}
