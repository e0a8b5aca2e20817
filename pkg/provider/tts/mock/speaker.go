// Package mock provides test doubles for the tts package interfaces.
package mock

import (
	"context"
	"sync"

	"github.com/voxgest/voxgest/pkg/provider/tts"
)

// SynthesizeCall records a single invocation of Speaker.Synthesize.
type SynthesizeCall struct {
	// Text is the text passed to Synthesize.
	Text string
}

// Speaker is a mock implementation of tts.Speaker.
type Speaker struct {
	mu sync.Mutex

	// Audio is returned by every Synthesize call.
	Audio tts.Audio

	// SynthesizeErr, if non-nil, is returned by every Synthesize call.
	SynthesizeErr error

	// Voices is returned by ListVoices.
	Voices []tts.VoiceProfile

	// ListVoicesErr, if non-nil, is returned by ListVoices.
	ListVoicesErr error

	// SynthesizeCalls records every call to Synthesize in order.
	SynthesizeCalls []SynthesizeCall
}

// Synthesize records the call and returns Audio, SynthesizeErr.
func (s *Speaker) Synthesize(_ context.Context, text string) (tts.Audio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SynthesizeCalls = append(s.SynthesizeCalls, SynthesizeCall{Text: text})
	if s.SynthesizeErr != nil {
		return tts.Audio{}, s.SynthesizeErr
	}
	return s.Audio, nil
}

// ListVoices returns Voices, ListVoicesErr.
func (s *Speaker) ListVoices(_ context.Context) ([]tts.VoiceProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Voices, s.ListVoicesErr
}

// Reset clears all recorded calls. Thread-safe.
func (s *Speaker) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SynthesizeCalls = nil
}

// Ensure Speaker implements tts.Speaker at compile time.
var _ tts.Speaker = (*Speaker)(nil)
