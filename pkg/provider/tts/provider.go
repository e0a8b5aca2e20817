// Package tts defines the Speaker interface for text-to-speech backends.
//
// voxgest speaks complete answers, not token streams, so the contract is a
// single batch synthesis call per response. Playback happens in the consuming
// shell (the browser); the synthesized audio carries enough information for
// the turn-taking coordinator to extend the generation phase through playback.
//
// Implementations must be safe for concurrent use.
package tts

import (
	"context"
	"time"
)

// Audio is one synthesized response, ready for playback.
type Audio struct {
	// PCM is raw 16-bit signed little-endian mono PCM.
	PCM []byte

	// SampleRate in Hz.
	SampleRate int
}

// Duration returns the playback duration of the audio, or zero when the
// sample rate is unset. The coordinator uses this to keep gesture capture
// paused while the answer is being spoken.
func (a Audio) Duration() time.Duration {
	if a.SampleRate <= 0 {
		return 0
	}
	samples := len(a.PCM) / 2
	return time.Duration(samples) * time.Second / time.Duration(a.SampleRate)
}

// VoiceProfile identifies a synthesis voice offered by a provider.
type VoiceProfile struct {
	// ID is the provider-specific voice identifier.
	ID string

	// Name is the human-readable voice name.
	Name string

	// Provider names the backend this voice belongs to (e.g., "elevenlabs").
	Provider string

	// Metadata holds provider-specific labels (gender, language, category).
	Metadata map[string]string
}

// Speaker is the abstraction over any text-to-speech backend.
type Speaker interface {
	// Synthesize converts text to audio. Empty text returns empty Audio and
	// no error.
	Synthesize(ctx context.Context, text string) (Audio, error)

	// ListVoices returns the voices available to the configured credentials.
	// Shells use this to let the user pick a voice; providers with a single
	// fixed voice may return a one-element slice.
	ListVoices(ctx context.Context) ([]VoiceProfile, error)
}
