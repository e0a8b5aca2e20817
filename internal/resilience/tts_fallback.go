package resilience

import (
	"context"

	"github.com/voxgest/voxgest/pkg/provider/tts"
)

// SpeakerFallback implements [tts.Speaker] with automatic failover across
// multiple TTS backends. Each backend has its own circuit breaker.
type SpeakerFallback struct {
	group *FallbackGroup[tts.Speaker]
}

// Compile-time interface assertion.
var _ tts.Speaker = (*SpeakerFallback)(nil)

// NewSpeakerFallback creates a [SpeakerFallback] with primary as the
// preferred backend.
func NewSpeakerFallback(primary tts.Speaker, primaryName string, cfg FallbackConfig) *SpeakerFallback {
	return &SpeakerFallback{
		group: NewFallbackGroup(primary, primaryName, cfg),
	}
}

// AddFallback registers an additional speaker as a fallback.
func (f *SpeakerFallback) AddFallback(name string, s tts.Speaker) {
	f.group.AddFallback(name, s)
}

// Synthesize converts text to audio using the first healthy backend.
// Fallback backends may speak with a different voice than the primary.
func (f *SpeakerFallback) Synthesize(ctx context.Context, text string) (tts.Audio, error) {
	return ExecuteWithResult(f.group, func(s tts.Speaker) (tts.Audio, error) {
		return s.Synthesize(ctx, text)
	})
}

// ListVoices returns available voices from the first healthy backend.
func (f *SpeakerFallback) ListVoices(ctx context.Context) ([]tts.VoiceProfile, error) {
	return ExecuteWithResult(f.group, func(s tts.Speaker) ([]tts.VoiceProfile, error) {
		return s.ListVoices(ctx)
	})
}
