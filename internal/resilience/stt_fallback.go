package resilience

import (
	"context"
	"errors"

	"github.com/voxgest/voxgest/pkg/provider/stt"
)

// RecognizerFallback implements [stt.Recognizer] with automatic failover
// across multiple STT backends. Each backend has its own circuit breaker.
//
// [stt.ErrNotRecognized] is treated as a successful call: the audio reached
// the service and was processed, it just contained no speech. It neither
// counts against the circuit breaker nor triggers failover to the next
// backend.
type RecognizerFallback struct {
	group *FallbackGroup[stt.Recognizer]
}

// Compile-time interface assertion.
var _ stt.Recognizer = (*RecognizerFallback)(nil)

// NewRecognizerFallback creates a [RecognizerFallback] with primary as the
// preferred backend.
func NewRecognizerFallback(primary stt.Recognizer, primaryName string, cfg FallbackConfig) *RecognizerFallback {
	return &RecognizerFallback{
		group: NewFallbackGroup(primary, primaryName, cfg),
	}
}

// AddFallback registers an additional recognizer as a fallback.
func (f *RecognizerFallback) AddFallback(name string, r stt.Recognizer) {
	f.group.AddFallback(name, r)
}

// Recognize transcribes the WAV payload using the first healthy backend.
func (f *RecognizerFallback) Recognize(ctx context.Context, wav []byte) (string, error) {
	var notRecognized bool
	text, err := ExecuteWithResult(f.group, func(r stt.Recognizer) (string, error) {
		text, err := r.Recognize(ctx, wav)
		if errors.Is(err, stt.ErrNotRecognized) {
			notRecognized = true
			return "", nil
		}
		return text, err
	})
	if err == nil && notRecognized {
		return "", stt.ErrNotRecognized
	}
	return text, err
}
