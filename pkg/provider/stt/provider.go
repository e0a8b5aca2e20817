// Package stt defines the Recognizer interface for speech-to-text backends.
//
// Unlike streaming STT APIs, voxgest performs its own utterance segmentation:
// the voice capture loop accumulates PCM frames, detects the end of a spoken
// sentence, and submits the complete utterance as a single WAV-encoded batch
// request. A Recognizer therefore only needs to turn one finished recording
// into text.
//
// Recognition is invoked synchronously from the audio capture loop, so
// implementations should honour context cancellation and keep their own
// timeouts; a hung recognizer stalls frame intake for the whole session.
//
// Implementations must be safe for concurrent use.
package stt

import (
	"context"
	"errors"
)

// ErrNotRecognized is returned when the service processed the audio but could
// not extract any speech from it. Callers treat this as a recoverable
// per-segment condition: the segment is discarded and listening continues.
var ErrNotRecognized = errors.New("stt: speech not recognized")

// Recognizer is the abstraction over any speech-to-text backend.
type Recognizer interface {
	// Recognize transcribes a complete utterance. wav must be a RIFF/WAV
	// container holding 16-bit mono PCM (see audio.EncodeWAV).
	//
	// Returns the transcribed text, ErrNotRecognized when the audio contains
	// no recognizable speech, or another error for transport and service
	// failures. An empty transcription with a nil error is never returned.
	Recognize(ctx context.Context, wav []byte) (string, error)
}
