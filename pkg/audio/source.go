// Package audio defines the capture-side audio contract for voxgest.
//
// The central abstraction is [Source]: a device (or device bridge) that yields
// fixed-size mono PCM16 frames on demand. The voice segmenter owns exactly one
// Source for the lifetime of a recording session and is the only reader of its
// frames; the request-handling layer never sees raw audio.
//
// Implementations are provided by adapter packages (audio/wsbridge for the
// browser microphone bridge, audio/mock for tests). The interface is
// intentionally narrow to keep the segmenter decoupled from transport details.
package audio

import (
	"context"
	"errors"

	"github.com/voxgest/voxgest/pkg/types"
)

// ErrSourceClosed is returned by ReadFrame once the source has been closed or
// the underlying device has disconnected. The segmenter treats it as
// session-fatal: the capture loop terminates and surfaces a stopped status.
var ErrSourceClosed = errors.New("audio: source closed")

// Source yields captured audio frames at the device's native cadence.
//
// A Source is exclusively owned by a single capture loop. Implementations must
// tolerate ReadFrame and Close being called from different goroutines, but
// ReadFrame itself is never called concurrently.
type Source interface {
	// ReadFrame blocks until the next frame is available, the context is
	// cancelled, or the source fails. A hardware or transport failure is
	// reported as an error (ErrSourceClosed once the source is gone);
	// such errors are terminal for the current capture session.
	ReadFrame(ctx context.Context) (types.AudioFrame, error)

	// SampleRate returns the source's sample rate in Hz.
	SampleRate() int

	// Close releases the underlying device handle. Pending and future
	// ReadFrame calls return ErrSourceClosed. Close is idempotent.
	Close() error
}
