// Package vision defines the capture-side camera contract for voxgest.
//
// [Source] mirrors the audio.Source shape for video: a camera (or camera
// bridge) that yields encoded frames on demand. The gesture analyzer owns
// exactly one Source per capture session and is the only reader of its frames.
package vision

import (
	"context"
	"errors"

	"github.com/voxgest/voxgest/pkg/types"
)

// ErrSourceClosed is returned by ReadFrame once the source has been closed or
// the underlying camera has disconnected. The gesture analyzer treats it as
// session-fatal.
var ErrSourceClosed = errors.New("vision: source closed")

// Source yields captured camera frames at the device's native cadence.
//
// A Source is exclusively owned by a single capture loop. Implementations must
// tolerate ReadFrame and Close being called from different goroutines, but
// ReadFrame itself is never called concurrently.
type Source interface {
	// ReadFrame blocks until the next frame is available, the context is
	// cancelled, or the source fails. Errors are terminal for the current
	// capture session.
	ReadFrame(ctx context.Context) (types.VideoFrame, error)

	// Close releases the underlying camera handle. Pending and future
	// ReadFrame calls return ErrSourceClosed. Close is idempotent.
	Close() error
}
