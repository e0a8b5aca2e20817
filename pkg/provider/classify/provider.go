// Package classify defines the hand gesture classification contract.
// A classifier inspects a single video frame and reports the gestures
// it sees; temporal smoothing and confirmation happen downstream.
package classify

import (
	"context"

	"github.com/voxgest/voxgest/pkg/types"
)

// Classifier analyzes one frame at a time.
type Classifier interface {
	// Classify returns zero or more gesture observations for the frame,
	// one per detected hand. An empty slice means no hands were seen;
	// that is not an error.
	Classify(ctx context.Context, frame types.VideoFrame) ([]types.GestureObservation, error)
}
