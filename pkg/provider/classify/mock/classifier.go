// Package mock provides a test double for the classify.Classifier interface.
//
// Use Classifier in unit tests to script per-frame gesture observations
// without a running MediaPipe sidecar.
package mock

import (
	"context"
	"sync"

	"github.com/voxgest/voxgest/pkg/provider/classify"
	"github.com/voxgest/voxgest/pkg/types"
)

// ClassifyCall records a single invocation of Classify.
type ClassifyCall struct {
	// Ctx is the context passed to Classify.
	Ctx context.Context
	// Frame is the video frame passed to Classify.
	Frame types.VideoFrame
}

// Classifier is a mock implementation of classify.Classifier.
// Zero values cause Classify to return no observations and a nil error.
type Classifier struct {
	mu sync.Mutex

	// Observations is returned by Classify when Script is empty.
	Observations []types.GestureObservation

	// Script, if non-empty, is consumed one entry per Classify call.
	// Once exhausted, Classify falls back to Observations.
	Script [][]types.GestureObservation

	// Err, if non-nil, is returned as the error from Classify.
	Err error

	// ClassifyCalls records every invocation of Classify in order.
	ClassifyCalls []ClassifyCall

	next int
}

var _ classify.Classifier = (*Classifier)(nil)

// Classify implements classify.Classifier.
func (c *Classifier) Classify(ctx context.Context, frame types.VideoFrame) ([]types.GestureObservation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ClassifyCalls = append(c.ClassifyCalls, ClassifyCall{Ctx: ctx, Frame: frame})

	if c.Err != nil {
		return nil, c.Err
	}
	if c.next < len(c.Script) {
		obs := c.Script[c.next]
		c.next++
		return obs, nil
	}
	return c.Observations, nil
}

// CallCount returns the number of Classify invocations so far.
func (c *Classifier) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.ClassifyCalls)
}

// Reset clears all recorded calls and rewinds the script.
func (c *Classifier) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ClassifyCalls = nil
	c.next = 0
}
