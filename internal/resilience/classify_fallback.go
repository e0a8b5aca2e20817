package resilience

import (
	"context"

	"github.com/voxgest/voxgest/pkg/provider/classify"
	"github.com/voxgest/voxgest/pkg/types"
)

// ClassifierFallback implements [classify.Classifier] with automatic failover
// across multiple gesture classification backends, for example a local
// sidecar with a remote instance as backup. Each backend has its own circuit
// breaker.
type ClassifierFallback struct {
	group *FallbackGroup[classify.Classifier]
}

// Compile-time interface assertion.
var _ classify.Classifier = (*ClassifierFallback)(nil)

// NewClassifierFallback creates a [ClassifierFallback] with primary as the
// preferred backend.
func NewClassifierFallback(primary classify.Classifier, primaryName string, cfg FallbackConfig) *ClassifierFallback {
	return &ClassifierFallback{
		group: NewFallbackGroup(primary, primaryName, cfg),
	}
}

// AddFallback registers an additional classifier as a fallback.
func (f *ClassifierFallback) AddFallback(name string, c classify.Classifier) {
	f.group.AddFallback(name, c)
}

// Classify runs the frame through the first healthy backend. An empty
// observation slice is a valid result (no hands in frame) and does not
// trigger failover.
func (f *ClassifierFallback) Classify(ctx context.Context, frame types.VideoFrame) ([]types.GestureObservation, error) {
	return ExecuteWithResult(f.group, func(c classify.Classifier) ([]types.GestureObservation, error) {
		return c.Classify(ctx, frame)
	})
}
