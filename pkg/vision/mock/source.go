// Package mock provides test doubles for the vision package interfaces.
//
// Use Source to script a sequence of camera frames for the gesture capture
// loop to consume and to inspect lifecycle calls.
package mock

import (
	"context"
	"sync"

	"github.com/voxgest/voxgest/pkg/types"
	"github.com/voxgest/voxgest/pkg/vision"
)

// Source is a mock implementation of vision.Source.
//
// ReadFrame returns the scripted Frames in order. Once the script is
// exhausted it blocks until the context is cancelled or Close is called,
// mimicking a camera with no further data.
type Source struct {
	mu sync.Mutex

	// Frames is the scripted sequence returned by successive ReadFrame calls.
	Frames []types.VideoFrame

	// ReadErr, if non-nil, is returned by every ReadFrame call instead of a
	// frame. Use it to simulate a camera failure.
	ReadErr error

	// ReadCallCount is the number of times ReadFrame was called.
	ReadCallCount int

	// CloseCallCount is the number of times Close was called.
	CloseCallCount int

	next      int
	closed    chan struct{}
	closeOnce sync.Once
}

// ReadFrame returns the next scripted frame, or blocks after exhaustion.
func (s *Source) ReadFrame(ctx context.Context) (types.VideoFrame, error) {
	s.mu.Lock()
	s.ReadCallCount++
	if s.ReadErr != nil {
		err := s.ReadErr
		s.mu.Unlock()
		return types.VideoFrame{}, err
	}
	if s.next < len(s.Frames) {
		f := s.Frames[s.next]
		s.next++
		s.mu.Unlock()
		return f, nil
	}
	closed := s.closedCh()
	s.mu.Unlock()

	select {
	case <-ctx.Done():
		return types.VideoFrame{}, ctx.Err()
	case <-closed:
		return types.VideoFrame{}, vision.ErrSourceClosed
	}
}

// Close records the call and unblocks pending reads.
func (s *Source) Close() error {
	s.mu.Lock()
	s.CloseCallCount++
	s.closedCh()
	s.mu.Unlock()

	s.closeOnce.Do(func() { close(s.closed) })
	return nil
}

// closedCh lazily initialises the closed channel. Callers must hold mu.
func (s *Source) closedCh() chan struct{} {
	if s.closed == nil {
		s.closed = make(chan struct{})
	}
	return s.closed
}

// Ensure Source implements vision.Source at compile time.
var _ vision.Source = (*Source)(nil)
