// Package mock provides test doubles for the audio package interfaces.
//
// Use Source to script a sequence of frames for the capture loop to consume
// and to inspect lifecycle calls.
//
// Example:
//
//	src := &mock.Source{
//	    Frames: []types.AudioFrame{{Data: pcm, SampleRate: 16000, Channels: 1}},
//	}
//	frame, _ := src.ReadFrame(ctx)
package mock

import (
	"context"
	"sync"

	"github.com/voxgest/voxgest/pkg/audio"
	"github.com/voxgest/voxgest/pkg/types"
)

// Source is a mock implementation of audio.Source.
//
// ReadFrame returns the scripted Frames in order. Once the script is
// exhausted it blocks until the context is cancelled or Close is called,
// mimicking a device with no further data.
type Source struct {
	mu sync.Mutex

	// Frames is the scripted sequence returned by successive ReadFrame calls.
	Frames []types.AudioFrame

	// ReadErr, if non-nil, is returned by every ReadFrame call instead of a
	// frame. Use it to simulate a hardware failure.
	ReadErr error

	// Rate is the value returned by SampleRate. Defaults to 16000 when zero.
	Rate int

	// CloseErr, if non-nil, is returned by the first Close call.
	CloseErr error

	// ReadCallCount is the number of times ReadFrame was called.
	ReadCallCount int

	// CloseCallCount is the number of times Close was called.
	CloseCallCount int

	next      int
	closed    chan struct{}
	closeOnce sync.Once
}

// ReadFrame returns the next scripted frame, or blocks after exhaustion.
func (s *Source) ReadFrame(ctx context.Context) (types.AudioFrame, error) {
	s.mu.Lock()
	s.ReadCallCount++
	if s.ReadErr != nil {
		err := s.ReadErr
		s.mu.Unlock()
		return types.AudioFrame{}, err
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
		return types.AudioFrame{}, ctx.Err()
	case <-closed:
		return types.AudioFrame{}, audio.ErrSourceClosed
	}
}

// SampleRate returns Rate, defaulting to 16000.
func (s *Source) SampleRate() int {
	if s.Rate == 0 {
		return 16000
	}
	return s.Rate
}

// Close records the call, unblocks pending reads, and returns CloseErr once.
func (s *Source) Close() error {
	s.mu.Lock()
	s.CloseCallCount++
	err := s.CloseErr
	s.CloseErr = nil
	s.closedCh()
	s.mu.Unlock()

	s.closeOnce.Do(func() { close(s.closed) })
	return err
}

// closedCh lazily initialises the closed channel. Callers must hold mu.
func (s *Source) closedCh() chan struct{} {
	if s.closed == nil {
		s.closed = make(chan struct{})
	}
	return s.closed
}

// Ensure Source implements audio.Source at compile time.
var _ audio.Source = (*Source)(nil)
