// Package bridge implements a push-fed vision.Source.
//
// The web shell's /ws/video endpoint receives JPEG frames from the browser
// camera and pushes them into a [Source]; the gesture capture loop reads them
// back out through the ordinary vision.Source contract.
package bridge

import (
	"context"
	"sync"
	"time"

	"github.com/voxgest/voxgest/pkg/types"
	"github.com/voxgest/voxgest/pkg/vision"
)

// defaultDepth is the frame buffer depth. Gesture analysis runs well below
// camera cadence, so a shallow buffer suffices; stale frames are dropped in
// favour of fresh ones.
const defaultDepth = 4

// Source is a channel-backed vision.Source fed by Push.
//
// Push never blocks: when the buffer is full the oldest frame is dropped.
// For gesture analysis a fresh frame is always preferable to a stale one.
type Source struct {
	frames chan types.VideoFrame

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// New creates an empty bridge Source.
func New() *Source {
	return &Source{
		frames: make(chan types.VideoFrame, defaultDepth),
		done:   make(chan struct{}),
	}
}

// Push hands an encoded camera frame to the capture loop.
// Pushes to a closed bridge are discarded.
func (s *Source) Push(jpeg []byte, width, height int) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	frame := types.VideoFrame{
		Data:      jpeg,
		Width:     width,
		Height:    height,
		Timestamp: time.Now(),
	}
	for {
		select {
		case s.frames <- frame:
			return
		default:
			select {
			case <-s.frames:
			default:
			}
		}
	}
}

// ReadFrame implements vision.Source.
func (s *Source) ReadFrame(ctx context.Context) (types.VideoFrame, error) {
	select {
	case f := <-s.frames:
		return f, nil
	case <-s.done:
		select {
		case f := <-s.frames:
			return f, nil
		default:
			return types.VideoFrame{}, vision.ErrSourceClosed
		}
	case <-ctx.Done():
		return types.VideoFrame{}, ctx.Err()
	}
}

// Close implements vision.Source. Safe to call multiple times.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.done)
	}
	return nil
}

// Ensure Source implements vision.Source at compile time.
var _ vision.Source = (*Source)(nil)
