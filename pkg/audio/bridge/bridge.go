// Package bridge implements a push-fed audio.Source.
//
// The web shell's /ws/audio endpoint receives raw PCM16 frames from the
// browser microphone and pushes them into a [Source]; the voice capture loop
// reads them back out through the ordinary audio.Source contract. The bridge
// is the hand-off point between the network ingest goroutine and the capture
// goroutine — neither ever touches the other's buffers.
package bridge

import (
	"context"
	"sync"
	"time"

	"github.com/voxgest/voxgest/pkg/audio"
	"github.com/voxgest/voxgest/pkg/types"
)

// defaultDepth is the frame buffer depth. At 16 kHz with 1024-sample frames
// one frame is 64 ms, so 32 frames absorb about two seconds of network jitter.
const defaultDepth = 32

// silenceSamples is the length of the synthetic frame emitted while the
// browser stops pushing, matching the segmenter's expected frame size.
const silenceSamples = 1024

// Source is a channel-backed audio.Source fed by Push.
//
// Push never blocks: when the buffer is full the oldest frame is dropped so a
// stalled capture loop degrades to frame loss instead of backpressuring the
// websocket reader.
type Source struct {
	frames chan types.AudioFrame
	rate   int
	start  time.Time

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// New creates a bridge Source for the given sample rate.
func New(sampleRate int) *Source {
	return &Source{
		frames: make(chan types.AudioFrame, defaultDepth),
		rate:   sampleRate,
		start:  time.Now(),
		done:   make(chan struct{}),
	}
}

// Push hands a raw PCM16 chunk to the capture loop. The chunk is wrapped in a
// types.AudioFrame stamped relative to the bridge's creation time. Pushes to a
// closed bridge are discarded.
func (s *Source) Push(pcm []byte) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	frame := types.AudioFrame{
		Data:       pcm,
		SampleRate: s.rate,
		Channels:   1,
		Timestamp:  time.Since(s.start),
	}
	for {
		select {
		case s.frames <- frame:
			return
		default:
			// Buffer full: drop the oldest frame and retry.
			select {
			case <-s.frames:
			default:
			}
		}
	}
}

// ReadFrame implements audio.Source. When the browser stops pushing, waiting
// forever would freeze the segmenter's silence and inactivity clocks, so
// after one frame duration without data a synthetic silent frame is returned
// and the clocks keep advancing.
func (s *Source) ReadFrame(ctx context.Context) (types.AudioFrame, error) {
	wait := time.Duration(silenceSamples) * time.Second / time.Duration(s.rate)
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case f := <-s.frames:
		return f, nil
	case <-timer.C:
		return types.AudioFrame{
			Data:       make([]byte, silenceSamples*2),
			SampleRate: s.rate,
			Channels:   1,
			Timestamp:  time.Since(s.start),
		}, nil
	case <-s.done:
		// Drain anything already buffered before reporting closure.
		select {
		case f := <-s.frames:
			return f, nil
		default:
			return types.AudioFrame{}, audio.ErrSourceClosed
		}
	case <-ctx.Done():
		return types.AudioFrame{}, ctx.Err()
	}
}

// SampleRate implements audio.Source.
func (s *Source) SampleRate() int { return s.rate }

// Close implements audio.Source. Safe to call multiple times.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.done)
	}
	return nil
}

// Ensure Source implements audio.Source at compile time.
var _ audio.Source = (*Source)(nil)
