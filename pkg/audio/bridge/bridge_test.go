package bridge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/voxgest/voxgest/pkg/audio"
)

func TestSource_PushThenRead(t *testing.T) {
	s := New(16000)
	defer s.Close()

	s.Push([]byte{1, 0, 2, 0})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	f, err := s.ReadFrame(ctx)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if f.SampleRate != 16000 || f.Channels != 1 {
		t.Errorf("frame = %d Hz / %d ch, want 16000 Hz / 1 ch", f.SampleRate, f.Channels)
	}
	if f.SampleCount() != 2 {
		t.Errorf("SampleCount() = %d, want 2", f.SampleCount())
	}
}

func TestSource_ReadBlocksUntilCancel(t *testing.T) {
	s := New(16000)
	defer s.Close()

	// Cancel well inside the one-frame silence window so the read is still
	// waiting on real data.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := s.ReadFrame(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want DeadlineExceeded", err)
	}
}

func TestSource_SilenceWhenIngestStalls(t *testing.T) {
	s := New(16000)
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	// No pushes at all: after one frame duration the read must yield a
	// synthetic silent frame so the segmenter's clocks keep advancing.
	start := time.Now()
	f, err := s.ReadFrame(ctx)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("synthetic frame after %v, want about one frame duration", elapsed)
	}
	if f.SampleCount() != silenceSamples {
		t.Errorf("SampleCount() = %d, want %d", f.SampleCount(), silenceSamples)
	}
	if f.SampleRate != 16000 || f.Channels != 1 {
		t.Errorf("frame = %d Hz / %d ch, want 16000 Hz / 1 ch", f.SampleRate, f.Channels)
	}
	for i, b := range f.Data {
		if b != 0 {
			t.Fatalf("Data[%d] = %d, want all-zero silence", i, b)
		}
	}
}

func TestSource_CloseUnblocksRead(t *testing.T) {
	s := New(16000)

	errCh := make(chan error, 1)
	go func() {
		_, err := s.ReadFrame(context.Background())
		errCh <- err
	}()

	time.Sleep(10 * time.Millisecond)
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	select {
	case err := <-errCh:
		if !errors.Is(err, audio.ErrSourceClosed) {
			t.Fatalf("err = %v, want ErrSourceClosed", err)
		}
	case <-time.After(time.Second):
		t.Fatal("ReadFrame did not unblock after Close")
	}
}

func TestSource_DrainsBufferedFramesAfterClose(t *testing.T) {
	s := New(16000)
	s.Push([]byte{1, 0})
	s.Close()

	f, err := s.ReadFrame(context.Background())
	if err != nil {
		t.Fatalf("ReadFrame after Close with buffered frame: %v", err)
	}
	if f.SampleCount() != 1 {
		t.Errorf("SampleCount() = %d, want 1", f.SampleCount())
	}

	if _, err := s.ReadFrame(context.Background()); !errors.Is(err, audio.ErrSourceClosed) {
		t.Fatalf("err = %v, want ErrSourceClosed once drained", err)
	}
}

func TestSource_PushDropsOldestWhenFull(t *testing.T) {
	s := New(16000)
	defer s.Close()

	// Overfill by one: frame 0 should be dropped.
	for i := 0; i <= defaultDepth; i++ {
		s.Push([]byte{byte(i), 0})
	}

	f, err := s.ReadFrame(context.Background())
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if f.Data[0] != 1 {
		t.Errorf("first frame byte = %d, want 1 (oldest dropped)", f.Data[0])
	}
}

func TestSource_PushAfterCloseIsDiscarded(t *testing.T) {
	s := New(16000)
	s.Close()
	s.Push([]byte{1, 0}) // must not panic

	if _, err := s.ReadFrame(context.Background()); !errors.Is(err, audio.ErrSourceClosed) {
		t.Fatalf("err = %v, want ErrSourceClosed", err)
	}
}
