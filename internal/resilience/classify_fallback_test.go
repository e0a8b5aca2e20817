package resilience

import (
	"context"
	"errors"
	"testing"

	classifymock "github.com/voxgest/voxgest/pkg/provider/classify/mock"
	"github.com/voxgest/voxgest/pkg/types"
)

func TestClassifierFallback_Failover(t *testing.T) {
	primary := &classifymock.Classifier{Err: errors.New("sidecar down")}
	secondary := &classifymock.Classifier{
		Observations: []types.GestureObservation{{Type: types.GestureVictory, Confidence: 0.9}},
	}

	fb := NewClassifierFallback(primary, "mediapipe", FallbackConfig{
		Breaker: BreakerConfig{MaxFailures: 3},
	})
	fb.AddFallback("mediapipe-remote", secondary)

	obs, err := fb.Classify(context.Background(), types.VideoFrame{Data: []byte{1}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(obs) != 1 || obs[0].Type != types.GestureVictory {
		t.Fatalf("obs = %+v, want one victory observation", obs)
	}
}

func TestClassifierFallback_EmptyResultIsNotFailover(t *testing.T) {
	primary := &classifymock.Classifier{}
	secondary := &classifymock.Classifier{
		Observations: []types.GestureObservation{{Type: types.GestureOpenPalm, Confidence: 0.9}},
	}

	fb := NewClassifierFallback(primary, "mediapipe", FallbackConfig{
		Breaker: BreakerConfig{MaxFailures: 3},
	})
	fb.AddFallback("mediapipe-remote", secondary)

	obs, err := fb.Classify(context.Background(), types.VideoFrame{Data: []byte{1}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(obs) != 0 {
		t.Fatalf("got %d observations, want 0 (no hands is a valid result)", len(obs))
	}
	if secondary.CallCount() != 0 {
		t.Fatalf("secondary called %d times, want 0", secondary.CallCount())
	}
}

func TestClassifierFallback_AllFail(t *testing.T) {
	primary := &classifymock.Classifier{Err: errors.New("down")}
	secondary := &classifymock.Classifier{Err: errors.New("also down")}

	fb := NewClassifierFallback(primary, "mediapipe", FallbackConfig{
		Breaker: BreakerConfig{MaxFailures: 3},
	})
	fb.AddFallback("mediapipe-remote", secondary)

	_, err := fb.Classify(context.Background(), types.VideoFrame{Data: []byte{1}})
	if !errors.Is(err, ErrAllFailed) {
		t.Fatalf("err = %v, want ErrAllFailed", err)
	}
}
