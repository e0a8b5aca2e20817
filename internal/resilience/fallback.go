package resilience

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrAllFailed is returned when every backend in a [FallbackGroup] either
// failed or had an open breaker.
var ErrAllFailed = errors.New("resilience: all providers failed")

// FallbackConfig holds the breaker tuning applied to each backend in a
// [FallbackGroup]. The breaker name is always set from the backend name.
type FallbackConfig struct {
	Breaker BreakerConfig
}

// backend pairs one provider instance with its dedicated breaker.
type backend[T any] struct {
	name    string
	value   T
	breaker *Breaker
}

// FallbackGroup chains a primary and zero or more fallback instances of one
// provider kind. Backends are tried in registration order; a backend with an
// open breaker is skipped without a call, so a dead local sidecar costs
// nothing per utterance once tripped.
//
// FallbackGroup is safe for concurrent use after registration.
type FallbackGroup[T any] struct {
	backends []backend[T]
	cfg      FallbackConfig
}

// NewFallbackGroup creates a group with primary as its first backend.
func NewFallbackGroup[T any](primary T, primaryName string, cfg FallbackConfig) *FallbackGroup[T] {
	fg := &FallbackGroup[T]{cfg: cfg}
	fg.add(primaryName, primary)
	return fg
}

// AddFallback appends another backend, tried after all earlier ones.
func (fg *FallbackGroup[T]) AddFallback(name string, fallback T) {
	fg.add(name, fallback)
}

func (fg *FallbackGroup[T]) add(name string, value T) {
	bc := fg.cfg.Breaker
	bc.Name = name
	fg.backends = append(fg.backends, backend[T]{
		name:    name,
		value:   value,
		breaker: NewBreaker(bc),
	})
}

// Execute is [ExecuteWithResult] for calls with no result value.
func (fg *FallbackGroup[T]) Execute(fn func(T) error) error {
	_, err := ExecuteWithResult(fg, func(v T) (struct{}, error) {
		return struct{}{}, fn(v)
	})
	return err
}

// ExecuteWithResult tries fn against each backend in order until one succeeds.
// It is a package-level function because Go methods cannot introduce the
// result type parameter. When every backend fails, the last error is wrapped
// in [ErrAllFailed].
func ExecuteWithResult[T, R any](fg *FallbackGroup[T], fn func(T) (R, error)) (R, error) {
	var lastErr error
	for i := range fg.backends {
		be := &fg.backends[i]

		var result R
		err := be.breaker.Do(func() error {
			var callErr error
			result, callErr = fn(be.value)
			return callErr
		})
		if err == nil {
			return result, nil
		}

		lastErr = err
		if errors.Is(err, ErrCircuitOpen) {
			slog.Debug("resilience: backend skipped, circuit open", "backend", be.name)
			continue
		}
		slog.Warn("resilience: backend failed, trying next", "backend", be.name, "err", err)
	}

	var zero R
	return zero, fmt.Errorf("%w: %v", ErrAllFailed, lastErr)
}
