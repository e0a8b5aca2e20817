// Package mock provides test doubles for the stt package interfaces.
//
// Use Recognizer to inject transcription results and inspect the WAV payloads
// that were submitted for recognition.
//
// Example:
//
//	rec := &mock.Recognizer{Text: "hello"}
//	text, _ := rec.Recognize(ctx, wav)
package mock

import (
	"context"
	"sync"

	"github.com/voxgest/voxgest/pkg/provider/stt"
)

// RecognizeCall records a single invocation of Recognizer.Recognize.
type RecognizeCall struct {
	// WAV is a copy of the bytes passed to Recognize.
	WAV []byte
}

// Recognizer is a mock implementation of stt.Recognizer.
type Recognizer struct {
	mu sync.Mutex

	// Text is returned by every Recognize call when Err is nil.
	Text string

	// Err, if non-nil, is returned by every Recognize call.
	Err error

	// Texts, if non-empty, overrides Text: successive calls return successive
	// entries, and calls past the end return the last entry.
	Texts []string

	// RecognizeCalls records every call to Recognize in order.
	RecognizeCalls []RecognizeCall
}

// Recognize records the call and returns the scripted result.
func (r *Recognizer) Recognize(_ context.Context, wav []byte) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]byte, len(wav))
	copy(cp, wav)
	idx := len(r.RecognizeCalls)
	r.RecognizeCalls = append(r.RecognizeCalls, RecognizeCall{WAV: cp})
	if r.Err != nil {
		return "", r.Err
	}
	if len(r.Texts) > 0 {
		if idx >= len(r.Texts) {
			idx = len(r.Texts) - 1
		}
		return r.Texts[idx], nil
	}
	return r.Text, nil
}

// CallCount returns the number of Recognize invocations so far. Thread-safe.
func (r *Recognizer) CallCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.RecognizeCalls)
}

// Reset clears all recorded calls. Thread-safe.
func (r *Recognizer) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.RecognizeCalls = nil
}

// Ensure Recognizer implements stt.Recognizer at compile time.
var _ stt.Recognizer = (*Recognizer)(nil)
