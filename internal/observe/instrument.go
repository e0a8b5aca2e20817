package observe

import (
	"context"
	"errors"
	"time"

	"github.com/voxgest/voxgest/pkg/provider/classify"
	"github.com/voxgest/voxgest/pkg/provider/llm"
	"github.com/voxgest/voxgest/pkg/provider/stt"
	"github.com/voxgest/voxgest/pkg/provider/tts"
	"github.com/voxgest/voxgest/pkg/types"
)

// The Instrument* wrappers decorate a provider with latency histograms and
// request/error counters without the provider knowing about metrics. The
// provider name becomes the "provider" attribute on every data point.

type instrumentedRecognizer struct {
	name string
	next stt.Recognizer
	m    *Metrics
}

var _ stt.Recognizer = (*instrumentedRecognizer)(nil)

// InstrumentRecognizer wraps a [stt.Recognizer] with metrics recording.
// [stt.ErrNotRecognized] is counted as status "not_recognized", not as a
// provider error, since it is an expected per-segment outcome.
func InstrumentRecognizer(name string, next stt.Recognizer, m *Metrics) stt.Recognizer {
	return &instrumentedRecognizer{name: name, next: next, m: m}
}

func (r *instrumentedRecognizer) Recognize(ctx context.Context, wav []byte) (string, error) {
	start := time.Now()
	text, err := r.next.Recognize(ctx, wav)
	r.m.RecognitionDuration.Record(ctx, time.Since(start).Seconds())

	switch {
	case err == nil:
		r.m.RecordProviderRequest(ctx, r.name, "stt", "ok")
	case errors.Is(err, stt.ErrNotRecognized):
		r.m.RecordProviderRequest(ctx, r.name, "stt", "not_recognized")
	default:
		r.m.RecordProviderRequest(ctx, r.name, "stt", "error")
		r.m.RecordProviderError(ctx, r.name, "stt")
	}
	return text, err
}

type instrumentedGenerator struct {
	name string
	next llm.Generator
	m    *Metrics
}

var _ llm.Generator = (*instrumentedGenerator)(nil)

// InstrumentGenerator wraps a [llm.Generator] with metrics recording.
func InstrumentGenerator(name string, next llm.Generator, m *Metrics) llm.Generator {
	return &instrumentedGenerator{name: name, next: next, m: m}
}

func (g *instrumentedGenerator) Generate(ctx context.Context, req llm.Request) (llm.Response, error) {
	start := time.Now()
	resp, err := g.next.Generate(ctx, req)
	g.m.GenerationDuration.Record(ctx, time.Since(start).Seconds())

	if err != nil {
		g.m.RecordProviderRequest(ctx, g.name, "llm", "error")
		g.m.RecordProviderError(ctx, g.name, "llm")
		return resp, err
	}
	g.m.RecordProviderRequest(ctx, g.name, "llm", "ok")
	return resp, nil
}

type instrumentedSpeaker struct {
	name string
	next tts.Speaker
	m    *Metrics
}

var _ tts.Speaker = (*instrumentedSpeaker)(nil)

// InstrumentSpeaker wraps a [tts.Speaker] with metrics recording. ListVoices
// calls pass through unrecorded.
func InstrumentSpeaker(name string, next tts.Speaker, m *Metrics) tts.Speaker {
	return &instrumentedSpeaker{name: name, next: next, m: m}
}

func (s *instrumentedSpeaker) Synthesize(ctx context.Context, text string) (tts.Audio, error) {
	start := time.Now()
	audio, err := s.next.Synthesize(ctx, text)
	s.m.SynthesisDuration.Record(ctx, time.Since(start).Seconds())

	if err != nil {
		s.m.RecordProviderRequest(ctx, s.name, "tts", "error")
		s.m.RecordProviderError(ctx, s.name, "tts")
		return audio, err
	}
	s.m.RecordProviderRequest(ctx, s.name, "tts", "ok")
	return audio, nil
}

func (s *instrumentedSpeaker) ListVoices(ctx context.Context) ([]tts.VoiceProfile, error) {
	return s.next.ListVoices(ctx)
}

type instrumentedClassifier struct {
	name string
	next classify.Classifier
	m    *Metrics
}

var _ classify.Classifier = (*instrumentedClassifier)(nil)

// InstrumentClassifier wraps a [classify.Classifier] with metrics recording.
func InstrumentClassifier(name string, next classify.Classifier, m *Metrics) classify.Classifier {
	return &instrumentedClassifier{name: name, next: next, m: m}
}

func (c *instrumentedClassifier) Classify(ctx context.Context, frame types.VideoFrame) ([]types.GestureObservation, error) {
	start := time.Now()
	obs, err := c.next.Classify(ctx, frame)
	c.m.ClassificationDuration.Record(ctx, time.Since(start).Seconds())

	if err != nil {
		c.m.RecordProviderRequest(ctx, c.name, "classify", "error")
		c.m.RecordProviderError(ctx, c.name, "classify")
		return obs, err
	}
	c.m.RecordProviderRequest(ctx, c.name, "classify", "ok")
	return obs, nil
}
