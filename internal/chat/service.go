package chat

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/voxgest/voxgest/internal/turn"
	"github.com/voxgest/voxgest/pkg/provider/llm"
	"github.com/voxgest/voxgest/pkg/provider/tts"
)

// Config tunes the conversation service.
type Config struct {
	// SystemPrompt is sent with every request, outside the history window.
	SystemPrompt string

	// Temperature and MaxTokens are forwarded to the generator. Zero values
	// leave the backend defaults in place.
	Temperature float32
	MaxTokens   int

	// SpeakReplies synthesizes each answer for playback when a speaker is
	// configured.
	SpeakReplies bool
}

// Reply is the outcome of one conversation turn.
type Reply struct {
	// Text is the final answer, with any reasoning block removed.
	Text string

	// Thinking is the model's reasoning trace, when the model emitted one.
	Thinking string

	// Audio is the synthesized answer, when reply speech is enabled.
	Audio *tts.Audio

	// Model and Usage are passed through from the generator.
	Model string
	Usage llm.Usage
}

// Service runs conversation turns. Each Send brackets the generation phase
// through the turn coordinator, so gesture capture stays paused while the
// reply is produced — and, when the reply is spoken, for the playback
// duration as well.
type Service struct {
	generator llm.Generator
	speaker   tts.Speaker
	coord     *turn.Coordinator
	history   *History
	cfg       Config

	mu      sync.Mutex
	epoch   uint64      // bumped on every Send
	pending *time.Timer // playback hold from the previous turn, if any
}

// NewService creates a Service. speaker may be nil when speech output is
// disabled; coord must not be nil.
func NewService(generator llm.Generator, speaker tts.Speaker, coord *turn.Coordinator, history *History, cfg Config) *Service {
	return &Service{
		generator: generator,
		speaker:   speaker,
		coord:     coord,
		history:   history,
		cfg:       cfg,
	}
}

// Send appends userText to the history, generates a reply, and returns it.
// Capture resumes when Send returns, or after the synthesized audio finishes
// playing when the reply is spoken.
func (s *Service) Send(ctx context.Context, userText string) (Reply, error) {
	turnEpoch := s.beginTurn()

	var playback time.Duration
	defer func() {
		if playback > 0 {
			// The browser plays the audio after this handler returns; holding
			// the pause for the playback duration keeps a waving hand from
			// re-triggering mid-sentence.
			s.holdFor(turnEpoch, playback)
			return
		}
		s.endTurn(turnEpoch)
	}()

	s.history.AddUser(userText)

	resp, err := s.generator.Generate(ctx, llm.Request{
		SystemPrompt: s.cfg.SystemPrompt,
		Messages:     s.history.Window(),
		Temperature:  s.cfg.Temperature,
		MaxTokens:    s.cfg.MaxTokens,
	})
	if err != nil {
		return Reply{}, fmt.Errorf("chat: generate: %w", err)
	}

	thinking, answer := splitThinking(resp.Content)
	s.history.AddAssistant(answer)

	reply := Reply{
		Text:     answer,
		Thinking: thinking,
		Model:    resp.Model,
		Usage:    resp.Usage,
	}

	if s.cfg.SpeakReplies && s.speaker != nil && answer != "" {
		audio, err := s.speaker.Synthesize(ctx, answer)
		if err != nil {
			// Losing speech output is not worth failing the turn; the text
			// reply still reaches the user.
			slog.Warn("chat: synthesis failed", "err", err)
		} else {
			reply.Audio = &audio
			playback = audio.Duration()
		}
	}

	return reply, nil
}

// beginTurn starts a generation phase and returns the epoch that identifies
// this turn. A playback hold left over from the previous turn is cancelled so
// it cannot end the new turn's phase early.
func (s *Service) beginTurn() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.epoch++
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
	s.coord.BeginGeneration()
	return s.epoch
}

// endTurn ends the generation phase unless a newer turn has started.
func (s *Service) endTurn(epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch == s.epoch {
		s.coord.EndGeneration()
	}
}

// holdFor keeps the pause in place for the playback duration, then ends the
// phase if no newer turn has taken over in the meantime.
func (s *Service) holdFor(epoch uint64, playback time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		return
	}
	s.pending = time.AfterFunc(playback, func() { s.endTurn(epoch) })
}

// Reset clears the dialog history.
func (s *Service) Reset() {
	s.history.Clear()
	slog.Info("chat: history cleared")
}

// HistoryLen returns the number of stored turns, for status reporting.
func (s *Service) HistoryLen() int {
	return s.history.Len()
}
