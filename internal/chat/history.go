// Package chat drives the conversation backend: it keeps the bounded dialog
// history, sends user input to the generator inside a turn-coordinator
// bracket, and optionally synthesizes the reply for playback.
package chat

import (
	"sync"

	"github.com/voxgest/voxgest/pkg/provider/llm"
)

// DefaultMaxHistoryTokens bounds the dialog window. Roughly half of a small
// local model's context, leaving the other half for the system prompt and the
// reply.
const DefaultMaxHistoryTokens = 2048

// History is a bounded window of user/assistant turns. The system prompt is
// not stored here; the service carries it out of band on every request.
//
// Trimming drops the oldest turns first and keeps whole messages, so the
// window always starts at a message boundary. Safe for concurrent use.
type History struct {
	mu        sync.Mutex
	messages  []llm.Message
	maxTokens int
}

// NewHistory creates a History bounded to maxTokens of estimated content.
// Zero or negative takes the package default.
func NewHistory(maxTokens int) *History {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxHistoryTokens
	}
	return &History{maxTokens: maxTokens}
}

// AddUser appends a user turn and trims the window.
func (h *History) AddUser(content string) {
	h.add(llm.Message{Role: llm.RoleUser, Content: content})
}

// AddAssistant appends an assistant turn and trims the window.
func (h *History) AddAssistant(content string) {
	h.add(llm.Message{Role: llm.RoleAssistant, Content: content})
}

func (h *History) add(m llm.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, m)
	h.trimLocked()
}

// trimLocked drops oldest messages until the estimated token total fits the
// budget. The newest message always stays, even if it alone exceeds the
// budget.
func (h *History) trimLocked() {
	for len(h.messages) > 1 && h.tokensLocked() > h.maxTokens {
		h.messages = h.messages[1:]
	}
}

// tokensLocked estimates the window size. ~4 chars per token plus a small
// per-message overhead is close enough for budgeting.
func (h *History) tokensLocked() int {
	total := 0
	for _, m := range h.messages {
		total += (len(m.Content)+3)/4 + 4
	}
	return total
}

// Window returns a copy of the current messages, oldest first.
func (h *History) Window() []llm.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]llm.Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// Len returns the number of stored messages.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.messages)
}

// Clear discards all turns.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = nil
}
