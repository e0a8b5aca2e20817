// Package llm defines the chat completion contract the reply
// pipeline talks to. Adapters for concrete backends live in
// subpackages.
package llm

import "context"

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of the conversation sent to the model.
type Message struct {
	Role    Role
	Content string
}

// Request carries everything a generator needs to produce a reply.
// Messages holds the windowed history, newest last. The system
// prompt is kept separate because some backends take it out of band.
type Request struct {
	SystemPrompt string
	Messages     []Message
	Temperature  float32
	MaxTokens    int
}

// Usage reports token accounting when a backend exposes it.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Response is the model's reply. Content is the raw assistant text;
// callers that want reasoning traces stripped do that themselves.
type Response struct {
	Content string
	Model   string
	Usage   Usage
}

// Generator produces a single assistant reply for a conversation.
type Generator interface {
	// Generate blocks until the backend answers or ctx is done.
	Generate(ctx context.Context, req Request) (Response, error)
}
