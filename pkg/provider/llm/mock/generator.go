// Package mock provides a test double for the llm.Generator interface.
//
// Use Generator in unit tests to verify that the chat service sends correct
// Requests and to feed controlled replies without a live LLM backend.
// All fields are safe to set before calling any method; mutating them during a
// concurrent call is the caller's responsibility.
//
// Example:
//
//	g := &mock.Generator{Response: llm.Response{Content: "Hello!"}}
//	resp, err := g.Generate(ctx, req)
package mock

import (
	"context"
	"sync"

	"github.com/voxgest/voxgest/pkg/provider/llm"
)

// GenerateCall records a single invocation of Generate.
type GenerateCall struct {
	// Ctx is the context passed to Generate.
	Ctx context.Context
	// Req is the Request passed to Generate.
	Req llm.Request
}

// Generator is a mock implementation of llm.Generator.
// Zero values cause Generate to return an empty Response and a nil error.
type Generator struct {
	mu sync.Mutex

	// Response is returned by Generate when Responses is empty.
	Response llm.Response

	// Responses, if non-empty, is consumed one entry per Generate call.
	// Once exhausted, Generate falls back to Response.
	Responses []llm.Response

	// Err, if non-nil, is returned as the error from Generate.
	Err error

	// GenerateCalls records every invocation of Generate in order.
	GenerateCalls []GenerateCall

	next int
}

var _ llm.Generator = (*Generator)(nil)

// Generate implements llm.Generator.
func (g *Generator) Generate(ctx context.Context, req llm.Request) (llm.Response, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.GenerateCalls = append(g.GenerateCalls, GenerateCall{Ctx: ctx, Req: req})

	if g.Err != nil {
		return llm.Response{}, g.Err
	}
	if g.next < len(g.Responses) {
		resp := g.Responses[g.next]
		g.next++
		return resp, nil
	}
	return g.Response, nil
}

// CallCount returns the number of Generate invocations so far.
func (g *Generator) CallCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.GenerateCalls)
}

// Reset clears all recorded calls and rewinds the scripted responses.
func (g *Generator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.GenerateCalls = nil
	g.next = 0
}
