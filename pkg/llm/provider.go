package llm

import (
	"context"
	"errors"
	"sync"

	"sorrymonster/pkg/clients"
)

// ErrCircuitOpen is returned when the provider circuit breaker is rejecting calls.
var ErrCircuitOpen = clients.ErrCircuitOpen

// Provider produces a single, non-streamed completion.
type Provider interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Request is one chat completion call.
type Request struct {
	Messages []Message
	// JSONMode asks the model for a single JSON object.
	JSONMode    bool
	Temperature float64
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// System builds a system message.
func System(content string) Message { return Message{Role: RoleSystem, Content: content} }

// User builds a user message.
func User(content string) Message { return Message{Role: RoleUser, Content: content} }

// ResponderFunc adapts a function to Provider.
type ResponderFunc func(ctx context.Context, req Request) (string, error)

func (f ResponderFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// StubProvider answers from a responder function and records every request.
// It backs LLM_PROVIDER=stub and tests.
type StubProvider struct {
	Respond ResponderFunc

	mu       sync.Mutex
	requests []Request
}

func (s *StubProvider) Complete(ctx context.Context, req Request) (string, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	if s.Respond == nil {
		return "", errors.New("stub provider has no responder")
	}
	return s.Respond(ctx, req)
}

// Requests returns a copy of the recorded requests.
func (s *StubProvider) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

type guardedProvider struct {
	next Provider
	cb   *clients.CircuitBreaker
}

// WithCircuitBreaker routes every completion through cb.
func WithCircuitBreaker(p Provider, cb *clients.CircuitBreaker) Provider {
	if cb == nil {
		return p
	}
	return &guardedProvider{next: p, cb: cb}
}

func (g *guardedProvider) Complete(ctx context.Context, req Request) (string, error) {
	out, err := g.cb.Execute(ctx, func(ctx context.Context) (any, error) {
		return g.next.Complete(ctx, req)
	})
	if err != nil {
		return "", err
	}
	s, _ := out.(string)
	return s, nil
}
