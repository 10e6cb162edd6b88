package llm

import (
	"context"
	"encoding/json"
	"sync"
)

// MockResponse is a canned reply for MockProvider. A response with a
// Purpose is only served to requests with that purpose.
type MockResponse struct {
	Purpose Purpose
	Content json.RawMessage
	Usage   Usage
	Err     error
}

// MockProvider replays canned responses and records every request. It
// applies the same request checks as the real providers but does not
// validate content, so tests can feed the tutor malformed output.
type MockProvider struct {
	mu        sync.Mutex
	responses []MockResponse
	Calls     []Request
}

// NewMockProvider creates a MockProvider with the given canned responses.
func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{responses: responses}
}

// Generate serves the first queued response matching req.Purpose. It
// returns ErrProviderUnavailable when none is left.
func (m *MockProvider) Generate(_ context.Context, req Request) (*Response, error) {
	if err := req.check(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, req)

	for i, resp := range m.responses {
		if resp.Purpose != "" && resp.Purpose != req.Purpose {
			continue
		}
		m.responses = append(m.responses[:i:i], m.responses[i+1:]...)
		if resp.Err != nil {
			return nil, resp.Err
		}
		return &Response{Content: resp.Content, Usage: resp.Usage, Model: "mock", StopReason: StopEnd}, nil
	}
	return nil, &ErrProviderUnavailable{}
}

// ModelID returns "mock".
func (m *MockProvider) ModelID() string {
	return "mock"
}

// AddResponse appends a canned response to the queue.
func (m *MockProvider) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
}

// CallCount returns the number of Generate calls made.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// CallsFor returns the recorded requests with purpose p.
func (m *MockProvider) CallsFor(p Purpose) []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Request
	for _, c := range m.Calls {
		if c.Purpose == p {
			out = append(out, c)
		}
	}
	return out
}
