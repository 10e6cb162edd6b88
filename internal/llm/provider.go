package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Provider generates structured output for the tutor's requests.
type Provider interface {
	// Generate sends req and returns the model's output. When req.Schema
	// is set, Content is a JSON object validated against it; otherwise
	// Content is the reply text encoded as a JSON string.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request is one call to the model.
type Request struct {
	// Purpose is required; it labels the request in the event log.
	Purpose Purpose

	System   string
	Messages []Message

	// Schema, when set, asks for JSON through the vendor's native
	// structured output support.
	Schema *Schema

	// MaxTokens and Temperature default per Purpose when zero.
	MaxTokens   int
	Temperature float64
}

// Message represents a single message in the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema is a named JSON Schema for structured output. Vendors use Name
// as the tool or schema name, so it should be kebab-case.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

// Response holds the LLM's output.
type Response struct {
	Content json.RawMessage
	Usage   Usage
	// Model is the model that served the request, which may differ from
	// the configured one (aliases, routers).
	Model      string
	StopReason StopReason
}

// StopReason is a vendor-neutral reason for the end of generation.
type StopReason string

const (
	StopEnd       StopReason = "end"
	StopMaxTokens StopReason = "max_tokens"
)

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// check rejects requests no vendor could serve and applies the purpose
// defaults.
func (r *Request) check() error {
	if !r.Purpose.Valid() {
		return fmt.Errorf("request purpose %q is not set or unknown", r.Purpose)
	}
	if len(r.Messages) == 0 {
		return errors.New("request has no messages")
	}
	d := purposeDefaults[r.Purpose]
	if r.MaxTokens <= 0 {
		r.MaxTokens = d.maxTokens
	}
	if r.Temperature == 0 {
		r.Temperature = d.temperature
	}
	return nil
}
