package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/avrilo/paperscout/core"
)

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function (tool) exposed to the model.
// Parameters is a JSON Schema object (draft agnostic, minimal subset expected).
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}

// Request captures the normalized model input produced by workflow roles.
type Request struct {
	Instructions string           `json:"instructions"` // System prompt for the model
	Contents     []core.Content   `json:"contents"`     // Conversation converted to provider messages
	Tools        []ToolDefinition `json:"tools,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the complete model output for one generation call.
type Response struct {
	Content      core.Content `json:"content"`
	FinishReason string       `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock", etc.
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required by workflow roles to drive
// generation. Generate blocks until the provider answers or ctx is done.
type Model interface {
	Generate(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a lightweight in‑memory Model useful for tests. Responses are
// consumed from a FIFO script; when the script is exhausted a canned echo of
// the last user text is produced. Safe for concurrent use.
type MockModel struct {
	info   Info
	mu     sync.Mutex
	script []Response
	calls  []Request
	err    error
}

// NewMockModel constructs a MockModel with basic tool support enabled.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info: Info{Name: name, Provider: "mock", SupportsTools: true},
	}
}

// Enqueue appends a scripted response to be returned by the next Generate call.
func (m *MockModel) Enqueue(resp Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, resp)
}

// EnqueueText appends a scripted plain-text assistant response.
func (m *MockModel) EnqueueText(text string) {
	m.Enqueue(Response{
		Content:      core.NewTextContent("assistant", text),
		FinishReason: "stop",
	})
}

// EnqueueFunctionCall appends a scripted tool-call response.
func (m *MockModel) EnqueueFunctionCall(id, name, args string) {
	m.Enqueue(Response{
		Content: core.Content{
			Role: "assistant",
			Parts: []core.Part{core.FunctionCallPart{FunctionCall: core.FunctionCall{
				ID:        id,
				Name:      name,
				Arguments: args,
			}}},
		},
		FinishReason: "tool_calls",
	})
}

// FailWith makes every subsequent Generate call return err.
func (m *MockModel) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns a copy of all requests seen so far.
func (m *MockModel) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.calls))
	copy(out, m.calls)
	return out
}

// Generate implements Model; pops the next scripted response.
func (m *MockModel) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, req)
	if m.err != nil {
		return nil, m.err
	}

	if len(m.script) > 0 {
		resp := m.script[0]
		m.script = m.script[1:]
		return &resp, nil
	}

	var lastText string
	if len(req.Contents) > 0 {
		lastText = req.Contents[len(req.Contents)-1].Text()
	}
	return &Response{
		Content:      core.NewTextContent("assistant", fmt.Sprintf("Mock response to: %s", lastText)),
		FinishReason: "stop",
	}, nil
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }
