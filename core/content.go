package core

// Part represents a polymorphic segment of role-based content. Concrete part
// types implement the unexported isPart marker enabling a closed set.
type Part interface{ isPart() }

// TextPart is a plain text content segment.
type TextPart struct {
	Text string // Plain UTF-8 text
}

// isPart implements the Part interface for TextPart.
func (TextPart) isPart() {}

// FunctionCall describes a tool/function invocation request emitted by a model.
type FunctionCall struct {
	ID        string `json:"id,omitempty"`        // Provider-assigned call id
	Name      string `json:"name"`                // Tool / function name
	Arguments string `json:"arguments,omitempty"` // Serialized JSON argument payload
}

// FunctionCallPart wraps a FunctionCall as a content part.
type FunctionCallPart struct {
	FunctionCall FunctionCall
}

// isPart implements the Part interface for FunctionCallPart.
func (FunctionCallPart) isPart() {}

// FunctionResponse describes the outcome of a function call.
type FunctionResponse struct {
	ID       string      `json:"id,omitempty"`       // Matches originating FunctionCall ID
	Name     string      `json:"name"`               // Function name
	Response interface{} `json:"response,omitempty"` // Successful result (any shape)
	Error    string      `json:"error,omitempty"`    // Populated on failure
}

// FunctionResponsePart wraps a FunctionResponse as a content part.
type FunctionResponsePart struct {
	FunctionResponse FunctionResponse
}

// isPart implements the Part interface for FunctionResponsePart.
func (FunctionResponsePart) isPart() {}

// Content holds role + ordered parts.
type Content struct {
	Role  string `json:"role,omitempty"` // Conversation role (user, assistant, tool, system)
	Parts []Part `json:"parts"`          // Ordered heterogeneous parts
}

// Text concatenates all text parts preserving order. Non-text parts are
// skipped.
func (c Content) Text() string {
	var out string
	for _, p := range c.Parts {
		if tp, ok := p.(TextPart); ok {
			out += tp.Text
		}
	}
	return out
}

// FunctionCalls returns any FunctionCall parts contained within the content
// preserving their original order.
func (c Content) FunctionCalls() []FunctionCall {
	var calls []FunctionCall
	for _, p := range c.Parts {
		if fc, ok := p.(FunctionCallPart); ok {
			calls = append(calls, fc.FunctionCall)
		}
	}
	return calls
}

// NewTextContent builds a single-text-part Content for the given role.
func NewTextContent(role, text string) Content {
	return Content{Role: role, Parts: []Part{TextPart{Text: text}}}
}
