// Package tool implements the function / tool calling subsystem that lets
// workflow roles invoke structured capabilities (the paper search, for one)
// with schema validated arguments, consistent error handling and rich
// metadata for LLM guidance.
package tool

import (
	"fmt"

	"github.com/avrilo/paperscout/core"
	"github.com/avrilo/paperscout/internal/util"
)

// Tool defines the interface for extending role capabilities with external functions.
//
// Tools are registered with a workflow role to enable function calling,
// allowing the model to perform actions beyond text generation.
//
// Tool implementations should:
//   - Provide clear, descriptive names and descriptions
//   - Define proper JSON schema for parameters
//   - Handle errors gracefully
//   - Be thread-safe if used concurrently
type Tool interface {
	// Name returns the unique identifier for this tool (snake_case recommended).
	Name() string

	// Description returns a human-readable description of what this tool does.
	// This description is provided to the LLM to help it understand when and
	// how to use the tool.
	Description() string

	// Parameters returns a JSON schema describing the expected input format.
	Parameters() map[string]interface{}

	// Call executes the tool with structured arguments and ToolContext.
	// Arguments are parsed from JSON and validated against the tool's schema.
	Call(toolCtx *core.ToolContext, args map[string]interface{}) (interface{}, error)
}

// ValidationError represents parameter validation errors with detailed information.
type ValidationError = util.ValidationError

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string      `json:"tool"`              // Name of the tool that failed
	Message string      `json:"message"`           // Error message
	Code    string      `json:"code"`              // Error code for categorization
	Details interface{} `json:"details,omitempty"` // Additional error details

	// Cause preserves the underlying error chain so callers can classify
	// failures with errors.Is (e.g. core.ErrBackendUnavailable).
	Cause error `json:"-"`
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *ToolError) Unwrap() error { return e.Cause }

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}
