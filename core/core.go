package core

import (
	"context"

	"github.com/avrilo/paperscout/logging"
)

// ToolContext is the scoped execution context handed to a tool invocation.
// It carries the ambient cancellation context, the identifier of the
// originating function call (for correlation in logs and transcripts) and a
// guaranteed non-nil logger.
type ToolContext struct {
	ctx            context.Context
	functionCallID string
	logger         logging.Logger
}

// NewToolContext constructs a ToolContext. A nil logger is substituted with
// a NoOpLogger so tools never need to nil-check.
func NewToolContext(ctx context.Context, functionCallID string, logger logging.Logger) *ToolContext {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &ToolContext{ctx: ctx, functionCallID: functionCallID, logger: logger}
}

// Context returns the ambient context for the tool invocation.
func (tc *ToolContext) Context() context.Context { return tc.ctx }

// FunctionCallID returns the id of the function call that triggered this
// tool execution, or "" when invoked outside a model exchange.
func (tc *ToolContext) FunctionCallID() string { return tc.functionCallID }

// Logger returns the logger bound to this invocation.
func (tc *ToolContext) Logger() logging.Logger { return tc.logger }
