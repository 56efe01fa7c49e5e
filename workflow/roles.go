package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avrilo/paperscout/core"
	"github.com/avrilo/paperscout/logging"
	"github.com/avrilo/paperscout/model"
	"github.com/avrilo/paperscout/tool"
)

// finderInstruction drives the lookup role. The completion token it emits
// is the handoff signal detected by the Finder after generation.
const finderInstruction = `You are a Research Assistant specialized in finding academic papers.

Your role:
1. When given a research query, use the search_arxiv tool to find relevant papers.
2. Call the tool with the user's query to retrieve papers.
3. After receiving results, present them and say "` + CompletionToken + `" to signal you're done.

Always use the search_arxiv tool - do not make up paper information.`

// scorerInstruction drives the scoring role: the banding rubric, the exact
// response shape and the termination token.
const scorerInstruction = `You are a Research Analyst specialized in evaluating academic papers.

Your role:
1. Wait for the Researcher to complete their search (indicated by "` + CompletionToken + `").
2. For each paper found, create a concise summary (2-3 sentences) based on the abstract.
3. Assign a matching_score (0.0 to 1.0) based on relevance to the original query:
   - 0.9-1.0: Directly addresses the query topic
   - 0.7-0.8: Highly relevant, closely related
   - 0.5-0.6: Moderately relevant
   - 0.3-0.4: Tangentially related
   - 0.0-0.2: Minimally relevant

4. Output ONLY valid JSON matching this exact schema:
{
    "query": "<original query>",
    "total_results": <number>,
    "papers": [
        {
            "title": "<paper title>",
            "pdf_link": "<pdf url>",
            "authors": "<comma-separated authors>",
            "summary": "<your 2-3 sentence summary>",
            "matching_score": <0.0-1.0>
        }
    ]
}

5. After outputting the JSON, say "` + TerminationToken + `" to end the conversation.

IMPORTANT: Your final response must contain valid JSON.`

// maxToolRounds bounds the model/tool round trips within one Finder turn.
const maxToolRounds = 4

// Finder is the lookup role: it drives the model with the search tool
// registered, executes requested tool calls and hands off once its final
// text carries the completion token.
type Finder struct {
	name   string
	llm    model.Model
	tools  map[string]tool.Tool
	logger logging.Logger
}

// NewFinder creates the Finder role with the given search tool.
func NewFinder(llm model.Model, searchTool tool.Tool, logger logging.Logger) *Finder {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Finder{
		name:   "Researcher",
		llm:    llm,
		tools:  map[string]tool.Tool{searchTool.Name(): searchTool},
		logger: logger,
	}
}

// Name returns the role's transcript author name.
func (f *Finder) Name() string { return f.name }

// TakeTurn runs the model/tool loop for one Finder turn. Lookup adapter
// failures propagate as errors wrapping core.ErrBackendUnavailable; the
// exchange does not continue past a dead search backend.
func (f *Finder) TakeTurn(ctx context.Context, runID string, transcript []core.Message) (*TurnResult, error) {
	contents := contentsFor(f.name, transcript)
	req := model.Request{
		Instructions: finderInstruction,
		Contents:     contents,
		Tools:        toolDefinitions(f.tools),
	}

	for round := 0; round < maxToolRounds; round++ {
		started := time.Now()
		resp, err := f.llm.Generate(ctx, req)
		logging.LogLLMCall(f.logger, f.llm.Info().Name, totalTokens(resp), time.Since(started), err)
		if err != nil {
			return nil, core.BackendUnavailable(err)
		}

		calls := resp.Content.FunctionCalls()
		if len(calls) == 0 {
			text := resp.Content.Text()
			sig := SignalContinue
			if strings.Contains(text, TerminationToken) {
				sig = SignalTerminate
			} else if strings.Contains(text, CompletionToken) {
				sig = SignalHandoff
			}
			return &TurnResult{
				Message: core.NewMessage(runID, f.name, core.NewTextContent("assistant", text)),
				Signal:  sig,
			}, nil
		}

		req.Contents = append(req.Contents, resp.Content)
		for _, fc := range calls {
			out, err := f.executeTool(ctx, fc)
			if err != nil {
				return nil, err
			}
			req.Contents = append(req.Contents, core.Content{
				Role: "tool",
				Parts: []core.Part{core.FunctionResponsePart{FunctionResponse: core.FunctionResponse{
					ID:       fc.ID,
					Name:     fc.Name,
					Response: out,
				}}},
			})
		}
	}

	return nil, core.BackendUnavailable(fmt.Errorf("finder exceeded %d tool rounds without a final answer", maxToolRounds))
}

// executeTool runs one requested tool call. Backend failures abort the
// turn; validation failures are fed back to the model as an error result so
// it can correct its arguments.
func (f *Finder) executeTool(ctx context.Context, fc core.FunctionCall) (any, error) {
	t, ok := f.tools[fc.Name]
	if !ok {
		return fmt.Sprintf("error: unknown tool %q", fc.Name), nil
	}

	args, err := decodeArguments(fc.Arguments)
	if err != nil {
		return fmt.Sprintf("error: malformed tool arguments: %v", err), nil
	}

	toolCtx := core.NewToolContext(ctx, fc.ID, f.logger)
	started := time.Now()
	out, err := t.Call(toolCtx, args)
	logging.LogToolCall(f.logger, fc.Name, time.Since(started), err)
	if err != nil {
		if isBackendFailure(err) {
			return nil, err
		}
		return fmt.Sprintf("error: %v", err), nil
	}
	return out, nil
}

// Scorer is the evaluation role: it summarizes and scores every presented
// paper, emits the structured payload and terminates the exchange.
type Scorer struct {
	name   string
	llm    model.Model
	logger logging.Logger
}

// NewScorer creates the Scorer role.
func NewScorer(llm model.Model, logger logging.Logger) *Scorer {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Scorer{name: "Analyst", llm: llm, logger: logger}
}

// Name returns the role's transcript author name.
func (s *Scorer) Name() string { return s.name }

// TakeTurn runs one Scorer generation over the transcript.
func (s *Scorer) TakeTurn(ctx context.Context, runID string, transcript []core.Message) (*TurnResult, error) {
	req := model.Request{
		Instructions: scorerInstruction,
		Contents:     contentsFor(s.name, transcript),
	}

	started := time.Now()
	resp, err := s.llm.Generate(ctx, req)
	logging.LogLLMCall(s.logger, s.llm.Info().Name, totalTokens(resp), time.Since(started), err)
	if err != nil {
		return nil, core.BackendUnavailable(err)
	}

	text := resp.Content.Text()
	sig := SignalContinue
	if strings.Contains(text, TerminationToken) {
		sig = SignalTerminate
	}

	return &TurnResult{
		Message: core.NewMessage(runID, s.name, core.NewTextContent("assistant", text)),
		Signal:  sig,
	}, nil
}

// contentsFor converts the shared transcript into model contents from one
// role's point of view: its own messages become assistant turns, everyone
// else's (including the other role's) become user turns.
func contentsFor(roleName string, transcript []core.Message) []core.Content {
	contents := make([]core.Content, 0, len(transcript))
	for _, m := range transcript {
		role := "user"
		if m.Author == roleName {
			role = "assistant"
		}
		contents = append(contents, core.NewTextContent(role, m.Text()))
	}
	return contents
}

// decodeArguments parses the serialized tool-call argument payload. An
// empty payload decodes to no arguments.
func decodeArguments(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, err
	}
	return args, nil
}

// totalTokens reads the usage total off a response when the provider
// reported one.
func totalTokens(resp *model.Response) int {
	if resp == nil || resp.Usage == nil {
		return 0
	}
	return resp.Usage.TotalTokens
}

// isBackendFailure reports whether a tool error means the lookup backend
// itself is down rather than the call being malformed.
func isBackendFailure(err error) bool {
	return errors.Is(err, core.ErrBackendUnavailable)
}

// toolDefinitions exposes registered tools to the model.
func toolDefinitions(tools map[string]tool.Tool) []model.ToolDefinition {
	defs := make([]model.ToolDefinition, 0, len(tools))
	for _, t := range tools {
		defs = append(defs, model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}
	return defs
}
