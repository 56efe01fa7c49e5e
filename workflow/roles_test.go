package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avrilo/paperscout/arxiv"
	"github.com/avrilo/paperscout/core"
	"github.com/avrilo/paperscout/model"
	"github.com/avrilo/paperscout/tool"
)

// stubSearcher records queries and plays back canned records.
type stubSearcher struct {
	records []arxiv.Record
	err     error
	queries []string
}

func (s *stubSearcher) Search(ctx context.Context, query string, maxResults int) ([]arxiv.Record, error) {
	s.queries = append(s.queries, query)
	if s.err != nil {
		return nil, s.err
	}
	return s.records, nil
}

func testTranscript(query string) []core.Message {
	return []core.Message{core.NewUserMessage("run-1", "Please search for academic papers about: "+query)}
}

func TestFinderTakeTurn_ToolLoop(t *testing.T) {
	searcher := &stubSearcher{records: []arxiv.Record{{
		Title:   "Quantum Supremacy",
		PDFLink: "http://arxiv.org/pdf/1910.11333v1",
		Authors: "F. Arute",
		Summary: "Demonstration of a quantum processor.",
		ArxivID: "1910.11333v1",
	}}}

	llm := model.NewMockModel("mock")
	llm.EnqueueFunctionCall("call-1", "search_arxiv", `{"query": "quantum computing", "max_results": 5}`)
	llm.EnqueueText("Found 1 paper: Quantum Supremacy. " + CompletionToken)

	finder := NewFinder(llm, tool.NewSearchPapersTool(searcher), nil)
	tr, err := finder.TakeTurn(context.Background(), "run-1", testTranscript("quantum computing"))
	require.NoError(t, err)

	assert.Equal(t, SignalHandoff, tr.Signal)
	assert.Equal(t, "Researcher", tr.Message.Author)
	assert.Contains(t, tr.Message.Text(), CompletionToken)
	assert.Equal(t, []string{"quantum computing"}, searcher.queries)

	// The second model call carries the tool result back.
	calls := llm.Calls()
	require.Len(t, calls, 2)
	last := calls[1].Contents[len(calls[1].Contents)-1]
	require.Len(t, last.Parts, 1)
	fr, ok := last.Parts[0].(core.FunctionResponsePart)
	require.True(t, ok)
	assert.Equal(t, "call-1", fr.FunctionResponse.ID)

	out, ok := fr.FunctionResponse.Response.(string)
	require.True(t, ok)
	var got []arxiv.Record
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Quantum Supremacy", got[0].Title)
}

// recordingLogger collects log messages for assertions.
type recordingLogger struct {
	messages []string
}

func (r *recordingLogger) Debug(msg string, args ...any) { r.messages = append(r.messages, msg) }
func (r *recordingLogger) Info(msg string, args ...any)  { r.messages = append(r.messages, msg) }
func (r *recordingLogger) Warn(msg string, args ...any)  { r.messages = append(r.messages, msg) }
func (r *recordingLogger) Error(msg string, args ...any) { r.messages = append(r.messages, msg) }

func TestFinderTakeTurn_LogsToolAndLLMCalls(t *testing.T) {
	searcher := &stubSearcher{}
	llm := model.NewMockModel("mock")
	llm.EnqueueFunctionCall("call-1", "search_arxiv", `{"query": "quantum computing"}`)
	llm.EnqueueText("Done. " + CompletionToken)

	logger := &recordingLogger{}
	finder := NewFinder(llm, tool.NewSearchPapersTool(searcher), logger)
	_, err := finder.TakeTurn(context.Background(), "run-1", testTranscript("quantum computing"))
	require.NoError(t, err)

	assert.Contains(t, logger.messages, "Tool execution completed")
	assert.Contains(t, logger.messages, "LLM call completed")
}

func TestFinderTakeTurn_NoToolCall(t *testing.T) {
	llm := model.NewMockModel("mock")
	llm.EnqueueText("I already know the answer. " + CompletionToken)

	finder := NewFinder(llm, tool.NewSearchPapersTool(&stubSearcher{}), nil)
	tr, err := finder.TakeTurn(context.Background(), "run-1", testTranscript("x"))
	require.NoError(t, err)
	assert.Equal(t, SignalHandoff, tr.Signal)
}

func TestFinderTakeTurn_NoHandoffToken(t *testing.T) {
	llm := model.NewMockModel("mock")
	llm.EnqueueText("Let me think about this first.")

	finder := NewFinder(llm, tool.NewSearchPapersTool(&stubSearcher{}), nil)
	tr, err := finder.TakeTurn(context.Background(), "run-1", testTranscript("x"))
	require.NoError(t, err)
	assert.Equal(t, SignalContinue, tr.Signal)
}

func TestFinderTakeTurn_ModelFailure(t *testing.T) {
	llm := model.NewMockModel("mock")
	llm.FailWith(errors.New("rate limited"))

	finder := NewFinder(llm, tool.NewSearchPapersTool(&stubSearcher{}), nil)
	_, err := finder.TakeTurn(context.Background(), "run-1", testTranscript("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrBackendUnavailable)
}

func TestFinderTakeTurn_SearchBackendDown(t *testing.T) {
	searcher := &stubSearcher{err: core.BackendUnavailable(errors.New("arxiv returned HTTP 503"))}

	llm := model.NewMockModel("mock")
	llm.EnqueueFunctionCall("call-1", "search_arxiv", `{"query": "x"}`)

	finder := NewFinder(llm, tool.NewSearchPapersTool(searcher), nil)
	_, err := finder.TakeTurn(context.Background(), "run-1", testTranscript("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrBackendUnavailable)
}

func TestFinderTakeTurn_ValidationErrorFedBack(t *testing.T) {
	searcher := &stubSearcher{}

	llm := model.NewMockModel("mock")
	llm.EnqueueFunctionCall("call-1", "search_arxiv", `{"max_results": 5}`)
	llm.EnqueueText("The tool rejected my call. " + CompletionToken)

	finder := NewFinder(llm, tool.NewSearchPapersTool(searcher), nil)
	tr, err := finder.TakeTurn(context.Background(), "run-1", testTranscript("x"))
	require.NoError(t, err)
	assert.Equal(t, SignalHandoff, tr.Signal)

	// The backend was never reached and the error went back to the model.
	assert.Empty(t, searcher.queries)
	calls := llm.Calls()
	require.Len(t, calls, 2)
	last := calls[1].Contents[len(calls[1].Contents)-1]
	fr, ok := last.Parts[0].(core.FunctionResponsePart)
	require.True(t, ok)
	out, _ := fr.FunctionResponse.Response.(string)
	assert.Contains(t, out, "error")
}

func TestScorerTakeTurn(t *testing.T) {
	llm := model.NewMockModel("mock")
	llm.EnqueueText(scorerPayload + "\n" + TerminationToken)

	scorer := NewScorer(llm, nil)
	tr, err := scorer.TakeTurn(context.Background(), "run-1", testTranscript("quantum computing"))
	require.NoError(t, err)

	assert.Equal(t, SignalTerminate, tr.Signal)
	assert.Equal(t, "Analyst", tr.Message.Author)
}

func TestScorerTakeTurn_NoTerminationToken(t *testing.T) {
	llm := model.NewMockModel("mock")
	llm.EnqueueText("I am still waiting for search results.")

	scorer := NewScorer(llm, nil)
	tr, err := scorer.TakeTurn(context.Background(), "run-1", testTranscript("x"))
	require.NoError(t, err)
	assert.Equal(t, SignalContinue, tr.Signal)
}

func TestContentsFor(t *testing.T) {
	transcript := []core.Message{
		core.NewUserMessage("run-1", "task"),
		core.NewMessage("run-1", "Researcher", core.NewTextContent("assistant", "found")),
		core.NewMessage("run-1", "Analyst", core.NewTextContent("assistant", "scored")),
	}

	contents := contentsFor("Analyst", transcript)
	require.Len(t, contents, 3)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "user", contents[1].Role)
	assert.Equal(t, "assistant", contents[2].Role)
}
