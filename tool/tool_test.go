package tool

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avrilo/paperscout/arxiv"
	"github.com/avrilo/paperscout/core"
	"github.com/avrilo/paperscout/internal/util"
)

// -------------------- Schema & Validation Tests --------------------

type sampleSchema struct {
	A string `json:"a" description:"Field A"`
	B *int   `json:"b" description:"Optional pointer field"`
	C int    `json:"c,omitempty" description:"Omit empty field"`
}

func TestCreateSchema(t *testing.T) {
	schema := util.CreateSchema(sampleSchema{})
	props, ok := schema["properties"].(map[string]any)
	assert.True(t, ok)
	assert.Contains(t, props, "a")
	assert.Contains(t, props, "b")
	assert.Contains(t, props, "c")
	// Required only includes non-pointer, non-omitempty exported fields
	req, _ := schema["required"].([]string)
	if req == nil { // reflection may produce []any
		ifaceReq, _ := schema["required"].([]any)
		for _, v := range ifaceReq {
			req = append(req, v.(string))
		}
	}
	assert.ElementsMatch(t, []string{"a"}, req)
}

func TestValidateParameters(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"x": map[string]any{"type": "integer"},
		},
		// Use []any to mirror possible JSON decoded schema shape
		"required": []any{"x"},
	}

	err := util.ValidateParameters(map[string]any{"x": 5}, schema)
	assert.NoError(t, err)

	err = util.ValidateParameters(map[string]any{}, schema)
	assert.Error(t, err)
	if vErr, ok := err.(*ValidationError); ok {
		assert.Equal(t, "x", vErr.Field)
	} else {
		t.Fatalf("expected ValidationError, got %T", err)
	}

	err = util.ValidateParameters(map[string]any{"x": "not-int"}, schema)
	assert.Error(t, err)
}

// -------------------- FunctionTool Tests --------------------

func echoTool() *FunctionTool {
	return NewFunctionTool("echo", "echoes its input", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"text": map[string]any{"type": "string"},
		},
		"required": []string{"text"},
	}, func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
		return args["text"], nil
	})
}

func TestFunctionToolCall(t *testing.T) {
	tc := core.NewToolContext(context.Background(), "call-1", nil)

	out, err := echoTool().Call(tc, map[string]any{"text": "hello"})
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestFunctionToolCall_ValidationError(t *testing.T) {
	tc := core.NewToolContext(context.Background(), "call-1", nil)

	_, err := echoTool().Call(tc, map[string]any{})
	require.Error(t, err)

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "VALIDATION_ERROR", toolErr.Code)
	assert.Equal(t, "echo", toolErr.Tool)
}

func TestFunctionToolCall_ExecutionErrorKeepsCause(t *testing.T) {
	cause := core.BackendUnavailable(errors.New("upstream down"))
	failing := NewFunctionTool("failing", "always fails", map[string]any{
		"type": "object", "properties": map[string]any{},
	}, func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
		return nil, cause
	})

	tc := core.NewToolContext(context.Background(), "call-1", nil)
	_, err := failing.Call(tc, map[string]any{})
	require.Error(t, err)

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "EXECUTION_ERROR", toolErr.Code)
	assert.ErrorIs(t, err, core.ErrBackendUnavailable)
}

// -------------------- Search Tool Tests --------------------

type fakeSearcher struct {
	records    []arxiv.Record
	err        error
	lastQuery  string
	lastMaxRes int
}

func (f *fakeSearcher) Search(ctx context.Context, query string, maxResults int) ([]arxiv.Record, error) {
	f.lastQuery = query
	f.lastMaxRes = maxResults
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func TestSearchPapersTool(t *testing.T) {
	searcher := &fakeSearcher{records: []arxiv.Record{{
		Title:   "Attention Is All You Need",
		PDFLink: "http://arxiv.org/pdf/1706.03762v7",
		Authors: "A. Vaswani",
		Summary: "The Transformer architecture.",
		ArxivID: "1706.03762v7",
	}}}

	st := NewSearchPapersTool(searcher)
	assert.Equal(t, "search_arxiv", st.Name())

	tc := core.NewToolContext(context.Background(), "call-1", nil)
	out, err := st.Call(tc, map[string]any{"query": "transformers", "max_results": float64(5)})
	require.NoError(t, err)

	assert.Equal(t, "transformers", searcher.lastQuery)
	assert.Equal(t, 5, searcher.lastMaxRes)

	encoded, ok := out.(string)
	require.True(t, ok)
	var records []arxiv.Record
	require.NoError(t, json.Unmarshal([]byte(encoded), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "Attention Is All You Need", records[0].Title)
}

func TestSearchPapersTool_DefaultMaxResults(t *testing.T) {
	searcher := &fakeSearcher{}
	st := NewSearchPapersTool(searcher)

	tc := core.NewToolContext(context.Background(), "call-1", nil)
	_, err := st.Call(tc, map[string]any{"query": "transformers"})
	require.NoError(t, err)
	assert.Equal(t, defaultMaxResults, searcher.lastMaxRes)
}

func TestSearchPapersTool_ConfiguredMaxResults(t *testing.T) {
	searcher := &fakeSearcher{}
	st := NewSearchPapersTool(searcher, func(o *SearchPapersOptions) {
		o.MaxResults = 25
	})

	tc := core.NewToolContext(context.Background(), "call-1", nil)
	_, err := st.Call(tc, map[string]any{"query": "transformers"})
	require.NoError(t, err)
	assert.Equal(t, 25, searcher.lastMaxRes)

	// An explicit max_results in the tool call still wins.
	_, err = st.Call(tc, map[string]any{"query": "transformers", "max_results": float64(3)})
	require.NoError(t, err)
	assert.Equal(t, 3, searcher.lastMaxRes)
}

func TestSearchPapersTool_RequiresQuery(t *testing.T) {
	st := NewSearchPapersTool(&fakeSearcher{})

	tc := core.NewToolContext(context.Background(), "call-1", nil)
	_, err := st.Call(tc, map[string]any{"max_results": float64(3)})
	require.Error(t, err)

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "VALIDATION_ERROR", toolErr.Code)
}

func TestSearchPapersTool_BackendFailure(t *testing.T) {
	searcher := &fakeSearcher{err: core.BackendUnavailable(errors.New("HTTP 503"))}
	st := NewSearchPapersTool(searcher)

	tc := core.NewToolContext(context.Background(), "call-1", nil)
	_, err := st.Call(tc, map[string]any{"query": "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrBackendUnavailable)
}
