package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/avrilo/paperscout/arxiv"
	"github.com/avrilo/paperscout/core"
)

// Searcher is the slice of the lookup adapter the search tool needs.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]arxiv.Record, error)
}

// defaultMaxResults bounds a search when neither the caller nor the model
// picks a limit.
const defaultMaxResults = 10

// SearchPapersOptions configures the search tool.
type SearchPapersOptions struct {
	// MaxResults is the result limit applied when the model omits
	// max_results in its tool call.
	MaxResults int
}

// NewSearchPapersTool exposes the literature lookup adapter as a model tool.
// The tool result is the JSON-encoded record list so the model can present
// the papers verbatim.
func NewSearchPapersTool(searcher Searcher, optFns ...func(o *SearchPapersOptions)) *FunctionTool {
	opts := SearchPapersOptions{
		MaxResults: defaultMaxResults,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.MaxResults < 1 {
		opts.MaxResults = defaultMaxResults
	}

	parameters := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The search query: a topic, keywords, or a paper title",
			},
			"max_results": map[string]any{
				"type":        "integer",
				"description": fmt.Sprintf("Maximum number of papers to return (default %d)", opts.MaxResults),
			},
		},
		"required": []string{"query"},
	}

	return NewFunctionTool(
		"search_arxiv",
		"Search arXiv for academic papers. Returns a list of paper records with title, pdf_link, authors, summary, published date, and arxiv_id.",
		parameters,
		func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
			query, _ := args["query"].(string)

			maxResults := opts.MaxResults
			if n, ok := args["max_results"].(float64); ok && n != 0 {
				maxResults = int(n)
			}

			records, err := searcher.Search(toolCtx.Context(), query, maxResults)
			if err != nil {
				return nil, err
			}

			encoded, err := json.Marshal(records)
			if err != nil {
				return nil, err
			}

			return string(encoded), nil
		},
	)
}
