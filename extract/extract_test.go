package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_StripsWrapperToken(t *testing.T) {
	e := New("TERMINATE")

	data, err := e.Extract(`Here are the results: {"query": "x", "papers": []} TERMINATE`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"query": "x", "papers": []}`, string(data))
}

func TestExtract_BareJSON(t *testing.T) {
	e := New()

	data, err := e.Extract(`{"papers": [{"title": "T"}]}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"papers": [{"title": "T"}]}`, string(data))
}

func TestExtract_NoObject(t *testing.T) {
	e := New("TERMINATE")

	_, err := e.Extract("no structured payload here TERMINATE")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no JSON object found")
}

func TestExtract_InvalidJSON(t *testing.T) {
	e := New()

	_, err := e.Extract(`{"papers": [unterminated`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no JSON object found")

	_, err = e.Extract(`{"papers": oops}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not valid JSON")
}

func TestExtract_FencedBlockFailsStrict(t *testing.T) {
	e := New("TERMINATE")
	text := "```json\n{\"query\": \"x\", \"papers\": []}\n```\nTERMINATE"

	// The strict pass still finds the braces inside the fence.
	data, err := e.Extract(text)
	require.NoError(t, err)
	assert.JSONEq(t, `{"query": "x", "papers": []}`, string(data))
}

func TestExtractLenient_FencedBlock(t *testing.T) {
	e := New("TERMINATE")
	text := "Final answer:\n```json\n{\"query\": \"x\", \"total_results\": 0, \"papers\": []}\n```\nTERMINATE"

	data, err := e.ExtractLenient(text)
	require.NoError(t, err)
	assert.JSONEq(t, `{"query": "x", "total_results": 0, "papers": []}`, string(data))
}

func TestExtractLenient_BareFence(t *testing.T) {
	e := New()
	text := "```\n{\"papers\": []}\n```"

	data, err := e.ExtractLenient(text)
	require.NoError(t, err)
	assert.JSONEq(t, `{"papers": []}`, string(data))
}

func TestFindCandidate(t *testing.T) {
	e := New()

	texts := []string{
		"Please search for academic papers about: x",
		`found {"papers": []} earlier`,
		"RESEARCH_COMPLETE",
		`final {"query": "x", "papers": []}`,
	}

	// Most recent matching text wins.
	assert.Equal(t, `final {"query": "x", "papers": []}`, e.FindCandidate(texts))
}

func TestFindCandidate_NoMatch(t *testing.T) {
	e := New()

	assert.Equal(t, "", e.FindCandidate([]string{"nothing structured", "still nothing"}))
	assert.Equal(t, "", e.FindCandidate(nil))
}
