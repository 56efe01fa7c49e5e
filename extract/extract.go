// Package extract implements best-effort recovery of a structured JSON
// payload from free-form model output. Strategies apply in a fixed order:
// strip known wrapper tokens, optionally strip Markdown code fences, then
// slice between the outermost braces.
package extract

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Extractor recovers JSON payloads from model text. The zero value strips
// no wrapper tokens; construct with New to register tokens such as the
// exchange termination signal.
type Extractor struct {
	wrapperTokens []string
}

// New creates an Extractor that removes the given wrapper tokens before
// locating the payload.
func New(wrapperTokens ...string) *Extractor {
	return &Extractor{wrapperTokens: wrapperTokens}
}

// FindCandidate scans texts from the most recent entry backward and returns
// the first one that plausibly carries the final payload: it must contain a
// '{' and the literal substring "papers". Returns "" when nothing matches.
func (e *Extractor) FindCandidate(texts []string) string {
	for i := len(texts) - 1; i >= 0; i-- {
		if strings.Contains(texts[i], "{") && strings.Contains(texts[i], "papers") {
			return texts[i]
		}
	}
	return ""
}

// Extract applies the primary strategy: strip wrapper tokens, then slice
// between the first '{' and the last '}' (inclusive). The result must be
// syntactically valid JSON.
func (e *Extractor) Extract(text string) ([]byte, error) {
	return e.extract(text, false)
}

// ExtractLenient additionally strips Markdown code-fence delimiters before
// locating the braces. It is the secondary recovery path applied by the
// boundary layer after a primary parse failure.
func (e *Extractor) ExtractLenient(text string) ([]byte, error) {
	return e.extract(text, true)
}

func (e *Extractor) extract(text string, stripFences bool) ([]byte, error) {
	clean := strings.TrimSpace(text)
	for _, token := range e.wrapperTokens {
		clean = strings.ReplaceAll(clean, token, "")
	}
	clean = strings.TrimSpace(clean)

	if stripFences {
		clean = stripCodeFences(clean)
	}

	start := strings.Index(clean, "{")
	end := strings.LastIndex(clean, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object found in text")
	}
	payload := []byte(clean[start : end+1])

	if !gjson.ValidBytes(payload) {
		return nil, fmt.Errorf("extracted payload is not valid JSON")
	}

	return payload, nil
}

// stripCodeFences removes a Markdown code block wrapper, preferring a
// ```json fence over a bare ``` fence.
func stripCodeFences(text string) string {
	if idx := strings.Index(text, "```json"); idx >= 0 {
		start := idx + len("```json")
		if end := strings.Index(text[start:], "```"); end > 0 {
			return strings.TrimSpace(text[start : start+end])
		}
		return strings.TrimSpace(text[start:])
	}
	if idx := strings.Index(text, "```"); idx >= 0 {
		start := idx + len("```")
		if end := strings.Index(text[start:], "```"); end > 0 {
			return strings.TrimSpace(text[start : start+end])
		}
		return strings.TrimSpace(text[start:])
	}
	return text
}
