package arxiv

import (
	"fmt"
	"strings"
)

// noisePhrases are conversational prefixes stripped from queries before
// search expression construction. Removal is plain substring replacement;
// order matters so longer phrases are removed before their suffixes.
var noisePhrases = []string{
	"show me papers on", "show me papers about",
	"find papers on", "find papers about",
	"search for papers on", "search for papers about",
	"search for", "find me", "show me",
	"papers on", "papers about",
	"research on", "research about",
	"i want to find", "i want to see",
	"can you find", "can you show",
	"looking for", "look for",
}

// interrogatives mark a query as a question rather than a pasted paper title.
var interrogatives = []string{"how", "what", "why", "which"}

// BuildQuery constructs an arXiv search expression from free text.
//
// The query is lower-cased and stripped of conversational filler; if
// stripping empties it, the original text is used. A cleaned query is
// treated as title-like when it contains a colon, or has at least five
// words and no interrogative word. Title-like queries become an
// exact-phrase match against title and abstract; everything else becomes
// a term match across the same fields.
func BuildQuery(query string) string {
	query = strings.ToLower(strings.TrimSpace(query))

	clean := query
	for _, phrase := range noisePhrases {
		clean = strings.ReplaceAll(clean, phrase, "")
	}
	clean = strings.TrimSpace(clean)
	if clean == "" {
		clean = query
	}

	if isTitleLike(clean) {
		return fmt.Sprintf("ti:%q OR abs:%q", clean, clean)
	}

	return fmt.Sprintf("ti:%s OR abs:%s", clean, clean)
}

// isTitleLike reports whether the cleaned query resembles a specific paper
// title rather than a topic question.
func isTitleLike(clean string) bool {
	if strings.Contains(clean, ":") {
		return true
	}
	if len(strings.Fields(clean)) < 5 {
		return false
	}
	for _, w := range interrogatives {
		if strings.Contains(clean, w) {
			return false
		}
	}
	return true
}
