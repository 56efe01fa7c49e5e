// Package arxiv implements the literature lookup adapter. It turns a
// free-text research query into an arXiv API search expression, issues the
// request and normalizes the Atom feed into flat bibliographic records.
//
// All provider failures (HTTP status, transport, decode, empty-page
// anomalies) are folded into core.ErrBackendUnavailable so callers never
// deal with the provider's error taxonomy.
package arxiv
