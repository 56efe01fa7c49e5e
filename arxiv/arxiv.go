package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avrilo/paperscout/core"
	"github.com/avrilo/paperscout/logging"
	"golang.org/x/time/rate"
)

// maxResultsCap is the upper bound on results per search. Larger requests
// are clamped, not rejected.
const maxResultsCap = 100

// Record is one normalized bibliographic record returned by the adapter.
type Record struct {
	Title     string `json:"title"`
	PDFLink   string `json:"pdf_link"`
	Authors   string `json:"authors"` // comma-joined, source order
	Summary   string `json:"summary"`
	Published string `json:"published,omitempty"` // RFC 3339, empty if unknown
	ArxivID   string `json:"arxiv_id"`
}

// Options configure the arXiv client.
type Options struct {
	BaseURL    string
	UserAgent  string
	HTTPClient *http.Client
	// RequestInterval spaces consecutive API calls. arXiv asks clients to
	// throttle; set to 0 to disable.
	RequestInterval time.Duration
	Logger          logging.Logger
}

// Client queries the arXiv API.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     logging.Logger
}

// NewClient creates an arXiv client with sensible defaults.
func NewClient(optFns ...func(o *Options)) *Client {
	opts := Options{
		BaseURL:         "https://export.arxiv.org/api/query",
		UserAgent:       "paperscout/1.0",
		HTTPClient:      &http.Client{Timeout: 30 * time.Second},
		RequestInterval: 3 * time.Second,
		Logger:          logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.RequestInterval), 1)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Client{
		baseURL:    opts.BaseURL,
		userAgent:  opts.UserAgent,
		httpClient: opts.HTTPClient,
		limiter:    limiter,
		logger:     opts.Logger,
	}
}

// Search queries arXiv for papers matching the given free-text query,
// sorted by relevance. It fails with core.ErrInvalidInput before any
// network call when the query is empty or maxResults < 1, and with
// core.ErrBackendUnavailable on any provider failure.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]Record, error) {
	if strings.TrimSpace(query) == "" {
		return nil, core.InvalidInputf("query cannot be empty")
	}
	if maxResults < 1 {
		return nil, core.InvalidInputf("max_results must be at least 1")
	}
	if maxResults > maxResultsCap {
		c.logger.Warn("max_results is high, limiting", "requested", maxResults, "cap", maxResultsCap)
		maxResults = maxResultsCap
	}

	searchQuery := BuildQuery(query)
	c.logger.Info("searching arxiv", "query", searchQuery, "max_results", maxResults)

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, core.BackendUnavailable(err)
	}

	params := url.Values{}
	params.Set("search_query", searchQuery)
	params.Set("start", "0")
	params.Set("max_results", strconv.Itoa(maxResults))
	params.Set("sortBy", "relevance")
	params.Set("sortOrder", "descending")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, core.BackendUnavailable(err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, core.BackendUnavailable(fmt.Errorf("arxiv api request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, core.BackendUnavailable(fmt.Errorf("arxiv api returned HTTP %d", resp.StatusCode))
	}

	var feed atomFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, core.BackendUnavailable(fmt.Errorf("parsing arxiv response: %w", err))
	}

	// The API reporting matches while returning an empty page is a known
	// provider anomaly, not "no results".
	if len(feed.Entries) == 0 && feed.TotalResults > 0 {
		return nil, core.BackendUnavailable(fmt.Errorf("arxiv returned unexpected empty page (total_results=%d)", feed.TotalResults))
	}

	records := make([]Record, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		records = append(records, normalizeEntry(entry))
	}

	c.logger.Info("arxiv search complete", "found", len(records))

	return records, nil
}

// normalizeEntry flattens one Atom entry into a Record.
func normalizeEntry(entry atomEntry) Record {
	names := make([]string, 0, len(entry.Authors))
	for _, a := range entry.Authors {
		names = append(names, strings.TrimSpace(a.Name))
	}

	published := ""
	if t, err := time.Parse(time.RFC3339, entry.Published); err == nil {
		published = t.Format(time.RFC3339)
	}

	return Record{
		Title:     strings.TrimSpace(entry.Title),
		PDFLink:   pdfLink(entry),
		Authors:   strings.Join(names, ", "),
		Summary:   strings.TrimSpace(entry.Summary),
		Published: published,
		ArxivID:   shortID(entry.ID),
	}
}

// pdfLink picks the PDF link from the entry's link list, falling back to a
// rewrite of the canonical abs URL.
func pdfLink(entry atomEntry) string {
	for _, l := range entry.Links {
		if l.Title == "pdf" || l.Type == "application/pdf" {
			return l.Href
		}
	}
	return strings.Replace(entry.ID, "/abs/", "/pdf/", 1)
}

// shortID extracts the short identifier from the entry's canonical URI,
// e.g. "http://arxiv.org/abs/2301.07041v1" -> "2301.07041v1".
func shortID(idURL string) string {
	if idx := strings.LastIndex(idURL, "/"); idx >= 0 {
		return idURL[idx+1:]
	}
	return idURL
}

// Atom feed XML structures.
type atomFeed struct {
	TotalResults int         `xml:"totalResults"`
	Entries      []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID        string       `xml:"id"`
	Title     string       `xml:"title"`
	Summary   string       `xml:"summary"`
	Published string       `xml:"published"`
	Authors   []atomAuthor `xml:"author"`
	Links     []atomLink   `xml:"link"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomLink struct {
	Href  string `xml:"href,attr"`
	Rel   string `xml:"rel,attr"`
	Type  string `xml:"type,attr"`
	Title string `xml:"title,attr"`
}
