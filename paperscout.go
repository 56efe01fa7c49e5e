// Package paperscout turns a research question into summarized, relevance
// scored arXiv papers through a two role model exchange: a Finder that
// searches the arXiv index and a Scorer that summarizes and grades every
// hit, emitting one structured JSON payload.
package paperscout

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/avrilo/paperscout/cache"
	"github.com/avrilo/paperscout/core"
	"github.com/avrilo/paperscout/extract"
	"github.com/avrilo/paperscout/logging"
	"github.com/avrilo/paperscout/schema"
	"github.com/avrilo/paperscout/workflow"
)

// MaxQueryLength caps accepted query length in runes, matching the HTTP
// binding's max constraint.
const MaxQueryLength = 500

// Runner runs one research exchange for a query. *workflow.Exchange is the
// production implementation.
type Runner interface {
	Run(ctx context.Context, query string) (*workflow.Result, error)
}

// ResearchResult is the boundary-facing outcome of a query. Cached reports
// whether the payload was served without running the exchange.
type ResearchResult struct {
	Response *schema.ResearchResponse
	Cached   bool
}

// AssistantOptions configure an Assistant.
type AssistantOptions struct {
	Cache  *cache.Store
	Logger logging.Logger
}

// Assistant is the root façade: it owns the cache in front of the exchange
// and maps every failure to one of the core error categories.
type Assistant struct {
	runner    Runner
	cache     *cache.Store
	logger    logging.Logger
	extractor *extract.Extractor
}

// NewAssistant creates an Assistant over a runner. With no cache option a
// default TTL store is used.
func NewAssistant(runner Runner, optFns ...func(o *AssistantOptions)) *Assistant {
	opts := AssistantOptions{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewStore()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Assistant{
		runner:    runner,
		cache:     opts.Cache,
		logger:    opts.Logger,
		extractor: extract.New(workflow.TerminationToken),
	}
}

// WithCache sets the result cache.
func WithCache(store *cache.Store) func(o *AssistantOptions) {
	return func(o *AssistantOptions) { o.Cache = store }
}

// WithLogger sets the assistant logger.
func WithLogger(logger logging.Logger) func(o *AssistantOptions) {
	return func(o *AssistantOptions) { o.Logger = logger }
}

// Research answers one query. Fresh cached payloads are returned without
// running the exchange; otherwise the exchange runs and its final payload
// is validated, cached and returned. Errors wrap the core sentinels so
// callers can classify them with core.ErrorType.
func (a *Assistant) Research(ctx context.Context, query string) (*ResearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, core.InvalidInputf("query must not be empty")
	}
	if utf8.RuneCountInString(query) > MaxQueryLength {
		return nil, core.InvalidInputf("query exceeds %d characters", MaxQueryLength)
	}

	if payload, ok := a.cache.Get(query); ok {
		resp, err := schema.FromMap(payload)
		if err == nil {
			a.logger.Info("cache hit", "query", query)
			return &ResearchResult{Response: resp, Cached: true}, nil
		}
		a.logger.Warn("discarding undecodable cache entry", "query", query, "error", err)
	}

	result, err := a.runner.Run(ctx, query)
	if err != nil {
		if core.ErrorType(err) != "processing_error" {
			return nil, err
		}
		return nil, core.BackendUnavailable(err)
	}

	resp := result.Response
	if resp == nil {
		resp = a.recover(result.RawText)
	}
	if resp == nil {
		if strings.TrimSpace(result.RawText) == "" {
			return nil, core.MalformedOutputf("exchange produced no structured payload")
		}
		return nil, core.MalformedOutputf("final payload is not valid JSON")
	}

	if err := resp.Validate(); err != nil {
		return nil, core.MalformedOutputf("final payload failed validation: %v", err)
	}

	if payload, err := resp.AsMap(); err == nil {
		a.cache.Set(query, payload)
	}

	return &ResearchResult{Response: resp}, nil
}

// recover retries extraction leniently over the failed candidate text,
// handling payloads wrapped in markdown code fences.
func (a *Assistant) recover(rawText string) *schema.ResearchResponse {
	if strings.TrimSpace(rawText) == "" {
		return nil
	}
	data, err := a.extractor.ExtractLenient(rawText)
	if err != nil {
		return nil
	}
	resp, err := schema.Decode(data)
	if err != nil {
		return nil
	}
	a.logger.Info("recovered payload on lenient extraction")
	return resp
}

// Cache exposes the result cache for boundary endpoints.
func (a *Assistant) Cache() *cache.Store { return a.cache }
