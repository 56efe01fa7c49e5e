// Package cache provides the time-bounded result cache mapping a normalized
// query to its last validated response payload. Entries live in process
// memory only; expiry is checked lazily on access, never by a background
// sweep.
package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/avrilo/paperscout/core"
	"github.com/avrilo/paperscout/logging"
)

// DefaultTTL is the entry lifetime applied when none is configured.
const DefaultTTL = 3600 * time.Second

// Stats is the read-only snapshot exposed for health introspection.
type Stats struct {
	TotalEntries int   `json:"total_entries"`
	ValidEntries int   `json:"valid_entries"`
	TTLSeconds   int64 `json:"ttl_seconds"`
}

// entry is one cached payload with its creation timestamp.
type entry struct {
	payload   map[string]any
	timestamp time.Time
}

// Options configure a Store.
type Options struct {
	TTL    time.Duration
	Clock  core.Clock
	Logger logging.Logger
}

// Store is a TTL-bounded, key-normalized result cache. It is safe for
// concurrent use; concurrent Set on the same key is last-writer-wins, which
// is acceptable because entries are idempotent re-derivations of the same
// query.
type Store struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	clock   core.Clock
	logger  logging.Logger
}

// NewStore creates an empty Store. Defaults: one hour TTL, system clock,
// no-op logger.
func NewStore(optFns ...func(o *Options)) *Store {
	opts := Options{
		TTL:    DefaultTTL,
		Clock:  core.SystemClock{},
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Clock == nil {
		opts.Clock = core.SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Store{
		entries: make(map[string]entry),
		ttl:     opts.TTL,
		clock:   opts.Clock,
		logger:  opts.Logger,
	}
}

// normalizeKey maps a query to its cache slot: surrounding whitespace is
// trimmed and the query is case-folded.
func normalizeKey(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// Get returns the cached payload for query if present and fresh. A stale
// entry is evicted immediately and reported as a miss.
func (s *Store) Get(query string) (map[string]any, bool) {
	key := normalizeKey(query)

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}

	if s.clock.Now().Sub(e.timestamp) > s.ttl {
		delete(s.entries, key)
		s.logger.Debug("cache entry expired", "key", key)
		return nil, false
	}

	return e.payload, true
}

// Set stores the payload for query, overwriting any existing entry with a
// fresh timestamp.
func (s *Store) Set(query string, payload map[string]any) {
	key := normalizeKey(query)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = entry{payload: payload, timestamp: s.clock.Now()}
}

// Clear removes all entries regardless of expiry and reports how many were
// removed.
func (s *Store) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := len(s.entries)
	s.entries = make(map[string]entry)
	s.logger.Info("cache cleared", "removed", count)

	return count
}

// Stats reports the entry count and the subset not yet expired as of the
// call. Expired entries are not evicted as a side effect.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	valid := 0
	for _, e := range s.entries {
		if now.Sub(e.timestamp) <= s.ttl {
			valid++
		}
	}

	return Stats{
		TotalEntries: len(s.entries),
		ValidEntries: valid,
		TTLSeconds:   int64(s.ttl / time.Second),
	}
}
