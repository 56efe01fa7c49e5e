package workflow

import (
	"context"
	"fmt"

	"github.com/avrilo/paperscout/core"
	"github.com/avrilo/paperscout/extract"
	"github.com/avrilo/paperscout/logging"
	"github.com/avrilo/paperscout/schema"
)

// Protocol tokens. CompletionToken signals the Finder has finished its
// lookup turn; TerminationToken ends the whole exchange.
const (
	CompletionToken  = "RESEARCH_COMPLETE"
	TerminationToken = "TERMINATE"
)

// DefaultMaxTurns is the hard safety cap on exchange turns. A well-behaved
// exchange terminates long before it.
const DefaultMaxTurns = 10

// Signal is the structured outcome a role reports for its turn.
type Signal int

const (
	// SignalContinue hands the floor to the next role with no protocol event.
	SignalContinue Signal = iota
	// SignalHandoff marks the Finder's lookup as complete.
	SignalHandoff
	// SignalTerminate ends the exchange.
	SignalTerminate
)

// String returns the signal name for logs.
func (s Signal) String() string {
	switch s {
	case SignalContinue:
		return "continue"
	case SignalHandoff:
		return "handoff"
	case SignalTerminate:
		return "terminate"
	default:
		return "unknown"
	}
}

// State is the exchange machine state.
type State int

const (
	// StateAwaitingFinder means the Finder takes the next turn.
	StateAwaitingFinder State = iota
	// StateAwaitingScorer means the Scorer takes the next turn.
	StateAwaitingScorer
	// StateDone means a termination signal ended the exchange.
	StateDone
	// StateAborted means the turn cap was hit without termination.
	StateAborted
)

// String returns the state name for logs.
func (s State) String() string {
	switch s {
	case StateAwaitingFinder:
		return "awaiting_finder"
	case StateAwaitingScorer:
		return "awaiting_scorer"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// TurnResult is the structured output of one role turn.
type TurnResult struct {
	Message core.Message
	Signal  Signal
}

// Role is one cooperating participant in the exchange. TakeTurn blocks
// until the role's model (and any tools) have answered.
type Role interface {
	Name() string
	TakeTurn(ctx context.Context, runID string, transcript []core.Message) (*TurnResult, error)
}

// Result is the outcome of one pipeline run. Exactly one of Response and
// RawText is meaningful: Response is set when the final payload parsed and
// validated; otherwise RawText carries the unparsed candidate text (empty
// when no candidate message existed, e.g. after an aborted exchange).
type Result struct {
	Response   *schema.ResearchResponse
	RawText    string
	State      State
	Turns      int
	Transcript []core.Message
}

// Options configure an Exchange.
type Options struct {
	MaxTurns int
	Logger   logging.Logger
}

// Exchange coordinates the two roles. Each Run owns its transcript and turn
// limiter; an Exchange may be shared across concurrent runs.
type Exchange struct {
	finder    Role
	scorer    Role
	maxTurns  int
	logger    logging.Logger
	extractor *extract.Extractor
}

// NewExchange wires a Finder and a Scorer into an exchange bounded by
// DefaultMaxTurns.
func NewExchange(finder, scorer Role, optFns ...func(o *Options)) *Exchange {
	opts := Options{
		MaxTurns: DefaultMaxTurns,
		Logger:   logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Exchange{
		finder:    finder,
		scorer:    scorer,
		maxTurns:  opts.MaxTurns,
		logger:    opts.Logger,
		extractor: extract.New(TerminationToken),
	}
}

// Run executes the full exchange for a query and extracts the final
// payload. Backend failures (lookup adapter or model) are returned as
// errors wrapping core.ErrBackendUnavailable. A malformed final payload is
// not an error; the raw candidate text is surfaced in the Result for the
// boundary layer's secondary recovery.
func (e *Exchange) Run(ctx context.Context, query string) (*Result, error) {
	runID := core.NewID()
	logger := e.logger

	logger.Info("starting research exchange", "run_id", runID, "query", query)

	task := fmt.Sprintf("Please search for academic papers about: %s", query)
	transcript := []core.Message{core.NewUserMessage(runID, task)}

	limiter := core.NewTurnLimiter(e.maxTurns)
	state := StateAwaitingFinder
	turns := 0

	for state == StateAwaitingFinder || state == StateAwaitingScorer {
		if err := limiter.Increment(); err != nil {
			logger.Warn("turn cap hit without termination", "run_id", runID, "turns", turns)
			state = StateAborted
			break
		}

		role := e.finder
		if state == StateAwaitingScorer {
			role = e.scorer
		}

		tr, err := role.TakeTurn(ctx, runID, transcript)
		if err != nil {
			return nil, fmt.Errorf("%s turn failed: %w", role.Name(), err)
		}

		transcript = append(transcript, tr.Message)
		turns++
		logger.Debug("turn complete",
			"run_id", runID, "role", role.Name(), "signal", tr.Signal.String(), "turn", turns)

		state = e.transition(state, tr.Signal)
	}

	result := &Result{State: state, Turns: turns, Transcript: transcript}
	e.extractFinal(result)

	logger.Info("research exchange finished",
		"run_id", runID, "state", state.String(), "turns", result.Turns, "parsed", result.Response != nil)

	return result, nil
}

// transition applies one FSM step. A termination signal from either role
// ends the exchange immediately; anything else alternates the floor.
func (e *Exchange) transition(state State, sig Signal) State {
	if sig == SignalTerminate {
		return StateDone
	}
	if state == StateAwaitingFinder {
		return StateAwaitingScorer
	}
	return StateAwaitingFinder
}

// extractFinal locates the candidate payload message and attempts the
// primary parse. On any parse or validation failure the raw candidate text
// is kept instead.
func (e *Exchange) extractFinal(result *Result) {
	texts := make([]string, len(result.Transcript))
	for i, m := range result.Transcript {
		texts[i] = m.Text()
	}

	candidate := e.extractor.FindCandidate(texts)
	if candidate == "" {
		return
	}

	payload, err := e.extractor.Extract(candidate)
	if err != nil {
		result.RawText = candidate
		return
	}

	resp, err := schema.Decode(payload)
	if err != nil {
		result.RawText = candidate
		return
	}

	result.Response = resp
}
