// Package schema defines the data contracts of PaperScout: the Paper record
// and the ResearchResponse returned to callers, together with their
// validation rules. Validation is strict: a response either satisfies every
// constraint or the whole payload is rejected, never repaired.
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the shared validator instance. Struct-level rules are
// registered once at package init.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(researchResponseStructLevel, ResearchResponse{})
	return v
}

// Paper represents one research paper with an attached relevance judgment.
type Paper struct {
	// Title of the research paper.
	Title string `json:"title" validate:"required"`

	// PDFLink is the URL to the full text.
	PDFLink string `json:"pdf_link" validate:"required"`

	// Authors is a comma-separated list of author names in source order.
	Authors string `json:"authors" validate:"required"`

	// Summary is the abstract or a model-generated digest.
	Summary string `json:"summary" validate:"required"`

	// MatchingScore is the relevance score in [0.0, 1.0], absent when the
	// scorer produced none. Out-of-range values fail validation; they are
	// never clamped.
	MatchingScore *float64 `json:"matching_score,omitempty" validate:"omitempty,gte=0,lte=1"`
}

// ResearchResponse is the unit returned to a caller: the original query,
// the paper list in relevance order and its length.
type ResearchResponse struct {
	Query        string  `json:"query" validate:"required"`
	TotalResults int     `json:"total_results" validate:"gte=0"`
	Papers       []Paper `json:"papers" validate:"dive"`
}

// researchResponseStructLevel enforces cross-field invariants that field
// tags cannot express: total_results must equal the paper count.
func researchResponseStructLevel(sl validator.StructLevel) {
	r := sl.Current().Interface().(ResearchResponse)
	if r.TotalResults != len(r.Papers) {
		sl.ReportError(r.TotalResults, "TotalResults", "total_results", "eqlenpapers", "")
	}
}

// Validate checks the response against all schema constraints.
func (r *ResearchResponse) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("response validation failed: %w", err)
	}
	return nil
}

// Decode parses and validates a JSON-encoded ResearchResponse. It returns
// an error on malformed JSON or any constraint violation.
func Decode(data []byte) (*ResearchResponse, error) {
	var r ResearchResponse
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// AsMap re-encodes the response as generic data, the shape stored in the
// result cache.
func (r *ResearchResponse) AsMap() (map[string]any, error) {
	encoded, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(encoded, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FromMap decodes and validates a generic payload (e.g. a cache entry) back
// into a typed response.
func FromMap(payload map[string]any) (*ResearchResponse, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return Decode(encoded)
}
