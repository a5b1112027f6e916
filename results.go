package meilisearchx

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
)

// SearchResults is the decoded response of a search, generic over the
// document type T.
type SearchResults[T any] struct {
	// Hits contains the matched documents in rank order.
	Hits []T

	// Offset is the number of documents skipped.
	Offset int

	// Limit is the maximum number of documents requested.
	Limit int

	// NbHits is the total number of matches.
	NbHits int

	// ExhaustiveNbHits reports whether NbHits is exact.
	ExhaustiveNbHits bool

	// FacetsDistribution maps facet name to facet value to count.
	// It is nil unless facet counts were requested.
	FacetsDistribution map[string]map[string]int

	// ExhaustiveFacetsCount reports whether FacetsDistribution is exact.
	// It is nil when the response does not carry the flag.
	ExhaustiveFacetsCount *bool

	// ProcessingTimeMs is the server-side processing time.
	ProcessingTimeMs int

	// Query is the query text that produced these results.
	Query string
}

// searchResultsWire mirrors the response body. Pointers tell a missing key
// apart from a zero value.
type searchResultsWire[T any] struct {
	Hits                  *[]T                      `json:"hits" validate:"required"`
	Offset                *int                      `json:"offset" validate:"required,gte=0"`
	Limit                 *int                      `json:"limit" validate:"required,gte=0"`
	NbHits                *int                      `json:"nbHits" validate:"required,gte=0"`
	ExhaustiveNbHits      *bool                     `json:"exhaustiveNbHits" validate:"required"`
	FacetsDistribution    map[string]map[string]int `json:"facetsDistribution"`
	ExhaustiveFacetsCount *bool                     `json:"exhaustiveFacetsCount"`
	ProcessingTimeMs      *int                      `json:"processingTimeMs" validate:"required,gte=0"`
	Query                 *string                   `json:"query" validate:"required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// UnmarshalJSON decodes a search response. Unknown keys are ignored;
// missing required keys or mistyped values fail with ErrDecode.
func (r *SearchResults[T]) UnmarshalJSON(data []byte) error {
	var wire searchResultsWire[T]
	if err := json.Unmarshal(data, &wire); err != nil {
		return errors.Mark(errors.Wrap(err, "decode search results"), ErrDecode)
	}

	if err := validate.Struct(&wire); err != nil {
		return errors.Mark(describeValidation(err), ErrDecode)
	}

	*r = SearchResults[T]{
		Hits:                  *wire.Hits,
		Offset:                *wire.Offset,
		Limit:                 *wire.Limit,
		NbHits:                *wire.NbHits,
		ExhaustiveNbHits:      *wire.ExhaustiveNbHits,
		FacetsDistribution:    wire.FacetsDistribution,
		ExhaustiveFacetsCount: wire.ExhaustiveFacetsCount,
		ProcessingTimeMs:      *wire.ProcessingTimeMs,
		Query:                 *wire.Query,
	}
	return nil
}

// MarshalJSON writes the same camelCase shape the service returns.
func (r SearchResults[T]) MarshalJSON() ([]byte, error) {
	hits := r.Hits
	if hits == nil {
		hits = []T{}
	}
	return json.Marshal(struct {
		Hits                  []T                       `json:"hits"`
		Offset                int                       `json:"offset"`
		Limit                 int                       `json:"limit"`
		NbHits                int                       `json:"nbHits"`
		ExhaustiveNbHits      bool                      `json:"exhaustiveNbHits"`
		FacetsDistribution    map[string]map[string]int `json:"facetsDistribution,omitempty"`
		ExhaustiveFacetsCount *bool                     `json:"exhaustiveFacetsCount,omitempty"`
		ProcessingTimeMs      int                       `json:"processingTimeMs"`
		Query                 string                    `json:"query"`
	}{
		Hits:                  hits,
		Offset:                r.Offset,
		Limit:                 r.Limit,
		NbHits:                r.NbHits,
		ExhaustiveNbHits:      r.ExhaustiveNbHits,
		FacetsDistribution:    r.FacetsDistribution,
		ExhaustiveFacetsCount: r.ExhaustiveFacetsCount,
		ProcessingTimeMs:      r.ProcessingTimeMs,
		Query:                 r.Query,
	})
}

// DecodeResults decodes a raw search response body.
func DecodeResults[T any](body []byte) (*SearchResults[T], error) {
	var res SearchResults[T]
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, errors.Mark(err, ErrDecode)
	}
	return &res, nil
}

func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.Wrap(err, "decode search results")
	}

	var missing, invalid []string
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
		} else {
			invalid = append(invalid, fe.Field())
		}
	}

	switch {
	case len(missing) > 0 && len(invalid) > 0:
		return errors.Newf("decode search results: missing required fields %s; invalid fields %s",
			strings.Join(missing, ", "), strings.Join(invalid, ", "))
	case len(missing) > 0:
		return errors.Newf("decode search results: missing required fields %s", strings.Join(missing, ", "))
	default:
		return errors.Newf("decode search results: invalid fields %s", strings.Join(invalid, ", "))
	}
}
