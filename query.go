package meilisearchx

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
)

// facetsMode is the state of a FacetsDistribution request.
type facetsMode uint8

const (
	facetsUnset facetsMode = iota
	facetsWildcard
	facetsList
)

// FacetsDistribution selects the facets whose value counts the service
// should return. The zero value requests no counts.
type FacetsDistribution struct {
	mode  facetsMode
	names []string
}

// AllFacets requests counts for every facet.
func AllFacets() FacetsDistribution {
	return FacetsDistribution{mode: facetsWildcard}
}

// Facets requests counts for the named facets. An empty list is still a
// request and is sent as an empty JSON array.
func Facets(names ...string) FacetsDistribution {
	return FacetsDistribution{mode: facetsList, names: cloneStrings(names)}
}

// IsSet reports whether facet counts are requested at all.
func (f FacetsDistribution) IsSet() bool { return f.mode != facetsUnset }

// IsWildcard reports whether counts are requested for every facet.
func (f FacetsDistribution) IsWildcard() bool { return f.mode == facetsWildcard }

// Names returns the requested facet names. It is nil unless the
// distribution was built with Facets.
func (f FacetsDistribution) Names() []string {
	if f.mode != facetsList {
		return nil
	}
	return cloneStrings(f.names)
}

// Query describes a search. It is an immutable value: every With method
// returns a modified copy and leaves the receiver untouched, so a Query may
// be shared freely between goroutines.
//
//	q := meilisearchx.NewQuery("space").
//		WithOffset(42).
//		WithLimit(21)
type Query struct {
	text string

	offset *uint
	limit  *uint

	filters *string

	// facetFilters is an AND of OR groups; hasFacetFilters distinguishes an
	// explicitly empty list from an absent one.
	facetFilters    [][]string
	hasFacetFilters bool

	facetsDistribution FacetsDistribution

	attributesToRetrieve  *string
	attributesToCrop      *string
	cropLength            *uint
	attributesToHighlight *string
}

// NewQuery returns a query for text with every optional parameter absent.
// Any text is accepted, including the empty string.
func NewQuery(text string) Query {
	return Query{text: text}
}

// Text returns the free-text query.
func (q Query) Text() string { return q.text }

// WithOffset sets the number of documents to skip. Server default: 0.
func (q Query) WithOffset(offset uint) Query {
	q.offset = &offset
	return q
}

// WithLimit sets the maximum number of documents returned. Server default: 20.
func (q Query) WithLimit(limit uint) Query {
	q.limit = &limit
	return q
}

// WithFilters sets a raw filter expression. It is sent as is.
func (q Query) WithFilters(filters string) Query {
	q.filters = &filters
	return q
}

// WithFilter renders expr and uses it as the filter expression.
// It returns ErrInvalidExpression when the expression cannot be rendered.
func (q Query) WithFilter(expr Expression) (Query, error) {
	rendered, err := Render(expr)
	if err != nil {
		return q, err
	}
	return q.WithFilters(rendered), nil
}

// WithFacetFilters sets facet filters. The outer slice is ANDed, each inner
// slice is ORed, e.g. [["genre:horror","genre:comedy"],["director:Jordan Peele"]].
func (q Query) WithFacetFilters(facetFilters [][]string) Query {
	groups := make([][]string, len(facetFilters))
	for i, group := range facetFilters {
		groups[i] = cloneStrings(group)
	}
	q.facetFilters = groups
	q.hasFacetFilters = true
	return q
}

// WithFacetsDistribution sets which facet counts are requested.
// Passing the zero FacetsDistribution removes the request.
func (q Query) WithFacetsDistribution(facets FacetsDistribution) Query {
	q.facetsDistribution = facets
	return q
}

// WithAttributesToRetrieve sets the comma-separated list of attributes
// present in returned documents.
func (q Query) WithAttributesToRetrieve(attributes string) Query {
	q.attributesToRetrieve = &attributes
	return q
}

// WithAttributesToCrop sets the comma-separated list of attributes to crop.
func (q Query) WithAttributesToCrop(attributes string) Query {
	q.attributesToCrop = &attributes
	return q
}

// WithCropLength sets the number of characters kept around a match in
// cropped attributes. Server default: 200. It is sent even when no
// attribute is cropped.
func (q Query) WithCropLength(length uint) Query {
	q.cropLength = &length
	return q
}

// WithAttributesToHighlight sets the comma-separated list of attributes to highlight.
func (q Query) WithAttributesToHighlight(attributes string) Query {
	q.attributesToHighlight = &attributes
	return q
}

// URL serializes the query into the query-string component of a search
// request. The result always starts with "?q=" and lists the remaining
// parameters in a fixed order, independent of the order they were set in.
func (q Query) URL() string {
	var b strings.Builder
	b.WriteString("?q=")
	b.WriteString(encodeComponent(q.text))

	if q.offset != nil {
		writeUint(&b, "offset", *q.offset)
	}
	if q.limit != nil {
		writeUint(&b, "limit", *q.limit)
	}
	if q.filters != nil {
		writeParam(&b, "filters", encodeComponent(*q.filters))
	}
	if q.hasFacetFilters {
		writeParam(&b, "facetFilters", encodeComponent(compactJSON(q.facetFilters)))
	}
	switch q.facetsDistribution.mode {
	case facetsWildcard:
		writeParam(&b, "facetsDistribution", "*")
	case facetsList:
		writeParam(&b, "facetsDistribution", encodeComponent(compactJSON(q.facetsDistribution.names)))
	}
	if q.attributesToRetrieve != nil {
		writeParam(&b, "attributesToRetrieve", encodeComponent(*q.attributesToRetrieve))
	}
	if q.attributesToCrop != nil {
		writeParam(&b, "attributesToCrop", encodeComponent(*q.attributesToCrop))
	}
	if q.cropLength != nil {
		writeUint(&b, "cropLength", *q.cropLength)
	}
	if q.attributesToHighlight != nil {
		writeParam(&b, "attributesToHighlight", encodeComponent(*q.attributesToHighlight))
	}

	return b.String()
}

// String implements fmt.Stringer.
func (q Query) String() string { return q.URL() }

func writeParam(b *strings.Builder, name, value string) {
	b.WriteByte('&')
	b.WriteString(name)
	b.WriteByte('=')
	b.WriteString(value)
}

func writeUint(b *strings.Builder, name string, value uint) {
	writeParam(b, name, strconv.FormatUint(uint64(value), 10))
}

// encodeComponent percent-encodes everything except unreserved characters.
// Spaces become %20 rather than '+'.
func encodeComponent(s string) string {
	// QueryEscape turns a literal '+' into %2B, so any '+' left is a space.
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// compactJSON renders string lists without HTML escaping and without a
// trailing newline. Both argument types are always encodable.
func compactJSON(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
	return strings.TrimSuffix(buf.String(), "\n")
}

// cloneStrings copies s and never returns nil, so an empty list encodes as [].
func cloneStrings(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
