package meilisearchx

import "context"

// Searcher runs a serialized search against one index and returns the raw
// response body. Implementations own transport concerns: authentication,
// cancellation, timeouts and HTTP error mapping.
type Searcher interface {
	// Search issues the search request for rawQuery, as produced by Query.URL.
	Search(ctx context.Context, rawQuery string) ([]byte, error)
}

// SearcherFunc is a function type that implements the Searcher interface.
// This allows using a function as a Searcher, similar to http.HandlerFunc.
type SearcherFunc func(ctx context.Context, rawQuery string) ([]byte, error)

// Search implements the Searcher interface for SearcherFunc.
func (f SearcherFunc) Search(ctx context.Context, rawQuery string) ([]byte, error) {
	return f(ctx, rawQuery)
}

// Execute sends q through s and decodes the response with documents of type T.
// Transport errors are returned unchanged; decode failures match ErrDecode.
func Execute[T any](ctx context.Context, s Searcher, q Query) (*SearchResults[T], error) {
	body, err := s.Search(ctx, q.URL())
	if err != nil {
		return nil, err
	}
	return DecodeResults[T](body)
}
