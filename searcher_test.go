package meilisearchx

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
)

func TestExecute(t *testing.T) {
	var gotQuery string
	searcher := SearcherFunc(func(ctx context.Context, rawQuery string) ([]byte, error) {
		gotQuery = rawQuery
		return []byte(`{"hits":[{"id":7,"title":"Gravity"}],"offset":42,"limit":21,"nbHits":43,"exhaustiveNbHits":true,"processingTimeMs":2,"query":"space"}`), nil
	})

	res, err := Execute[movie](context.Background(), searcher, NewQuery("space").WithOffset(42).WithLimit(21))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if gotQuery != "?q=space&offset=42&limit=21" {
		t.Errorf("Expected serialized query to be passed to the searcher, got %q", gotQuery)
	}
	if len(res.Hits) != 1 || res.Hits[0].Title != "Gravity" {
		t.Errorf("Unexpected hits: %#v", res.Hits)
	}
	if res.Offset != 42 || res.Limit != 21 || res.NbHits != 43 {
		t.Errorf("Unexpected pagination: %+v", res)
	}
}

func TestExecute_TransportErrorPassesThrough(t *testing.T) {
	transportErr := errors.New("connection refused")
	searcher := SearcherFunc(func(ctx context.Context, rawQuery string) ([]byte, error) {
		return nil, transportErr
	})

	_, err := Execute[movie](context.Background(), searcher, NewQuery("x"))
	if err != transportErr {
		t.Errorf("Expected transport error to be returned unchanged, got %v", err)
	}
	if errors.Is(err, ErrDecode) {
		t.Error("Transport error must not be reported as a decode failure")
	}
}

func TestExecute_DecodeFailure(t *testing.T) {
	searcher := SearcherFunc(func(ctx context.Context, rawQuery string) ([]byte, error) {
		return []byte(`{"hits":[],"offset":0,"limit":20,"exhaustiveNbHits":true,"processingTimeMs":1,"query":"x"}`), nil
	})

	_, err := Execute[movie](context.Background(), searcher, NewQuery("x"))
	if err == nil {
		t.Fatal("Expected decode error, got nil")
	}
	if !errors.Is(err, ErrDecode) {
		t.Errorf("Expected ErrDecode, got %v", err)
	}
}

func TestExecute_PassesContext(t *testing.T) {
	type ctxKey struct{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "marker")

	searcher := SearcherFunc(func(ctx context.Context, rawQuery string) ([]byte, error) {
		if ctx.Value(ctxKey{}) != "marker" {
			t.Error("Expected caller context to reach the searcher")
		}
		return []byte(minimalResponse), nil
	})

	if _, err := Execute[map[string]any](ctx, searcher, NewQuery("x")); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
}

func TestErrorCodeString(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		expected string
	}{
		{ErrCodeDecode, "decode failure"},
		{ErrCodeTransport, "transport failure"},
		{ErrCodeInvalidOption, "invalid option"},
		{ErrCodeInvalidExpression, "invalid expression"},
		{ErrCodeTimeout, "operation timed out"},
		{ErrCodeCanceled, "operation canceled"},
		{ErrCodeBackendUnavailable, "backend unavailable"},
		{ErrorCode(1), "unknown error"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.code.String(); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}
