package meilisearchx

import (
	"strings"
	"sync"
	"testing"
)

func TestQueryURL(t *testing.T) {
	tests := []struct {
		name     string
		query    Query
		expected string
	}{
		{
			name:     "query only",
			query:    NewQuery("space"),
			expected: "?q=space",
		},
		{
			name:     "offset and limit",
			query:    NewQuery("space").WithOffset(42).WithLimit(21),
			expected: "?q=space&offset=42&limit=21",
		},
		{
			name:     "empty query text",
			query:    NewQuery(""),
			expected: "?q=",
		},
		{
			name:     "reserved characters in query text",
			query:    NewQuery("a&b=c?d e/f"),
			expected: "?q=a%26b%3Dc%3Fd%20e%2Ff",
		},
		{
			name:     "plus signs are not spaces",
			query:    NewQuery("c++ go"),
			expected: "?q=c%2B%2B%20go",
		},
		{
			name:     "non-ascii query text",
			query:    NewQuery("café"),
			expected: "?q=caf%C3%A9",
		},
		{
			name:     "explicit zero values are sent",
			query:    NewQuery("x").WithOffset(0).WithLimit(0).WithCropLength(0),
			expected: "?q=x&offset=0&limit=0&cropLength=0",
		},
		{
			name:     "large values are written in decimal",
			query:    NewQuery("x").WithOffset(4294967295).WithCropLength(1 << 20),
			expected: "?q=x&offset=4294967295&cropLength=1048576",
		},
		{
			name:     "filter built from expression escapes backslashes",
			query:    mustWithFilter(t, NewQuery("x"), Eq("path", `C:\`)),
			expected: "?q=x&filters=path%20%3D%20%22C%3A%5C%5C%22",
		},
		{
			name:     "raw filters are percent-encoded",
			query:    NewQuery("x").WithFilters("release_date > 1590537600 AND genre = horror"),
			expected: "?q=x&filters=release_date%20%3E%201590537600%20AND%20genre%20%3D%20horror",
		},
		{
			name: "facet filters are JSON then percent-encoded",
			query: NewQuery("x").WithFacetFilters([][]string{
				{"genre:horror", "genre:comedy"},
				{"director:Jordan Peele"},
			}),
			expected: "?q=x&facetFilters=%5B%5B%22genre%3Ahorror%22%2C%22genre%3Acomedy%22%5D%2C%5B%22director%3AJordan%20Peele%22%5D%5D",
		},
		{
			name:     "empty facet filters are still sent",
			query:    NewQuery("x").WithFacetFilters([][]string{}),
			expected: "?q=x&facetFilters=%5B%5D",
		},
		{
			name:     "nil facet filters are sent as an empty list",
			query:    NewQuery("x").WithFacetFilters(nil),
			expected: "?q=x&facetFilters=%5B%5D",
		},
		{
			name:     "empty OR group",
			query:    NewQuery("x").WithFacetFilters([][]string{{}}),
			expected: "?q=x&facetFilters=%5B%5B%5D%5D",
		},
		{
			name:     "wildcard facets distribution",
			query:    NewQuery("x").WithFacetsDistribution(AllFacets()),
			expected: "?q=x&facetsDistribution=*",
		},
		{
			name:     "named facets distribution",
			query:    NewQuery("x").WithFacetsDistribution(Facets("genre", "director")),
			expected: "?q=x&facetsDistribution=%5B%22genre%22%2C%22director%22%5D",
		},
		{
			name:     "empty facets distribution list",
			query:    NewQuery("x").WithFacetsDistribution(Facets()),
			expected: "?q=x&facetsDistribution=%5B%5D",
		},
		{
			name:     "facet names are not HTML-escaped",
			query:    NewQuery("x").WithFacetsDistribution(Facets("<a>&")),
			expected: "?q=x&facetsDistribution=%5B%22%3Ca%3E%26%22%5D",
		},
		{
			name:     "zero facets distribution removes the request",
			query:    NewQuery("x").WithFacetsDistribution(AllFacets()).WithFacetsDistribution(FacetsDistribution{}),
			expected: "?q=x",
		},
		{
			name:     "attribute lists",
			query:    NewQuery("x").WithAttributesToRetrieve("title,overview").WithAttributesToCrop("overview").WithAttributesToHighlight("*"),
			expected: "?q=x&attributesToRetrieve=title%2Coverview&attributesToCrop=overview&attributesToHighlight=%2A",
		},
		{
			name:     "crop length without cropped attributes",
			query:    NewQuery("x").WithCropLength(50),
			expected: "?q=x&cropLength=50",
		},
		{
			name: "every parameter in fixed order",
			query: NewQuery("hello world").
				WithAttributesToHighlight("title").
				WithCropLength(10).
				WithAttributesToCrop("overview").
				WithAttributesToRetrieve("title").
				WithFacetsDistribution(AllFacets()).
				WithFacetFilters([][]string{{"genre:horror"}}).
				WithFilters("id = 1").
				WithLimit(5).
				WithOffset(1),
			expected: "?q=hello%20world&offset=1&limit=5&filters=id%20%3D%201" +
				"&facetFilters=%5B%5B%22genre%3Ahorror%22%5D%5D&facetsDistribution=*" +
				"&attributesToRetrieve=title&attributesToCrop=overview&cropLength=10&attributesToHighlight=title",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.query.URL()
			if got != tt.expected {
				t.Errorf("Expected URL %q, got %q", tt.expected, got)
			}
			if !strings.HasPrefix(got, "?q=") {
				t.Errorf("URL %q does not start with ?q=", got)
			}
		})
	}
}

func mustWithFilter(t *testing.T, q Query, expr Expression) Query {
	t.Helper()
	q, err := q.WithFilter(expr)
	if err != nil {
		t.Fatalf("WithFilter failed: %v", err)
	}
	return q
}

func TestQueryStringer(t *testing.T) {
	q := NewQuery("space").WithLimit(3)
	if q.String() != q.URL() {
		t.Errorf("Expected String() %q to equal URL() %q", q.String(), q.URL())
	}
}

func TestQueryIsImmutable(t *testing.T) {
	base := NewQuery("space")
	limited := base.WithLimit(10)
	filtered := limited.WithFilters("a = 1")

	if base.URL() != "?q=space" {
		t.Errorf("Base query changed: %q", base.URL())
	}
	if limited.URL() != "?q=space&limit=10" {
		t.Errorf("Limited query changed: %q", limited.URL())
	}
	if filtered.URL() != "?q=space&limit=10&filters=a%20%3D%201" {
		t.Errorf("Unexpected filtered query: %q", filtered.URL())
	}

	// Branching from the same value must not leak between branches.
	a := limited.WithOffset(1)
	b := limited.WithOffset(2)
	if a.URL() != "?q=space&offset=1&limit=10" || b.URL() != "?q=space&offset=2&limit=10" {
		t.Errorf("Branches interfere: %q, %q", a.URL(), b.URL())
	}
}

func TestQueryCopiesCallerSlices(t *testing.T) {
	groups := [][]string{{"genre:horror"}}
	names := []string{"genre"}

	q := NewQuery("x").
		WithFacetFilters(groups).
		WithFacetsDistribution(Facets(names...))

	groups[0][0] = "genre:comedy"
	names[0] = "director"

	expected := "?q=x&facetFilters=%5B%5B%22genre%3Ahorror%22%5D%5D&facetsDistribution=%5B%22genre%22%5D"
	if q.URL() != expected {
		t.Errorf("Expected %q, got %q", expected, q.URL())
	}
}

func TestQueryLastWriteWins(t *testing.T) {
	tests := []struct {
		name     string
		query    Query
		expected string
	}{
		{"offset", NewQuery("x").WithOffset(1).WithOffset(2), "?q=x&offset=2"},
		{"limit", NewQuery("x").WithLimit(1).WithLimit(2), "?q=x&limit=2"},
		{"filters", NewQuery("x").WithFilters("a").WithFilters("b"), "?q=x&filters=b"},
		{"facet filters", NewQuery("x").WithFacetFilters([][]string{{"a:1"}}).WithFacetFilters(nil), "?q=x&facetFilters=%5B%5D"},
		{"facets", NewQuery("x").WithFacetsDistribution(Facets("a")).WithFacetsDistribution(AllFacets()), "?q=x&facetsDistribution=*"},
		{"retrieve", NewQuery("x").WithAttributesToRetrieve("a").WithAttributesToRetrieve("b"), "?q=x&attributesToRetrieve=b"},
		{"crop", NewQuery("x").WithAttributesToCrop("a").WithAttributesToCrop("b"), "?q=x&attributesToCrop=b"},
		{"crop length", NewQuery("x").WithCropLength(1).WithCropLength(2), "?q=x&cropLength=2"},
		{"highlight", NewQuery("x").WithAttributesToHighlight("a").WithAttributesToHighlight("b"), "?q=x&attributesToHighlight=b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.query.URL(); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestQuerySetterOrderDoesNotMatter(t *testing.T) {
	a := NewQuery("x").WithLimit(3).WithFacetsDistribution(AllFacets()).WithOffset(9).WithAttributesToCrop("c")
	b := NewQuery("x").WithAttributesToCrop("c").WithOffset(9).WithFacetsDistribution(AllFacets()).WithLimit(3)

	if a.URL() != b.URL() {
		t.Errorf("Expected identical URLs, got %q and %q", a.URL(), b.URL())
	}
}

func TestQueryConcurrentReads(t *testing.T) {
	q := NewQuery("shared").WithFacetFilters([][]string{{"a:b"}}).WithFacetsDistribution(Facets("a"))
	expected := q.URL()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n uint) {
			defer wg.Done()
			derived := q.WithLimit(n)
			if q.URL() != expected {
				t.Errorf("Shared query changed to %q", q.URL())
			}
			_ = derived.URL()
		}(uint(i))
	}
	wg.Wait()
}

func TestFacetsDistribution(t *testing.T) {
	var unset FacetsDistribution
	if unset.IsSet() || unset.IsWildcard() || unset.Names() != nil {
		t.Error("Zero FacetsDistribution should be unset")
	}

	all := AllFacets()
	if !all.IsSet() || !all.IsWildcard() || all.Names() != nil {
		t.Error("AllFacets should be a set wildcard without names")
	}

	empty := Facets()
	if !empty.IsSet() || empty.IsWildcard() {
		t.Error("Facets() should be a set, non-wildcard request")
	}
	if names := empty.Names(); names == nil || len(names) != 0 {
		t.Errorf("Expected empty non-nil names, got %#v", names)
	}

	named := Facets("genre", "director")
	names := named.Names()
	names[0] = "mutated"
	if named.Names()[0] != "genre" {
		t.Error("Names should return a copy")
	}
}

func TestQueryText(t *testing.T) {
	if got := NewQuery("space odyssey").WithLimit(1).Text(); got != "space odyssey" {
		t.Errorf("Expected text 'space odyssey', got '%s'", got)
	}
}
