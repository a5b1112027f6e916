package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/letmevibethatforyou/meilisearchx/internal/ddb"
	"github.com/letmevibethatforyou/meilisearchx/meili"
)

type fakePutItem struct {
	input *dynamodb.PutItemInput
	err   error
}

func (f *fakePutItem) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &dynamodb.PutItemOutput{}, nil
}

func TestGenerateRandomMovie(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 100; i++ {
		m := generateRandomMovie(r)
		if m.Title == "" || m.Director == "" {
			t.Fatalf("Incomplete movie: %+v", m)
		}
		if m.ReleaseYear < 1980 || m.ReleaseYear > 2024 {
			t.Errorf("Release year out of range: %d", m.ReleaseYear)
		}
		if m.Rating < 1 || m.Rating > 10 {
			t.Errorf("Rating out of range: %v", m.Rating)
		}
		if len(m.Genres) == 0 || len(m.Genres) > 2 {
			t.Errorf("Unexpected genres: %v", m.Genres)
		}
		if len(m.Genres) == 2 && m.Genres[0] == m.Genres[1] {
			t.Errorf("Duplicate genre: %v", m.Genres)
		}
	}
}

// Items written by the generator must be readable by the stream sync.
func TestInsertMovie(t *testing.T) {
	client := &fakePutItem{}
	movie := Movie{Title: "The Last Orbit", Director: "Nora Quinn", Genres: []string{"sci-fi"}, ReleaseYear: 2001, Rating: 7.5}

	id, err := insertMovie(context.Background(), client, "movies-table", "movies", movie)
	if err != nil {
		t.Fatalf("insertMovie failed: %v", err)
	}

	if aws.ToString(client.input.TableName) != "movies-table" {
		t.Errorf("Unexpected table: %s", aws.ToString(client.input.TableName))
	}

	record, err := ddb.UnmarshalRecord(client.input.Item)
	if err != nil {
		t.Fatalf("UnmarshalRecord failed: %v", err)
	}
	if record.ID != id || record.IndexUID != "movies" {
		t.Errorf("Unexpected keys: %+v", record)
	}
	if record.Object["title"] != "The Last Orbit" || record.Object["release_year"] != float64(2001) {
		t.Errorf("Unexpected object: %v", record.Object)
	}
}

func TestInsertMovie_Error(t *testing.T) {
	client := &fakePutItem{err: errors.New("throttled")}
	if _, err := insertMovie(context.Background(), client, "t", "movies", Movie{}); err == nil {
		t.Fatal("Expected error, got nil")
	}
}

func TestIndexMovies(t *testing.T) {
	var (
		gotPath  string
		gotQuery string
		gotDocs  []map[string]any
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotDocs)
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"updateId":3}`))
	}))
	defer server.Close()

	client, err := meili.NewClient(meili.StaticSecrets(server.URL, ""))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	movies := []Movie{{Title: "A"}, {Title: "B"}}
	update, err := indexMovies(context.Background(), client.Index("movies"), movies)
	if err != nil {
		t.Fatalf("indexMovies failed: %v", err)
	}

	if update.UpdateID != 3 {
		t.Errorf("Expected update id 3, got %d", update.UpdateID)
	}
	if gotPath != "/indexes/movies/documents" || gotQuery != "primaryKey=id" {
		t.Errorf("Unexpected request %s?%s", gotPath, gotQuery)
	}
	if len(gotDocs) != 2 {
		t.Fatalf("Expected 2 documents, got %d", len(gotDocs))
	}
	for _, doc := range gotDocs {
		if id, _ := doc["id"].(string); id == "" {
			t.Errorf("Document without id: %v", doc)
		}
	}
	if gotDocs[0]["title"] != "A" {
		t.Errorf("Unexpected first document: %v", gotDocs[0])
	}
}
