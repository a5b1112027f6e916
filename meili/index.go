package meili

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/cockroachdb/errors"
	"github.com/google/go-querystring/query"
	"github.com/letmevibethatforyou/meilisearchx"
	"go.opentelemetry.io/otel/attribute"
)

var _ meilisearchx.Searcher = (*Index)(nil)

// Index is a handle on one index of a Client.
type Index struct {
	client *Client
	uid    string
}

// Update acknowledges an asynchronous write. The write is applied later by
// the service; UpdateID identifies it.
type Update struct {
	UpdateID int `json:"updateId"`
}

// DocumentsQuery pages through the documents of an index.
type DocumentsQuery struct {
	Offset               int      `url:"offset,omitempty"`
	Limit                int      `url:"limit,omitempty"`
	AttributesToRetrieve []string `url:"attributesToRetrieve,comma,omitempty"`
}

type addDocumentsParams struct {
	PrimaryKey string `url:"primaryKey,omitempty"`
}

// UID returns the index identifier.
func (i *Index) UID() string { return i.uid }

// Search implements meilisearchx.Searcher. rawQuery is appended verbatim to
// the search endpoint.
func (i *Index) Search(ctx context.Context, rawQuery string) ([]byte, error) {
	return i.client.do(ctx, request{
		op:       "search",
		method:   http.MethodGet,
		path:     i.path("/search"),
		rawQuery: rawQuery,
		attrs:    i.attrs(),
	})
}

// AddDocuments adds or replaces documents. primaryKey may be empty to let
// the service infer it.
func (i *Index) AddDocuments(ctx context.Context, documents any, primaryKey string) (Update, error) {
	rawQuery, err := encodeParams(addDocumentsParams{PrimaryKey: primaryKey})
	if err != nil {
		return Update{}, err
	}
	return i.update(ctx, request{
		op:       "add_documents",
		method:   http.MethodPost,
		path:     i.path("/documents"),
		rawQuery: rawQuery,
		body:     documents,
		attrs:    i.attrs(),
	})
}

// GetDocument decodes the document identified by id into dst.
func (i *Index) GetDocument(ctx context.Context, id string, dst any) error {
	body, err := i.client.do(ctx, request{
		op:     "get_document",
		method: http.MethodGet,
		path:   i.path("/documents/" + url.PathEscape(id)),
		attrs:  append(i.attrs(), attribute.String("meili.document_id", id)),
	})
	if err != nil {
		return err
	}
	return decodeBody(body, dst)
}

// GetDocuments decodes a page of documents into dst, which should point to a slice.
func (i *Index) GetDocuments(ctx context.Context, q DocumentsQuery, dst any) error {
	rawQuery, err := encodeParams(q)
	if err != nil {
		return err
	}
	body, err := i.client.do(ctx, request{
		op:       "get_documents",
		method:   http.MethodGet,
		path:     i.path("/documents"),
		rawQuery: rawQuery,
		attrs:    i.attrs(),
	})
	if err != nil {
		return err
	}
	return decodeBody(body, dst)
}

// DeleteDocument deletes one document.
func (i *Index) DeleteDocument(ctx context.Context, id string) (Update, error) {
	return i.update(ctx, request{
		op:     "delete_document",
		method: http.MethodDelete,
		path:   i.path("/documents/" + url.PathEscape(id)),
		attrs:  append(i.attrs(), attribute.String("meili.document_id", id)),
	})
}

// DeleteDocuments deletes the documents with the given ids.
func (i *Index) DeleteDocuments(ctx context.Context, ids []string) (Update, error) {
	if len(ids) == 0 {
		return Update{}, errors.Wrap(meilisearchx.ErrInvalidOption, "no document ids")
	}
	return i.update(ctx, request{
		op:     "delete_documents",
		method: http.MethodPost,
		path:   i.path("/documents/delete-batch"),
		body:   ids,
		attrs:  append(i.attrs(), attribute.Int("meili.document_count", len(ids))),
	})
}

func (i *Index) update(ctx context.Context, req request) (Update, error) {
	body, err := i.client.do(ctx, req)
	if err != nil {
		return Update{}, err
	}
	var u Update
	if err := decodeBody(body, &u); err != nil {
		return Update{}, err
	}
	return u, nil
}

func (i *Index) path(suffix string) string {
	return "/indexes/" + url.PathEscape(i.uid) + suffix
}

func (i *Index) attrs() []attribute.KeyValue {
	return []attribute.KeyValue{attribute.String("meili.index_uid", i.uid)}
}

func encodeParams(v any) (string, error) {
	values, err := query.Values(v)
	if err != nil {
		return "", errors.Wrap(err, "encode query parameters")
	}
	if len(values) == 0 {
		return "", nil
	}
	return "?" + values.Encode(), nil
}

func decodeBody(body []byte, dst any) error {
	if err := json.Unmarshal(body, dst); err != nil {
		return errors.Mark(errors.Wrap(err, "decode response"), meilisearchx.ErrDecode)
	}
	return nil
}
