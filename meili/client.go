// Package meili is an HTTP transport for a Meilisearch instance. Its Index
// type implements meilisearchx.Searcher and carries the document
// operations needed to keep an index in sync.
package meili

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/meilisearchx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	apiKeyHeader       = "X-Meili-API-Key"
	tracerName         = "meilisearchx-meili"
)

// Client talks to one Meilisearch instance. It is safe for concurrent use.
type Client struct {
	getSecrets func() (Secrets, error)
	httpClient *http.Client
	timeout    time.Duration
	tracer     trace.Tracer
	obs        *observer
}

// NewClient creates a client. Secrets are fetched lazily on the first
// request and reused afterwards.
func NewClient(fetchSecrets FetchSecrets, opts ...Option) (*Client, error) {
	if fetchSecrets == nil {
		return nil, errors.Wrap(meilisearchx.ErrInvalidOption, "meili: FetchSecrets is nil")
	}

	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.httpClient == nil {
		cfg.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if cfg.tracerProvider == nil {
		cfg.tracerProvider = otel.GetTracerProvider()
	}

	obs := &observer{logger: cfg.logger}
	if cfg.metricsReg != nil {
		m, err := newClientMetrics(cfg.metricsReg)
		if err != nil {
			return nil, err
		}
		obs.metrics = m
	}

	getSecrets := sync.OnceValues(func() (Secrets, error) {
		secrets, err := fetchSecrets()
		if err != nil {
			return Secrets{}, fmt.Errorf("failed to fetch secrets: %w", err)
		}
		if secrets.Host == "" {
			return Secrets{}, fmt.Errorf("host is empty")
		}
		u, err := url.Parse(secrets.Host)
		if err != nil {
			return Secrets{}, fmt.Errorf("invalid host %q: %w", secrets.Host, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return Secrets{}, fmt.Errorf("invalid host %q: scheme must be http or https", secrets.Host)
		}
		secrets.Host = strings.TrimRight(secrets.Host, "/")
		return secrets, nil
	})

	return &Client{
		getSecrets: getSecrets,
		httpClient: cfg.httpClient,
		timeout:    cfg.timeout,
		tracer:     cfg.tracerProvider.Tracer(tracerName),
		obs:        obs,
	}, nil
}

// Index returns a handle on the index identified by uid. No request is made.
func (c *Client) Index(uid string) *Index {
	return &Index{client: c, uid: uid}
}

// Health checks that the instance is reachable and ready.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.do(ctx, request{op: "health", method: http.MethodGet, path: "/health"})
	return err
}

type request struct {
	op       string
	method   string
	path     string
	rawQuery string // "" or starting with '?'
	body     any
	attrs    []attribute.KeyValue
}

// do executes req and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, req request) (body []byte, err error) {
	endpoint := req.path
	start := time.Now()

	attrs := append([]attribute.KeyValue{
		attribute.String("http.method", req.method),
		attribute.String("meili.endpoint", endpoint),
	}, req.attrs...)
	ctx, span := c.tracer.Start(ctx, "meili."+req.op, trace.WithAttributes(attrs...))
	defer func() {
		c.obs.observe(req.op, endpoint, start, err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, fmt.Sprintf("%s %s failed", req.method, endpoint))
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}()

	secrets, err := c.getSecrets()
	if err != nil {
		return nil, errors.WithSecondaryError(
			meilisearchx.ErrBackendUnavailable,
			errors.Wrap(err, "failed to resolve meilisearch credentials"),
		)
	}

	var reader io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return nil, errors.Wrapf(err, "encode %s body", req.op)
		}
		reader = bytes.NewReader(payload)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, secrets.Host+req.path+req.rawQuery, reader)
	if err != nil {
		return nil, errors.Wrapf(err, "build %s request", req.op)
	}
	httpReq.Header.Set("Accept", "application/json")
	if reader != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if secrets.APIKey != "" {
		httpReq.Header.Set(apiKeyHeader, secrets.APIKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, networkError(req.method, endpoint, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, networkError(req.method, endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(req.method, endpoint, resp.StatusCode, body)
	}
	return body, nil
}
