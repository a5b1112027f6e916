package meili

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/meilisearchx"
)

// RequestError is the single error type returned for failed requests:
// network failures (StatusCode 0) and non-2xx responses alike.
// Every RequestError matches meilisearchx.ErrTransport.
type RequestError struct {
	// Method and Endpoint identify the request, e.g. GET /indexes/movies/search.
	Method   string
	Endpoint string

	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int

	// Code, Type, Message and Link come from the service's error body when present.
	Code    string
	Type    string
	Message string
	Link    string

	// Err is the underlying network or context error, if any.
	Err error
}

func (e *RequestError) Error() string {
	switch {
	case e.StatusCode == 0 && e.Err != nil:
		return fmt.Sprintf("%s %s: %v", e.Method, e.Endpoint, e.Err)
	case e.Code != "":
		return fmt.Sprintf("%s %s: status %d: %s (%s)", e.Method, e.Endpoint, e.StatusCode, e.Message, e.Code)
	case e.Message != "":
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Endpoint, e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Endpoint, e.StatusCode)
	}
}

func (e *RequestError) Unwrap() error { return e.Err }

// apiErrorBody is the error payload returned by the service.
type apiErrorBody struct {
	Message   string `json:"message"`
	ErrorCode string `json:"errorCode"`
	ErrorType string `json:"errorType"`
	ErrorLink string `json:"errorLink"`
}

func statusError(method, endpoint string, status int, body []byte) error {
	reqErr := &RequestError{
		Method:     method,
		Endpoint:   endpoint,
		StatusCode: status,
	}
	var apiErr apiErrorBody
	if json.Unmarshal(body, &apiErr) == nil {
		reqErr.Code = apiErr.ErrorCode
		reqErr.Type = apiErr.ErrorType
		reqErr.Message = apiErr.Message
		reqErr.Link = apiErr.ErrorLink
	} else if len(body) > 0 {
		reqErr.Message = string(body)
	}
	err := errors.Mark(reqErr, meilisearchx.ErrTransport)
	switch status {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		err = errors.Mark(err, meilisearchx.ErrBackendUnavailable)
	}
	return err
}

func networkError(method, endpoint string, cause error) error {
	var err error = &RequestError{
		Method:   method,
		Endpoint: endpoint,
		Err:      cause,
	}
	err = errors.Mark(err, meilisearchx.ErrTransport)
	switch {
	case errors.Is(cause, context.DeadlineExceeded):
		err = errors.Mark(err, meilisearchx.ErrTimeout)
	case errors.Is(cause, context.Canceled):
		err = errors.Mark(err, meilisearchx.ErrCanceled)
	default:
		err = errors.Mark(err, meilisearchx.ErrBackendUnavailable)
	}
	return err
}
