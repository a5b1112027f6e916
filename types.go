package meilisearchx

import "github.com/cockroachdb/errors"

// ErrorCode represents specific error codes for search operations.
type ErrorCode int

const (
	// ErrCodeDecode is returned when a response body does not match the
	// search results shape.
	ErrCodeDecode ErrorCode = iota + 1000

	// ErrCodeTransport is returned when the remote service could not be
	// reached or answered with a non-2xx status.
	ErrCodeTransport

	// ErrCodeInvalidOption is returned when an invalid option is provided.
	ErrCodeInvalidOption

	// ErrCodeInvalidExpression is returned when a filter expression cannot be rendered.
	ErrCodeInvalidExpression

	// ErrCodeTimeout is returned when a search operation times out.
	ErrCodeTimeout

	// ErrCodeCanceled is returned when a search operation is canceled.
	ErrCodeCanceled

	// ErrCodeBackendUnavailable is returned when the search backend is unavailable.
	ErrCodeBackendUnavailable
)

// String returns the human-readable string representation of the error code.
func (e ErrorCode) String() string {
	switch e {
	case ErrCodeDecode:
		return "decode failure"
	case ErrCodeTransport:
		return "transport failure"
	case ErrCodeInvalidOption:
		return "invalid option"
	case ErrCodeInvalidExpression:
		return "invalid expression"
	case ErrCodeTimeout:
		return "operation timed out"
	case ErrCodeCanceled:
		return "operation canceled"
	case ErrCodeBackendUnavailable:
		return "backend unavailable"
	default:
		return "unknown error"
	}
}

func newErrorWithCode(code ErrorCode, msg string) error {
	err := errors.New(msg)
	return errors.WithSecondaryError(err, errors.Newf("code: %d", int(code)))
}

// Sentinel errors. Match them with errors.Is.
var (
	// ErrDecode marks failures to decode a search response.
	ErrDecode = newErrorWithCode(ErrCodeDecode, "meilisearchx: decode failure")

	// ErrTransport marks failures reported by the transport.
	ErrTransport = newErrorWithCode(ErrCodeTransport, "meilisearchx: transport failure")

	// ErrInvalidOption is returned when an invalid option is provided.
	ErrInvalidOption = newErrorWithCode(ErrCodeInvalidOption, "meilisearchx: invalid option")

	// ErrInvalidExpression is returned when an invalid expression is provided.
	ErrInvalidExpression = newErrorWithCode(ErrCodeInvalidExpression, "meilisearchx: invalid expression")

	// ErrTimeout is returned when a search operation times out.
	ErrTimeout = newErrorWithCode(ErrCodeTimeout, "meilisearchx: operation timed out")

	// ErrCanceled is returned when a search operation is canceled.
	ErrCanceled = newErrorWithCode(ErrCodeCanceled, "meilisearchx: operation canceled")

	// ErrBackendUnavailable is returned when the search backend is unavailable.
	ErrBackendUnavailable = newErrorWithCode(ErrCodeBackendUnavailable, "meilisearchx: backend unavailable")
)

// Operator represents comparison operators used by filter expressions.
type Operator string

const (
	OpEq  Operator = "="
	OpNe  Operator = "!="
	OpGt  Operator = ">"
	OpGte Operator = ">="
	OpLt  Operator = "<"
	OpLte Operator = "<="
)

func (o Operator) numeric() bool {
	switch o {
	case OpGt, OpGte, OpLt, OpLte:
		return true
	default:
		return false
	}
}
