package client

import (
	"errors"
	"fmt"
)

// Kind classifies API client failures. Call sites dispatch on the kind, never
// on the error text.
type Kind int

const (
	// KindTimeout: the request exceeded the client timeout and was cancelled.
	KindTimeout Kind = iota + 1
	// KindUnauthenticated: an auth-required call was attempted with no token.
	// No request is issued in this case.
	KindUnauthenticated
	// KindRequestFailed: the server answered with a non-2xx status.
	KindRequestFailed
	// KindMalformedResponse: a 2xx login response was missing the token or
	// admin object.
	KindMalformedResponse
	// KindParseError: a 2xx body could not be decoded as JSON.
	KindParseError
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindRequestFailed:
		return "request failed"
	case KindMalformedResponse:
		return "malformed response"
	case KindParseError:
		return "parse error"
	default:
		return "unknown"
	}
}

// APIError represents a failed API call.
type APIError struct {
	Kind       Kind
	StatusCode int // set for KindRequestFailed
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
	}
	if e.Message == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// IsKind returns true if err (or any wrapped error) is an APIError of the
// given kind.
func IsKind(err error, k Kind) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind == k
	}
	return false
}

// IsStatus returns true if err (or any wrapped error) is an APIError with the
// given HTTP status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == code
	}
	return false
}
