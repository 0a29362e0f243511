// Package srqlerrors defines the error taxonomy shared by every SRQL
// component and its mapping onto HTTP status codes.
package srqlerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a ServiceError for HTTP mapping and logging.
type Kind int

const (
	// KindConfig is fatal at startup: bad listen address, missing database
	// URL, malformed KV seed.
	KindConfig Kind = iota
	// KindAuth covers missing or mismatched API keys.
	KindAuth
	// KindInvalidRequest covers everything the client can fix: unparseable
	// SRQL, unknown entities or fields, bad literals, bad cursors.
	KindInvalidRequest
	// KindNotImplemented is reserved for entity features deliberately
	// unfinished.
	KindNotImplemented
	// KindInternal covers database failures, pool timeouts, bind-count
	// mismatches. Details are logged, never returned to clients.
	KindInternal
)

// ServiceError is the single error type crossing component boundaries.
type ServiceError struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *ServiceError) Error() string {
	switch e.Kind {
	case KindConfig:
		return fmt.Sprintf("configuration error: %s", e.Message)
	case KindAuth:
		return "authentication failed"
	case KindInvalidRequest:
		return fmt.Sprintf("invalid request: %s", e.Message)
	case KindNotImplemented:
		return fmt.Sprintf("not implemented: %s", e.Message)
	default:
		return "internal error"
	}
}

func (e *ServiceError) Unwrap() error { return e.cause }

// Cause returns the wrapped internal error, if any. Used by the HTTP layer
// to log details that must not reach the client.
func (e *ServiceError) Cause() error { return e.cause }

// HTTPStatus maps the error kind to a status code. Pure function of Kind.
func (e *ServiceError) HTTPStatus() int {
	switch e.Kind {
	case KindAuth:
		return http.StatusUnauthorized
	case KindInvalidRequest:
		return http.StatusBadRequest
	case KindNotImplemented:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// ClientMessage is what goes in the response body. Internal and config
// errors get an opaque message; the rest are actionable as-is.
func (e *ServiceError) ClientMessage() string {
	switch e.Kind {
	case KindInternal, KindConfig:
		return "internal error"
	default:
		return e.Error()
	}
}

// NewConfig reports a fatal startup misconfiguration.
func NewConfig(format string, args ...any) *ServiceError {
	return &ServiceError{Kind: KindConfig, Message: fmt.Sprintf(format, args...)}
}

// NewAuth reports a failed API key check.
func NewAuth() *ServiceError {
	return &ServiceError{Kind: KindAuth}
}

// NewInvalidRequest reports a client error.
func NewInvalidRequest(format string, args ...any) *ServiceError {
	return &ServiceError{Kind: KindInvalidRequest, Message: fmt.Sprintf(format, args...)}
}

// NewNotImplemented reports a deliberately unfinished feature.
func NewNotImplemented(format string, args ...any) *ServiceError {
	return &ServiceError{Kind: KindNotImplemented, Message: fmt.Sprintf(format, args...)}
}

// NewInternal wraps a server-side failure.
func NewInternal(cause error) *ServiceError {
	return &ServiceError{Kind: KindInternal, Message: "internal error", cause: cause}
}

// AsServiceError extracts a *ServiceError from err, wrapping anything else
// as internal so handlers always have a mappable error.
func AsServiceError(err error) *ServiceError {
	var svc *ServiceError
	if errors.As(err, &svc) {
		return svc
	}
	return NewInternal(err)
}

// IsInvalidRequest reports whether err is a client error.
func IsInvalidRequest(err error) bool {
	var svc *ServiceError
	return errors.As(err, &svc) && svc.Kind == KindInvalidRequest
}
