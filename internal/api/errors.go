package api

import (
	"errors"
	"fmt"
	"net"
	"net/url"
)

// ErrorKind classifies client errors so the UI can react uniformly.
type ErrorKind int

const (
	// KindConnection is a transport-level connect failure (server unreachable).
	KindConnection ErrorKind = iota
	// KindAPI is a non-2xx response or a malformed body.
	KindAPI
	// KindConfig is a local configuration problem.
	KindConfig
	// KindRequest is any other transport failure (timeout, broken pipe, ...).
	KindRequest
)

// Error is the only error shape callers of Client ever see. Every transport
// and decode failure is converted into one of the four kinds.
type Error struct {
	Kind    ErrorKind
	Status  int // HTTP status for KindAPI, zero otherwise
	Message string
	cause   error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindConnection:
		return "connection failed: " + e.Message
	case KindAPI:
		return fmt.Sprintf("API error (%d): %s", e.Status, e.Message)
	case KindConfig:
		return "configuration error: " + e.Message
	default:
		return "request failed: " + e.Message
	}
}

func (e *Error) Unwrap() error { return e.cause }

// IsConnectionError reports whether err is a transport-level connect failure.
func IsConnectionError(err error) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == KindConnection
}

// apiErr builds a KindAPI error from a status code and server message.
func apiErr(status int, message string) *Error {
	return &Error{Kind: KindAPI, Status: status, Message: message}
}

// configErr builds a KindConfig error.
func configErr(err error) *Error {
	return &Error{Kind: KindConfig, Message: err.Error(), cause: err}
}

// transportErr classifies a failed http.Client.Do error. Dial failures map to
// KindConnection so the UI can distinguish "server down" from other failures.
func transportErr(err error) *Error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		var operr *net.OpError
		if errors.As(uerr.Err, &operr) && operr.Op == "dial" {
			return &Error{Kind: KindConnection, Message: uerr.Err.Error(), cause: err}
		}
	}
	return &Error{Kind: KindRequest, Message: err.Error(), cause: err}
}
