package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
)

// ErrNoToken is returned before any request is made when no bearer token is available.
var ErrNoToken = errors.New("no auth token")

// Kind classifies backend failures.
type Kind int

const (
	// KindTransport covers network failures, timeouts and an open circuit breaker.
	KindTransport Kind = iota + 1
	// KindServer covers non-2xx responses.
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindServer:
		return "server"
	}
	return "unknown"
}

// Error is returned by every Client call that reached (or tried to reach) the backend.
// Message is what the UI shows.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// Timeout reports whether the error was caused by a deadline.
func (e *Error) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}

// serverError builds a KindServer error from a non-2xx response body,
// surfacing its "message" field when present.
func serverError(status int, body []byte) *Error {
	var payload struct {
		Message any `json:"message"`
	}
	msg := ""
	if json.Unmarshal(body, &payload) == nil {
		msg = scalarString(payload.Message)
	}
	if msg == "" {
		msg = fmt.Sprintf("request failed with status %d", status)
	}
	return &Error{Kind: KindServer, Status: status, Message: msg}
}

// transportError classifies a failure that produced no HTTP response.
func transportError(err error) *Error {
	var be *Error
	if errors.As(err, &be) {
		return be
	}
	msg := "network error: " + err.Error()
	var ne net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		msg = "request timed out"
		err = fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	case errors.As(err, &ne) && ne.Timeout():
		msg = "request timed out"
		err = fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	case errors.Is(err, context.Canceled):
		msg = "request canceled"
	}
	return &Error{Kind: KindTransport, Message: msg, Err: err}
}

// AsError converts any error into *Error, treating unknown errors as transport failures.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	return transportError(err)
}
