package backend

import (
	"errors"
	"fmt"
)

// Kind classifies why a message could not be delivered.
type Kind string

const (
	KindNone      Kind = ""
	KindNetwork   Kind = "network"
	KindServer    Kind = "server"
	KindMalformed Kind = "malformed_response"
	KindUnknown   Kind = "unknown"
)

// NetworkError wraps a transport level failure (dial, TLS, reset, canceled context).
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("chat backend unreachable: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError reports a non-2xx status from the backend.
type ServerError struct {
	Status int
	Body   string
}

func (e *ServerError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("chat backend returned status %d", e.Status)
	}
	return fmt.Sprintf("chat backend returned status %d: %s", e.Status, e.Body)
}

// MalformedResponseError means a 2xx response whose body is not a usable reply.
type MalformedResponseError struct {
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed chat reply: %s: %v", e.Reason, e.Err)
	}
	return "malformed chat reply: " + e.Reason
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// Classify maps an error returned by Client.Send to its Kind.
func Classify(err error) Kind {
	if err == nil {
		return KindNone
	}

	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return KindNetwork
	}
	var srvErr *ServerError
	if errors.As(err, &srvErr) {
		return KindServer
	}
	var badErr *MalformedResponseError
	if errors.As(err, &badErr) {
		return KindMalformed
	}
	return KindUnknown
}
