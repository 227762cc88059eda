package rpc

import (
	"fmt"
	"time"
)

// ProtocolError means the endpoint answered but the response was not the
// expected JSON-RPC shape (missing result, null result, rpc error object).
// It is never retried by the client.
type ProtocolError struct {
	Method  string
	Message string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error on %s: %s", e.Method, e.Message)
}

// TransportError is a network or HTTP-layer failure. Connection errors and
// 502/503/504 responses are retried with bounded backoff before one of these
// escapes; other statuses surface immediately.
type TransportError struct {
	Method     string
	StatusCode int
	Err        error

	retryable bool
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transport error on %s: status %d", e.Method, e.StatusCode)
	}
	return fmt.Sprintf("transport error on %s: %v", e.Method, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// rateLimitedError is internal to the client retry loop; a 429 never escapes
// to callers, the client waits and retries until a different outcome.
type rateLimitedError struct {
	resetAt  time.Time
	hasReset bool
}

func (e *rateLimitedError) Error() string {
	if e.hasReset {
		return fmt.Sprintf("rate limited until %s", e.resetAt.UTC().Format(time.RFC3339))
	}
	return "rate limited"
}

// MalformedRecordError means an expected hex field could not be parsed.
// Absent optional fields are not malformed; only unparseable values are.
type MalformedRecordError struct {
	Field string
	Value string
	Err   error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed field %q (value %q): %v", e.Field, e.Value, e.Err)
}

func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}
