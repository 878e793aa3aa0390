package rpc

import (
	"errors"
	"fmt"
)

var (
	// ErrNeedMoreData reports a frame that is valid so far but incomplete.
	ErrNeedMoreData = errors.New("rpc: need more data")
	// ErrCancelled is matched by every error handed to callers whose request
	// was abandoned because the connection went away.
	ErrCancelled = errors.New("rpc: request cancelled")
	// ErrClosed reports use of a client after Close.
	ErrClosed = errors.New("rpc: client closed")
)

// TransportError is a failure of the underlying byte stream. It is fatal
// to the connection.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("rpc %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError is a well-formed message with an unexpected shape. The
// offending message is dropped; the connection stays up.
type ProtocolError struct {
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("rpc protocol error: %s: %v", e.Reason, e.Err)
	}
	return "rpc protocol error: " + e.Reason
}

func (e *ProtocolError) Unwrap() error { return e.Err }

func protocolErrorf(format string, args ...any) error {
	return &ProtocolError{Reason: fmt.Sprintf(format, args...)}
}

// FramingError is a byte that can never start a msgpack object. The stream
// cannot be resynchronised after one.
type FramingError struct {
	Offset int
	Byte   byte
}

func (e *FramingError) Error() string {
	return fmt.Sprintf("rpc framing error: invalid byte 0x%02x at offset %d", e.Byte, e.Offset)
}

// RemoteError carries the error payload Neovim returned for a call.
type RemoteError struct {
	Method  string
	Payload Value
}

// Message extracts the text of Neovim's [type, message] error payload.
func (e *RemoteError) Message() string {
	if items, err := e.Payload.AsArray(); err == nil && len(items) >= 2 {
		if msg, err := items[1].AsString(); err == nil {
			return msg
		}
	}
	if msg, err := e.Payload.AsString(); err == nil {
		return msg
	}
	return e.Payload.String()
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s", e.Method, e.Message())
}
