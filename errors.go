// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"errors"
	"fmt"
)

// ErrorKind is the closed taxonomy of wire-carried ERROR.kind values.
type ErrorKind string

const (
	KindTransport        ErrorKind = "TransportError"
	KindCodec            ErrorKind = "CodecError"
	KindProtocol         ErrorKind = "ProtocolError"
	KindCodecNegotiation ErrorKind = "CodecNegotiation"
	KindUnknownService   ErrorKind = "UnknownService"
	KindUnknownCommand   ErrorKind = "UnknownCommand"
	KindBadArguments     ErrorKind = "BadArguments"
	KindCancelled        ErrorKind = "Cancelled"
	KindTimeout          ErrorKind = "TimeoutError"
	KindCommand          ErrorKind = "CommandError"
	KindInternal         ErrorKind = "Internal"
)

// RemoteError is raised on the initiating side of a call whose terminal
// message was ERROR. It carries exactly the wire ERROR payload.
type RemoteError struct {
	Kind      ErrorKind
	Message   string
	Traceback string
}

func (e *RemoteError) Error() string {
	if e.Traceback != "" {
		return e.Traceback
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is reports whether target names the same ErrorKind, so callers can write
// errors.Is(err, rpc.ErrUnknownCommand) style checks.
func (e *RemoteError) Is(target error) bool {
	var other *RemoteError
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

// Sentinel RemoteErrors for errors.Is matching against a bare kind.
var (
	ErrUnknownService = &RemoteError{Kind: KindUnknownService}
	ErrUnknownCommand = &RemoteError{Kind: KindUnknownCommand}
	ErrBadArguments   = &RemoteError{Kind: KindBadArguments}
	ErrCancelled      = &RemoteError{Kind: KindCancelled}
	ErrTimeout        = &RemoteError{Kind: KindTimeout}
)

// TransportError wraps any failure from the underlying byte channel:
// connection-refused, connection-reset, read/write-eof, or timeout.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("transport: %s: %v", e.Op, e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

func wrapTransport(op string, err error) error {
	if err == nil {
		return nil
	}
	return &TransportError{Op: op, Err: err}
}

// ProtocolError signals a malformed frame or an illegal message sequence
// (e.g. receiving CHUNK/END for a call that expects a unary REPLY).
type ProtocolError struct {
	Detail string
}

func (e *ProtocolError) Error() string { return "protocol error: " + e.Detail }

func protocolErrorf(format string, args ...any) error {
	return &ProtocolError{Detail: fmt.Sprintf(format, args...)}
}

// RegistrationError is returned by Server.RegisterService when a service
// or command name conflicts with an existing registration, or otherwise
// violates a §3 invariant (duplicate name, a non-first stream parameter,
// mismatched output-streaming tag).
type RegistrationError struct {
	Detail string
}

func (e *RegistrationError) Error() string { return "registration: " + e.Detail }

func registrationErrorf(format string, args ...any) error {
	return &RegistrationError{Detail: fmt.Sprintf(format, args...)}
}

// CodecError wraps an encode/decode failure.
type CodecError struct {
	Op  string
	Err error
}

func (e *CodecError) Error() string { return fmt.Sprintf("codec: %s: %v", e.Op, e.Err) }
func (e *CodecError) Unwrap() error { return e.Err }
