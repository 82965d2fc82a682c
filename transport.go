// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"sync"
)

// Frame is one length-delimited, codec-encoded wire message as handed to
// or received from a Transport. Data is always the codec-encoded Message
// bytes; ID and Codec are carried alongside for transports (HTTP) whose
// wire contract additionally needs them outside the encoded body, e.g. as
// headers. Transports that frame bytes directly (tcp, unix) ignore ID and
// Codec since the information already lives inside Data.
type Frame struct {
	Data  []byte
	ID    uint64
	Codec string
}

// Conn is a transport-level connection: framed, bidirectional message I/O.
// Ordering within a connection is FIFO and deliveries are all-or-nothing
// per message (spec §4.1).
type Conn interface {
	io.Closer
	Send(ctx context.Context, f Frame) error
	Recv(ctx context.Context) (Frame, error)
	RemoteAddr() string
	// Scheme names the transport carrying this Conn ("tcp", "unix",
	// "http"), surfaced to the calling connection via _meta.status().
	Scheme() string
}

// Listener accepts Conns for one bound address.
type Listener interface {
	io.Closer
	Accept(ctx context.Context) (Conn, error)
	Addr() string
}

// dialConfig and serverConfig hold transport-specific dial/listen options,
// populated by DialOption/ServerOption functions in client.go/server.go.
type dialConfig struct {
	tls *tls.Config
}

type serverConfig struct {
	tls             *tls.Config
	httpCompression bool
}

type dialFunc func(ctx context.Context, addr Addr, o *dialConfig) (Conn, error)
type listenFunc func(ctx context.Context, addr Addr, o *serverConfig) (Listener, error)

var (
	transportsMu sync.RWMutex
	transports   = map[string]struct {
		dial   dialFunc
		listen listenFunc
	}{}
)

// registerTransport makes a transport available by URL scheme. wirerpc's
// three built-in transports (tcp, unix, http) register themselves this
// way from their own source files' init functions, the same indirection
// luxfi-rpc/transport.go uses to let build-tag-gated transports plug in.
func registerTransport(scheme string, dial dialFunc, listen listenFunc) {
	transportsMu.Lock()
	defer transportsMu.Unlock()
	transports[scheme] = struct {
		dial   dialFunc
		listen listenFunc
	}{dial, listen}
}

// AvailableTransports returns the list of registered URL schemes.
func AvailableTransports() []string {
	transportsMu.RLock()
	defer transportsMu.RUnlock()
	out := make([]string, 0, len(transports))
	for name := range transports {
		out = append(out, name)
	}
	return out
}

func dialTransport(ctx context.Context, addr Addr, o *dialConfig) (Conn, error) {
	transportsMu.RLock()
	t, ok := transports[addr.Scheme]
	transportsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("wirerpc: unknown transport scheme %q", addr.Scheme)
	}
	return t.dial(ctx, addr, o)
}

func listenTransport(ctx context.Context, addr Addr, o *serverConfig) (Listener, error) {
	transportsMu.RLock()
	t, ok := transports[addr.Scheme]
	transportsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("wirerpc: unknown transport scheme %q", addr.Scheme)
	}
	return t.listen(ctx, addr, o)
}
