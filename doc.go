// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package rpc implements wirerpc, a lightweight RPC runtime that exposes
// named services (collections of commands) over a pluggable transport and
// codec, with support for bidirectional streaming and a self-describing
// metadata service that drives generated clients and CLIs.
//
// # Layering
//
// The engine is layered; higher layers depend only on lower ones:
//
//	Transport            accept/establish a framed byte stream
//	Codec                convert structured values to/from bytes
//	Framing & Multiplex  carry request/response/stream/error frames, tagged by call ID
//	Registry & Metadata  introspect commands, publish as the _meta service
//	Server dispatcher     route calls, manage streams, report errors
//	Client proxy          handshake, issue calls, reconstruct a typed surface
//
// # Transport selection
//
// wirerpc ships three transports, selected by URL scheme:
//
//	tcp://host:port    raw sockets, 4-byte length-prefixed frames
//	unix:///path        unix domain socket, identical framing
//	http://host:port    one frame per HTTP request/response body
//
// # Usage
//
// Server usage:
//
//	srv := rpc.NewServer()
//	if err := srv.RegisterService("health", service.NewHealth()); err != nil {
//	    log.Fatal(err)
//	}
//	log.Fatal(srv.ListenAndServe(ctx, "tcp://127.0.0.1:12321"))
//
// Client usage:
//
//	client, err := rpc.Dial(ctx, "tcp://127.0.0.1:12321")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	health, err := client.Service(ctx, "health")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	stream, err := health.Call(ctx, "ping", int64(3), 0.0)
//
// # Architecture
//
//   - message.go: wire Message struct and Kind enum
//   - codec*.go: Codec interface, JSON and MessagePack implementations
//   - transport*.go: Conn/Listener interfaces and the tcp/unix/http variants
//   - conn.go: per-connection call multiplexer (a reader pump; sends go
//     straight to the transport Conn, with no writer goroutine)
//   - registry.go: command/service descriptor tables
//   - stream.go: the Stream lazy-sequence abstraction
//   - meta.go: the always-registered _meta service
//   - server.go: accept loop, dispatcher, worker pool, cancellation
//   - client.go, proxy.go: dial, handshake, metadata-driven call proxy
//   - retry.go: dial retry helper
//   - hooks.go: DispatchHook and the optional OpenTelemetry tracing hook
//   - service/*: the health, file, and remote built-in services
//
// Application code should depend on the exported interfaces in this
// package; transport and codec selection are deployment decisions encoded
// in a URL, not code changes.
package rpc
