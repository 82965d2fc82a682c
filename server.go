// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"context"
	"crypto/tls"
	"log"
)

const defaultWorkerPoolSize = 64

// Server accepts connections on one or more Listeners and dispatches CALLs
// against a registry of Services, generalizing luxfi-rpc/dial.go's
// zapServer (§D.7). A *Server is safe for concurrent use; RegisterService
// may be called at any time, including while Serve is running, per spec
// §5's "single writer lock, consistent reader snapshots" model.
type Server struct {
	services *Registry[*serviceEntry]
	codecs   []string
	logger   *log.Logger
	debug    bool
	tls      *tls.Config
	httpGzip bool
	hook     DispatchHook

	sem chan struct{}

	version string
}

// ServerOption configures a Server at construction, continuing the
// teacher's functional-options pattern (luxfi-rpc/client.go).
type ServerOption func(*Server)

// WithServerLogger overrides the Server's *log.Logger (default: log.Default()).
func WithServerLogger(l *log.Logger) ServerOption {
	return func(s *Server) { s.logger = l }
}

// WithServerDebug enables verbose per-message tracing, matching
// snekrpc.logs gating everything on isEnabledFor(DEBUG).
func WithServerDebug(debug bool) ServerOption {
	return func(s *Server) { s.debug = debug }
}

// WithServerCodecs restricts the codecs this Server accepts during
// negotiation; the client's offered order alone decides which of them is
// picked. Default: DefaultCodecOrder.
func WithServerCodecs(names ...string) ServerOption {
	return func(s *Server) { s.codecs = names }
}

// WithWorkerPoolSize bounds the number of commands a Server executes
// concurrently, so one slow handler cannot starve every connection's
// reader goroutine (spec §5). Default: 64.
func WithWorkerPoolSize(n int) ServerOption {
	return func(s *Server) {
		if n > 0 {
			s.sem = make(chan struct{}, n)
		}
	}
}

// WithServerTLS enables TLS on tcp:// and http:// listeners.
func WithServerTLS(cfg *tls.Config) ServerOption {
	return func(s *Server) { s.tls = cfg }
}

// WithHTTPCompression enables optional zstd Content-Encoding on the http
// transport (§B.3).
func WithHTTPCompression(enabled bool) ServerOption {
	return func(s *Server) { s.httpGzip = enabled }
}

// WithTracing wires an OpenTelemetry DispatchHook that wraps every call in
// a span, exported to stdout for local debugging (§B.4). If the exporter
// cannot be constructed the option is silently a no-op, since tracing is
// strictly observability and must never block startup.
func WithTracing(enabled bool) ServerOption {
	return func(s *Server) {
		if !enabled {
			return
		}
		if h, err := newOTelHook(); err == nil {
			s.hook = h
		}
	}
}

// WithDispatchHook installs an arbitrary DispatchHook, for callers who
// want their own observability integration instead of WithTracing's
// built-in OpenTelemetry wiring.
func WithDispatchHook(h DispatchHook) ServerOption {
	return func(s *Server) { s.hook = h }
}

// NewServer builds a Server with the _meta service already registered.
func NewServer(opts ...ServerOption) *Server {
	s := &Server{
		services: NewRegistry[*serviceEntry](),
		codecs:   DefaultCodecOrder,
		logger:   log.Default(),
		hook:     noopHook{},
		sem:      make(chan struct{}, defaultWorkerPoolSize),
		version:  ProtocolVersion,
	}
	for _, o := range opts {
		o(s)
	}
	meta := newMetaService(s)
	if err := s.RegisterService("_meta", meta); err != nil {
		panic(err) // _meta's own descriptor table is static and always valid
	}
	return s
}

// RegisterService adds svc under name, failing if name is already taken
// or svc's command table violates a §3 invariant. "_meta" is reserved and
// registered automatically by NewServer.
func (s *Server) RegisterService(name string, svc Service) error {
	if name == "_meta" {
		if _, exists := s.services.Get("_meta"); exists {
			return registrationErrorf("service name %q is reserved", name)
		}
	}
	if _, exists := s.services.Get(name); exists {
		return registrationErrorf("service %q already registered", name)
	}
	entry, err := newServiceEntry(name, svc)
	if err != nil {
		return err
	}
	s.services.Set(name, entry)
	return nil
}

// Serve accepts connections from ln until ctx is cancelled or Accept
// fails, handling each on its own goroutine. It returns the terminal
// Accept error (nil if ctx was the cause).
func (s *Server) Serve(ctx context.Context, ln Listener) error {
	defer ln.Close()
	for {
		conn, err := ln.Accept(ctx)
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return wrapTransport("accept", err)
			}
		}
		go s.handleConn(ctx, conn)
	}
}

// ListenAndServe resolves addr and serves it, combining listenTransport
// and Serve for the common single-listener case.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	a, err := ParseAddr(addr)
	if err != nil {
		return err
	}
	cfg := &serverConfig{tls: s.tls, httpCompression: s.httpGzip}
	ln, err := listenTransport(ctx, a, cfg)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

func (s *Server) handleConn(ctx context.Context, tc Conn) {
	// Every call on this connection derives its context from this one,
	// which is cancelled when the connection ends.
	ctx, cancelConn := context.WithCancel(ctx)
	defer cancelConn()

	mc := newMuxConn(tc)
	defer mc.close()

	codec, err := serverHandshake(ctx, mc, s.codecs)
	if err != nil {
		if s.debug {
			s.logger.Printf("wirerpc: handshake with %s failed: %v", tc.RemoteAddr(), err)
		}
		return
	}
	if s.debug {
		s.logger.Printf("wirerpc: %s negotiated codec %s", tc.RemoteAddr(), codec.Name())
	}

	for {
		select {
		case msg := <-mc.newCallCh:
			if msg.Kind != KindCall {
				continue // a stray frame for an id we never registered; ignore
			}
			inbox := mc.register(msg.ID)
			go s.handleCall(ctx, mc, msg, inbox)
		case <-mc.done():
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) handleCall(ctx context.Context, mc *muxConn, call Message, inbox chan Message) {
	id := call.ID
	payload := call.Call

	entry, ok := s.services.Get(payload.Service)
	if !ok {
		mc.unregister(id)
		_ = mc.send(ctx, newError(id, KindUnknownService, "unknown service: "+payload.Service, ""))
		return
	}
	cmd, ok := entry.command(payload.Command)
	if !ok {
		mc.unregister(id)
		_ = mc.send(ctx, newError(id, KindUnknownCommand, "unknown command: "+payload.Service+"."+payload.Command, ""))
		return
	}

	args, err := bindArgs(cmd, payload)
	if err != nil {
		mc.unregister(id)
		_ = mc.send(ctx, newError(id, KindBadArguments, err.Error(), ""))
		return
	}

	callCtx, cancel := context.WithCancel(ctx)
	callCtx = withConnInfo(callCtx, connInfo{Codec: mc.getCodec().Name(), Transport: mc.transport})
	defer cancel()
	defer mc.unregister(id)

	var inStream *Stream
	if cmd.InputStreaming() {
		inStream = newInboundStream(callCtx, inbox, cancel)
	} else {
		watchDone := make(chan struct{})
		defer close(watchDone)
		go watchCancel(inbox, watchDone, cancel)
	}

	s.sem <- struct{}{}
	defer func() { <-s.sem }()

	hookCtx, token := s.hook.OnDispatch(callCtx, payload.Service, payload.Command)
	result, err := cmd.Handler(hookCtx, args, inStream)
	token.End(err)

	if err != nil {
		kind := KindCommand
		if re, ok := err.(*RemoteError); ok {
			kind = re.Kind
		}
		_ = mc.send(ctx, newError(id, kind, err.Error(), ""))
		return
	}

	if cmd.OutputStreaming {
		st, ok := result.(*Stream)
		if !ok {
			_ = mc.send(ctx, newError(id, KindInternal, "handler did not return a Stream for an output-streaming command", ""))
			return
		}
		if err := drainToChunks(callCtx, st, id, mc.send); err != nil && s.debug {
			s.logger.Printf("wirerpc: stream %d: %v", id, err)
		}
		return
	}

	_ = mc.send(ctx, newReply(id, result))
}

// watchCancel drains inbox for the lifetime of one non-input-streaming
// call, invoking cancel the moment a CANCEL frame arrives (spec §4.5/§5).
func watchCancel(inbox <-chan Message, done <-chan struct{}, cancel context.CancelFunc) {
	for {
		select {
		case msg, ok := <-inbox:
			if !ok {
				return
			}
			if msg.Kind == KindCancel {
				cancel()
				return
			}
		case <-done:
			return
		}
	}
}

// bindArgs binds a CALL's positional/keyword arguments to cmd's
// parameters, applying defaults and skipping the leading stream
// parameter (bound separately), per spec §4.5 step 2.
func bindArgs(cmd CommandDescriptor, payload *CallPayload) ([]any, error) {
	start := 0
	if cmd.InputStreaming() {
		start = 1
	}

	bound := make([]any, 0, len(cmd.Params)-start)
	next := 0
	for i := start; i < len(cmd.Params); i++ {
		p := cmd.Params[i]
		if next < len(payload.Args) {
			bound = append(bound, payload.Args[next])
			next++
			continue
		}
		if v, ok := payload.Kwargs[p.Name]; ok {
			bound = append(bound, v)
			continue
		}
		if p.HasDefault {
			bound = append(bound, p.Default)
			continue
		}
		return nil, &RemoteError{Kind: KindBadArguments, Message: "missing required parameter " + p.Name}
	}
	return bound, nil
}
