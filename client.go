// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"context"
	"crypto/tls"
	"io"
	"log"
	"sync/atomic"
	"time"
)

// Client is one negotiated connection to a wirerpc server, generalizing
// luxfi-rpc/dial.go's zapClient beyond a single Call/Notify pair into the
// full multiplexed, metadata-driven surface of spec §4.6.
type Client struct {
	mc     *muxConn
	codec  Codec
	logger *log.Logger
	debug  bool
	ids    atomic.Uint64 // client-originated call ids are odd (spec §4.3)
}

// DialOption configures Dial, continuing luxfi-rpc/client.go's
// functional-options pattern.
type DialOption func(*dialOptions)

type dialOptions struct {
	codecs []string
	logger *log.Logger
	debug  bool
	tls    *tls.Config
	retry  Retry
}

func defaultDialOptions() *dialOptions {
	return &dialOptions{
		codecs: DefaultCodecOrder,
		logger: log.Default(),
		retry:  Retry{Count: 0, Interval: time.Second},
	}
}

// WithCodecs sets the client's preferred codec order offered in HELLO.
func WithCodecs(names ...string) DialOption {
	return func(o *dialOptions) { o.codecs = names }
}

// WithClientLogger overrides the Client's *log.Logger.
func WithClientLogger(l *log.Logger) DialOption {
	return func(o *dialOptions) { o.logger = l }
}

// WithClientDebug enables verbose per-message tracing.
func WithClientDebug(debug bool) DialOption {
	return func(o *dialOptions) { o.debug = debug }
}

// WithClientTLS enables TLS on tcp:// and http:// dials.
func WithClientTLS(cfg *tls.Config) DialOption {
	return func(o *dialOptions) { o.tls = cfg }
}

// WithRetry retries connection establishment up to count additional
// times (negative: forever), waiting interval between attempts, matching
// snekrpc.utils.retry.Retry's role in the original dial path (spec §4.6,
// "Supplemented Features"). Retry never applies once a CALL is in flight.
func WithRetry(count int, interval time.Duration) DialOption {
	return func(o *dialOptions) { o.retry = Retry{Count: count, Interval: interval} }
}

// Dial establishes a connection to addr (tcp://, unix://, or http://),
// performs the HELLO/WELCOME handshake, and returns a ready Client. If
// addr is "", DefaultURL is used.
func Dial(ctx context.Context, addr string, opts ...DialOption) (*Client, error) {
	if addr == "" {
		addr = DefaultURL
	}
	a, err := ParseAddr(addr)
	if err != nil {
		return nil, err
	}

	o := defaultDialOptions()
	for _, opt := range opts {
		opt(o)
	}

	var tc Conn
	dialErr := o.retry.Do(ctx, func() error {
		var derr error
		tc, derr = dialTransport(ctx, a, &dialConfig{tls: o.tls})
		return derr
	})
	if dialErr != nil {
		return nil, dialErr
	}

	mc := newMuxConn(tc)
	codec, err := clientHandshake(ctx, mc, o.codecs)
	if err != nil {
		mc.close()
		return nil, err
	}

	return &Client{mc: mc, codec: codec, logger: o.logger, debug: o.debug}, nil
}

// Close tears down the underlying connection, implicitly cancelling every
// call still in flight on it (spec.md §9 open-question resolution).
func (c *Client) Close() error { return c.mc.close() }

// Service returns a ServiceProxy for name, built from a _meta.service(name)
// query made on every call; the metadata is not cached between calls.
func (c *Client) Service(ctx context.Context, name string) (*ServiceProxy, error) {
	info, err := c.serviceInfo(ctx, name)
	if err != nil {
		return nil, err
	}
	return newServiceProxy(c, info), nil
}

// Services returns every service this server has registered, per
// _meta.services().
func (c *Client) Services(ctx context.Context) (map[string]*ServiceProxy, error) {
	raw, err := c.callUnary(ctx, "_meta", "services", nil, nil)
	if err != nil {
		return nil, err
	}
	infos, err := decodeServiceInfoMap(raw)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*ServiceProxy, len(infos))
	for name, info := range infos {
		out[name] = newServiceProxy(c, info)
	}
	return out, nil
}

func (c *Client) serviceInfo(ctx context.Context, name string) (ServiceInfo, error) {
	raw, err := c.callUnary(ctx, "_meta", "service", []any{name}, nil)
	if err != nil {
		return ServiceInfo{}, err
	}
	return decodeServiceInfo(raw)
}

func (c *Client) nextCallID() uint64 {
	return c.ids.Add(2) - 1
}

// callUnary invokes a non-streaming command and waits for its REPLY.
func (c *Client) callUnary(ctx context.Context, service, command string, args []any, kwargs map[string]any) (any, error) {
	v, err := c.invoke(ctx, service, command, args, kwargs, nil, false)
	return v, err
}

// callOutputStream invokes a command whose result is stream<T>, returning
// a Stream the caller drains with Next.
func (c *Client) callOutputStream(ctx context.Context, service, command string, args []any, kwargs map[string]any, in *Stream) (*Stream, error) {
	v, err := c.invoke(ctx, service, command, args, kwargs, in, true)
	if err != nil {
		return nil, err
	}
	return v.(*Stream), nil
}

// callWithInputStream invokes a unary (non-output-streaming) command
// whose first parameter is stream<T>, relaying in's elements as CHUNK
// frames alongside the call.
func (c *Client) callWithInputStream(ctx context.Context, service, command string, args []any, kwargs map[string]any, in *Stream) (any, error) {
	return c.invoke(ctx, service, command, args, kwargs, in, false)
}

func (c *Client) invoke(ctx context.Context, service, command string, args []any, kwargs map[string]any, in *Stream, outputStreaming bool) (any, error) {
	id := c.nextCallID()
	inbox := c.mc.register(id)

	call := Message{
		Kind: KindCall,
		ID:   id,
		Call: &CallPayload{
			Service:        service,
			Command:        command,
			Args:           args,
			Kwargs:         kwargs,
			HasInputStream: in != nil,
		},
	}
	if err := c.mc.send(ctx, call); err != nil {
		c.mc.unregister(id)
		return nil, err
	}

	if in != nil {
		go func() {
			if err := drainToChunks(ctx, in, id, c.mc.send); err != nil && c.debug {
				c.logger.Printf("wirerpc: input stream %d: %v", id, err)
			}
		}()
	}

	if outputStreaming {
		return newClientOutputStream(c.mc, inbox, id), nil
	}

	defer c.mc.unregister(id)
	select {
	case msg, ok := <-inbox:
		if !ok {
			return nil, wrapTransport("call", io.ErrClosedPipe)
		}
		switch msg.Kind {
		case KindReply:
			return msg.Reply.Value, nil
		case KindError:
			return nil, &RemoteError{Kind: msg.Error.Kind, Message: msg.Error.Message, Traceback: msg.Error.Traceback}
		default:
			return nil, protocolErrorf("unexpected %s for a unary call", msg.Kind)
		}
	case <-c.mc.done():
		return nil, wrapTransport("call", c.mc.err())
	case <-ctx.Done():
		_ = c.mc.send(context.Background(), newCancel(id))
		return nil, ctx.Err()
	}
}

// newClientOutputStream adapts an in-flight call's inbox into a Stream of
// its CHUNK values, terminated by END/ERROR; Cancel sends CANCEL.
func newClientOutputStream(mc *muxConn, inbox chan Message, id uint64) *Stream {
	return NewStream(func(ctx context.Context) (any, error) {
		select {
		case msg, ok := <-inbox:
			if !ok {
				return nil, wrapTransport("stream", io.ErrClosedPipe)
			}
			switch msg.Kind {
			case KindChunk:
				return msg.Chunk.Value, nil
			case KindEnd:
				mc.unregister(id)
				return nil, io.EOF
			case KindError:
				mc.unregister(id)
				return nil, &RemoteError{Kind: msg.Error.Kind, Message: msg.Error.Message, Traceback: msg.Error.Traceback}
			default:
				return nil, protocolErrorf("unexpected %s on output stream", msg.Kind)
			}
		case <-mc.done():
			return nil, wrapTransport("stream", mc.err())
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}, func() {
		_ = mc.send(context.Background(), newCancel(id))
		mc.unregister(id)
	})
}
