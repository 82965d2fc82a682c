// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
)

// HTTP carries one message per request/response body (spec §6). A
// Connection has no persistent socket, so peers tag every request with a
// connection id and every frame with its call id via headers; the server
// keeps per-connection inbox/outbox state across requests keyed by the
// connection id header, while calls are demultiplexed by the id inside
// each decoded message, per spec.md §9's resolution of the HTTP/streaming
// open question.
const (
	hdrCodec  = "X-Wirerpc-Codec"
	hdrCallID = "X-Wirerpc-Call-Id"
	hdrConnID = "X-Wirerpc-Conn-Id"
	hdrEncode = "Content-Encoding"

	httpPollWait     = 150 * time.Millisecond // opportunistic piggyback wait on POST
	httpLongPollWait = 30 * time.Second        // GET /poll long-poll wait
	httpOutboxSize   = 256
)

func init() {
	registerTransport("http", dialHTTP, listenHTTP)
}

// --- client side -----------------------------------------------------

type httpClientConn struct {
	base    string
	connID  string
	client  *http.Client
	zstdEnc *zstd.Encoder
	zstdDec *zstd.Decoder

	mu      sync.Mutex
	pending []Frame
	closed  atomic.Bool
}

func dialHTTP(ctx context.Context, addr Addr, o *dialConfig) (Conn, error) {
	transport := &http.Transport{}
	if o != nil && o.tls != nil {
		transport.TLSClientConfig = o.tls
	}
	c := &httpClientConn{
		base:   fmt.Sprintf("http://%s", addr.HostPort()),
		connID: uuid.NewString(),
		client: &http.Client{Transport: transport, Timeout: httpLongPollWait + 10*time.Second},
	}
	if o != nil && o.tls != nil {
		c.base = fmt.Sprintf("https://%s", addr.HostPort())
	}
	enc, _ := zstd.NewWriter(nil)
	dec, _ := zstd.NewReader(nil)
	c.zstdEnc, c.zstdDec = enc, dec
	return c, nil
}

func (c *httpClientConn) Send(ctx context.Context, f Frame) error {
	if c.closed.Load() {
		return wrapTransport("send", io.ErrClosedPipe)
	}

	body := f.Data
	useZstd := len(body) > 1024
	if useZstd {
		body = c.zstdEnc.EncodeAll(body, nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/call", bytes.NewReader(body))
	if err != nil {
		return wrapTransport("send", err)
	}
	req.Header.Set(hdrConnID, c.connID)
	req.Header.Set(hdrCodec, f.Codec)
	req.Header.Set(hdrCallID, strconv.FormatUint(f.ID, 10))
	if useZstd {
		req.Header.Set(hdrEncode, "zstd")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return wrapTransport("send", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		return wrapTransport("send", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	piggy, err := c.readFrame(resp)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.pending = append(c.pending, piggy)
	c.mu.Unlock()
	return nil
}

func (c *httpClientConn) readFrame(resp *http.Response) (Frame, error) {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Frame{}, wrapTransport("recv", err)
	}
	if resp.Header.Get(hdrEncode) == "zstd" {
		data, err = c.zstdDec.DecodeAll(data, nil)
		if err != nil {
			return Frame{}, wrapTransport("recv", err)
		}
	}
	id, _ := strconv.ParseUint(resp.Header.Get(hdrCallID), 10, 64)
	return Frame{Data: data, ID: id, Codec: resp.Header.Get(hdrCodec)}, nil
}

func (c *httpClientConn) Recv(ctx context.Context) (Frame, error) {
	for {
		c.mu.Lock()
		if len(c.pending) > 0 {
			f := c.pending[0]
			c.pending = c.pending[1:]
			c.mu.Unlock()
			return f, nil
		}
		c.mu.Unlock()

		if c.closed.Load() {
			return Frame{}, io.EOF
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/poll", nil)
		if err != nil {
			return Frame{}, wrapTransport("recv", err)
		}
		req.Header.Set(hdrConnID, c.connID)

		resp, err := c.client.Do(req)
		if err != nil {
			select {
			case <-ctx.Done():
				return Frame{}, ctx.Err()
			default:
				return Frame{}, wrapTransport("recv", err)
			}
		}

		if resp.StatusCode == http.StatusNoContent {
			resp.Body.Close()
			continue // server's long-poll timed out with nothing pending; poll again
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return Frame{}, wrapTransport("recv", fmt.Errorf("unexpected status %d", resp.StatusCode))
		}

		f, err := c.readFrame(resp)
		resp.Body.Close()
		if err != nil {
			return Frame{}, err
		}
		return f, nil
	}
}

func (c *httpClientConn) Close() error {
	c.closed.Store(true)
	return nil
}

func (c *httpClientConn) RemoteAddr() string { return c.base }
func (c *httpClientConn) Scheme() string     { return "http" }

// --- server side -------------------------------------------------------

type httpServerConn struct {
	connID     string
	remoteAddr string
	inbox      chan Frame
	outbox     chan Frame
	closed     atomic.Bool
}

func newHTTPServerConn(connID, remoteAddr string) *httpServerConn {
	return &httpServerConn{
		connID:     connID,
		remoteAddr: remoteAddr,
		inbox:      make(chan Frame, 64),
		outbox:     make(chan Frame, httpOutboxSize),
	}
}

func (c *httpServerConn) Send(ctx context.Context, f Frame) error {
	select {
	case c.outbox <- f:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *httpServerConn) Recv(ctx context.Context) (Frame, error) {
	select {
	case f, ok := <-c.inbox:
		if !ok {
			return Frame{}, io.EOF
		}
		return f, nil
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	}
}

func (c *httpServerConn) Close() error {
	if c.closed.CompareAndSwap(false, true) {
		close(c.inbox)
	}
	return nil
}

func (c *httpServerConn) RemoteAddr() string { return c.remoteAddr }
func (c *httpServerConn) Scheme() string     { return "http" }

type httpListener struct {
	ln       net.Listener
	srv      *http.Server
	compress bool

	mu       sync.Mutex
	conns    map[string]*httpServerConn
	acceptCh chan *httpServerConn
	closed   atomic.Bool
}

func listenHTTP(ctx context.Context, addr Addr, o *serverConfig) (Listener, error) {
	var lc net.ListenConfig
	nl, err := lc.Listen(ctx, "tcp", addr.HostPort())
	if err != nil {
		return nil, wrapTransport("listen", err)
	}
	if o != nil && o.tls != nil {
		nl = tls.NewListener(nl, o.tls)
	}

	hl := &httpListener{
		ln:       nl,
		conns:    make(map[string]*httpServerConn),
		acceptCh: make(chan *httpServerConn, 16),
		compress: o != nil && o.httpCompression,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/call", hl.handleCall)
	mux.HandleFunc("/poll", hl.handlePoll)
	hl.srv = &http.Server{Handler: mux}
	go hl.srv.Serve(nl) //nolint:errcheck

	return hl, nil
}

func (hl *httpListener) connFor(r *http.Request) (*httpServerConn, bool) {
	connID := r.Header.Get(hdrConnID)
	if connID == "" {
		return nil, false
	}

	hl.mu.Lock()
	conn, ok := hl.conns[connID]
	if !ok {
		conn = newHTTPServerConn(connID, r.RemoteAddr)
		hl.conns[connID] = conn
	}
	hl.mu.Unlock()

	if !ok {
		select {
		case hl.acceptCh <- conn:
		default:
		}
	}
	return conn, true
}

func (hl *httpListener) handleCall(w http.ResponseWriter, r *http.Request) {
	conn, ok := hl.connFor(r)
	if !ok {
		http.Error(w, "missing "+hdrConnID, http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if r.Header.Get(hdrEncode) == "zstd" {
		dec, _ := zstd.NewReader(nil)
		body, err = dec.DecodeAll(body, nil)
		dec.Close()
		if err != nil {
			http.Error(w, "decode: "+err.Error(), http.StatusBadRequest)
			return
		}
	}

	id, _ := strconv.ParseUint(r.Header.Get(hdrCallID), 10, 64)
	select {
	case conn.inbox <- Frame{Data: body, ID: id, Codec: r.Header.Get(hdrCodec)}:
	case <-r.Context().Done():
		return
	}

	hl.writePiggyback(w, conn, httpPollWait)
}

func (hl *httpListener) handlePoll(w http.ResponseWriter, r *http.Request) {
	conn, ok := hl.connFor(r)
	if !ok {
		http.Error(w, "missing "+hdrConnID, http.StatusBadRequest)
		return
	}
	hl.writePiggyback(w, conn, httpLongPollWait)
}

func (hl *httpListener) writePiggyback(w http.ResponseWriter, conn *httpServerConn, wait time.Duration) {
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case f := <-conn.outbox:
		data := f.Data
		if hl.compress && len(data) > 1024 {
			enc, _ := zstd.NewWriter(nil)
			data = enc.EncodeAll(data, nil)
			enc.Close()
			w.Header().Set(hdrEncode, "zstd")
		}
		w.Header().Set(hdrCodec, f.Codec)
		w.Header().Set(hdrCallID, strconv.FormatUint(f.ID, 10))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	case <-timer.C:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (hl *httpListener) Accept(ctx context.Context) (Conn, error) {
	select {
	case c := <-hl.acceptCh:
		return c, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (hl *httpListener) Close() error {
	if hl.closed.CompareAndSwap(false, true) {
		_ = hl.srv.Close()
		hl.mu.Lock()
		for _, c := range hl.conns {
			c.Close()
		}
		hl.mu.Unlock()
	}
	return nil
}

func (hl *httpListener) Addr() string { return hl.ln.Addr().String() }
