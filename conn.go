// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
)

// codecBox wraps a Codec so atomic.Value always sees the same concrete
// type across Store calls; storing bare Codec values directly would panic
// ("inconsistently typed value") the moment setCodec swaps jsonCodec{} for
// msgpackCodec{} after negotiation.
type codecBox struct{ Codec }

// muxConn multiplexes many concurrent calls over one transport Conn,
// generalizing luxfi-rpc/zap.go's ZAPConn (which correlates unary
// request/response pairs by a sync.Map-keyed id) to also carry
// CHUNK/END/CANCEL sequences per call id, per spec §4.3 and §4.5.
//
// A single reader goroutine demultiplexes inbound frames into per-call-id
// inboxes (the only suspension point permitted to the reader besides the
// transport Recv itself, per spec §5). Writes go directly through the
// underlying transport Conn, which is responsible for serializing
// concurrent Send calls (framedConn does so with a mutex; the HTTP
// transport's per-request and channel-based sends are inherently
// concurrency-safe) — this gives every call equal, OS-scheduler-fair
// access to the send path without a bespoke fairness queue.
type muxConn struct {
	tc Conn
	// codec holds a codecBox. HELLO/WELCOME are always encoded with JSON
	// (the universal bootstrap codec every peer supports, so the
	// handshake is decodable before any codec has been negotiated); the
	// moment negotiation completes, setCodec swaps it to the agreed
	// codec for every subsequent CALL/REPLY/CHUNK/.../ frame. The swap
	// happens-before any call traffic exists, so plain atomic.Value
	// Store/Load (no extra locking) is race-free, as long as every Store
	// uses the same wrapper type.
	codec atomic.Value

	// transport is the scheme ("tcp", "unix", "http") carrying tc,
	// surfaced to handlers via _meta.status().
	transport string

	mu      sync.Mutex
	inboxes map[uint64]chan Message

	newCallCh   chan Message
	handshakeCh chan Message

	closeOnce sync.Once
	closeErr  error
	doneCh    chan struct{}
}

func newMuxConn(tc Conn) *muxConn {
	m := &muxConn{
		tc:          tc,
		transport:   tc.Scheme(),
		inboxes:     make(map[uint64]chan Message),
		newCallCh:   make(chan Message, 64),
		handshakeCh: make(chan Message, 4),
		doneCh:      make(chan struct{}),
	}
	m.codec.Store(codecBox{jsonCodec{}})
	go m.readLoop()
	return m
}

func (m *muxConn) getCodec() Codec  { return m.codec.Load().(codecBox).Codec }
func (m *muxConn) setCodec(c Codec) { m.codec.Store(codecBox{c}) }

func (m *muxConn) readLoop() {
	for {
		f, err := m.tc.Recv(context.Background())
		if err != nil {
			m.closeWith(err)
			return
		}

		var msg Message
		if err := m.getCodec().Decode(f.Data, &msg); err != nil {
			m.closeWith(err)
			return
		}

		if msg.ID == HandshakeID {
			select {
			case m.handshakeCh <- msg:
			case <-m.doneCh:
				return
			}
			continue
		}

		m.mu.Lock()
		ch, ok := m.inboxes[msg.ID]
		m.mu.Unlock()

		if ok {
			select {
			case ch <- msg:
			case <-m.doneCh:
				return
			}
			continue
		}

		select {
		case m.newCallCh <- msg:
		case <-m.doneCh:
			return
		}
	}
}

// closeWith tears the mux down, per spec.md §9's resolution that a closed
// connection implicitly cancels every call still open on it: every
// registered inbox is closed so blocked readers observe end-of-stream.
func (m *muxConn) closeWith(err error) {
	m.closeOnce.Do(func() {
		m.closeErr = err
		close(m.doneCh)

		m.mu.Lock()
		for _, ch := range m.inboxes {
			close(ch)
		}
		m.inboxes = nil
		m.mu.Unlock()

		_ = m.tc.Close()
	})
}

// register reserves the inbox for call id, returning the channel that
// will receive every subsequent frame bearing that id.
func (m *muxConn) register(id uint64) chan Message {
	ch := make(chan Message, 64)
	m.mu.Lock()
	if m.inboxes != nil {
		m.inboxes[id] = ch
	} else {
		close(ch)
	}
	m.mu.Unlock()
	return ch
}

func (m *muxConn) unregister(id uint64) {
	m.mu.Lock()
	if m.inboxes != nil {
		delete(m.inboxes, id)
	}
	m.mu.Unlock()
}

// send encodes and writes one message. Safe for concurrent use by many
// call goroutines.
func (m *muxConn) send(ctx context.Context, msg Message) error {
	codec := m.getCodec()
	data, err := codec.Encode(&msg)
	if err != nil {
		return &CodecError{Op: "encode", Err: err}
	}
	if err := m.tc.Send(ctx, Frame{Data: data, ID: msg.ID, Codec: codec.Name()}); err != nil {
		return err
	}
	return nil
}

func (m *muxConn) close() error {
	m.closeWith(io.EOF)
	return nil
}

func (m *muxConn) done() <-chan struct{} { return m.doneCh }

func (m *muxConn) err() error {
	if m.closeErr == io.EOF {
		return io.EOF
	}
	return m.closeErr
}

// connInfo is the calling connection's negotiated codec and transport,
// surfaced to command handlers (specifically _meta.status()) via context.
type connInfo struct {
	Codec     string
	Transport string
}

type connInfoKey struct{}

func withConnInfo(ctx context.Context, info connInfo) context.Context {
	return context.WithValue(ctx, connInfoKey{}, info)
}

func connInfoFromContext(ctx context.Context) (connInfo, bool) {
	info, ok := ctx.Value(connInfoKey{}).(connInfo)
	return info, ok
}

func (m *muxConn) remoteAddr() string { return m.tc.RemoteAddr() }
