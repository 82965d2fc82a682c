// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
)

// maxFrameBytes bounds a single frame's payload, generalizing the 64MB cap
// luxfi-rpc/zap.go enforces in its readLoop.
const maxFrameBytes = 64 * 1024 * 1024

// framedConn implements Conn over any net.Conn using the 4-byte
// big-endian length prefix wire format mandated by spec §6 for tcp/unix.
// It is shared by transport_tcp.go and transport_unix.go, generalizing
// luxfi-rpc/zap.go's ZAPConn read/write loop beyond its single hard-coded
// request/response shape to carry arbitrary Message kinds.
type framedConn struct {
	nc      net.Conn
	writeMu sync.Mutex
	id      string
	scheme  string
}

func newFramedConn(nc net.Conn, scheme string) *framedConn {
	return &framedConn{nc: nc, id: uuid.NewString(), scheme: scheme}
}

func (c *framedConn) Send(ctx context.Context, f Frame) error {
	if len(f.Data) == 0 || uint64(len(f.Data)) > maxFrameBytes {
		return protocolErrorf("frame size %d out of bounds", len(f.Data))
	}
	buf := make([]byte, 4+len(f.Data))
	binary.BigEndian.PutUint32(buf[:4], uint32(len(f.Data)))
	copy(buf[4:], f.Data)

	if dl, ok := ctx.Deadline(); ok {
		_ = c.nc.SetWriteDeadline(dl)
	} else {
		_ = c.nc.SetWriteDeadline(time.Time{})
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if _, err := c.nc.Write(buf); err != nil {
		return wrapTransport("send", err)
	}
	return nil
}

func (c *framedConn) Recv(ctx context.Context) (Frame, error) {
	if dl, ok := ctx.Deadline(); ok {
		_ = c.nc.SetReadDeadline(dl)
	} else {
		_ = c.nc.SetReadDeadline(time.Time{})
	}

	header := make([]byte, 4)
	if _, err := io.ReadFull(c.nc, header); err != nil {
		if errors.Is(err, io.EOF) {
			return Frame{}, io.EOF
		}
		return Frame{}, wrapTransport("recv", err)
	}

	n := binary.BigEndian.Uint32(header)
	if n == 0 || uint64(n) > maxFrameBytes {
		return Frame{}, protocolErrorf("invalid frame length %d", n)
	}

	data := make([]byte, n)
	if _, err := io.ReadFull(c.nc, data); err != nil {
		return Frame{}, wrapTransport("recv", err)
	}
	return Frame{Data: data}, nil
}

func (c *framedConn) Close() error         { return c.nc.Close() }
func (c *framedConn) RemoteAddr() string   { return c.nc.RemoteAddr().String() }
func (c *framedConn) ConnectionID() string { return c.id }
func (c *framedConn) Scheme() string       { return c.scheme }

// netListener adapts a net.Listener to the Listener interface, producing
// framedConns.
type netListener struct {
	nl     net.Listener
	scheme string
}

func (l *netListener) Accept(ctx context.Context) (Conn, error) {
	type result struct {
		nc  net.Conn
		err error
	}
	ch := make(chan result, 1)
	go func() {
		nc, err := l.nl.Accept()
		ch <- result{nc, err}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return nil, wrapTransport("accept", r.err)
		}
		return newFramedConn(r.nc, l.scheme), nil
	}
}

func (l *netListener) Close() error { return l.nl.Close() }
func (l *netListener) Addr() string { return l.nl.Addr().String() }
