// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"context"
	"crypto/tls"
	"net"
)

func init() {
	registerTransport("tcp", dialTCP, listenTCP)
}

func dialTCP(ctx context.Context, addr Addr, o *dialConfig) (Conn, error) {
	var d net.Dialer
	nc, err := d.DialContext(ctx, "tcp", addr.HostPort())
	if err != nil {
		return nil, wrapTransport("dial", err)
	}
	if o != nil && o.tls != nil {
		nc = tls.Client(nc, o.tls)
	}
	return newFramedConn(nc, "tcp"), nil
}

func listenTCP(ctx context.Context, addr Addr, o *serverConfig) (Listener, error) {
	var lc net.ListenConfig
	nl, err := lc.Listen(ctx, "tcp", addr.HostPort())
	if err != nil {
		return nil, wrapTransport("listen", err)
	}
	if o != nil && o.tls != nil {
		nl = tls.NewListener(nl, o.tls)
	}
	return &netListener{nl: nl, scheme: "tcp"}, nil
}
