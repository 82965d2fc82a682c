// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"context"
	"net"
)

func init() {
	registerTransport("unix", dialUnix, listenUnix)
}

func dialUnix(ctx context.Context, addr Addr, o *dialConfig) (Conn, error) {
	var d net.Dialer
	nc, err := d.DialContext(ctx, "unix", addr.Path)
	if err != nil {
		return nil, wrapTransport("dial", err)
	}
	return newFramedConn(nc, "unix"), nil
}

func listenUnix(ctx context.Context, addr Addr, o *serverConfig) (Listener, error) {
	var lc net.ListenConfig
	nl, err := lc.Listen(ctx, "unix", addr.Path)
	if err != nil {
		return nil, wrapTransport("listen", err)
	}
	return &netListener{nl: nl, scheme: "unix"}, nil
}
