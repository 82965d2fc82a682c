// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// DefaultURL is the engine's default endpoint, matching the original
// snekrpc defaults (tcp, 127.0.0.1, port 12321).
const DefaultURL = "tcp://127.0.0.1:12321"

const defaultPort = 12321

// Addr is a parsed wirerpc endpoint URL: <scheme>://<host-or-path>[:<port>].
type Addr struct {
	Scheme string // "tcp", "unix", or "http"
	Host   string // empty for unix
	Port   int    // 0 for unix
	Path   string // empty for tcp/http
}

// ParseAddr parses a wirerpc URL, defaulting the scheme to "tcp" when none
// is given and filling in DefaultURL's host/port when they are omitted.
func ParseAddr(raw string) (Addr, error) {
	if !strings.Contains(raw, "://") {
		raw = "tcp://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Addr{}, fmt.Errorf("parse addr %q: %w", raw, err)
	}

	switch u.Scheme {
	case "tcp", "http":
		host := u.Hostname()
		if host == "" {
			host = "127.0.0.1"
		}
		if host == "*" {
			host = "0.0.0.0"
		}
		port := defaultPort
		if p := u.Port(); p != "" {
			port, err = strconv.Atoi(p)
			if err != nil {
				return Addr{}, fmt.Errorf("parse addr %q: invalid port: %w", raw, err)
			}
		}
		if strings.Trim(u.Path, "/") != "" {
			return Addr{}, fmt.Errorf("parse addr %q: unexpected path for scheme %s", raw, u.Scheme)
		}
		return Addr{Scheme: u.Scheme, Host: host, Port: port}, nil

	case "unix":
		path := u.Path
		if path == "" {
			path = u.Opaque
		}
		if path == "" {
			path = "/" + u.Host
		}
		return Addr{Scheme: "unix", Path: path}, nil

	default:
		return Addr{}, fmt.Errorf("parse addr %q: unknown scheme %q", raw, u.Scheme)
	}
}

// String renders the address back to canonical URL form.
func (a Addr) String() string {
	if a.Scheme == "unix" {
		return fmt.Sprintf("unix://%s", a.Path)
	}
	return fmt.Sprintf("%s://%s", a.Scheme, net.JoinHostPort(a.Host, strconv.Itoa(a.Port)))
}

// HostPort returns the "host:port" form used by net.Dial/net.Listen.
func (a Addr) HostPort() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}
