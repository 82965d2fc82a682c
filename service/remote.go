// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package service

import (
	"context"
	"fmt"

	"github.com/luxfi/wirerpc"
)

// Remote re-exposes another wirerpc endpoint's commands under a local
// service name, a forwarding/gateway pattern grounded on
// snekrpc/service/remote.py's RemoteService (itself both a Service and a
// ServiceProxy of a nested Client).
type Remote struct {
	name     string
	client   *rpc.Client
	upstream string
	proxy    *rpc.ServiceProxy
}

// NewRemote dials addr, fetches the upstream service named upstream, and
// returns a Service that forwards every one of its commands under name.
func NewRemote(ctx context.Context, name, addr, upstream string, opts ...rpc.DialOption) (*Remote, error) {
	c, err := rpc.Dial(ctx, addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("remote %q: dial %s: %w", name, addr, err)
	}
	proxy, err := c.Service(ctx, upstream)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("remote %q: fetch service %q: %w", name, upstream, err)
	}

	return &Remote{
		name:     name,
		client:   c,
		upstream: upstream,
		proxy:    proxy,
	}, nil
}

// Close releases the nested upstream connection.
func (r *Remote) Close() error { return r.client.Close() }

func (r *Remote) Name() string { return r.name }
func (r *Remote) Doc() string  { return "forwards calls to " + r.upstream + " on another endpoint" }

func (r *Remote) Commands() []rpc.CommandDescriptor {
	infos := r.proxy.Commands()
	out := make([]rpc.CommandDescriptor, len(infos))
	for i, cmd := range infos {
		cmd := cmd
		out[i] = rpc.CommandDescriptor{
			Name:            cmd.Name,
			Doc:             cmd.Doc,
			Params:          cloneParams(cmd.Params),
			Returns:         cmd.Returns,
			OutputStreaming: cmd.OutputStreaming,
			Handler:         r.forward(cmd),
		}
	}
	return out
}

func (r *Remote) forward(cmd rpc.CommandInfo) rpc.CommandHandler {
	return func(ctx context.Context, args []any, in *rpc.Stream) (any, error) {
		if in != nil {
			return r.proxy.CallWithInputStream(ctx, cmd.Name, in, args...)
		}
		return r.proxy.Call(ctx, cmd.Name, args...)
	}
}

func cloneParams(params []rpc.ParamInfo) []rpc.ParamSpec {
	out := make([]rpc.ParamSpec, len(params))
	for i, p := range params {
		spec := rpc.Param(p.Name, p.Type).WithDoc(p.Doc)
		if p.Default != nil {
			spec = spec.WithDefault(p.Default)
		}
		if p.Hidden {
			spec = spec.Hide()
		}
		out[i] = spec
	}
	return out
}
