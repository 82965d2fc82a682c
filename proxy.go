// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"context"
	"encoding/json"
)

// ServiceProxy is the client-side, metadata-driven callable surface for
// one remote service: service → command → callable (spec §4.6, §9 design
// note). It is built once per Client.Service call from that service's
// CommandInfo table, so argument binding and streaming-shape decisions
// happen without any compiled-in knowledge of the remote server.
type ServiceProxy struct {
	client   *Client
	info     ServiceInfo
	commands map[string]CommandInfo
}

func newServiceProxy(c *Client, info ServiceInfo) *ServiceProxy {
	cmds := make(map[string]CommandInfo, len(info.Commands))
	for _, cmd := range info.Commands {
		cmds[cmd.Name] = cmd
	}
	return &ServiceProxy{client: c, info: info, commands: cmds}
}

// Name returns the proxied service's name.
func (p *ServiceProxy) Name() string { return p.info.Name }

// Commands returns the metadata for every command this service exposes.
func (p *ServiceProxy) Commands() []CommandInfo { return p.info.Commands }

// Call invokes command with positional args, returning its unary result
// or, if the command is output-streaming, a *Stream.
func (p *ServiceProxy) Call(ctx context.Context, command string, args ...any) (any, error) {
	cmd, ok := p.commands[command]
	if !ok {
		return nil, &RemoteError{Kind: KindUnknownCommand, Message: "unknown command: " + p.info.Name + "." + command}
	}
	if cmd.OutputStreaming {
		return p.client.callOutputStream(ctx, p.info.Name, command, args, nil, nil)
	}
	return p.client.callUnary(ctx, p.info.Name, command, args, nil)
}

// CallWithInputStream invokes command, relaying in's elements as the
// command's leading stream<T> parameter.
func (p *ServiceProxy) CallWithInputStream(ctx context.Context, command string, in *Stream, args ...any) (any, error) {
	cmd, ok := p.commands[command]
	if !ok {
		return nil, &RemoteError{Kind: KindUnknownCommand, Message: "unknown command: " + p.info.Name + "." + command}
	}
	if cmd.OutputStreaming {
		return p.client.callOutputStream(ctx, p.info.Name, command, args, nil, in)
	}
	return p.client.callWithInputStream(ctx, p.info.Name, command, args, nil, in)
}

// decodeServiceInfo converts the generic value a codec decoded _meta's
// reply into (nested maps/slices, since ReplyPayload.Value is `any`) back
// into a typed ServiceInfo. Re-marshaling through encoding/json is
// codec-agnostic: both the JSON and MessagePack codecs decode composite
// values into the same plain Go map[string]any/[]any shapes.
func decodeServiceInfo(raw any) (ServiceInfo, error) {
	var info ServiceInfo
	data, err := json.Marshal(raw)
	if err != nil {
		return info, &CodecError{Op: "decode service info", Err: err}
	}
	if err := json.Unmarshal(data, &info); err != nil {
		return info, &CodecError{Op: "decode service info", Err: err}
	}
	return info, nil
}

func decodeServiceInfoMap(raw any) (map[string]ServiceInfo, error) {
	var infos map[string]ServiceInfo
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, &CodecError{Op: "decode service info map", Err: err}
	}
	if err := json.Unmarshal(data, &infos); err != nil {
		return nil, &CodecError{Op: "decode service info map", Err: err}
	}
	return infos, nil
}
