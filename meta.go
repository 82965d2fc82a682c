// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import "context"

// metaService implements the always-registered "_meta" service (spec
// §4.4), mirroring snekrpc/service/metadata.py's MetadataService. It is
// defined in this package, rather than under service/ with the other
// built-ins, because it needs direct access to the Server's service
// registry — putting it under the service subpackage would require that
// package to import rpc while rpc would need to import it back to
// auto-register it (see DESIGN.md).
type metaService struct {
	srv *Server
}

func newMetaService(srv *Server) *metaService { return &metaService{srv: srv} }

func (m *metaService) Name() string { return "_meta" }
func (m *metaService) Doc() string  { return "self-describing metadata for this server's registered services" }

func (m *metaService) Commands() []CommandDescriptor {
	return []CommandDescriptor{
		{
			Name:    "status",
			Doc:     "report the negotiated codec, transport and protocol version for the calling connection",
			Returns: Map(Str(), Str()),
			Handler: func(ctx context.Context, args []any, in *Stream) (any, error) {
				return m.status(ctx), nil
			},
		},
		{
			Name:    "service_names",
			Doc:     "list every registered service name, sorted ascending",
			Returns: List(Str()),
			Handler: func(ctx context.Context, args []any, in *Stream) (any, error) {
				return m.srv.services.Names(), nil
			},
		},
		{
			Name:    "services",
			Doc:     "describe every registered service",
			Returns: Map(Str(), Any()),
			Handler: func(ctx context.Context, args []any, in *Stream) (any, error) {
				return m.services(), nil
			},
		},
		{
			Name:    "service",
			Doc:     "describe a single registered service by name",
			Params:  []ParamSpec{Param("name", Str())},
			Returns: Any(),
			Handler: func(ctx context.Context, args []any, in *Stream) (any, error) {
				name, _ := args[0].(string)
				entry, ok := m.srv.services.Get(name)
				if !ok {
					return nil, &RemoteError{Kind: KindUnknownService, Message: "unknown service: " + name}
				}
				return entry.info(), nil
			},
		},
	}
}

func (m *metaService) status(ctx context.Context) map[string]string {
	info, _ := connInfoFromContext(ctx)
	return map[string]string{
		"codec":     info.Codec,
		"transport": info.Transport,
		"version":   m.srv.version,
	}
}

func (m *metaService) services() map[string]ServiceInfo {
	out := make(map[string]ServiceInfo)
	for name, entry := range m.srv.services.Snapshot() {
		out[name] = entry.info()
	}
	return out
}
