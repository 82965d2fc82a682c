// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package service collects the built-in wirerpc services: health, file,
// and remote (spec.md's scope note; full contracts recovered from
// snekrpc/service/{health,remote}.py and tests/test_file_service.py).
package service

import (
	"context"
	"io"
	"time"

	"github.com/luxfi/wirerpc"
)

// Health exposes a heartbeat/ping command, grounded on
// snekrpc/service/health.py's HealthService.
type Health struct{}

// NewHealth builds the "health" service.
func NewHealth() *Health { return &Health{} }

func (h *Health) Name() string { return "health" }
func (h *Health) Doc() string  { return "heartbeat and liveness commands" }

func (h *Health) Commands() []rpc.CommandDescriptor {
	return []rpc.CommandDescriptor{
		{
			Name: "ping",
			Doc:  "yield true count times, interval seconds apart, to keep the connection alive",
			Params: []rpc.ParamSpec{
				rpc.Param("count", rpc.Int()).WithDefault(int64(1)),
				rpc.Param("interval", rpc.Float()).WithDefault(1.0),
			},
			Returns:         rpc.Stream(rpc.Bool()),
			OutputStreaming: true,
			Handler:         h.ping,
		},
	}
}

func (h *Health) ping(ctx context.Context, args []any, in *rpc.Stream) (any, error) {
	count := toInt64(args[0])
	interval := toFloat64(args[1])

	sent := int64(0)
	return rpc.NewStream(func(ctx context.Context) (any, error) {
		if count <= 0 || sent >= count {
			return nil, io.EOF
		}
		if sent > 0 && interval > 0 {
			select {
			case <-time.After(time.Duration(interval * float64(time.Second))):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		sent++
		return true, nil
	}, nil), nil
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func toFloat64(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	default:
		return 0
	}
}
