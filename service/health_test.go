// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package service

import (
	"context"
	"io"
	"testing"

	"github.com/luxfi/wirerpc"
)

func TestHealthPingFiniteCount(t *testing.T) {
	h := NewHealth()
	cmd := h.Commands()[0]

	res, err := cmd.Handler(context.Background(), []any{int64(3), 0.0}, nil)
	if err != nil {
		t.Fatalf("ping: %v", err)
	}
	stream, ok := res.(*rpc.Stream)
	if !ok {
		t.Fatalf("got %T, want *rpc.Stream", res)
	}

	count := 0
	for {
		v, err := stream.Next(context.Background())
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if v != true {
			t.Errorf("Next() = %v, want true", v)
		}
		count++
	}
	if count != 3 {
		t.Errorf("got %d pings, want 3", count)
	}
}

func TestHealthPingZeroCount(t *testing.T) {
	h := NewHealth()
	cmd := h.Commands()[0]

	res, err := cmd.Handler(context.Background(), []any{int64(0), 0.0}, nil)
	if err != nil {
		t.Fatalf("ping: %v", err)
	}
	stream := res.(*rpc.Stream)
	if _, err := stream.Next(context.Background()); err != io.EOF {
		t.Errorf("Next() = %v, want io.EOF immediately for count=0", err)
	}
}

func TestHealthServiceMetadata(t *testing.T) {
	h := NewHealth()
	if h.Name() != "health" {
		t.Errorf("Name() = %q, want health", h.Name())
	}
	cmds := h.Commands()
	if len(cmds) != 1 || cmds[0].Name != "ping" {
		t.Fatalf("Commands() = %+v", cmds)
	}
	if !cmds[0].OutputStreaming {
		t.Error("ping should be output-streaming")
	}
}
