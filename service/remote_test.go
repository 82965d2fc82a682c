// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package service

import (
	"context"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/luxfi/wirerpc"
)

// freeTCPPort reserves an ephemeral port by briefly binding to it, so the
// upstream Server below can be told an address up front via
// ListenAndServe (which, unlike Serve, never hands its Listener back).
func freeTCPPort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserve port: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

// startUpstream brings up a Server exposing the health service on a tcp
// loopback port, returning its dial address and a cleanup func.
func startUpstream(t *testing.T) (string, func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	srv := rpc.NewServer()
	if err := srv.RegisterService("health", NewHealth()); err != nil {
		t.Fatalf("RegisterService: %v", err)
	}

	addr := fmt.Sprintf("tcp://127.0.0.1:%d", freeTCPPort(t))

	ready := make(chan error, 1)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ready <- srv.ListenAndServe(ctx, addr)
	}()

	// ListenAndServe's own Listen happens synchronously before it blocks
	// in Accept, but we have no signal for "bound" from outside the
	// package, so give it a moment before the first dial attempt.
	time.Sleep(20 * time.Millisecond)
	select {
	case err := <-ready:
		if err != nil {
			t.Fatalf("ListenAndServe exited early: %v", err)
		}
	default:
	}

	return addr, func() {
		cancel()
		wg.Wait()
	}
}

func TestRemoteForwardsPing(t *testing.T) {
	addr, cleanup := startUpstream(t)
	defer cleanup()

	ctx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()

	remote, err := NewRemote(ctx, "health-proxy", addr, "health")
	if err != nil {
		t.Fatalf("NewRemote: %v", err)
	}
	defer remote.Close()

	if remote.Name() != "health-proxy" {
		t.Errorf("Name() = %q, want health-proxy", remote.Name())
	}

	cmds := remote.Commands()
	if len(cmds) != 1 || cmds[0].Name != "ping" {
		t.Fatalf("Commands() = %+v", cmds)
	}

	res, err := cmds[0].Handler(ctx, []any{int64(2), 0.0}, nil)
	if err != nil {
		t.Fatalf("forwarded ping: %v", err)
	}
	stream, ok := res.(*rpc.Stream)
	if !ok {
		t.Fatalf("got %T, want *rpc.Stream", res)
	}

	count := 0
	for {
		_, err := stream.Next(ctx)
		if err != nil {
			break
		}
		count++
	}
	if count != 2 {
		t.Errorf("got %d chunks, want 2", count)
	}
}
