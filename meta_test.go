// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"context"
	"testing"
)

func metaCommand(t *testing.T, s *Server, name string) CommandDescriptor {
	t.Helper()
	entry, ok := s.services.Get("_meta")
	if !ok {
		t.Fatal("_meta not registered")
	}
	cmd, ok := entry.command(name)
	if !ok {
		t.Fatalf("_meta has no command %q", name)
	}
	return cmd
}

func TestMetaServiceAutoRegistered(t *testing.T) {
	s := NewServer()
	if _, ok := s.services.Get("_meta"); !ok {
		t.Fatal("NewServer did not auto-register _meta")
	}
}

func TestMetaStatus(t *testing.T) {
	s := NewServer(WithServerCodecs("json", "msgpack"))
	status := metaCommand(t, s, "status")

	ctx := withConnInfo(context.Background(), connInfo{Codec: "msgpack", Transport: "tcp"})
	res, err := status.Handler(ctx, nil, nil)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	m := res.(map[string]string)
	if m["version"] != ProtocolVersion {
		t.Errorf("version = %q, want %q", m["version"], ProtocolVersion)
	}
	if m["codec"] != "msgpack" {
		t.Errorf("codec = %q, want msgpack", m["codec"])
	}
	if m["transport"] != "tcp" {
		t.Errorf("transport = %q, want tcp", m["transport"])
	}
}

func TestMetaServiceNamesSorted(t *testing.T) {
	s := NewServer()
	s.RegisterService("zzz", multiCommandService{names: nil})
	s.RegisterService("aaa", multiCommandService{names: nil})

	names := metaCommand(t, s, "service_names")
	res, err := names.Handler(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("service_names: %v", err)
	}
	got := res.([]string)
	want := []string{"_meta", "aaa", "zzz"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
		}
	}
}

func TestMetaServiceByNameUnknown(t *testing.T) {
	s := NewServer()
	service := metaCommand(t, s, "service")
	_, err := service.Handler(context.Background(), []any{"nope"}, nil)
	re, ok := err.(*RemoteError)
	if !ok || re.Kind != KindUnknownService {
		t.Errorf("got %v, want an UnknownService RemoteError", err)
	}
}

func TestMetaServiceByName(t *testing.T) {
	s := NewServer()
	s.RegisterService("arith", echoAddService{})

	service := metaCommand(t, s, "service")
	res, err := service.Handler(context.Background(), []any{"arith"}, nil)
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	info := res.(ServiceInfo)
	if info.Name != "arith" || len(info.Commands) != 3 {
		t.Errorf("got %+v", info)
	}
}

func TestMetaServices(t *testing.T) {
	s := NewServer()
	s.RegisterService("arith", echoAddService{})

	services := metaCommand(t, s, "services")
	res, err := services.Handler(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("services: %v", err)
	}
	infos := res.(map[string]ServiceInfo)
	if _, ok := infos["_meta"]; !ok {
		t.Error("services() did not include _meta")
	}
	if _, ok := infos["arith"]; !ok {
		t.Error("services() did not include arith")
	}
}
