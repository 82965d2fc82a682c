// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"context"
	"reflect"
	"testing"
)

func TestRegistryNamesSorted(t *testing.T) {
	r := NewRegistry[int]()
	r.Set("zebra", 1)
	r.Set("apple", 2)
	r.Set("mango", 3)

	got := r.Names()
	want := []string{"apple", "mango", "zebra"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

func TestRegistryGetDelete(t *testing.T) {
	r := NewRegistry[string]()
	r.Set("a", "hello")
	if v, ok := r.Get("a"); !ok || v != "hello" {
		t.Errorf("Get(a) = %q, %v", v, ok)
	}
	r.Delete("a")
	if _, ok := r.Get("a"); ok {
		t.Error("expected a to be gone after Delete")
	}
}

type testService struct{}

func (testService) Name() string { return "test" }
func (testService) Doc() string  { return "a test service" }
func (testService) Commands() []CommandDescriptor {
	return []CommandDescriptor{
		{
			Name:    "echo",
			Params:  []ParamSpec{Param("value", Str())},
			Returns: Str(),
			Handler: func(ctx context.Context, args []any, in *Stream) (any, error) {
				return args[0], nil
			},
		},
	}
}

func TestNewServiceEntryDuplicateCommand(t *testing.T) {
	svc := multiCommandService{names: []string{"a", "a"}}
	if _, err := newServiceEntry("dup", svc); err == nil {
		t.Error("expected a RegistrationError for a duplicate command name")
	}
}

func TestCommandDescriptorValidateStreamNotFirst(t *testing.T) {
	cmd := CommandDescriptor{
		Name: "bad",
		Params: []ParamSpec{
			Param("first", Str()),
			Param("second", Stream(Bytes())),
		},
		Returns: None(),
	}
	if err := cmd.validate(); err == nil {
		t.Error("expected validate to reject a non-leading stream parameter")
	}
}

func TestCommandDescriptorValidateStreamingMismatch(t *testing.T) {
	cmd := CommandDescriptor{
		Name:            "bad",
		Returns:         Stream(Bool()),
		OutputStreaming: false,
	}
	if err := cmd.validate(); err == nil {
		t.Error("expected validate to reject an OutputStreaming/Returns mismatch")
	}
}

func TestServiceEntryInfoSortedCommands(t *testing.T) {
	svc := multiCommandService{names: []string{"zzz", "aaa", "mmm"}}
	entry, err := newServiceEntry("multi", svc)
	if err != nil {
		t.Fatalf("newServiceEntry: %v", err)
	}
	info := entry.info()
	if len(info.Commands) != 3 {
		t.Fatalf("got %d commands, want 3", len(info.Commands))
	}
	for i, want := range []string{"aaa", "mmm", "zzz"} {
		if info.Commands[i].Name != want {
			t.Errorf("Commands[%d] = %q, want %q", i, info.Commands[i].Name, want)
		}
	}
}

// multiCommandService is a fixture Service with a configurable, possibly
// duplicate, set of command names.
type multiCommandService struct{ names []string }

func (multiCommandService) Doc() string  { return "" }
func (multiCommandService) Name() string { return "multi" }
func (m multiCommandService) Commands() []CommandDescriptor {
	out := make([]CommandDescriptor, len(m.names))
	for i, name := range m.names {
		out[i] = CommandDescriptor{
			Name:    name,
			Returns: None(),
			Handler: func(ctx context.Context, args []any, in *Stream) (any, error) { return nil, nil },
		}
	}
	return out
}
