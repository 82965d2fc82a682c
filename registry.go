// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"context"
	"sort"
	"sync"
)

// Registry keeps a name-indexed table of values, serialized under a
// single writer lock so readers always see a consistent snapshot (spec
// §5). It generalizes snekrpc/registry.py's Registry[T] (a name→class
// lookup used to defer imports) to Go generics, used here to hold a
// Server's registered services.
type Registry[T any] struct {
	mu    sync.RWMutex
	items map[string]T
}

// NewRegistry creates an empty Registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{items: make(map[string]T)}
}

// Set stores v under name, replacing any prior value.
func (r *Registry[T]) Set(name string, v T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[name] = v
}

// Get returns the value stored under name, if any.
func (r *Registry[T]) Get(name string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.items[name]
	return v, ok
}

// Delete removes name from the registry.
func (r *Registry[T]) Delete(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, name)
}

// Names returns every registered name in sorted ascending order, matching
// _meta.service_names()'s determinism requirement (spec §3, §4.4).
func (r *Registry[T]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.items))
	for name := range r.items {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Snapshot returns a copy of every (name, value) pair as a map; it carries
// no order (use Names() for the sorted name list).
func (r *Registry[T]) Snapshot() map[string]T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]T, len(r.items))
	for k, v := range r.items {
		out[k] = v
	}
	return out
}

// CommandHandler implements one command's behavior. args holds every
// parameter bound by position, EXCEPT the input-stream parameter (if the
// command is input-streaming), which arrives separately as in. For an
// output-streaming command, the returned value must be a *Stream; for a
// unary command it is the literal result value.
type CommandHandler func(ctx context.Context, args []any, in *Stream) (any, error)

// CommandDescriptor is a command's full metadata plus its handler (spec
// §3). It is built explicitly by a Service's Commands method and read once,
// at registration, per spec.md §9's "explicit registration step" design
// note — no runtime introspection of a Go function's signature is involved.
type CommandDescriptor struct {
	Name            string
	Doc             string
	Params          []ParamSpec
	Returns         TypeTag
	OutputStreaming bool
	Handler         CommandHandler
}

// InputStreaming reports whether the command's first parameter is a
// stream<T>, per spec §3 ("at most one parameter has stream<...>; if
// present, it is the first").
func (c CommandDescriptor) InputStreaming() bool {
	return len(c.Params) > 0 && c.Params[0].Type.Kind == KindStream
}

// validate enforces the command-level invariants from spec §3.
func (c CommandDescriptor) validate() error {
	if c.Name == "" {
		return registrationErrorf("command has no name")
	}
	for i, p := range c.Params {
		if p.Type.Kind == KindStream && i != 0 {
			return registrationErrorf("command %q: stream parameter %q is not first", c.Name, p.Name)
		}
	}
	wantStreaming := c.Returns.Kind == KindStream
	if wantStreaming != c.OutputStreaming {
		return registrationErrorf("command %q: OutputStreaming=%v but Returns=%s", c.Name, c.OutputStreaming, c.Returns)
	}
	return nil
}

// Service is a named grouping of commands (spec §3). Concrete services
// (service/health.go, service/file.go, service/remote.go, and the
// always-registered _meta service) build their command table in Commands,
// which RegisterService calls once to index it.
type Service interface {
	Name() string
	Doc() string
	Commands() []CommandDescriptor
}

// serviceEntry is the validated, lookup-ready form of a registered
// Service: its commands indexed by name.
type serviceEntry struct {
	name     string
	doc      string
	commands map[string]CommandDescriptor
	order    []string // insertion order, for deterministic metadata listing
}

func newServiceEntry(exposedName string, svc Service) (*serviceEntry, error) {
	e := &serviceEntry{
		name:     exposedName,
		doc:      svc.Doc(),
		commands: make(map[string]CommandDescriptor),
	}
	for _, cmd := range svc.Commands() {
		if err := cmd.validate(); err != nil {
			return nil, err
		}
		if _, dup := e.commands[cmd.Name]; dup {
			return nil, registrationErrorf("service %q: duplicate command %q", exposedName, cmd.Name)
		}
		e.commands[cmd.Name] = cmd
		e.order = append(e.order, cmd.Name)
	}
	return e, nil
}

func (e *serviceEntry) command(name string) (CommandDescriptor, bool) {
	c, ok := e.commands[name]
	return c, ok
}

// ParamInfo is the wire rendering of one ParamSpec (spec §4.4).
type ParamInfo struct {
	Name    string  `json:"name" msgpack:"name"`
	Type    TypeTag `json:"type" msgpack:"type"`
	Default any     `json:"default,omitempty" msgpack:"default,omitempty"`
	Hidden  bool    `json:"hidden" msgpack:"hidden"`
	Doc     string  `json:"doc,omitempty" msgpack:"doc,omitempty"`
}

// CommandInfo is the wire rendering of one CommandDescriptor (spec §4.4).
type CommandInfo struct {
	Name            string      `json:"name" msgpack:"name"`
	Doc             string      `json:"doc,omitempty" msgpack:"doc,omitempty"`
	Params          []ParamInfo `json:"params" msgpack:"params"`
	Returns         TypeTag     `json:"returns" msgpack:"returns"`
	OutputStreaming bool        `json:"output_streaming" msgpack:"output_streaming"`
}

// ServiceInfo is the wire rendering of one registered service (spec §4.4),
// returned by _meta.services()/_meta.service(name).
type ServiceInfo struct {
	Name     string        `json:"name" msgpack:"name"`
	Commands []CommandInfo `json:"commands" msgpack:"commands"`
}

// info renders e as the ServiceInfo a _meta query exposes to clients, in
// stable command-name order for metadata determinism (spec §3).
func (e *serviceEntry) info() ServiceInfo {
	names := make([]string, len(e.order))
	copy(names, e.order)
	sort.Strings(names)

	out := ServiceInfo{Name: e.name, Commands: make([]CommandInfo, 0, len(names))}
	for _, name := range names {
		cmd := e.commands[name]
		params := make([]ParamInfo, len(cmd.Params))
		for i, p := range cmd.Params {
			pi := ParamInfo{Name: p.Name, Type: p.Type, Hidden: p.Hidden, Doc: p.Doc}
			if p.HasDefault {
				pi.Default = p.Default
			}
			params[i] = pi
		}
		out.Commands = append(out.Commands, CommandInfo{
			Name:            cmd.Name,
			Doc:             cmd.Doc,
			Params:          params,
			Returns:         cmd.Returns,
			OutputStreaming: cmd.OutputStreaming,
		})
	}
	return out
}
