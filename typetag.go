// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import "strings"

// TagKind is the closed set of portable, codec-neutral type descriptors
// from spec §3. Tags drive metadata rendering and client-side coercion;
// the codec itself handles wire encoding.
type TagKind string

const (
	KindInt      TagKind = "int"
	KindFloat    TagKind = "float"
	KindBool     TagKind = "bool"
	KindStr      TagKind = "str"
	KindBytes    TagKind = "bytes"
	KindNone     TagKind = "none"
	KindList     TagKind = "list"
	KindMap      TagKind = "map"
	KindOptional TagKind = "optional"
	KindUnion    TagKind = "union"
	KindStream   TagKind = "stream"
	KindAny      TagKind = "any"
)

// TypeTag describes the shape of a value travelling over the wire. Only
// List, Map, Optional, Union, and Stream carry nested tags.
type TypeTag struct {
	Kind  TagKind
	Elem  *TypeTag   // list<T>, optional<T>, stream<T>
	Key   *TypeTag   // map<K,V>
	Val   *TypeTag   // map<K,V>
	Union []*TypeTag // union<T...>
}

func Int() TypeTag    { return TypeTag{Kind: KindInt} }
func Float() TypeTag   { return TypeTag{Kind: KindFloat} }
func Bool() TypeTag    { return TypeTag{Kind: KindBool} }
func Str() TypeTag     { return TypeTag{Kind: KindStr} }
func Bytes() TypeTag   { return TypeTag{Kind: KindBytes} }
func None() TypeTag    { return TypeTag{Kind: KindNone} }
func Any() TypeTag     { return TypeTag{Kind: KindAny} }

func List(elem TypeTag) TypeTag { return TypeTag{Kind: KindList, Elem: &elem} }

func Map(key, val TypeTag) TypeTag {
	return TypeTag{Kind: KindMap, Key: &key, Val: &val}
}

func Optional(elem TypeTag) TypeTag { return TypeTag{Kind: KindOptional, Elem: &elem} }

func Stream(elem TypeTag) TypeTag { return TypeTag{Kind: KindStream, Elem: &elem} }

func Union(members ...TypeTag) TypeTag {
	ptrs := make([]*TypeTag, len(members))
	for i := range members {
		ptrs[i] = &members[i]
	}
	return TypeTag{Kind: KindUnion, Union: ptrs}
}

// IsStream reports whether the tag is stream<T>, returning the element tag.
func (t TypeTag) IsStream() (TypeTag, bool) {
	if t.Kind == KindStream {
		return *t.Elem, true
	}
	return TypeTag{}, false
}

// String renders the tag in the textual form used by metadata and docs,
// e.g. "list<optional<int>>".
func (t TypeTag) String() string {
	switch t.Kind {
	case KindList:
		return "list<" + t.Elem.String() + ">"
	case KindMap:
		return "map<" + t.Key.String() + "," + t.Val.String() + ">"
	case KindOptional:
		return "optional<" + t.Elem.String() + ">"
	case KindStream:
		return "stream<" + t.Elem.String() + ">"
	case KindUnion:
		parts := make([]string, len(t.Union))
		for i, m := range t.Union {
			parts[i] = m.String()
		}
		return "union<" + strings.Join(parts, ",") + ">"
	default:
		return string(t.Kind)
	}
}

// ParamSpec describes one ordered command parameter (spec §3).
type ParamSpec struct {
	Name    string
	Type    TypeTag
	Default any  // nil when the parameter has no default
	HasDefault bool
	Hidden  bool
	Doc     string
}

// Param builds a required, visible parameter.
func Param(name string, t TypeTag) ParamSpec {
	return ParamSpec{Name: name, Type: t}
}

// WithDefault returns a copy of p carrying a default value.
func (p ParamSpec) WithDefault(v any) ParamSpec {
	p.Default = v
	p.HasDefault = true
	return p
}

// WithDoc returns a copy of p carrying human-readable documentation.
func (p ParamSpec) WithDoc(doc string) ParamSpec {
	p.Doc = doc
	return p
}

// Hide returns a copy of p marked hidden from rendered help (still sent on
// the wire, per spec §6).
func (p ParamSpec) Hide() ParamSpec {
	p.Hidden = true
	return p
}
