// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import "testing"

func TestTypeTagString(t *testing.T) {
	cases := []struct {
		tag  TypeTag
		want string
	}{
		{Int(), "int"},
		{Str(), "str"},
		{List(Int()), "list<int>"},
		{Map(Str(), Int()), "map<str,int>"},
		{Optional(Bytes()), "optional<bytes>"},
		{Stream(Bool()), "stream<bool>"},
		{Union(Int(), Str()), "union<int,str>"},
		{List(Optional(Int())), "list<optional<int>>"},
	}
	for _, c := range cases {
		if got := c.tag.String(); got != c.want {
			t.Errorf("String() = %q, want %q", got, c.want)
		}
	}
}

func TestTypeTagIsStream(t *testing.T) {
	elem, ok := Stream(Int()).IsStream()
	if !ok || elem.Kind != KindInt {
		t.Errorf("IsStream() = %+v, %v", elem, ok)
	}
	if _, ok := Int().IsStream(); ok {
		t.Error("Int() should not report as a stream")
	}
}

func TestParamSpecBuilders(t *testing.T) {
	p := Param("count", Int()).WithDefault(int64(1)).WithDoc("how many times").Hide()
	if p.Name != "count" || !p.HasDefault || p.Default != int64(1) || p.Doc == "" || !p.Hidden {
		t.Errorf("unexpected ParamSpec: %+v", p)
	}
}
