// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"encoding/base64"
	"encoding/json"
)

// jsonCodec is the textual, UTF-8 codec. encoding/json already encodes a
// []byte FIELD as a base64 string and nil as null, matching spec §4.2 —
// but Message's Args/Kwargs/Value fields are `any`, and encoding/json only
// auto-base64-decodes into a statically-typed []byte, not into an
// interface{}. Without help, a bytes value round-tripped through an `any`
// field would come back as a base64 string instead of []byte. The
// bytesMarker wrapping below closes that gap while leaving the rest of
// the payload exactly as encoding/json would encode it.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

const bytesMarkerKey = "$bytes"

func (jsonCodec) Encode(msg *Message) ([]byte, error) {
	wire := *msg
	if msg.Call != nil {
		c := *msg.Call
		c.Args = markBytesSlice(msg.Call.Args)
		c.Kwargs = markBytesMap(msg.Call.Kwargs)
		wire.Call = &c
	}
	if msg.Reply != nil {
		r := *msg.Reply
		r.Value = markBytes(msg.Reply.Value)
		wire.Reply = &r
	}
	if msg.Chunk != nil {
		c := *msg.Chunk
		c.Value = markBytes(msg.Chunk.Value)
		wire.Chunk = &c
	}

	data, err := json.Marshal(&wire)
	if err != nil {
		return nil, &CodecError{Op: "encode", Err: err}
	}
	return data, nil
}

func (jsonCodec) Decode(data []byte, msg *Message) error {
	if err := json.Unmarshal(data, msg); err != nil {
		return &CodecError{Op: "decode", Err: err}
	}
	if msg.Call != nil {
		msg.Call.Args = unmarkBytesSlice(msg.Call.Args)
		msg.Call.Kwargs = unmarkBytesMap(msg.Call.Kwargs)
	}
	if msg.Reply != nil {
		msg.Reply.Value = unmarkBytes(msg.Reply.Value)
	}
	if msg.Chunk != nil {
		msg.Chunk.Value = unmarkBytes(msg.Chunk.Value)
	}
	return nil
}

// markBytes recursively wraps every []byte leaf in v as
// {"$bytes": "<base64>"} (encoding/json base64-encodes the []byte itself,
// we only need to mark *which* string is meant to come back as bytes).
func markBytes(v any) any {
	switch x := v.(type) {
	case []byte:
		return map[string]any{bytesMarkerKey: x}
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, vv := range x {
			out[k] = markBytes(vv)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, vv := range x {
			out[i] = markBytes(vv)
		}
		return out
	default:
		return v
	}
}

func markBytesSlice(vs []any) []any {
	if vs == nil {
		return nil
	}
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = markBytes(v)
	}
	return out
}

func markBytesMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = markBytes(v)
	}
	return out
}

// unmarkBytes reverses markBytes after json.Unmarshal has turned the wire
// form back into generic map[string]any/[]any/string values.
func unmarkBytes(v any) any {
	switch x := v.(type) {
	case map[string]any:
		if len(x) == 1 {
			if b64, ok := x[bytesMarkerKey]; ok {
				if s, ok := b64.(string); ok {
					if data, err := base64.StdEncoding.DecodeString(s); err == nil {
						return data
					}
				}
			}
		}
		out := make(map[string]any, len(x))
		for k, vv := range x {
			out[k] = unmarkBytes(vv)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, vv := range x {
			out[i] = unmarkBytes(vv)
		}
		return out
	default:
		return v
	}
}

func unmarkBytesSlice(vs []any) []any {
	if vs == nil {
		return nil
	}
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = unmarkBytes(v)
	}
	return out
}

func unmarkBytesMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = unmarkBytes(v)
	}
	return out
}
