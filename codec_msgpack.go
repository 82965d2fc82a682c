// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import "github.com/vmihailenco/msgpack/v5"

// msgpackCodec is the binary codec preferred by default for size (spec
// §4.2); []byte values round-trip natively without base64 inflation.
type msgpackCodec struct{}

func (msgpackCodec) Name() string { return "msgpack" }

func (msgpackCodec) Encode(msg *Message) ([]byte, error) {
	data, err := msgpack.Marshal(msg)
	if err != nil {
		return nil, &CodecError{Op: "encode", Err: err}
	}
	return data, nil
}

func (msgpackCodec) Decode(data []byte, msg *Message) error {
	if err := msgpack.Unmarshal(data, msg); err != nil {
		return &CodecError{Op: "decode", Err: err}
	}
	return nil
}
