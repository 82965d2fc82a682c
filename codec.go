// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import "sync"

// Codec converts a Message to/from bytes (spec §4.2). Implementations are
// symmetric and self-delimiting within the bytes given to them. Codecs are
// not given type tags; both built-in codecs carry enough type information
// in their own encoding.
type Codec interface {
	// Name is the short identifier exchanged during handshake ("json",
	// "msgpack").
	Name() string
	Encode(msg *Message) ([]byte, error)
	Decode(data []byte, msg *Message) error
}

// DefaultCodecOrder is the client's preferred-to-least-preferred codec
// list, used to offer codecs during HELLO. MessagePack is preferred for
// size; see spec §4.2.
var DefaultCodecOrder = []string{"msgpack", "json"}

var (
	codecsMu sync.RWMutex
	codecs   = map[string]Codec{}
)

// RegisterCodec makes a Codec available by name for handshake negotiation.
// Built-in codecs ("json", "msgpack") are registered by this package's
// init; applications may register additional codecs before dialing or
// listening.
func RegisterCodec(c Codec) {
	codecsMu.Lock()
	defer codecsMu.Unlock()
	codecs[c.Name()] = c
}

// GetCodec looks up a registered codec by name.
func GetCodec(name string) (Codec, bool) {
	codecsMu.RLock()
	defer codecsMu.RUnlock()
	c, ok := codecs[name]
	return c, ok
}

func init() {
	RegisterCodec(jsonCodec{})
	RegisterCodec(msgpackCodec{})
}
