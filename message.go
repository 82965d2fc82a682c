// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

// Kind identifies a wire message's role (spec §4.3). It is a closed set;
// an unknown value on the wire is a protocol error.
type Kind uint8

const (
	KindHello Kind = iota + 1
	KindWelcome
	KindCall
	KindReply
	KindChunk
	KindEnd
	KindError
	KindCancel
)

func (k Kind) String() string {
	switch k {
	case KindHello:
		return "HELLO"
	case KindWelcome:
		return "WELCOME"
	case KindCall:
		return "CALL"
	case KindReply:
		return "REPLY"
	case KindChunk:
		return "CHUNK"
	case KindEnd:
		return "END"
	case KindError:
		return "ERROR"
	case KindCancel:
		return "CANCEL"
	default:
		return "UNKNOWN"
	}
}

// HandshakeID is the reserved call id for HELLO/WELCOME and for a
// best-effort ERROR frame sent when a failure occurs outside of any call.
const HandshakeID uint64 = 0

// Message is the single codec-encoded structure carried by every frame:
// kind, id (call id; 0 reserved for handshake), and a kind-specific
// payload. Exactly one of the payload fields below is set, matching the
// message's Kind; End and Cancel carry no payload.
type Message struct {
	Kind Kind   `json:"kind" msgpack:"kind"`
	ID   uint64 `json:"id" msgpack:"id"`

	Hello   *HelloPayload   `json:"hello,omitempty" msgpack:"hello,omitempty"`
	Welcome *WelcomePayload `json:"welcome,omitempty" msgpack:"welcome,omitempty"`
	Call    *CallPayload    `json:"call,omitempty" msgpack:"call,omitempty"`
	Reply   *ReplyPayload   `json:"reply,omitempty" msgpack:"reply,omitempty"`
	Chunk   *ChunkPayload   `json:"chunk,omitempty" msgpack:"chunk,omitempty"`
	Error   *ErrorPayload   `json:"error,omitempty" msgpack:"error,omitempty"`
}

// HelloPayload is sent client->server to offer supported codecs.
type HelloPayload struct {
	Codecs  []string `json:"codecs" msgpack:"codecs"`
	Version string   `json:"version" msgpack:"version"`
}

// WelcomePayload is sent server->client with the negotiated codec.
type WelcomePayload struct {
	Codec   string `json:"codec" msgpack:"codec"`
	Version string `json:"version" msgpack:"version"`
}

// CallPayload is sent client->server to invoke a command.
type CallPayload struct {
	Service        string         `json:"service" msgpack:"service"`
	Command        string         `json:"command" msgpack:"command"`
	Args           []any          `json:"args" msgpack:"args"`
	Kwargs         map[string]any `json:"kwargs" msgpack:"kwargs"`
	HasInputStream bool           `json:"has_input_stream" msgpack:"has_input_stream"`
}

// ReplyPayload is the terminal unary response.
type ReplyPayload struct {
	Value any `json:"value" msgpack:"value"`
}

// ChunkPayload is one element of a stream, in either direction.
type ChunkPayload struct {
	Value any `json:"value" msgpack:"value"`
}

// ErrorPayload is a terminal message reporting a call (or handshake)
// failure.
type ErrorPayload struct {
	Kind      ErrorKind `json:"kind" msgpack:"kind"`
	Message   string    `json:"message" msgpack:"message"`
	Traceback string    `json:"traceback,omitempty" msgpack:"traceback,omitempty"`
}

func newError(id uint64, kind ErrorKind, message, traceback string) Message {
	return Message{
		Kind: KindError,
		ID:   id,
		Error: &ErrorPayload{
			Kind:      kind,
			Message:   message,
			Traceback: traceback,
		},
	}
}

func newEnd(id uint64) Message    { return Message{Kind: KindEnd, ID: id} }
func newCancel(id uint64) Message { return Message{Kind: KindCancel, ID: id} }

func newChunk(id uint64, v any) Message {
	return Message{Kind: KindChunk, ID: id, Chunk: &ChunkPayload{Value: v}}
}

func newReply(id uint64, v any) Message {
	return Message{Kind: KindReply, ID: id, Reply: &ReplyPayload{Value: v}}
}
