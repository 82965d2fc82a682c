// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import "context"

// ProtocolVersion is exchanged (but not otherwise interpreted) during
// handshake, available to applications via _meta.status().
const ProtocolVersion = "1"

// clientHandshake performs the HELLO/WELCOME exchange as initiator (spec
// §4.7): HELLO always travels on the bootstrap JSON codec, since no codec
// has been negotiated yet. On success the mux's codec is swapped to the
// one the server chose.
func clientHandshake(ctx context.Context, m *muxConn, preferred []string) (Codec, error) {
	hello := Message{
		Kind:  KindHello,
		ID:    HandshakeID,
		Hello: &HelloPayload{Codecs: preferred, Version: ProtocolVersion},
	}
	if err := m.send(ctx, hello); err != nil {
		return nil, err
	}

	select {
	case msg := <-m.handshakeCh:
		switch msg.Kind {
		case KindWelcome:
			codec, ok := GetCodec(msg.Welcome.Codec)
			if !ok {
				return nil, protocolErrorf("server chose unknown codec %q", msg.Welcome.Codec)
			}
			m.setCodec(codec)
			return codec, nil
		case KindError:
			p := msg.Error
			return nil, &RemoteError{Kind: p.Kind, Message: p.Message, Traceback: p.Traceback}
		default:
			return nil, protocolErrorf("expected WELCOME, got %s", msg.Kind)
		}
	case <-m.done():
		return nil, wrapTransport("handshake", m.err())
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// serverHandshake performs the HELLO/WELCOME exchange as responder (spec
// §4.5): pick the first codec the client offered that the server
// supports, in the client's preferred order; if none match, report
// CodecNegotiation and let the caller close the connection.
func serverHandshake(ctx context.Context, m *muxConn, supported []string) (Codec, error) {
	select {
	case msg := <-m.handshakeCh:
		if msg.Kind != KindHello {
			_ = m.send(ctx, newError(HandshakeID, KindProtocol, "expected HELLO", ""))
			return nil, protocolErrorf("expected HELLO, got %s", msg.Kind)
		}

		name := pickCodec(msg.Hello.Codecs, supported)
		if name == "" {
			_ = m.send(ctx, newError(HandshakeID, KindCodecNegotiation, "no common codec", ""))
			return nil, &RemoteError{Kind: KindCodecNegotiation, Message: "no common codec"}
		}
		codec, _ := GetCodec(name)

		// WELCOME travels on the bootstrap JSON codec, but the mux switches
		// to the negotiated codec before it is written, so the client's
		// first CALL is never decoded with the bootstrap codec.
		welcome := Message{Kind: KindWelcome, ID: HandshakeID, Welcome: &WelcomePayload{Codec: name, Version: ProtocolVersion}}
		data, err := jsonCodec{}.Encode(&welcome)
		if err != nil {
			return nil, err
		}
		m.setCodec(codec)
		if err := m.tc.Send(ctx, Frame{Data: data, ID: HandshakeID, Codec: jsonCodec{}.Name()}); err != nil {
			return nil, err
		}
		return codec, nil

	case <-m.done():
		return nil, wrapTransport("handshake", m.err())
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// pickCodec returns the first name in offered (the client's preference
// order) that also appears in supported, or "" if none match.
func pickCodec(offered, supported []string) string {
	ok := make(map[string]bool, len(supported))
	for _, s := range supported {
		ok[s] = true
	}
	for _, c := range offered {
		if ok[c] {
			return c
		}
	}
	return ""
}
