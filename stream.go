// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"context"
	"io"
)

// Stream is the lazy-sequence abstraction carrying both input-streaming
// and output-streaming command parameters (spec §3, §9 design note:
// "Generators as streams: model as a lazy sequence abstraction with
// next() -> value|end|error and cancel()"). A zero value is not usable;
// construct one with NewStream, NewSliceStream or newInboundStream.
type Stream struct {
	next   func(ctx context.Context) (any, error)
	cancel func()
}

// NewStream builds a Stream around a pull function. next must return
// (value, nil) for each element, (nil, io.EOF) once exhausted, or any
// other error to terminate the sequence abnormally. cancel may be nil.
func NewStream(next func(ctx context.Context) (any, error), cancel func()) *Stream {
	return &Stream{next: next, cancel: cancel}
}

// NewSliceStream wraps a pre-computed slice of values as a Stream, for
// commands whose output streaming has no real backpressure need (health
// checks, small listings).
func NewSliceStream(values []any) *Stream {
	i := 0
	return NewStream(func(ctx context.Context) (any, error) {
		if i >= len(values) {
			return nil, io.EOF
		}
		v := values[i]
		i++
		return v, nil
	}, nil)
}

// Next returns the next element, io.EOF when the sequence is exhausted,
// or ctx.Err() if ctx is cancelled first.
func (s *Stream) Next(ctx context.Context) (any, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	return s.next(ctx)
}

// Cancel releases any resource held by the stream's producer. Safe to
// call more than once and safe to call on a Stream with no cancel func.
func (s *Stream) Cancel() {
	if s.cancel != nil {
		s.cancel()
	}
}

// newInboundStream adapts a call's inbox channel (receiving CHUNK/END/
// ERROR frames from the peer) into a Stream, used by the dispatcher to
// hand a command its input-streaming parameter (spec §4.5).
func newInboundStream(ctx context.Context, inbox <-chan Message, onCancel func()) *Stream {
	return NewStream(func(ctx context.Context) (any, error) {
		select {
		case msg, ok := <-inbox:
			if !ok {
				return nil, wrapTransport("stream", io.ErrClosedPipe)
			}
			switch msg.Kind {
			case KindChunk:
				return msg.Chunk.Value, nil
			case KindEnd:
				return nil, io.EOF
			case KindError:
				return nil, &RemoteError{Kind: msg.Error.Kind, Message: msg.Error.Message, Traceback: msg.Error.Traceback}
			case KindCancel:
				return nil, ErrCancelled
			default:
				return nil, protocolErrorf("unexpected %s on input stream", msg.Kind)
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}, onCancel)
}

// drainToChunks pumps every element of s out through send as CHUNK
// messages for call id, followed by a terminating END (normal exhaustion)
// or ERROR (producer failure). Used by the dispatcher for output
// streaming (spec §4.5) and by the client proxy when relaying a local
// input stream to the server.
func drainToChunks(ctx context.Context, s *Stream, id uint64, send func(context.Context, Message) error) error {
	for {
		v, err := s.Next(ctx)
		if err == io.EOF {
			return send(ctx, newEnd(id))
		}
		if err != nil {
			kind := KindInternal
			if re, ok := err.(*RemoteError); ok {
				kind = re.Kind
			}
			return send(ctx, newError(id, kind, err.Error(), ""))
		}
		if err := send(ctx, newChunk(id, v)); err != nil {
			return err
		}
	}
}
