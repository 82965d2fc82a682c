// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"context"
	"io"
	"testing"
)

func TestNewSliceStream(t *testing.T) {
	s := NewSliceStream([]any{"a", "b", "c"})
	ctx := context.Background()

	for _, want := range []string{"a", "b", "c"} {
		v, err := s.Next(ctx)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if v != want {
			t.Errorf("Next() = %v, want %v", v, want)
		}
	}
	if _, err := s.Next(ctx); err != io.EOF {
		t.Errorf("Next() after exhaustion = %v, want io.EOF", err)
	}
}

func TestStreamCancelNilSafe(t *testing.T) {
	s := NewSliceStream(nil)
	s.Cancel() // must not panic with a nil cancel func
}

func TestStreamCancelInvoked(t *testing.T) {
	called := false
	s := NewStream(func(ctx context.Context) (any, error) {
		return nil, io.EOF
	}, func() { called = true })
	s.Cancel()
	if !called {
		t.Error("Cancel did not invoke the underlying cancel func")
	}
}

func TestNewInboundStreamChunkEndSequence(t *testing.T) {
	inbox := make(chan Message, 4)
	inbox <- Message{Kind: KindChunk, Chunk: &ChunkPayload{Value: int64(1)}}
	inbox <- Message{Kind: KindChunk, Chunk: &ChunkPayload{Value: int64(2)}}
	inbox <- Message{Kind: KindEnd}

	cancelled := false
	s := newInboundStream(context.Background(), inbox, func() { cancelled = true })

	for _, want := range []int64{1, 2} {
		v, err := s.Next(context.Background())
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if v != want {
			t.Errorf("Next() = %v, want %v", v, want)
		}
	}
	if _, err := s.Next(context.Background()); err != io.EOF {
		t.Errorf("Next() at END = %v, want io.EOF", err)
	}
	if cancelled {
		t.Error("reaching END should not invoke onCancel")
	}
}

func TestNewInboundStreamError(t *testing.T) {
	inbox := make(chan Message, 1)
	inbox <- Message{Kind: KindError, Error: &ErrorPayload{Kind: KindCommand, Message: "boom"}}

	s := newInboundStream(context.Background(), inbox, nil)
	_, err := s.Next(context.Background())
	re, ok := err.(*RemoteError)
	if !ok || re.Kind != KindCommand {
		t.Errorf("Next() = %v, want a CommandError RemoteError", err)
	}
}

func TestNewInboundStreamCancel(t *testing.T) {
	inbox := make(chan Message, 1)
	inbox <- Message{Kind: KindCancel}

	s := newInboundStream(context.Background(), inbox, nil)
	_, err := s.Next(context.Background())
	if err != ErrCancelled {
		t.Errorf("Next() = %v, want ErrCancelled", err)
	}
}

func TestDrainToChunksNormalExhaustion(t *testing.T) {
	s := NewSliceStream([]any{"x", "y"})
	var sent []Message
	send := func(ctx context.Context, m Message) error {
		sent = append(sent, m)
		return nil
	}
	if err := drainToChunks(context.Background(), s, 9, send); err != nil {
		t.Fatalf("drainToChunks: %v", err)
	}
	if len(sent) != 3 {
		t.Fatalf("got %d frames, want 3 (2 chunks + end)", len(sent))
	}
	if sent[0].Kind != KindChunk || sent[1].Kind != KindChunk || sent[2].Kind != KindEnd {
		t.Errorf("unexpected frame sequence: %+v", sent)
	}
}

func TestDrainToChunksProducerError(t *testing.T) {
	s := NewStream(func(ctx context.Context) (any, error) {
		return nil, &RemoteError{Kind: KindInternal, Message: "producer died"}
	}, nil)
	var sent []Message
	send := func(ctx context.Context, m Message) error {
		sent = append(sent, m)
		return nil
	}
	if err := drainToChunks(context.Background(), s, 1, send); err != nil {
		t.Fatalf("drainToChunks: %v", err)
	}
	if len(sent) != 1 || sent[0].Kind != KindError {
		t.Fatalf("got %+v, want a single ERROR frame", sent)
	}
}
