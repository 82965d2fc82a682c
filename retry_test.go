// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetrySucceedsFirstTry(t *testing.T) {
	r := Retry{Count: 3, Interval: time.Millisecond}
	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryExhaustsCount(t *testing.T) {
	r := Retry{Count: 2, Interval: time.Millisecond}
	wantErr := errors.New("always fails")
	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		return wantErr
	})
	if err != wantErr {
		t.Fatalf("Do() err = %v, want %v", err, wantErr)
	}
	if calls != 3 { // one initial attempt + 2 retries
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	r := Retry{Count: 5, Interval: time.Millisecond}
	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryContextCancelled(t *testing.T) {
	r := Retry{Count: -1, Interval: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := r.Do(ctx, func() error {
		return errors.New("never succeeds")
	})
	if err != context.Canceled {
		t.Errorf("Do() err = %v, want context.Canceled", err)
	}
}
