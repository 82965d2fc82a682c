// Copyright (C) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"context"
	"log"
	"time"
)

// Retry generalizes snekrpc/utils/retry.py's Retry.call to Go: it retries
// a fallible operation count times (0 means no retry, a negative count
// means retry forever), sleeping interval between attempts, used by Dial
// to retry connection establishment (spec §4.6). Retry never wraps a CALL
// already written to the wire, preserving the at-most-once guarantee
// (spec §1 non-goals).
type Retry struct {
	Count    int
	Interval time.Duration
	Logger   *log.Logger
}

// Do runs fn, retrying on error up to r.Count additional times. A nil
// Logger suppresses the retry-attempt log line; ctx cancellation aborts
// the wait between attempts.
func (r Retry) Do(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; ; attempt++ {
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
		}
		if r.Count >= 0 && attempt >= r.Count {
			return lastErr
		}
		if r.Logger != nil {
			r.Logger.Printf("wirerpc: %v (retrying: %d)", lastErr, attempt+1)
		}
		select {
		case <-time.After(r.Interval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
