// Package ratelimit implements the fixed-window request admission gate.
//
// The limiter is process-local and coarse; per-tenant quotas belong to
// the upstream proxy.
package ratelimit

import (
	"context"
	"time"
)

// FixedWindow is a semaphore refilled to capacity on every window tick.
// Permits are held for the life of a request and returned on completion,
// so capacity bounds the number of requests in flight at once; a finished
// request frees its permit without waiting for the next tick.
type FixedWindow struct {
	permits chan struct{}
	done    chan struct{}
}

// NewFixedWindow starts the limiter with maxRequests permits (min 1) and
// a background refiller ticking every window.
func NewFixedWindow(maxRequests int, window time.Duration) *FixedWindow {
	if maxRequests < 1 {
		maxRequests = 1
	}
	if window <= 0 {
		window = time.Second
	}

	fw := &FixedWindow{
		permits: make(chan struct{}, maxRequests),
		done:    make(chan struct{}),
	}
	for i := 0; i < maxRequests; i++ {
		fw.permits <- struct{}{}
	}
	go fw.refill(window)
	return fw
}

// Acquire blocks until a permit is available or the context ends.
func (fw *FixedWindow) Acquire(ctx context.Context) error {
	select {
	case <-fw.permits:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a permit. Safe to call when the pool was refilled in
// the meantime: the buffered channel never grows past capacity.
func (fw *FixedWindow) Release() {
	select {
	case fw.permits <- struct{}{}:
	default:
	}
}

// Close stops the refiller.
func (fw *FixedWindow) Close() {
	close(fw.done)
}

func (fw *FixedWindow) refill(window time.Duration) {
	ticker := time.NewTicker(window)
	defer ticker.Stop()

	for {
		select {
		case <-fw.done:
			return
		case <-ticker.C:
			fw.topUp()
		}
	}
}

func (fw *FixedWindow) topUp() {
	for {
		select {
		case fw.permits <- struct{}{}:
		default:
			return
		}
	}
}
