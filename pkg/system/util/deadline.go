package util

import (
	"context"
	"time"
)

// RunWithDeadline runs fn on its own goroutine and waits at most d for it.
// If fn has not returned by then, or ctx ends first, the zero value and
// false are returned and fn's context is cancelled; fn may keep running in
// the background but its result is dropped. The timer is always released
// once the race is decided.
//
// A panic in fn counts as false. d <= 0 means no deadline beyond ctx.
func RunWithDeadline[T any](ctx context.Context, d time.Duration, fn func(ctx context.Context) (T, bool)) (T, bool) {
	type result struct {
		v  T
		ok bool
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// buffered so an abandoned worker can still finish and exit
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{}
			}
		}()
		v, ok := fn(runCtx)
		done <- result{v: v, ok: ok}
	}()

	var expired <-chan time.Time
	if d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		expired = timer.C
	}

	var zero T
	select {
	case r := <-done:
		return r.v, r.ok
	case <-expired:
		return zero, false
	case <-ctx.Done():
		return zero, false
	}
}
