package probe

import (
	"context"
	"time"

	"github.com/ja7ad/procwatch/pkg/process"
	"github.com/ja7ad/procwatch/pkg/system/util"
	gprocess "github.com/shirou/gopsutil/v4/process"
)

// Probe queries one information source for one process. It returns a
// partial record holding only the fields its source supplies, or false when
// it has nothing (process gone, permission denied, parse failure, timeout).
// A probe never returns an error and must be safe for concurrent use.
type Probe interface {
	Name() string
	Probe(ctx context.Context, pid int32) (process.Record, bool)
}

// Retainer is implemented by probes that keep per-process state between
// snapshots. Retain is called after each build with the pids still alive.
type Retainer interface {
	Retain(alive []int32)
}

type funcProbe struct {
	name string
	fn   func(ctx context.Context, pid int32) (process.Record, bool)
}

// Func adapts a plain function to the Probe interface.
func Func(name string, fn func(ctx context.Context, pid int32) (process.Record, bool)) Probe {
	return funcProbe{name: name, fn: fn}
}

func (f funcProbe) Name() string { return f.name }

func (f funcProbe) Probe(ctx context.Context, pid int32) (process.Record, bool) {
	return f.fn(ctx, pid)
}

type timeoutProbe struct {
	inner Probe
	d     time.Duration
}

// WithTimeout bounds p to d. A probe that has not answered by then counts as
// absent; its context is cancelled and its late result is dropped.
func WithTimeout(p Probe, d time.Duration) Probe {
	if d <= 0 {
		return p
	}
	return timeoutProbe{inner: p, d: d}
}

func (t timeoutProbe) Name() string { return t.inner.Name() }

func (t timeoutProbe) Probe(ctx context.Context, pid int32) (process.Record, bool) {
	return util.RunWithDeadline(ctx, t.d, func(ctx context.Context) (process.Record, bool) {
		return t.inner.Probe(ctx, pid)
	})
}

// Retain forwards to the wrapped probe when it keeps state.
func (t timeoutProbe) Retain(alive []int32) {
	if r, ok := t.inner.(Retainer); ok {
		r.Retain(alive)
	}
}

// Enumerator lists the pids alive right now, in OS order.
type Enumerator interface {
	Pids(ctx context.Context) ([]int32, error)
}

// EnumeratorFunc adapts a function to Enumerator.
type EnumeratorFunc func(ctx context.Context) ([]int32, error)

func (f EnumeratorFunc) Pids(ctx context.Context) ([]int32, error) { return f(ctx) }

// Pids is the default Enumerator backed by the OS process table.
func Pids() Enumerator {
	return EnumeratorFunc(func(ctx context.Context) ([]int32, error) {
		return gprocess.PidsWithContext(ctx)
	})
}
