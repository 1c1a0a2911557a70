package snapshot

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ja7ad/procwatch/pkg/probe"
	"github.com/ja7ad/procwatch/pkg/process"
	"github.com/ja7ad/procwatch/pkg/types"
	"github.com/phuslu/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var quiet = WithLogger(log.Logger{Level: log.PanicLevel})

func pidRange(n int) []int32 {
	out := make([]int32, n)
	for i := range out {
		out[i] = int32(i + 1)
	}
	return out
}

func staticPids(pids ...int32) probe.Enumerator {
	return probe.EnumeratorFunc(func(context.Context) ([]int32, error) { return pids, nil })
}

func namer() probe.Probe {
	return probe.Func("basic", func(_ context.Context, pid int32) (process.Record, bool) {
		return process.Record{PID: pid, Name: "p"}, true
	})
}

// recordingObserver captures batch sizes and probe misses.
type recordingObserver struct {
	nopObserver
	mu      sync.Mutex
	batches []int
	misses  map[string]int
	onBatch func(n int)
}

func (o *recordingObserver) BatchStarted(n int) {
	o.mu.Lock()
	o.batches = append(o.batches, n)
	o.mu.Unlock()
	if o.onBatch != nil {
		o.onBatch(n)
	}
}

func (o *recordingObserver) ProbeMissed(name string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.misses == nil {
		o.misses = map[string]int{}
	}
	o.misses[name]++
}

type mockObserver struct{ mock.Mock }

func (m *mockObserver) BatchStarted(n int) { m.Called(n) }
func (m *mockObserver) ProbeMissed(name string) { m.Called(name) }
func (m *mockObserver) EnumerationFailed(err error) { m.Called(err) }
func (m *mockObserver) SnapshotBuilt(s process.Snapshot, took time.Duration) {
	m.Called(s, took)
}

func TestBuild_EndToEnd(t *testing.T) {
	names := map[int32]string{1: "A", 2: "B", 3: "C"}
	basic := probe.Func("basic", func(_ context.Context, pid int32) (process.Record, bool) {
		return process.Record{PID: pid, Name: names[pid]}, true
	})
	resource := probe.Func("resource", func(_ context.Context, pid int32) (process.Record, bool) {
		if pid == 2 {
			panic("task_info blew up")
		}
		return process.Record{PID: pid, RSS: process.Some(types.Bytes(100 * int(pid)))}, true
	})

	b := New(staticPids(1, 2, 3), []probe.Probe{basic, resource}, nil, quiet)

	var snap process.Snapshot
	require.NotPanics(t, func() { snap = b.Build(context.Background()) })
	require.NoError(t, snap.Err)
	require.Equal(t, 3, snap.Len())

	for i, want := range []struct {
		name string
		rss  process.Opt[types.Bytes]
	}{
		{"A", process.Some(types.Bytes(100))},
		{"B", process.None[types.Bytes]()},
		{"C", process.Some(types.Bytes(300))},
	} {
		r := snap.Records[i]
		assert.Equal(t, int32(i+1), r.PID)
		assert.Equal(t, want.name, r.Name)
		assert.Equal(t, want.rss, r.RSS)
	}
}

func TestBuild_Cap(t *testing.T) {
	b := New(staticPids(pidRange(500)...), []probe.Probe{namer()}, nil, quiet)

	snap := b.Build(context.Background())
	require.NoError(t, snap.Err)
	require.Equal(t, 200, snap.Len())
	assert.Equal(t, 300, snap.Skipped)
	for i, r := range snap.Records {
		assert.Equal(t, int32(i+1), r.PID, "enumeration order")
	}
}

func TestBuild_BatchesAreSequentialAndBounded(t *testing.T) {
	var inFlight, peak atomic.Int32
	var batchOverlap atomic.Bool
	var done atomic.Int32

	counting := probe.Func("counting", func(_ context.Context, pid int32) (process.Record, bool) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		done.Add(1)
		return process.Record{PID: pid}, true
	})

	obs := &recordingObserver{}
	started := 0
	obs.onBatch = func(n int) {
		// every earlier batch must have fully settled
		if done.Load() != int32(started) {
			batchOverlap.Store(true)
		}
		started += n
	}

	b := New(staticPids(pidRange(120)...), []probe.Probe{counting}, &Config{BatchSize: 50}, quiet, WithObserver(obs))
	snap := b.Build(context.Background())

	require.NoError(t, snap.Err)
	assert.Equal(t, 120, snap.Len())
	assert.Equal(t, []int{50, 50, 20}, obs.batches)
	assert.LessOrEqual(t, peak.Load(), int32(50))
	assert.False(t, batchOverlap.Load(), "batch N+1 started before batch N settled")
}

func TestBuild_HangingCmdlineProbeTimesOut(t *testing.T) {
	hang := probe.Func("cmdline", func(ctx context.Context, pid int32) (process.Record, bool) {
		<-ctx.Done()
		return process.Record{PID: pid, Exe: process.Some("/never")}, true
	})
	probes := []probe.Probe{namer(), probe.WithTimeout(hang, 100*time.Millisecond)}
	b := New(staticPids(1, 2, 3, 4), probes, nil, quiet)

	start := time.Now()
	snap := b.Build(context.Background())
	assert.Less(t, time.Since(start), time.Second)

	require.Equal(t, 4, snap.Len())
	for _, r := range snap.Records {
		assert.False(t, r.Exe.Valid())
		assert.Equal(t, "p", r.Name)
	}
}

func TestBuild_VanishedProcessIsOmitted(t *testing.T) {
	p := probe.Func("basic", func(_ context.Context, pid int32) (process.Record, bool) {
		return process.Record{PID: pid, Name: "x"}, pid != 2
	})
	obs := &recordingObserver{}
	b := New(staticPids(1, 2, 3), []probe.Probe{p}, nil, quiet, WithObserver(obs))

	snap := b.Build(context.Background())
	require.Equal(t, 2, snap.Len())
	_, ok := snap.Lookup(2)
	assert.False(t, ok)
	assert.Equal(t, 1, obs.misses["basic"])
}

func TestBuild_SeedRecord(t *testing.T) {
	onlyUsage := probe.Func("resource", func(_ context.Context, pid int32) (process.Record, bool) {
		return process.Record{PID: pid, Threads: process.Some(int32(2))}, true
	})
	b := New(staticPids(50, 500), []probe.Probe{onlyUsage}, nil, quiet)

	snap := b.Build(context.Background())
	require.Equal(t, 2, snap.Len())
	assert.Equal(t, process.UnknownName, snap.Records[0].Name)
	assert.False(t, snap.Records[0].User.Value())
	assert.True(t, snap.Records[1].User.Value())
}

func TestBuild_EnumerationFailure(t *testing.T) {
	boom := errors.New("sysctl: operation not permitted")
	enum := probe.EnumeratorFunc(func(context.Context) ([]int32, error) { return nil, boom })

	obs := &mockObserver{}
	obs.On("EnumerationFailed", boom).Once()
	obs.On("SnapshotBuilt", mock.MatchedBy(func(s process.Snapshot) bool { return s.Failed() }), mock.Anything).Once()

	b := New(enum, []probe.Probe{namer()}, nil, quiet, WithObserver(obs))
	snap := b.Build(context.Background())

	assert.True(t, snap.Failed())
	assert.ErrorIs(t, snap.Err, boom)
	assert.Zero(t, snap.Len())
	obs.AssertExpectations(t)
}

func TestBuild_EnumeratorPanicIsFailure(t *testing.T) {
	enum := probe.EnumeratorFunc(func(context.Context) ([]int32, error) { panic("proc table gone") })
	b := New(enum, []probe.Probe{namer()}, nil, quiet)

	var snap process.Snapshot
	require.NotPanics(t, func() { snap = b.Build(context.Background()) })
	assert.True(t, snap.Failed())
	assert.ErrorIs(t, snap.Err, ErrEnumeratorPanic)
	assert.Zero(t, snap.Len())

	again := b.Build(context.Background())
	assert.Equal(t, snap.Seq+1, again.Seq, "builder stays usable")
}

func TestBuild_CancelledReturnsPartial(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	obs := &recordingObserver{}
	obs.onBatch = func(int) {
		if len(obs.batches) == 2 {
			cancel()
		}
	}
	retained := false
	spy := &retainProbe{inner: namer(), onRetain: func([]int32) { retained = true }}

	b := New(staticPids(pidRange(30)...), []probe.Probe{spy}, &Config{BatchSize: 10}, quiet, WithObserver(obs))
	snap := b.Build(ctx)

	assert.ErrorIs(t, snap.Err, context.Canceled)
	assert.False(t, snap.Failed())
	assert.GreaterOrEqual(t, snap.Len(), 10)
	assert.Less(t, snap.Len(), 30)
	assert.Len(t, obs.batches, 2, "third batch is never started")
	assert.False(t, retained, "a partial alive set must not evict state")
}

type retainProbe struct {
	inner    probe.Probe
	onRetain func([]int32)
}

func (r *retainProbe) Name() string { return r.inner.Name() }

func (r *retainProbe) Probe(ctx context.Context, pid int32) (process.Record, bool) {
	return r.inner.Probe(ctx, pid)
}

func (r *retainProbe) Retain(alive []int32) { r.onRetain(alive) }

func TestBuild_RetainSeesAllEnumerated(t *testing.T) {
	var got []int32
	spy := &retainProbe{inner: namer(), onRetain: func(a []int32) { got = a }}

	b := New(staticPids(pidRange(5)...), []probe.Probe{spy}, &Config{Cap: 3}, quiet)
	b.Build(context.Background())
	assert.Equal(t, pidRange(5), got)
}

func TestBuild_Connections(t *testing.T) {
	counter := probe.ConnCounterFunc(func(context.Context) (map[int32]int, error) {
		return map[int32]int{1: 3}, nil
	})
	b := New(staticPids(1, 2), []probe.Probe{namer()}, nil, quiet, WithConnCounter(counter))

	snap := b.Build(context.Background())
	r1, _ := snap.Lookup(1)
	r2, _ := snap.Lookup(2)
	assert.Equal(t, process.Some(3), r1.Connections)
	assert.False(t, r2.Connections.Valid(), "unattributed pid has no count, not zero")
}

func TestBuild_SlowConnectionScanIsOmitted(t *testing.T) {
	counter := probe.ConnCounterFunc(func(ctx context.Context) (map[int32]int, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	b := New(staticPids(1), []probe.Probe{namer()}, &Config{NetworkBudget: 50 * time.Millisecond}, quiet, WithConnCounter(counter))

	start := time.Now()
	snap := b.Build(context.Background())
	assert.Less(t, time.Since(start), time.Second)
	require.NoError(t, snap.Err)
	require.Equal(t, 1, snap.Len())
	assert.False(t, snap.Records[0].Connections.Valid())
}

type stampAnnotator struct{ at time.Time }

func (s *stampAnnotator) Annotate(recs []process.Record, at time.Time) []process.Record {
	s.at = at
	out := make([]process.Record, len(recs))
	for i, r := range recs {
		out[i] = process.Merge(r, process.Record{EnergyImpact: process.Some(1.0)})
	}
	return out
}

func TestBuild_EnergyAndClock(t *testing.T) {
	fixed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	ann := &stampAnnotator{}
	b := New(staticPids(1), []probe.Probe{namer()}, nil, quiet,
		WithEnergy(ann), WithClock(func() time.Time { return fixed }))

	snap := b.Build(context.Background())
	assert.Equal(t, fixed, snap.CapturedAt)
	assert.Equal(t, fixed, ann.at)
	assert.Equal(t, process.Some(1.0), snap.Records[0].EnergyImpact)
}

func TestBuild_SeqIncrements(t *testing.T) {
	b := New(staticPids(1), []probe.Probe{namer()}, nil, quiet)
	assert.Equal(t, uint64(1), b.Build(context.Background()).Seq)
	assert.Equal(t, uint64(2), b.Build(context.Background()).Seq)
}

func TestConfig_PositiveOnlyOverrides(t *testing.T) {
	assert.Equal(t, DefaultConfig(), New(nil, nil, nil).Config())

	c := New(nil, nil, &Config{Cap: 10, BatchSize: -1}).Config()
	assert.Equal(t, 10, c.Cap)
	assert.Equal(t, 50, c.BatchSize)
	assert.Equal(t, 2*time.Second, c.NetworkBudget)
}
