package snapshot

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ja7ad/procwatch/internal/logger"
	"github.com/ja7ad/procwatch/pkg/probe"
	"github.com/ja7ad/procwatch/pkg/process"
	"github.com/ja7ad/procwatch/pkg/system/util"
	"github.com/phuslu/log"
)

// Builder enumerates processes, runs the probe set against each one in
// bounded batches and merges the partial records into a Snapshot.
//
// A Builder is safe for concurrent use, though callers normally serialize
// builds (see pkg/monitor).
type Builder struct {
	enum   probe.Enumerator
	probes []probe.Probe
	cfg    Config

	log    log.Logger
	obs    Observer
	conns  probe.ConnCounter
	energy Annotator
	now    func() time.Time

	seq atomic.Uint64
}

// New returns a Builder. probes are merged in the given order, so callers
// pass them as basic, registry, resource, task, cmdline (probe.DefaultSet
// does). Fields of cfg > 0 override the defaults; nil uses defaults.
func New(enum probe.Enumerator, probes []probe.Probe, cfg *Config, opts ...Option) *Builder {
	b := &Builder{
		enum:   enum,
		probes: probes,
		cfg:    merge(cfg),
		log:    logger.New("snapshot"),
		obs:    nopObserver{},
		now:    time.Now,
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Config returns the effective configuration.
func (b *Builder) Config() Config { return b.cfg }

// Build captures one snapshot. It never fails as a whole: a process that
// vanished or could not be read is omitted or partially filled. Only a
// failed enumeration yields a snapshot with no records and Err wrapping
// process.ErrEnumeration. If ctx ends mid-build the remaining batches are
// abandoned and the records gathered so far are returned with Err set to
// the context error.
func (b *Builder) Build(ctx context.Context) process.Snapshot {
	start := b.now()
	snap := process.Snapshot{Seq: b.seq.Add(1), CapturedAt: start}

	pids, err := b.enumerate(ctx)
	if err != nil {
		snap.Err = fmt.Errorf("%w: %w", process.ErrEnumeration, err)
		b.log.Error().Err(err).Msg("Process enumeration failed")
		b.obs.EnumerationFailed(err)
		b.obs.SnapshotBuilt(snap, b.now().Sub(start))
		return snap
	}

	probed := pids
	if len(probed) > b.cfg.Cap {
		snap.Skipped = len(probed) - b.cfg.Cap
		probed = probed[:b.cfg.Cap]
	}

	records := make([]process.Record, 0, len(probed))
	for lo := 0; lo < len(probed); lo += b.cfg.BatchSize {
		if ctx.Err() != nil {
			break
		}
		hi := min(lo+b.cfg.BatchSize, len(probed))
		records = append(records, b.runBatch(ctx, probed[lo:hi])...)
	}

	if err := ctx.Err(); err != nil {
		snap.Err = err
		snap.Records = records
		b.log.Debug().Err(err).Int("records", len(records)).Msg("Snapshot build interrupted")
		b.obs.SnapshotBuilt(snap, b.now().Sub(start))
		return snap
	}

	// Skipped pids are still alive; keep their state too.
	b.retain(pids)

	if b.conns != nil {
		records = b.withConnections(ctx, records)
	}
	if b.energy != nil {
		records = b.energy.Annotate(records, start)
	}

	snap.Records = records
	took := b.now().Sub(start)
	b.log.Debug().
		Uint64("seq", snap.Seq).
		Int("enumerated", len(pids)).
		Int("records", len(records)).
		Int("skipped", snap.Skipped).
		Dur("took", took).
		Msg("Snapshot built")
	b.obs.SnapshotBuilt(snap, took)
	return snap
}

// enumerate lists pids, turning an enumerator panic into an error.
func (b *Builder) enumerate(ctx context.Context) (pids []int32, err error) {
	defer func() {
		if r := recover(); r != nil {
			pids, err = nil, fmt.Errorf("%w: %v", ErrEnumeratorPanic, r)
		}
	}()
	return b.enum.Pids(ctx)
}

// runBatch probes every pid of one batch concurrently and returns the
// merged records in batch order, dropping pids no probe could read.
func (b *Builder) runBatch(ctx context.Context, pids []int32) []process.Record {
	b.obs.BatchStarted(len(pids))

	recs := make([]process.Record, len(pids))
	found := make([]bool, len(pids))

	var wg sync.WaitGroup
	for i, pid := range pids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			recs[i], found[i] = b.collect(ctx, pid)
		}()
	}
	wg.Wait()

	out := recs[:0]
	for i, r := range recs {
		if found[i] {
			out = append(out, r)
		}
	}
	return out
}

// collect runs all probes for pid concurrently and merges their results in
// probe order over the seed record.
func (b *Builder) collect(ctx context.Context, pid int32) (process.Record, bool) {
	parts := make([]process.Record, len(b.probes))
	ok := make([]bool, len(b.probes))

	var wg sync.WaitGroup
	for i, p := range b.probes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			parts[i], ok[i] = b.safeProbe(ctx, p, pid)
		}()
	}
	wg.Wait()

	rec := process.Seed(pid)
	seen := false
	for i := range parts {
		if !ok[i] {
			b.obs.ProbeMissed(b.probes[i].Name())
			continue
		}
		seen = true
		rec = process.Merge(rec, parts[i])
	}
	return rec, seen
}

// safeProbe runs p, turning a panic into absence.
func (b *Builder) safeProbe(ctx context.Context, p probe.Probe, pid int32) (rec process.Record, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Warn().
				Str("probe", p.Name()).
				Int("pid", int(pid)).
				Interface("panic", r).
				Msg("Probe panicked, treating as absent")
			rec, ok = process.Record{}, false
		}
	}()
	return p.Probe(ctx, pid)
}

func (b *Builder) retain(alive []int32) {
	for _, p := range b.probes {
		if r, ok := p.(probe.Retainer); ok {
			r.Retain(alive)
		}
	}
}

// withConnections fills connection counts from one system-wide scan bounded
// by the network budget. Only pids the scan attributed sockets to get a
// count; the rest stay absent, as do all counts when the scan fails or runs
// out of time.
func (b *Builder) withConnections(ctx context.Context, records []process.Record) []process.Record {
	counts, ok := util.RunWithDeadline(ctx, b.cfg.NetworkBudget, func(ctx context.Context) (map[int32]int, bool) {
		m, err := b.conns.Count(ctx)
		if err != nil {
			b.log.Debug().Err(err).Msg("Connection scan failed")
			return nil, false
		}
		return m, true
	})
	if !ok {
		b.log.Debug().Dur("budget", b.cfg.NetworkBudget).Msg("Connection counts omitted")
		return records
	}

	out := make([]process.Record, len(records))
	for i, r := range records {
		n, ok := counts[r.PID]
		if !ok {
			out[i] = r
			continue
		}
		out[i] = process.Merge(r, process.Record{Connections: process.Some(n)})
	}
	return out
}
