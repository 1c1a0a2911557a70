package probe

import (
	"context"
	"time"

	"github.com/ja7ad/procwatch/pkg/process"
	"github.com/ja7ad/procwatch/pkg/types"
	gprocess "github.com/shirou/gopsutil/v4/process"
)

// Resource reads native accounting: resident and virtual memory, thread
// count and CPU percentage. CPU% is measured between successive snapshots;
// on first sighting it falls back to the lifetime average gopsutil reports.
type Resource struct {
	cpu *CPUTracker
	now func() time.Time
}

// NewResource returns a resource probe. smoothing is the EMA alpha applied
// to CPU readings, 0 for raw values.
func NewResource(smoothing float64) *Resource {
	return &Resource{cpu: NewCPUTracker(smoothing), now: time.Now}
}

func (*Resource) Name() string { return "resource" }

func (rs *Resource) Probe(ctx context.Context, pid int32) (process.Record, bool) {
	p, err := gprocess.NewProcessWithContext(ctx, pid)
	if err != nil {
		return process.Record{}, false
	}

	r := process.Record{PID: pid}
	got := false

	if mem, err := p.MemoryInfoWithContext(ctx); err == nil && mem != nil {
		r.RSS = process.Some(types.Bytes(mem.RSS))
		r.VMS = process.Some(types.Bytes(mem.VMS))
		got = true
	}
	if n, err := p.NumThreadsWithContext(ctx); err == nil {
		r.Threads = process.Some(n)
		got = true
	}

	if ts, err := p.TimesWithContext(ctx); err == nil && ts != nil {
		created, _ := p.CreateTimeWithContext(ctx)
		if pct, ok := rs.cpu.Observe(pid, created, ts.User+ts.System, rs.now()); ok {
			r.CPUPercent = process.Some(pct)
			got = true
		}
	}
	if !r.CPUPercent.Valid() {
		if pct, err := p.CPUPercentWithContext(ctx); err == nil {
			r.CPUPercent = process.Some(pct)
			got = true
		}
	}
	return r, got
}

// Retain forgets CPU samples of processes that have exited.
func (rs *Resource) Retain(alive []int32) { rs.cpu.Retain(alive) }
