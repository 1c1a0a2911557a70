package probe

import (
	"context"

	"github.com/ja7ad/procwatch/pkg/process"
	gprocess "github.com/shirou/gopsutil/v4/process"
)

// Task reads low-level task counters: CPU time split, virtual and shared
// memory, page faults, open descriptors and I/O bytes. Most of these are
// only readable for the caller's own processes unless running elevated, so
// the probe is normally added to the set only when Elevated reports true.
type Task struct{}

func NewTask() *Task { return &Task{} }

func (*Task) Name() string { return "task" }

func (*Task) Probe(ctx context.Context, pid int32) (process.Record, bool) {
	r := process.Record{PID: pid}
	got := platformTask(ctx, pid, &r)

	if p, err := gprocess.NewProcessWithContext(ctx, pid); err == nil {
		if n, err := p.NumFDsWithContext(ctx); err == nil {
			r.FDs = process.Some(n)
			got = true
		}
	}
	return r, got
}
