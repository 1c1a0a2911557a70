//go:build !linux

package probe

import (
	"context"

	"github.com/ja7ad/procwatch/pkg/process"
	"github.com/ja7ad/procwatch/pkg/types"
	gprocess "github.com/shirou/gopsutil/v4/process"
)

func platformTask(ctx context.Context, pid int32, r *process.Record) bool {
	p, err := gprocess.NewProcessWithContext(ctx, pid)
	if err != nil {
		return false
	}
	got := false

	if ts, err := p.TimesWithContext(ctx); err == nil && ts != nil {
		r.CPUUser = process.Some(ts.User)
		r.CPUSystem = process.Some(ts.System)
		got = true
	}
	if mem, err := p.MemoryInfoWithContext(ctx); err == nil && mem != nil {
		r.VMS = process.Some(types.Bytes(mem.VMS))
		got = true
	}
	if pf, err := p.PageFaultsWithContext(ctx); err == nil && pf != nil {
		r.PageFaults = process.Some(pf.MinorFaults + pf.MajorFaults)
		r.PageIns = process.Some(pf.MajorFaults)
		got = true
	}
	if io, err := p.IOCountersWithContext(ctx); err == nil && io != nil {
		r.DiskRead = process.Some(types.Bytes(io.ReadBytes))
		r.DiskWritten = process.Some(types.Bytes(io.WriteBytes))
		got = true
	}
	return got
}
