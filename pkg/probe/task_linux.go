//go:build linux

package probe

import (
	"context"

	"github.com/ja7ad/procwatch/pkg/process"
	"github.com/ja7ad/procwatch/pkg/system/proc"
	"github.com/ja7ad/procwatch/pkg/types"
)

// platformTask reads /proc/<pid>/{stat,statm,io}. Major faults are the
// closest procfs has to page-ins; there is no page-out counter per process.
func platformTask(_ context.Context, pid int32, r *process.Record) bool {
	got := false

	if st, err := proc.ReadStat(int(pid)); err == nil {
		hz := float64(proc.ClockTicks())
		r.CPUUser = process.Some(float64(st.UTime) / hz)
		r.CPUSystem = process.Some(float64(st.STime) / hz)
		r.PageFaults = process.Some(st.MinFlt + st.MajFlt)
		r.PageIns = process.Some(st.MajFlt)
		got = true
	}
	if m, err := proc.ReadStatm(int(pid)); err == nil {
		r.VMS = process.Some(m.Size)
		r.Shared = process.Some(m.Shared)
		got = true
	}
	if io, err := proc.ReadIO(int(pid)); err == nil {
		r.BytesRead = process.Some(types.Bytes(io.RChar))
		r.BytesWritten = process.Some(types.Bytes(io.WChar))
		r.DiskRead = process.Some(types.Bytes(io.ReadBytes))
		r.DiskWritten = process.Some(types.Bytes(io.WriteBytes))
		got = true
	}
	return got
}
