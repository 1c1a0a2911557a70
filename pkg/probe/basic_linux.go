//go:build linux

package probe

import (
	"github.com/ja7ad/procwatch/pkg/process"
	"github.com/ja7ad/procwatch/pkg/system/proc"
)

// platformBasic fills priority, process group and session from
// /proc/<pid>/stat, and the state when gopsutil had none.
func platformBasic(pid int32, r *process.Record) bool {
	st, err := proc.ReadStat(int(pid))
	if err != nil {
		return false
	}
	r.Priority = process.Some(int32(st.Priority))
	r.PGID = process.Some(int32(st.PGRP))
	r.SID = process.Some(int32(st.Session))
	if r.State == process.StateUnknown {
		r.State = process.ParseState(st.State)
	}
	return true
}
