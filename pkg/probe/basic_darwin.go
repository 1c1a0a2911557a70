//go:build darwin

package probe

import (
	"github.com/ja7ad/procwatch/pkg/process"
	"golang.org/x/sys/unix"
)

func platformBasic(pid int32, r *process.Record) bool {
	got := false
	if pg, err := unix.Getpgid(int(pid)); err == nil {
		r.PGID = process.Some(int32(pg))
		got = true
	}
	if sid, err := unix.Getsid(int(pid)); err == nil {
		r.SID = process.Some(int32(sid))
		got = true
	}
	if prio, err := unix.Getpriority(unix.PRIO_PROCESS, int(pid)); err == nil {
		r.Priority = process.Some(int32(prio))
		got = true
	}
	return got
}
