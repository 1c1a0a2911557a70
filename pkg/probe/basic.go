package probe

import (
	"context"
	"time"

	"github.com/ja7ad/procwatch/pkg/process"
	gprocess "github.com/shirou/gopsutil/v4/process"
)

// Basic reads the OS process table: name, state, nice, uid/gid pairs, parent
// and start time, plus whatever the platform adds (priority, group, session).
//
// The user-process flag is set from the effective uid: anything not running
// as root counts as a user process.
type Basic struct{}

func NewBasic() *Basic { return &Basic{} }

func (*Basic) Name() string { return "basic" }

func (*Basic) Probe(ctx context.Context, pid int32) (process.Record, bool) {
	p, err := gprocess.NewProcessWithContext(ctx, pid)
	if err != nil {
		return process.Record{}, false
	}

	r := process.Record{PID: pid}
	got := false

	if name, err := p.NameWithContext(ctx); err == nil && name != "" {
		r.Name = name
		got = true
	}
	if st, err := p.StatusWithContext(ctx); err == nil && len(st) > 0 {
		r.State = process.ParseState(st[0])
		got = true
	}
	if n, err := p.NiceWithContext(ctx); err == nil {
		r.Nice = process.Some(n)
		got = true
	}
	if uids, err := p.UidsWithContext(ctx); err == nil && len(uids) >= 2 {
		r.RealUID = process.Some(uids[0])
		r.EffUID = process.Some(uids[1])
		r.User = process.Some(uids[1] != 0)
		got = true
	}
	if gids, err := p.GidsWithContext(ctx); err == nil && len(gids) >= 2 {
		r.RealGID = process.Some(gids[0])
		r.EffGID = process.Some(gids[1])
		got = true
	}
	if pp, err := p.PpidWithContext(ctx); err == nil {
		r.PPID = process.Some(pp)
		got = true
	}
	if ms, err := p.CreateTimeWithContext(ctx); err == nil && ms > 0 {
		r.StartTime = process.Some(time.UnixMilli(ms))
		got = true
	}

	if platformBasic(pid, &r) {
		got = true
	}
	return r, got
}
