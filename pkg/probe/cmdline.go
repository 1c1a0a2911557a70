package probe

import (
	"context"
	"strings"
	"time"

	"github.com/ja7ad/procwatch/pkg/process"
	gprocess "github.com/shirou/gopsutil/v4/process"
)

// DefaultCmdlineTimeout bounds the command-line probe. Reading another
// process's argument area can stall on protected processes.
const DefaultCmdlineTimeout = 100 * time.Millisecond

// Cmdline reads the argument vector, executable path, working directory and
// environment.
type Cmdline struct{}

// NewCmdline returns the command-line probe bounded by timeout
// (DefaultCmdlineTimeout when timeout <= 0).
func NewCmdline(timeout time.Duration) Probe {
	if timeout <= 0 {
		timeout = DefaultCmdlineTimeout
	}
	return WithTimeout(Cmdline{}, timeout)
}

func (Cmdline) Name() string { return "cmdline" }

func (Cmdline) Probe(ctx context.Context, pid int32) (process.Record, bool) {
	p, err := gprocess.NewProcessWithContext(ctx, pid)
	if err != nil {
		return process.Record{}, false
	}

	r := process.Record{PID: pid}
	got := false

	if args, err := p.CmdlineSliceWithContext(ctx); err == nil && len(args) > 0 {
		r.Args = process.Some(args)
		got = true
	}
	if exe, err := p.ExeWithContext(ctx); err == nil && exe != "" {
		r.Exe = process.Some(exe)
		got = true
	}
	if cwd, err := p.CwdWithContext(ctx); err == nil && cwd != "" {
		r.Cwd = process.Some(cwd)
		got = true
	}
	if env, err := p.EnvironWithContext(ctx); err == nil && len(env) > 0 {
		r.Env = process.Some(envMap(env))
		got = true
	}
	return r, got
}

// envMap splits KEY=VALUE pairs. Entries without '=' are kept with an empty
// value; later duplicates win.
func envMap(env []string) map[string]string {
	m := make(map[string]string, len(env))
	for _, kv := range env {
		if kv == "" {
			continue
		}
		k, v, _ := strings.Cut(kv, "=")
		m[k] = v
	}
	return m
}
