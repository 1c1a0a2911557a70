package probe

import (
	"context"
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"github.com/ja7ad/procwatch/pkg/process"
	"github.com/ja7ad/procwatch/pkg/types"
)

type runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// PS is the legacy resource source: one `ps` invocation per pid for
// resident/virtual memory, CPU% and, where ps knows it, thread count.
type PS struct {
	bin     string
	threads bool
	run     runner
}

func NewPS() *PS {
	return &PS{bin: "ps", threads: runtime.GOOS == "linux", run: execOutput}
}

func (*PS) Name() string { return "ps" }

func (p *PS) Probe(ctx context.Context, pid int32) (process.Record, bool) {
	cols := "rss=,vsz=,%cpu="
	if p.threads {
		cols += ",nlwp="
	}
	out, err := p.run(ctx, p.bin, "-p", strconv.Itoa(int(pid)), "-o", cols)
	if err != nil {
		return process.Record{}, false
	}
	return parsePS(pid, out)
}

// parsePS reads the first line of `ps -o rss=,vsz=,%cpu=[,nlwp=]`.
// rss and vsz are in KiB.
func parsePS(pid int32, out []byte) (process.Record, bool) {
	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	fs := strings.Fields(line)
	if len(fs) < 3 {
		return process.Record{}, false
	}

	rss, err := strconv.ParseUint(fs[0], 10, 64)
	if err != nil {
		return process.Record{}, false
	}
	vsz, err := strconv.ParseUint(fs[1], 10, 64)
	if err != nil {
		return process.Record{}, false
	}

	r := process.Record{
		PID: pid,
		RSS: process.Some(types.FromKB(rss)),
		VMS: process.Some(types.FromKB(vsz)),
	}
	// some locales print the decimal comma
	if cpu, err := strconv.ParseFloat(strings.Replace(fs[2], ",", ".", 1), 64); err == nil {
		r.CPUPercent = process.Some(cpu)
	}
	if len(fs) > 3 {
		if n, err := strconv.ParseInt(fs[3], 10, 32); err == nil {
			r.Threads = process.Some(int32(n))
		}
	}
	return r, true
}
