//go:build linux

package proc

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ja7ad/procwatch/pkg/types"
)

// root is the procfs mount point. Tests point it at testdata.
var root = "/proc"

// ClockTicks returns the number of jiffies (clock ticks) per second.
// It first checks the env var CLK_TCK (useful for testing), otherwise
// falls back to 100 (common default).
//
// Note: On real systems, the authoritative way is `sysconf(_SC_CLK_TCK)`,
// but calling that requires cgo. For portability in a pure-Go library,
// this simplified approach is acceptable.
func ClockTicks() int {
	v, _ := strconv.Atoi(os.Getenv("CLK_TCK"))
	if v > 0 {
		return v
	}
	return 100
}

// PageSize returns the system memory page size in bytes.
// Like ClockTicks, it first checks an env override (PAGE_SIZE)
// to ease testing, then falls back to os.Getpagesize().
func PageSize() int {
	if ps := os.Getenv("PAGE_SIZE"); ps != "" {
		if v, _ := strconv.Atoi(ps); v > 0 {
			return v
		}
	}
	return os.Getpagesize()
}

func pidPath(pid int, elem ...string) string {
	return filepath.Join(append([]string{root, strconv.Itoa(pid)}, elem...)...)
}

// Stat holds the fields of /proc/<pid>/stat used by the probes.
// Times are in clock ticks, see ClockTicks.
type Stat struct {
	State     string
	PPID      int
	PGRP      int
	Session   int
	MinFlt    uint64
	MajFlt    uint64
	UTime     uint64
	STime     uint64
	Priority  int64
	Nice      int64
	Threads   int64
	StartTime uint64 // ticks after boot
}

// ReadStat parses /proc/<pid>/stat.
//
// comm (2nd field) is in parens and may contain spaces or ") ", so parsing
// starts after the last ") ". Indexes below are relative to that point:
//
//	0 state, 1 ppid, 2 pgrp, 3 session, 7 minflt, 9 majflt,
//	11 utime, 12 stime, 15 priority, 16 nice, 17 num_threads, 19 starttime
func ReadStat(pid int) (Stat, error) {
	b, err := os.ReadFile(pidPath(pid, "stat"))
	if err != nil {
		return Stat{}, err
	}
	line := strings.TrimSpace(string(b))
	if line == "" {
		return Stat{}, ErrNoStat
	}

	i := strings.LastIndex(line, ") ")
	if i < 0 {
		return Stat{}, ErrNoStat
	}
	fields := strings.Fields(line[i+2:])
	if len(fields) < 20 {
		return Stat{}, ErrShortStat
	}

	u := func(idx int) uint64 {
		v, _ := strconv.ParseUint(fields[idx], 10, 64)
		return v
	}
	n := func(idx int) int64 {
		v, _ := strconv.ParseInt(fields[idx], 10, 64)
		return v
	}

	return Stat{
		State:     fields[0],
		PPID:      int(n(1)),
		PGRP:      int(n(2)),
		Session:   int(n(3)),
		MinFlt:    u(7),
		MajFlt:    u(9),
		UTime:     u(11),
		STime:     u(12),
		Priority:  n(15),
		Nice:      n(16),
		Threads:   n(17),
		StartTime: u(19),
	}, nil
}

// IO holds /proc/<pid>/io counters. RChar/WChar count every read/write
// syscall byte; ReadBytes/WriteBytes count only bytes that hit storage.
type IO struct {
	RChar      uint64
	WChar      uint64
	ReadBytes  uint64
	WriteBytes uint64
}

// ReadIO reads /proc/<pid>/io.
//
// Note: the file is only readable for processes of the same user (or with
// CAP_SYS_PTRACE), and absent for some kernel threads.
func ReadIO(pid int) (IO, error) {
	f, err := os.Open(pidPath(pid, "io"))
	if err != nil {
		return IO{}, err
	}
	defer f.Close()

	var out IO
	found := false
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		key, val, ok := strings.Cut(sc.Text(), ":")
		if !ok {
			continue
		}
		v, err := strconv.ParseUint(strings.TrimSpace(val), 10, 64)
		if err != nil {
			continue
		}
		switch key {
		case "rchar":
			out.RChar = v
		case "wchar":
			out.WChar = v
		case "read_bytes":
			out.ReadBytes = v
		case "write_bytes":
			out.WriteBytes = v
		default:
			continue
		}
		found = true
	}
	if err := sc.Err(); err != nil {
		return IO{}, err
	}
	if !found {
		return IO{}, ErrNoIO
	}
	return out, nil
}

// Statm holds /proc/<pid>/statm sizes converted to bytes.
type Statm struct {
	Size     types.Bytes
	Resident types.Bytes
	Shared   types.Bytes
}

// ReadStatm reads /proc/<pid>/statm. Fields are page counts, in order:
// size resident shared text lib data dt.
func ReadStatm(pid int) (Statm, error) {
	b, err := os.ReadFile(pidPath(pid, "statm"))
	if err != nil {
		return Statm{}, err
	}
	fs := strings.Fields(string(b))
	if len(fs) < 3 {
		return Statm{}, fmt.Errorf("%w: statm has %d fields", ErrShortStat, len(fs))
	}
	page := PageSize()
	var out Statm
	for i, dst := range []*types.Bytes{&out.Size, &out.Resident, &out.Shared} {
		v, err := strconv.ParseUint(fs[i], 10, 64)
		if err != nil {
			return Statm{}, fmt.Errorf("statm field %d: %w", i, err)
		}
		*dst = types.FromPages(v, page)
	}
	return out, nil
}
