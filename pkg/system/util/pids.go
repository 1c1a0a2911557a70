package util

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxPIDRange is the widest "A..B" range ParsePIDs accepts.
const MaxPIDRange = 4096

var (
	// ErrBadPID is returned by ParsePIDs for malformed or non-positive ids.
	ErrBadPID = errors.New("util: invalid pid")
	// ErrPIDRange is returned by ParsePIDs for ranges wider than MaxPIDRange.
	ErrPIDRange = errors.New("util: pid range too wide")
)

// ParsePIDs parses command-line pid arguments. Each argument is a single
// pid or an inclusive range written as "A..B" of at most MaxPIDRange ids.
// Duplicates are dropped and the input order is preserved.
func ParsePIDs(args []string) ([]int32, error) {
	seen := make(map[int32]struct{})
	var out []int32
	add := func(p int64) {
		pid := int32(p)
		if _, ok := seen[pid]; ok {
			return
		}
		seen[pid] = struct{}{}
		out = append(out, pid)
	}

	for _, a := range args {
		a = strings.TrimSpace(a)
		if lo, hi, ok := strings.Cut(a, ".."); ok {
			from, err1 := strconv.ParseInt(lo, 10, 32)
			to, err2 := strconv.ParseInt(hi, 10, 32)
			if err1 != nil || err2 != nil || from <= 0 || to < from {
				return nil, fmt.Errorf("%w: %q", ErrBadPID, a)
			}
			if to-from >= MaxPIDRange {
				return nil, fmt.Errorf("%w: %q spans more than %d pids", ErrPIDRange, a, MaxPIDRange)
			}
			for p := from; p <= to; p++ {
				add(p)
			}
			continue
		}
		p, err := strconv.ParseInt(a, 10, 32)
		if err != nil || p <= 0 {
			return nil, fmt.Errorf("%w: %q", ErrBadPID, a)
		}
		add(p)
	}
	return out, nil
}
