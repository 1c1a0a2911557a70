package proc

import "errors"

var (
	// ErrNoStat indicates that /proc/<pid>/stat was empty or malformed.
	ErrNoStat = errors.New("proc: malformed or empty stat")

	// ErrShortStat indicates that a stat-style file had fewer fields than expected.
	ErrShortStat = errors.New("proc: short stat")

	// ErrNoIO indicates that /proc/<pid>/io had none of the expected counters.
	ErrNoIO = errors.New("proc: no io counters")
)
