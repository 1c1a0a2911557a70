// Package proc reads per-process accounting straight from Linux procfs.
//
// It backs the Linux side of the probes in pkg/probe where gopsutil either
// does not expose a field (priority, session, shared pages, rchar/wchar) or
// would read the same file several times for one record.
//
// Readers
//
//   - ReadStat:  /proc/<pid>/stat   state, ppid, pgrp, session, faults,
//     utime/stime (ticks), priority, nice, threads, start time
//   - ReadStatm: /proc/<pid>/statm  size, resident, shared (bytes)
//   - ReadIO:    /proc/<pid>/io     rchar, wchar, read_bytes, write_bytes
//
// Every reader returns the underlying open/read error untouched when the
// file is missing (the process exited) or unreadable (permission), so
// callers can use errors.Is(err, fs.ErrNotExist) / fs.ErrPermission.
//
// ClockTicks and PageSize honor CLK_TCK and PAGE_SIZE env overrides.
package proc
