//go:build unix

package probe

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// Elevated reports whether the process runs with root privileges, which the
// deep task probe needs to read other users' processes.
func Elevated() bool { return unix.Geteuid() == 0 }

// Terminate sends SIGKILL to pid. A process that is already gone counts as
// terminated.
func Terminate(pid int32) error {
	if pid <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPID, pid)
	}
	if err := unix.Kill(int(pid), unix.SIGKILL); err != nil {
		if errors.Is(err, unix.ESRCH) {
			return nil
		}
		return fmt.Errorf("kill %d: %w", pid, err)
	}
	return nil
}
