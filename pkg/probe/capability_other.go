//go:build !unix

package probe

import (
	"errors"
	"fmt"
	"os"
)

func Elevated() bool { return false }

// Terminate kills pid. A process that is already gone counts as terminated.
func Terminate(pid int32) error {
	if pid <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPID, pid)
	}
	p, err := os.FindProcess(int(pid))
	if err != nil {
		return nil
	}
	if err := p.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill %d: %w", pid, err)
	}
	return nil
}
