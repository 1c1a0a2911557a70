//go:build unix

package probe

import (
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminate(t *testing.T) {
	cmd := exec.Command("sleep", "30")
	if err := cmd.Start(); err != nil {
		t.Skipf("cannot start sleep: %v", err)
	}
	pid := int32(cmd.Process.Pid)

	require.NoError(t, Terminate(pid))
	assert.Error(t, cmd.Wait(), "killed by signal")

	assert.NoError(t, Terminate(pid), "already gone is success")
}

func TestTerminate_InvalidPID(t *testing.T) {
	assert.ErrorIs(t, Terminate(0), ErrInvalidPID)
	assert.ErrorIs(t, Terminate(-5), ErrInvalidPID)
}
