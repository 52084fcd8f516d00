//go:build !windows

package spawner

import (
	"os/exec"
	"syscall"
)

// setupProcessGroup starts the shell in its own process group and makes
// cancellation kill the whole group, so background children die with it.
func setupProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process != nil {
			return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		}
		return nil
	}
}
