//go:build windows

package spawner

import "os/exec"

// setupProcessGroup is a no-op on Windows; cancellation falls back to
// killing the shell process only.
func setupProcessGroup(cmd *exec.Cmd) {}
