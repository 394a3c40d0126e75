//go:build unix

package terminal

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

// setProcessGroup puts the shell in its own group so a signal reaches every
// process of a pipeline, not just the shell.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// signalGroup signals the whole group even after the shell was reaped: a
// background job keeps the group, and the output pipes, alive.
func signalGroup(p *shellProcess, sig syscall.Signal) error {
	err := syscall.Kill(-p.PID(), sig)
	if errors.Is(err, syscall.ESRCH) {
		return os.ErrProcessDone
	}
	return err
}
