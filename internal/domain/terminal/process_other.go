//go:build !unix

package terminal

import (
	"os/exec"
	"syscall"
)

func setProcessGroup(*exec.Cmd) {}

// Without process groups the best available is killing the shell itself.
func signalGroup(p *shellProcess, _ syscall.Signal) error {
	if p.exited() {
		return nil
	}
	return p.cmd.Process.Kill()
}
