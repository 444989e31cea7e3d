//go:build unix

package process

import (
	"errors"
	"os/exec"
	"syscall"
)

// setProcAttr starts the child in its own process group so wrapper scripts
// and their children can be killed together.
func setProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killGroup sends SIGKILL to the process group led by pid.
func killGroup(pid int) error {
	err := syscall.Kill(-pid, syscall.SIGKILL)
	if errors.Is(err, syscall.ESRCH) {
		return killPID(pid)
	}
	return err
}

// killPID sends SIGKILL to pid. A process that is already gone is not an
// error.
func killPID(pid int) error {
	err := syscall.Kill(pid, syscall.SIGKILL)
	if errors.Is(err, syscall.ESRCH) {
		return nil
	}
	return err
}
