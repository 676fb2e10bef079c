//go:build unix

package agent

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// configureProcess puts the child in its own process group so cancellation
// reaches anything it spawned, and bounds how long Wait lingers after the
// SIGTERM before the child is killed and its pipes closed.
func configureProcess(cmd *exec.Cmd, grace time.Duration) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		err := syscall.Kill(-cmd.Process.Pid, syscall.SIGTERM)
		if errors.Is(err, syscall.ESRCH) {
			return os.ErrProcessDone
		}
		return err
	}
	cmd.WaitDelay = max(grace, minWaitDelay)
}

// killGroup sends SIGKILL to whatever is left in the child's process group
// once the leader has been reaped. WaitDelay only kills the leader, and
// anything it left in the background would otherwise outlive the job.
func killGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	if err == nil || errors.Is(err, syscall.ESRCH) {
		return nil
	}
	return err
}
