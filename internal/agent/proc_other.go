//go:build !unix

package agent

import (
	"os/exec"
	"time"
)

func configureProcess(cmd *exec.Cmd, grace time.Duration) {
	cmd.WaitDelay = max(grace, minWaitDelay)
}

func killGroup(*exec.Cmd) error {
	return nil
}
