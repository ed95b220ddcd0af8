//go:build !unix && !windows

package process

import (
	"errors"
	"os/exec"
)

func configureCmdSysProcAttr(*exec.Cmd, SpawnMode) {}

func (p *Process) interrupt() error {
	return errors.New("graceful stop not supported on this platform")
}
