//go:build unix

package process

import (
	"errors"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

func configureCmdSysProcAttr(cmd *exec.Cmd, mode SpawnMode) {
	if mode == Detached {
		cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	}
}

func (p *Process) interrupt() error {
	if err := p.cmd.Process.Signal(unix.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}
