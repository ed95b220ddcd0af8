//go:build windows

package process

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/windows"
)

func configureCmdSysProcAttr(cmd *exec.Cmd, mode SpawnMode) {
	if mode == Detached {
		cmd.SysProcAttr = &syscall.SysProcAttr{
			CreationFlags: windows.DETACHED_PROCESS | windows.CREATE_NEW_PROCESS_GROUP,
		}
	}
}

// interrupt delivers CTRL_BREAK to the child's process group. Children that
// share the supervisor's group would receive it as well, so attached children
// go straight to the kill.
func (p *Process) interrupt() error {
	if p.cmd.SysProcAttr == nil {
		return windows.ERROR_NOT_SUPPORTED
	}
	return windows.GenerateConsoleCtrlEvent(windows.CTRL_BREAK_EVENT, uint32(p.PID()))
}
