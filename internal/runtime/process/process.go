package process

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/Paintersrp/sma/internal/command"
)

// SpawnMode selects whether a child stays tied to the supervisor's console
// and process group.
type SpawnMode int

const (
	// Detached children do not inherit the supervisor's streams or group.
	Detached SpawnMode = iota
	// Attached children inherit the supervisor's streams and group.
	Attached
)

func (m SpawnMode) String() string {
	switch m {
	case Attached:
		return "attached"
	case Detached:
		return "detached"
	default:
		return fmt.Sprintf("SpawnMode(%d)", int(m))
	}
}

// SpawnOptions controls how a single command is launched.
type SpawnOptions struct {
	Mode SpawnMode
	// Dir is the child's working directory. Empty keeps the supervisor's.
	Dir string
	// Env replaces the inherited environment when non-nil.
	Env []string
}

// Spawner starts parsed commands as child processes.
type Spawner struct{}

// NewSpawner constructs a Spawner for the host platform.
func NewSpawner() *Spawner {
	return &Spawner{}
}

// Spawn starts cmd and returns an owned handle tagged with index.
func (s *Spawner) Spawn(index int, cmd command.Parsed, opts SpawnOptions) (*Process, error) {
	if cmd.Program == "" {
		return nil, command.ErrEmptyProgram
	}

	c := exec.Command(cmd.Program, cmd.Args...)
	c.Dir = opts.Dir
	if opts.Env != nil {
		c.Env = opts.Env
	}
	if opts.Mode == Attached {
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
	}
	configureCmdSysProcAttr(c, opts.Mode)

	if err := c.Start(); err != nil {
		return nil, err
	}

	p := &Process{
		index:    index,
		program:  cmd.Program,
		cmd:      c,
		waitDone: make(chan struct{}),
	}
	go func() {
		p.waitErr = c.Wait()
		close(p.waitDone)
	}()
	return p, nil
}

// Process is an owned handle on one spawned child.
type Process struct {
	index   int
	program string
	cmd     *exec.Cmd

	waitDone chan struct{}
	waitErr  error
}

// Index returns the position of the originating command.
func (p *Process) Index() int { return p.index }

// PID returns the operating system process id.
func (p *Process) PID() int { return p.cmd.Process.Pid }

// Program returns the executable the process was started from.
func (p *Process) Program() string { return p.program }

// Exited reports without blocking whether the process has been reaped.
func (p *Process) Exited() bool {
	select {
	case <-p.waitDone:
		return true
	default:
		return false
	}
}

// Wait blocks until the process exits. A non-zero exit status is not an
// error; only a failure of the wait itself is returned.
func (p *Process) Wait() error {
	<-p.waitDone
	return p.exitError()
}

// ExitCode returns the exit status, or -1 while running or when the process
// was ended by a signal.
func (p *Process) ExitCode() int {
	if !p.Exited() || p.cmd.ProcessState == nil {
		return -1
	}
	return p.cmd.ProcessState.ExitCode()
}

func (p *Process) exitError() error {
	var exitErr *exec.ExitError
	if p.waitErr == nil || errors.As(p.waitErr, &exitErr) {
		return nil
	}
	return p.waitErr
}

// Terminate ends the process. With a zero grace period the process is killed
// outright; otherwise it is asked to stop and killed once grace elapses or ctx
// is done. A process that has already exited is left alone and reported as
// success.
func (p *Process) Terminate(ctx context.Context, grace time.Duration) error {
	if p.Exited() {
		return nil
	}

	// A failed polite signal falls through to the kill.
	if grace > 0 && p.interrupt() == nil {
		timer := time.NewTimer(grace)
		defer timer.Stop()
		select {
		case <-p.waitDone:
			return nil
		case <-timer.C:
		case <-ctx.Done():
		}
	}

	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill process %d: %w", p.PID(), err)
	}
	return nil
}
