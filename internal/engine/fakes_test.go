package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Paintersrp/sma/internal/command"
	"github.com/Paintersrp/sma/internal/proctree"
	"github.com/Paintersrp/sma/internal/runtime/process"
)

// recorder keeps the order of side effects across fakes.
type recorder struct {
	mu    sync.Mutex
	steps []string
}

func (r *recorder) add(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, fmt.Sprintf(format, args...))
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.steps...)
}

type fakeProcess struct {
	index   int
	pid     int
	program string

	exited   bool
	exitCode int
	waitErr  error
	termErr  error

	waits      int
	terminates int
	grace      time.Duration
	ctxErr     error
	rec        *recorder
}

func (p *fakeProcess) Index() int      { return p.index }
func (p *fakeProcess) PID() int        { return p.pid }
func (p *fakeProcess) Program() string { return p.program }
func (p *fakeProcess) Exited() bool    { return p.exited }
func (p *fakeProcess) ExitCode() int   { return p.exitCode }

func (p *fakeProcess) Wait() error {
	p.waits++
	if p.waitErr != nil {
		return p.waitErr
	}
	p.exited = true
	return nil
}

func (p *fakeProcess) Terminate(ctx context.Context, grace time.Duration) error {
	p.terminates++
	p.grace = grace
	p.ctxErr = ctx.Err()
	if p.rec != nil {
		p.rec.add("terminate %d", p.pid)
	}
	if p.termErr != nil {
		return p.termErr
	}
	p.exited = true
	return nil
}

type fakeSpawner struct {
	rec *recorder
	// configure adjusts a process before it is handed out.
	configure func(*fakeProcess)
	fail      map[int]error

	procs []*fakeProcess
	calls []command.Parsed
	opts  []process.SpawnOptions
}

func (s *fakeSpawner) Spawn(index int, cmd command.Parsed, opts process.SpawnOptions) (Process, error) {
	s.calls = append(s.calls, cmd)
	s.opts = append(s.opts, opts)
	if err := s.fail[index]; err != nil {
		return nil, err
	}
	proc := &fakeProcess{index: index, pid: 100 + index, program: cmd.Program, rec: s.rec}
	if s.configure != nil {
		s.configure(proc)
	}
	s.procs = append(s.procs, proc)
	return proc, nil
}

type fakeScanner struct {
	snaps []*proctree.Snapshot
	errs  []error
	calls int
	rec   *recorder
}

func (s *fakeScanner) Scan(ctx context.Context) (*proctree.Snapshot, error) {
	i := s.calls
	s.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.rec != nil {
		s.rec.add("scan %d", s.calls)
	}
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	if i >= len(s.snaps) {
		return nil, errors.New("unexpected scan")
	}
	return s.snaps[i], nil
}

type fakeSignaler struct {
	rec    *recorder
	fail   map[int]error
	killed []int
}

func (s *fakeSignaler) Kill(ctx context.Context, pid int) error {
	if s.rec != nil {
		s.rec.add("kill %d", pid)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.fail[pid]; err != nil {
		return err
	}
	s.killed = append(s.killed, pid)
	return nil
}
