package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Paintersrp/sma/internal/command"
	"github.com/Paintersrp/sma/internal/config"
	"github.com/Paintersrp/sma/internal/metrics"
	"github.com/Paintersrp/sma/internal/proctree"
	"github.com/Paintersrp/sma/internal/runtime/process"
)

const backslashHint = `the command contains "\", which is an escape character in command strings. ` +
	`Use "/" as the path separator, or quote the path.`

// Process is the handle the supervisor keeps for each spawned child.
type Process interface {
	Index() int
	PID() int
	Program() string
	// Exited reports without blocking whether the process has exited.
	Exited() bool
	// Wait blocks until exit. Only a failure of the wait itself is an error.
	Wait() error
	ExitCode() int
	Terminate(ctx context.Context, grace time.Duration) error
}

// Spawner launches one parsed command.
type Spawner interface {
	Spawn(index int, cmd command.Parsed, opts process.SpawnOptions) (Process, error)
}

type localSpawner struct {
	spawner *process.Spawner
}

func (l localSpawner) Spawn(index int, cmd command.Parsed, opts process.SpawnOptions) (Process, error) {
	proc, err := l.spawner.Spawn(index, cmd, opts)
	if err != nil {
		return nil, err
	}
	return proc, nil
}

// ProcessState is the last observed lifecycle state of a spawned process.
type ProcessState string

const (
	StateSpawned       ProcessState = "spawned"
	StateRunning       ProcessState = "running"
	StateWaited        ProcessState = "waited"
	StateExited        ProcessState = "exited"
	StateKillRequested ProcessState = "kill_requested"
	StateTerminated    ProcessState = "terminated"
)

// ProcessResult summarises one spawned process at the end of a run.
type ProcessResult struct {
	Index   int
	PID     int
	Program string
	State   ProcessState
	// ExitCode is only meaningful for the designated process.
	ExitCode int
}

// Result describes a completed or aborted run.
type Result struct {
	RunID     string
	Processes []ProcessResult
	// WaitedIndex is the designated process, or -1 when the run did not wait.
	WaitedIndex int
	// Descendants lists the pids killed by a cascade sweep.
	Descendants []int
}

// Supervisor runs a validated launch spec: it spawns every command, waits on
// the designated one and tears the rest down.
//
// A Supervisor is not safe for concurrent runs.
type Supervisor struct {
	spawner  Spawner
	scanner  proctree.Scanner
	signaler proctree.Signaler
	mode     process.SpawnMode
	grace    time.Duration
	events   chan<- Event
	verbose  bool
	runID    string
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithSpawner replaces the local process spawner.
func WithSpawner(s Spawner) Option {
	return func(sup *Supervisor) { sup.spawner = s }
}

// WithScanner replaces the process table scanner used by cascade teardown.
func WithScanner(s proctree.Scanner) Option {
	return func(sup *Supervisor) { sup.scanner = s }
}

// WithSignaler replaces the pid killer used for descendants.
func WithSignaler(s proctree.Signaler) Option {
	return func(sup *Supervisor) { sup.signaler = s }
}

// WithSpawnMode selects attached or detached children.
func WithSpawnMode(mode process.SpawnMode) Option {
	return func(sup *Supervisor) { sup.mode = mode }
}

// WithGracePeriod makes teardown ask spawned processes to stop and wait up to
// d before killing them. Zero kills immediately.
func WithGracePeriod(d time.Duration) Option {
	return func(sup *Supervisor) { sup.grace = d }
}

// WithEvents delivers lifecycle events to ch. The caller must keep draining
// ch for the duration of Run.
func WithEvents(ch chan<- Event) Option {
	return func(sup *Supervisor) { sup.events = ch }
}

// WithVerbose enables debug level events.
func WithVerbose(v bool) Option {
	return func(sup *Supervisor) { sup.verbose = v }
}

// WithRunID fixes the run id stamped on events instead of generating one.
func WithRunID(id string) Option {
	return func(sup *Supervisor) { sup.runID = id }
}

// NewSupervisor constructs a Supervisor for the host platform.
func NewSupervisor(opts ...Option) *Supervisor {
	sup := &Supervisor{
		spawner:  localSpawner{spawner: process.NewSpawner()},
		scanner:  proctree.SystemScanner{},
		signaler: proctree.SystemSignaler{},
		mode:     process.Detached,
	}
	for _, opt := range opts {
		opt(sup)
	}
	return sup
}

// Run executes spec. Parsing and spawning fail fast: the first bad command
// aborts the run and processes already spawned are left running. Without a
// designated index Run returns as soon as everything is spawned. Otherwise it
// blocks until the designated process exits, which is not cancellable, and
// then terminates every other process. Teardown runs to completion even if ctx
// is cancelled; only ctx's values are carried over.
//
// Teardown failures are returned as a *TeardownError together with a
// populated Result.
func (s *Supervisor) Run(ctx context.Context, spec *config.Validated) (*Result, error) {
	if !spec.Checked() {
		return nil, errors.New("run: launch spec was not produced by config.Validate")
	}

	runID := s.runID
	if runID == "" {
		runID = uuid.NewString()
	}
	emit := emitter{events: s.events, runID: runID, verbose: s.verbose}

	commands := spec.Commands()
	parsed, err := parseAll(commands)
	if err != nil {
		emit.send(levelError, err.Index, 0, EventTypeError, "command could not be parsed", err)
		return nil, err
	}

	opts := process.SpawnOptions{Mode: s.mode}
	if dir, ok := spec.WorkingDirectory(); ok {
		opts.Dir = dir
	}

	result := &Result{RunID: runID, WaitedIndex: -1}
	procs := make([]Process, 0, len(parsed))
	for i, cmd := range parsed {
		emit.send(levelDebug, i, 0, EventTypeSpawning, fmt.Sprintf("spawning %s (%s)", cmd, s.mode), nil)
		proc, err := s.spawner.Spawn(i, cmd, opts)
		if err != nil {
			metrics.IncrementSpawnFailure()
			spawnErr := &SpawnError{Index: i, Program: cmd.Program, Err: err}
			if command.HasBackslash(commands[i]) {
				spawnErr.Hint = backslashHint
			}
			emit.send(levelError, i, 0, EventTypeError, "spawn failed", spawnErr)
			return result, spawnErr
		}
		metrics.IncrementSpawned()
		procs = append(procs, proc)
		result.Processes = append(result.Processes, ProcessResult{
			Index:    i,
			PID:      proc.PID(),
			Program:  cmd.Program,
			State:    StateSpawned,
			ExitCode: -1,
		})
		emit.send(levelInfo, i, proc.PID(), EventTypeSpawned, "spawned "+cmd.Program, nil)
	}

	index, ok := spec.ExitOn()
	if !ok {
		for i := range result.Processes {
			result.Processes[i].State = StateRunning
		}
		emit.send(levelInfo, -1, 0, EventTypeCompleted, fmt.Sprintf("%d process(es) left running", len(procs)), nil)
		return result, nil
	}

	target := procs[index]
	emit.send(levelInfo, index, target.PID(), EventTypeWaiting, "waiting for "+target.Program()+" to exit", nil)
	if err := target.Wait(); err != nil {
		waitErr := &WaitError{Index: index, PID: target.PID(), Err: err}
		emit.send(levelError, index, target.PID(), EventTypeError, "wait failed", waitErr)
		return result, waitErr
	}
	result.WaitedIndex = index
	result.Processes[index].State = StateWaited
	result.Processes[index].ExitCode = target.ExitCode()
	emit.send(levelInfo, index, target.PID(), EventTypeExited, fmt.Sprintf("exited with code %d", target.ExitCode()), nil)

	rest := make([]Process, 0, len(procs)-1)
	for _, proc := range procs {
		if proc.Index() != index {
			rest = append(rest, proc)
		}
	}

	// Teardown must finish even when the caller gave up during the wait.
	teardownCtx := context.WithoutCancel(ctx)
	policy := &TerminationPolicy{
		Scanner:  s.scanner,
		Signaler: s.signaler,
		Grace:    s.grace,
		emit:     emit,
	}
	var report TeardownReport
	if spec.CascadeKill() {
		report = policy.Cascade(teardownCtx, rest)
	} else {
		report = policy.Direct(teardownCtx, rest)
	}

	for i := range result.Processes {
		if state, ok := report.States[result.Processes[i].Index]; ok {
			result.Processes[i].State = state
		}
	}
	result.Descendants = report.Descendants

	if err := report.Err(); err != nil {
		emit.send(levelWarn, -1, 0, EventTypeCompleted, "teardown finished with failures", err)
		return result, err
	}
	emit.send(levelInfo, -1, 0, EventTypeCompleted, "teardown finished", nil)
	return result, nil
}

func parseAll(commands []string) ([]command.Parsed, *ParseError) {
	parsed := make([]command.Parsed, 0, len(commands))
	for i, text := range commands {
		cmd, err := command.Parse(text)
		if err != nil {
			return nil, &ParseError{Index: i, Command: text, Err: err}
		}
		parsed = append(parsed, cmd)
	}
	return parsed, nil
}
