package engine

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Paintersrp/sma/internal/metrics"
	"github.com/Paintersrp/sma/internal/proctree"
)

// TeardownReport is the outcome of a TerminationPolicy pass.
type TeardownReport struct {
	// States maps command index to the state each process was left in.
	States map[int]ProcessState
	// Descendants lists the pids killed by the cascade sweep, in kill order.
	Descendants []int
	Failures    []error
}

// Err returns the collected failures as a *TeardownError, or nil.
func (r TeardownReport) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	return &TeardownError{Failures: append([]error(nil), r.Failures...)}
}

// TerminationPolicy decides which processes to terminate and in what order.
// Failures are recorded per process and never stop the remaining attempts.
type TerminationPolicy struct {
	Scanner  proctree.Scanner
	Signaler proctree.Signaler
	// Grace is handed to Process.Terminate for spawned processes.
	Grace time.Duration

	emit emitter
}

// Direct terminates every process in procs that is still running. Processes
// that already exited are skipped without error.
func (t *TerminationPolicy) Direct(ctx context.Context, procs []Process) TeardownReport {
	report := TeardownReport{States: make(map[int]ProcessState, len(procs))}
	t.direct(ctx, procs, &report)
	return report
}

// Cascade terminates procs and everything descended from them.
//
// The descendant set is computed from a snapshot taken before any kill, since
// killing a parent orphans its children and erases the links. Spawned
// processes are then terminated directly, and a second snapshot decides which
// descendants are still alive. A descendant whose start time changed between
// the two snapshots is a recycled pid and is left alone. Processes forked
// after the first snapshot are not covered.
func (t *TerminationPolicy) Cascade(ctx context.Context, procs []Process) TeardownReport {
	report := TeardownReport{States: make(map[int]ProcessState, len(procs))}

	roots := make([]int, 0, len(procs))
	for _, proc := range procs {
		if !proc.Exited() {
			roots = append(roots, proc.PID())
		}
	}

	var (
		before *proctree.Snapshot
		set    proctree.DescendantSet
	)
	if len(roots) > 0 {
		snap, err := t.scan(ctx)
		if err != nil {
			report.Failures = append(report.Failures, err)
			t.emit.send(levelError, -1, 0, EventTypeError, "descendant sweep skipped", err)
		} else {
			before = snap
			set = proctree.Descendants(snap, roots)
			t.emit.send(levelDebug, -1, 0, EventTypeScanned,
				fmt.Sprintf("found %d descendant(s) in %d layer(s) among %d processes", set.Len(), len(set.Layers), snap.Len()), nil)
		}
	}

	t.direct(ctx, procs, &report)

	if set.Len() == 0 {
		return report
	}

	after, err := t.scan(ctx)
	if err != nil {
		report.Failures = append(report.Failures, err)
		t.emit.send(levelError, -1, 0, EventTypeError, "descendant sweep skipped", err)
		return report
	}

	signaler := t.Signaler
	if signaler == nil {
		signaler = proctree.SystemSignaler{}
	}
	for _, layer := range set.Layers {
		for _, pid := range layer {
			was, _ := before.Lookup(pid)
			now, alive := after.Lookup(pid)
			if !alive || !now.StartTime.Equal(was.StartTime) {
				t.emit.send(levelDebug, -1, pid, EventTypeSkipped, "descendant already gone", nil)
				continue
			}
			if err := signaler.Kill(ctx, pid); err != nil {
				metrics.IncrementKillFailure(metrics.KindDescendant)
				killErr := &KillError{PID: pid, Index: -1, Err: err}
				report.Failures = append(report.Failures, killErr)
				t.emit.send(levelError, -1, pid, EventTypeError, "kill failed", killErr)
				continue
			}
			metrics.IncrementKilled(metrics.KindDescendant)
			report.Descendants = append(report.Descendants, pid)
			t.emit.send(levelInfo, -1, pid, EventTypeKilled, fmt.Sprintf("killed descendant [%d] %s", pid, now.Name), nil)
		}
	}
	return report
}

func (t *TerminationPolicy) direct(ctx context.Context, procs []Process, report *TeardownReport) {
	for _, proc := range procs {
		index, pid := proc.Index(), proc.PID()
		if proc.Exited() {
			report.States[index] = StateExited
			t.emit.send(levelDebug, index, pid, EventTypeSkipped, "already exited", nil)
			continue
		}

		report.States[index] = StateKillRequested
		t.emit.send(levelInfo, index, pid, EventTypeStopping, "stopping "+proc.Program(), nil)
		if err := proc.Terminate(ctx, t.Grace); err != nil {
			metrics.IncrementKillFailure(metrics.KindChild)
			killErr := &KillError{PID: pid, Index: index, Err: err}
			report.Failures = append(report.Failures, killErr)
			t.emit.send(levelError, index, pid, EventTypeError, "kill failed", killErr)
			continue
		}
		metrics.IncrementKilled(metrics.KindChild)
		report.States[index] = StateTerminated
		t.emit.send(levelInfo, index, pid, EventTypeKilled, "stopped "+proc.Program(), nil)
	}
}

func (t *TerminationPolicy) scan(ctx context.Context) (*proctree.Snapshot, error) {
	scanner := t.Scanner
	if scanner == nil {
		scanner = proctree.SystemScanner{}
	}
	start := time.Now()
	snap, err := scanner.Scan(ctx)
	metrics.ObserveScanDuration(time.Since(start))
	if err != nil {
		return nil, &ScanError{PID: os.Getpid(), Err: err}
	}
	return snap, nil
}
