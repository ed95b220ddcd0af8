package engine

import (
	"errors"
	"fmt"
	"strings"
)

// Phase names the stage of a run that produced an error.
type Phase string

const (
	PhaseParse Phase = "parse"
	PhaseSpawn Phase = "spawn"
	PhaseWait  Phase = "wait"
	PhaseKill  Phase = "kill"
	PhaseScan  Phase = "scan"
)

// ParseError reports a command that could not be split into words. Nothing
// is spawned once a ParseError occurs.
type ParseError struct {
	Index   int
	Command string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("start[%d] %q: %v", e.Index, e.Command, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Phase implements PhaseError.
func (e *ParseError) Phase() Phase { return PhaseParse }

// SpawnError reports a command the operating system refused to start.
// Processes spawned before it keep running.
type SpawnError struct {
	Index   int
	Program string
	Err     error
	// Hint carries an operator facing suggestion, if any.
	Hint string
}

func (e *SpawnError) Error() string {
	msg := fmt.Sprintf("start[%d]: spawn %s: %v", e.Index, e.Program, e.Err)
	if e.Hint != "" {
		msg += "\n\nHint: " + e.Hint
	}
	return msg
}

func (e *SpawnError) Unwrap() error { return e.Err }

// Phase implements PhaseError.
func (e *SpawnError) Phase() Phase { return PhaseSpawn }

// WaitError reports a failure of the wait on the designated process. A
// process exiting with a non-zero status is not a WaitError.
type WaitError struct {
	Index int
	PID   int
	Err   error
}

func (e *WaitError) Error() string {
	return fmt.Sprintf("start[%d]: wait on pid %d: %v", e.Index, e.PID, e.Err)
}

func (e *WaitError) Unwrap() error { return e.Err }

// Phase implements PhaseError.
func (e *WaitError) Phase() Phase { return PhaseWait }

// KillError reports a single failed termination attempt.
type KillError struct {
	PID int
	// Index is the originating command for spawned processes and -1 for
	// descendants found by a scan.
	Index int
	Err   error
}

func (e *KillError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("start[%d]: kill pid %d: %v", e.Index, e.PID, e.Err)
	}
	return fmt.Sprintf("kill descendant pid %d: %v", e.PID, e.Err)
}

func (e *KillError) Unwrap() error { return e.Err }

// Phase implements PhaseError.
func (e *KillError) Phase() Phase { return PhaseKill }

// ScanError reports a failed enumeration of the process table. The
// descendant sweep it would have fed is skipped.
type ScanError struct {
	// PID is the supervisor's own pid, the scan's point of reference.
	PID int
	Err error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan process table from pid %d: %v", e.PID, e.Err)
}

func (e *ScanError) Unwrap() error { return e.Err }

// Phase implements PhaseError.
func (e *ScanError) Phase() Phase { return PhaseScan }

// PhaseError is implemented by every error a run returns.
type PhaseError interface {
	error
	Phase() Phase
}

// TeardownError collects every failure of a teardown. Teardown keeps going
// past individual failures, so there may be several.
type TeardownError struct {
	Failures []error
}

func (e *TeardownError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, err := range e.Failures {
		parts = append(parts, err.Error())
	}
	return fmt.Sprintf("teardown finished with %d failure(s):\n  %s", len(e.Failures), strings.Join(parts, "\n  "))
}

func (e *TeardownError) Unwrap() []error { return e.Failures }

// PhaseOf returns the phase of the first PhaseError found in err's chain.
func PhaseOf(err error) (Phase, bool) {
	var pe PhaseError
	if errors.As(err, &pe) {
		return pe.Phase(), true
	}
	return "", false
}
