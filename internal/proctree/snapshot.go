// Package proctree captures point-in-time views of the host process table and
// derives process ancestry from them.
//
// A Snapshot is only meaningful for the instant it was taken: process ids are
// recycled and parents exit, so callers take a fresh snapshot for every
// decision instead of holding on to one.
package proctree

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

// Entry describes one process as seen at scan time.
type Entry struct {
	PID       int
	PPID      int
	StartTime time.Time
	Name      string
}

// Snapshot is an immutable mapping from process id to Entry, together with
// the entry of the process that took it.
type Snapshot struct {
	self    Entry
	entries map[int]Entry
}

// NewSnapshot builds a snapshot from explicit entries. self is added to the
// table when missing.
func NewSnapshot(self Entry, entries []Entry) *Snapshot {
	table := make(map[int]Entry, len(entries)+1)
	for _, e := range entries {
		table[e.PID] = e
	}
	if _, ok := table[self.PID]; !ok {
		table[self.PID] = self
	}
	return &Snapshot{self: self, entries: table}
}

// Self returns the scanning process's own entry.
func (s *Snapshot) Self() Entry { return s.self }

// Lookup returns the entry for pid.
func (s *Snapshot) Lookup(pid int) (Entry, bool) {
	e, ok := s.entries[pid]
	return e, ok
}

// Len returns the number of processes in the snapshot.
func (s *Snapshot) Len() int { return len(s.entries) }

// PIDs returns every process id in ascending order.
func (s *Snapshot) PIDs() []int {
	pids := make([]int, 0, len(s.entries))
	for pid := range s.entries {
		pids = append(pids, pid)
	}
	sort.Ints(pids)
	return pids
}

// Scanner produces snapshots of the host process table.
type Scanner interface {
	Scan(ctx context.Context) (*Snapshot, error)
}

// SystemScanner enumerates host processes through gopsutil.
type SystemScanner struct {
	// PID identifies the scanning process. Zero means os.Getpid().
	PID int
}

// ErrSelfMissing is returned when the scanning process is absent from the
// enumeration, which leaves no reference start time.
var ErrSelfMissing = errors.New("scanning process missing from process table")

// Scan enumerates every visible process. Processes that exit while the table
// is being read are skipped.
func (s SystemScanner) Scan(ctx context.Context) (*Snapshot, error) {
	selfPID := s.PID
	if selfPID == 0 {
		selfPID = os.Getpid()
	}

	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}

	entries := make([]Entry, 0, len(procs))
	var self *Entry
	for _, p := range procs {
		entry, ok := readEntry(ctx, p)
		if !ok {
			continue
		}
		entries = append(entries, entry)
		if entry.PID == selfPID {
			e := entry
			self = &e
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if self == nil {
		return nil, fmt.Errorf("%w: pid %d", ErrSelfMissing, selfPID)
	}
	return NewSnapshot(*self, entries), nil
}

func readEntry(ctx context.Context, p *process.Process) (Entry, bool) {
	ppid, err := p.PpidWithContext(ctx)
	if err != nil {
		return Entry{}, false
	}
	created, err := p.CreateTimeWithContext(ctx)
	if err != nil {
		return Entry{}, false
	}
	// Some kernel threads have no readable name; the entry is still useful.
	name, _ := p.NameWithContext(ctx)
	return Entry{
		PID:       int(p.Pid),
		PPID:      int(ppid),
		StartTime: time.UnixMilli(created),
		Name:      name,
	}, true
}
