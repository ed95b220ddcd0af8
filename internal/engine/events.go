package engine

import (
	"time"
)

// EventType captures lifecycle notifications emitted during a run.
type EventType string

const (
	EventTypeSpawning  EventType = "spawning"
	EventTypeSpawned   EventType = "spawned"
	EventTypeWaiting   EventType = "waiting"
	EventTypeExited    EventType = "exited"
	EventTypeStopping  EventType = "stopping"
	EventTypeKilled    EventType = "killed"
	EventTypeSkipped   EventType = "skipped"
	EventTypeScanned   EventType = "scanned"
	EventTypeError     EventType = "error"
	EventTypeCompleted EventType = "completed"
)

// Event represents a single lifecycle notification.
type Event struct {
	Timestamp time.Time
	RunID     string
	// Index is the originating command, or -1 for events not tied to one.
	Index   int
	PID     int
	Type    EventType
	Message string
	Level   string
	Err     error
}

const (
	levelDebug = "debug"
	levelInfo  = "info"
	levelWarn  = "warn"
	levelError = "error"
)

// emitter stamps and delivers events. A nil channel discards them; debug
// events are dropped unless verbose is set.
type emitter struct {
	events  chan<- Event
	runID   string
	verbose bool
}

func (e emitter) send(level string, index, pid int, t EventType, message string, err error) {
	if e.events == nil {
		return
	}
	if level == levelDebug && !e.verbose {
		return
	}
	e.events <- Event{
		Timestamp: time.Now(),
		RunID:     e.runID,
		Index:     index,
		PID:       pid,
		Type:      t,
		Message:   message,
		Level:     level,
		Err:       err,
	}
}
