package cliutil

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Paintersrp/sma/internal/engine"
)

// LogRecord represents a structured log event ready for JSON encoding.
type LogRecord struct {
	Timestamp time.Time `json:"ts"`
	RunID     string    `json:"run"`
	Index     *int      `json:"index,omitempty"`
	PID       int       `json:"pid,omitempty"`
	Event     string    `json:"event"`
	Level     string    `json:"level"`
	Message   string    `json:"msg"`
	Error     string    `json:"error,omitempty"`
}

// NewLogRecord converts an engine event into a structured log record.
func NewLogRecord(event engine.Event) LogRecord {
	level := event.Level
	if level == "" {
		level = "info"
	}
	record := LogRecord{
		Timestamp: event.Timestamp,
		RunID:     event.RunID,
		PID:       event.PID,
		Event:     string(event.Type),
		Level:     level,
		Message:   RedactSecrets(event.Message),
	}
	if event.Index >= 0 {
		index := event.Index
		record.Index = &index
	}
	if event.Err != nil {
		record.Error = RedactSecrets(event.Err.Error())
	}
	return record
}

// EncodeLogEvent encodes a log event to JSON, reporting errors to stderr if needed.
func EncodeLogEvent(enc *json.Encoder, stderr io.Writer, event engine.Event) {
	if enc == nil {
		return
	}
	record := NewLogRecord(event)
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}
	if err := enc.Encode(&record); err != nil {
		fmt.Fprintf(stderr, "error: encode log: %v\n", err)
	}
}

// FormatLogEvent renders an event as a single human readable line.
func FormatLogEvent(event engine.Event) string {
	record := NewLogRecord(event)
	var b strings.Builder
	if record.Level != "info" {
		fmt.Fprintf(&b, "%s: ", record.Level)
	}
	if record.Index != nil {
		fmt.Fprintf(&b, "[%d] ", *record.Index)
	}
	if record.PID > 0 {
		fmt.Fprintf(&b, "(pid %d) ", record.PID)
	}
	b.WriteString(record.Message)
	if record.Error != "" {
		b.WriteString(": ")
		b.WriteString(record.Error)
	}
	return b.String()
}
