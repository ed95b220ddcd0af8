package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// CurrentVersion is the config file format version this build understands.
const CurrentVersion = 1

// ErrNoCommands is returned when a config lists nothing to start.
var ErrNoCommands = errors.New("start: at least one command is required")

// Config is an unvalidated launch configuration as written by a user, either
// on the command line or in a config file. It is turned into a Validated
// value by Validate; nothing downstream accepts a Config directly.
type Config struct {
	Version     int      `yaml:"version" json:"version"`
	Cwd         *string  `yaml:"cwd" json:"cwd"`
	CascadeKill bool     `yaml:"cascadeKill" json:"cascadeKill"`
	Start       []string `yaml:"start" json:"start"`
	ExitOn      *int     `yaml:"exitOn" json:"exitOn"`

	sourcePath  string
	exitOnField string
}

// New builds a config from command line input.
func New(start []string, exitOn *int) *Config {
	return &Config{
		Version:     CurrentVersion,
		Start:       append([]string(nil), start...),
		ExitOn:      exitOn,
		exitOnField: "--exit-on",
	}
}

// Default returns the config written by the template generator.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Start:   []string{},
	}
}

// SourcePath returns the file the config was loaded from, if any.
func (c *Config) SourcePath() string {
	return c.sourcePath
}

// Validated is an immutable, checked launch configuration. It can only be
// obtained from Config.Validate.
type Validated struct {
	version     int
	cwd         string
	cascadeKill bool
	commands    []string
	exitOn      int
	hasExitOn   bool
	sourcePath  string

	checked bool
}

// Checked reports whether v was produced by Config.Validate. A zero or nil
// Validated is not checked.
func (v *Validated) Checked() bool {
	return v != nil && v.checked
}

// WorkingDirectory returns the absolute directory commands run in, if set.
func (v *Validated) WorkingDirectory() (string, bool) {
	return v.cwd, v.cwd != ""
}

// Commands returns a copy of the command lines in declaration order.
func (v *Validated) Commands() []string {
	return append([]string(nil), v.commands...)
}

// ExitOn returns the index of the designated process, if set.
func (v *Validated) ExitOn() (int, bool) {
	return v.exitOn, v.hasExitOn
}

// CascadeKill reports whether teardown also kills descendants.
func (v *Validated) CascadeKill() bool { return v.cascadeKill }

// Version returns the config format version.
func (v *Validated) Version() int { return v.version }

// SourcePath returns the file the config was loaded from, if any.
func (v *Validated) SourcePath() string { return v.sourcePath }

// ExitOnRangeError reports an exit index outside the start list.
type ExitOnRangeError struct {
	Field string
	Index int
	Len   int
}

func (e *ExitOnRangeError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: index %d must not be negative", e.Field, e.Index)
	}
	msg := fmt.Sprintf("%s: index %d could not be found in start, which has %d command(s)", e.Field, e.Index, e.Len)
	if e.Index == e.Len {
		msg += fmt.Sprintf("\n\nHelp: start is zero-indexed, so the last command is at index length - 1, which is %d here.", e.Len-1)
	}
	return msg
}

// Validate checks the config and returns its immutable, validated form.
func (c *Config) Validate() (*Validated, error) {
	version := c.Version
	if version == 0 {
		version = CurrentVersion
	}
	if version != CurrentVersion {
		return nil, fmt.Errorf("version: unsupported config version %d (expected %d)", c.Version, CurrentVersion)
	}

	if len(c.Start) == 0 {
		return nil, ErrNoCommands
	}

	v := &Validated{
		version:     version,
		cascadeKill: c.CascadeKill,
		commands:    append([]string(nil), c.Start...),
		sourcePath:  c.sourcePath,
		checked:     true,
	}

	if c.ExitOn != nil {
		index := *c.ExitOn
		if index < 0 || index >= len(c.Start) {
			field := c.exitOnField
			if field == "" {
				field = "exitOn"
			}
			return nil, &ExitOnRangeError{Field: field, Index: index, Len: len(c.Start)}
		}
		v.exitOn = index
		v.hasExitOn = true
	}

	if c.Cwd != nil && *c.Cwd != "" {
		cwd, err := filepath.Abs(*c.Cwd)
		if err != nil {
			return nil, fmt.Errorf("cwd: resolve %q: %w", *c.Cwd, err)
		}
		info, err := os.Stat(cwd)
		if err != nil {
			return nil, fmt.Errorf("cwd: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("cwd: %s is not a directory", cwd)
		}
		v.cwd = cwd
	}

	return v, nil
}
