// Package command turns a single shell-style command line into a program and
// its argument vector.
package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kballard/go-shellquote"
)

var (
	// ErrMalformed reports a command line with unbalanced quoting or a
	// dangling escape.
	ErrMalformed = errors.New("malformed command")
	// ErrEmptyProgram reports a command line that splits into no words.
	ErrEmptyProgram = errors.New("empty program")
)

// Parsed is a command line split into the program to execute and its
// arguments.
type Parsed struct {
	Program string
	Args    []string
}

// String renders the parsed command back into a single quoted line.
func (p Parsed) String() string {
	return shellquote.Join(append([]string{p.Program}, p.Args...)...)
}

// Parse splits text using POSIX shell word rules. Quotes and backslash escapes
// are honoured; variables, globs, pipes and redirections are not interpreted.
func Parse(text string) (Parsed, error) {
	words, err := shellquote.Split(text)
	if err != nil {
		return Parsed{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(words) == 0 || words[0] == "" {
		return Parsed{}, ErrEmptyProgram
	}
	return Parsed{Program: words[0], Args: words[1:]}, nil
}

// HasBackslash reports whether the raw command line contains a backslash.
// Backslashes are escapes under shell rules, so Windows style paths written
// with them lose their separators.
func HasBackslash(text string) bool {
	return strings.ContainsRune(text, '\\')
}
