package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyLine is returned for a line with nothing left after its
	// trailing newline is removed.
	ErrEmptyLine = errors.New("empty line")

	// ErrEmptyCommand is returned for a segment without a program name,
	// e.g. "a||b", a leading or trailing pipe, or a bare "&".
	ErrEmptyCommand = errors.New("empty command")

	// ErrTooManyArgs is returned for a segment with more than MaxArgs arguments.
	ErrTooManyArgs = fmt.Errorf("too many arguments (max %d)", MaxArgs)
)

// ParseError reports a malformed line or segment.
type ParseError struct {
	Segment int // 0-based segment index, -1 for the whole line
	Err     error
}

func (e *ParseError) Error() string {
	if e.Segment < 0 {
		return "parse: " + e.Err.Error()
	}
	return fmt.Sprintf("parse: segment %d: %v", e.Segment, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ForkError means no process could be created. The rest of the pipeline is
// abandoned.
type ForkError struct {
	Segment int
	Name    string
	Err     error
}

func (e *ForkError) Error() string {
	return fmt.Sprintf("fork %s (segment %d): %v", e.Name, e.Segment, e.Err)
}

func (e *ForkError) Unwrap() error { return e.Err }

// ExecError means the program could not replace the new process image. It
// is confined to its segment and surfaces as Status.
type ExecError struct {
	Name   string
	Status int // 126 not executable, 127 not found
	Err    error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("exec %s failed: %v", e.Name, e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }
