package terminal

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPath is returned when a path cannot be normalized (e.g. empty input).
	ErrInvalidPath = errors.New("invalid path")

	// ErrExit is returned by Execute when the client asked to end the session.
	ErrExit = errors.New("session exit requested")

	// ErrSessionClosed is returned by Execute after Close.
	ErrSessionClosed = errors.New("session closed")
)

// SpawnError reports that the shell could not be started for a command.
type SpawnError struct {
	Command string
	Dir     string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn %q in %s: %v", e.Command, e.Dir, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// DecodeError reports an output line that no decoder could turn into text.
type DecodeError struct {
	Charset string
	Err     error
}

func (e *DecodeError) Error() string {
	if e.Charset == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Charset, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
