package domain

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrStreamAlreadyRunning = errors.New("stream already running")
	ErrStreamNotRunning     = errors.New("stream not running")
	ErrNoDevice             = errors.New("no usable device connected")
	ErrPresetNotFound       = errors.New("preset not found")
	ErrStorage              = errors.New("preset storage failure")
)

// ProcessError is a non-zero exit from a one-shot adb command. The caller
// decides whether it is fatal per call site.
type ProcessError struct {
	ExitCode int
	Stderr   string
}

func (e *ProcessError) Error() string {
	if e.Stderr != "" {
		return e.Stderr
	}
	return fmt.Sprintf("adb exit %d", e.ExitCode)
}

// SpawnError is a failure to launch the adb executable at all (missing,
// unrunnable). It is fatal to the triggering operation and never retried.
type SpawnError struct {
	Path string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawning %s: %v", e.Path, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}
