// Package adb wraps the adb executable: one-shot commands (devices, pidof,
// logcat -c) and the long-running logcat stream with line framing and
// abnormal-exit detection.
package adb

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
)

// Runner creates and starts adb processes. Tests substitute a fake.
type Runner interface {
	Start(ctx context.Context, path string, args []string) (Process, error)
}

// Process represents a running adb invocation.
type Process interface {
	PID() int
	Wait() error
	Signal(sig os.Signal) error
	Stdout() io.Reader
	Stderr() io.Reader
}

// ExecRunner implements Runner using os/exec.
type ExecRunner struct{}

// NewExecRunner creates a new ExecRunner.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Start launches the adb binary with the given arguments.
func (r *ExecRunner) Start(ctx context.Context, path string, args []string) (Process, error) {
	cmd := exec.CommandContext(ctx, path, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("creating stdout pipe: %w", err)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("creating stderr pipe: %w", err)
	}

	// Own process group so a termination signal reaches adb's children too
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	return &execProcess{
		cmd:    cmd,
		stdout: stdout,
		stderr: stderr,
	}, nil
}

// execProcess wraps exec.Cmd to implement the Process interface
type execProcess struct {
	cmd    *exec.Cmd
	stdout io.Reader
	stderr io.Reader
}

func (p *execProcess) PID() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

func (p *execProcess) Wait() error {
	return p.cmd.Wait()
}

func (p *execProcess) Signal(sig os.Signal) error {
	if p.cmd.Process == nil {
		return nil
	}

	pgid, err := syscall.Getpgid(p.cmd.Process.Pid)
	if err != nil {
		// Fall back to signaling just the process
		return p.cmd.Process.Signal(sig)
	}

	return syscall.Kill(-pgid, sig.(syscall.Signal))
}

func (p *execProcess) Stdout() io.Reader {
	return p.stdout
}

func (p *execProcess) Stderr() io.Reader {
	return p.stderr
}
