package adb

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"

	"go.uber.org/zap"

	"github.com/loglens/loglens/internal/constants"
	"github.com/loglens/loglens/internal/domain"
)

var modelRe = regexp.MustCompile(`model:(\S+)`)

// Manager owns the adb binary path, the selected device and the running
// logcat subprocess. One Manager serves one streaming session at a time.
type Manager struct {
	mu       sync.Mutex
	path     string
	deviceID string
	runner   Runner
	logger   *zap.Logger
	stream   *streamHandle
}

// streamHandle tracks one logcat subprocess instance. stopped distinguishes
// an operator-requested termination from a crash so the abnormal-exit
// callback is suppressed for the former.
type streamHandle struct {
	proc    Process
	cancel  context.CancelFunc
	stopped atomic.Bool
}

// NewManager creates a manager for the adb binary at path.
func NewManager(path string, runner Runner, logger *zap.Logger) *Manager {
	if path == "" {
		path = constants.DefaultAdbPath
	}
	if runner == nil {
		runner = NewExecRunner()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		path:   path,
		runner: runner,
		logger: logger,
	}
}

// SetDevice selects the device targeted by subsequent commands and streams.
// Empty means "whatever adb picks".
func (m *Manager) SetDevice(deviceID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deviceID = deviceID
}

// Device returns the currently selected device id.
func (m *Manager) Device() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deviceID
}

// Exec runs a one-shot adb command and returns its stdout. A non-zero exit
// yields a *domain.ProcessError carrying stderr; a failure to launch the
// binary at all yields a *domain.SpawnError.
func (m *Manager) Exec(ctx context.Context, args []string, deviceID string) (string, error) {
	full := args
	if deviceID != "" {
		full = append([]string{"-s", deviceID}, args...)
	}

	ctx, cancel := context.WithTimeout(ctx, constants.ExecTimeout)
	defer cancel()

	proc, err := m.runner.Start(ctx, m.path, full)
	if err != nil {
		return "", &domain.SpawnError{Path: m.path, Err: err}
	}

	var stdout, stderr []byte
	var readErr error
	done := make(chan struct{})
	go func() {
		stdout, readErr = io.ReadAll(proc.Stdout())
		close(done)
	}()
	stderr, _ = io.ReadAll(proc.Stderr())
	<-done

	waitErr := proc.Wait()
	if waitErr != nil {
		return "", &domain.ProcessError{
			ExitCode: exitCode(waitErr),
			Stderr:   strings.TrimSpace(string(stderr)),
		}
	}
	if readErr != nil {
		return "", readErr
	}
	return string(stdout), nil
}

// ListDevices runs `adb devices -l` and parses the result. All devices are
// returned regardless of status; callers filter with IsConnected.
func (m *Manager) ListDevices(ctx context.Context) ([]domain.Device, error) {
	out, err := m.Exec(ctx, []string{"devices", "-l"}, "")
	if err != nil {
		return nil, err
	}

	lines := strings.Split(out, "\n")
	devices := make([]domain.Device, 0, len(lines))
	for i, line := range lines {
		if i == 0 || strings.TrimSpace(line) == "" {
			// first line is the "List of devices attached" header
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		d := domain.Device{ID: fields[0], Status: "unknown"}
		if len(fields) > 1 {
			d.Status = fields[1]
		}
		if mm := modelRe.FindStringSubmatch(line); mm != nil {
			d.Name = mm[1]
		}
		devices = append(devices, d)
	}
	return devices, nil
}

// Pidof resolves the process ids owned by a package on the selected device
// via `adb shell pidof <package>`. An unknown package resolves to an empty
// slice, not an error.
func (m *Manager) Pidof(ctx context.Context, packageName string) ([]int, error) {
	out, err := m.Exec(ctx, []string{"shell", "pidof", packageName}, m.Device())
	if err != nil {
		// pidof exits non-zero when no process matches
		var procErr *domain.ProcessError
		if errors.As(err, &procErr) && procErr.Stderr == "" {
			return nil, nil
		}
		return nil, err
	}

	var pids []int
	for _, field := range strings.Fields(out) {
		if pid, err := strconv.Atoi(field); err == nil {
			pids = append(pids, pid)
		}
	}
	return pids, nil
}

// ClearBuffer clears the device-side logcat buffer (`adb logcat -c`).
func (m *Manager) ClearBuffer(ctx context.Context) error {
	_, err := m.Exec(ctx, []string{"logcat", "-c"}, m.Device())
	return err
}

// StartStream launches `adb [-s device] logcat -v threadtime` and begins
// pushing framed lines to onLine. Partial trailing chunks are held back until
// a line terminator arrives. onAbnormalExit fires only when the subprocess
// dies unexpectedly, never after StopStream. Any running stream is stopped
// first.
func (m *Manager) StartStream(onLine func(string), onErr func(error), onAbnormalExit func()) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopStreamLocked()

	args := []string{"logcat", "-v", "threadtime"}
	if m.deviceID != "" {
		args = append([]string{"-s", m.deviceID}, args...)
	}

	ctx, cancel := context.WithCancel(context.Background())
	proc, err := m.runner.Start(ctx, m.path, args)
	if err != nil {
		cancel()
		return &domain.SpawnError{Path: m.path, Err: err}
	}

	h := &streamHandle{proc: proc, cancel: cancel}
	m.stream = h

	go m.readLines(h, proc.Stdout(), onLine)
	go m.readStderr(h, proc.Stderr(), onErr)
	go m.monitor(h, onErr, onAbnormalExit)

	m.logger.Info("logcat stream started",
		zap.String("device", m.deviceID),
		zap.Int("pid", proc.PID()))
	return nil
}

// StopStream terminates the running logcat subprocess, if any. It is
// idempotent and suppresses the abnormal-exit callback for this termination.
func (m *Manager) StopStream() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopStreamLocked()
}

func (m *Manager) stopStreamLocked() {
	if m.stream == nil {
		return
	}
	h := m.stream
	m.stream = nil
	h.stopped.Store(true)
	if err := h.proc.Signal(syscall.SIGTERM); err != nil {
		m.logger.Debug("SIGTERM failed (process may have already exited)", zap.Error(err))
	}
	// The context cancel is deferred to monitor() so readers can drain.
}

// readLines frames the stdout byte stream into newline-delimited lines.
// bufio.Scanner buffers a partial trailing line until its terminator is
// observed, which gives the framing guarantee the session relies on.
func (m *Manager) readLines(h *streamHandle, r io.Reader, onLine func(string)) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, constants.ScannerBufferSize), constants.ScannerMaxBufferSize)

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if h.stopped.Load() {
			return
		}
		onLine(line)
	}

	if err := scanner.Err(); err != nil && !h.stopped.Load() {
		m.logger.Warn("logcat output reader error", zap.Error(err))
	}
}

// readStderr surfaces stderr chatter (adb server restarts, device offline
// notes) as soft errors.
func (m *Manager) readStderr(h *streamHandle, r io.Reader, onErr func(error)) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, constants.ScannerBufferSize), constants.ScannerMaxBufferSize)

	for scanner.Scan() {
		msg := strings.TrimSpace(scanner.Text())
		if msg == "" || h.stopped.Load() {
			continue
		}
		onErr(&domain.ProcessError{ExitCode: -1, Stderr: msg})
	}
}

// monitor waits for the subprocess and classifies its exit.
func (m *Manager) monitor(h *streamHandle, onErr func(error), onAbnormalExit func()) {
	err := h.proc.Wait()
	defer h.cancel()

	m.mu.Lock()
	if m.stream == h {
		m.stream = nil
	}
	m.mu.Unlock()

	if h.stopped.Load() {
		return
	}

	code := 0
	if err != nil {
		code = exitCode(err)
	}
	if code != 0 {
		m.logger.Warn("logcat exited unexpectedly", zap.Int("code", code))
		onErr(&domain.ProcessError{ExitCode: code, Stderr: ""})
		onAbnormalExit()
	}
}

// exitCode extracts the exit code from a Wait error. Signal termination maps
// to the negative signal number.
func exitCode(err error) int {
	if exitErr, ok := err.(*exec.ExitError); ok {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			if status.Signaled() {
				return -int(status.Signal())
			}
			return status.ExitStatus()
		}
		return exitErr.ExitCode()
	}
	return 1
}
