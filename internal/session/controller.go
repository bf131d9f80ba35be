package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/loglens/loglens/internal/constants"
	"github.com/loglens/loglens/internal/domain"
	"github.com/loglens/loglens/internal/logcat"
)

// callQueueSize buffers the controller's event queue so the subprocess
// reader rarely blocks on a busy UI.
const callQueueSize = 512

// Options configures a Controller. Zero values fall back to the defaults in
// the constants package; tests shrink the timings.
type Options struct {
	MaxLines     int
	RetryDelay   time.Duration
	PollInterval time.Duration
	Logger       *zap.Logger
}

// Controller is the single owner of all mutable session state. Every state
// transition and buffer mutation runs on one goroutine that consumes a queue
// of closures; subprocess lines, operator commands and timer firings all go
// through that queue, so no line is ever matched against a half-updated
// condition.
type Controller struct {
	adb    Adb
	store  PresetStore
	sink   EventSink
	logger *zap.Logger

	retryDelay   time.Duration
	pollInterval time.Duration

	calls     chan func()
	quit      chan struct{}
	closeOnce sync.Once

	// Everything below is owned by the run goroutine.
	state       domain.SessionState
	paused      bool
	cond        *domain.FilterCondition
	matcher     *logcat.Matcher
	packageName string
	packagePIDs []int
	deviceID    string
	presets     []domain.FilterPreset
	seq         uint64
	raw         *logcat.Buffer
	filtered    *logcat.Buffer
	retryTimer  *time.Timer
	pollCancel  context.CancelFunc
}

// New creates a controller and starts its processing loop.
func New(adbMgr Adb, store PresetStore, sink EventSink, opts Options) *Controller {
	if opts.MaxLines <= 0 {
		opts.MaxLines = constants.DefaultMaxLines
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = constants.StreamRetryDelay
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = constants.PidPollInterval
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if sink == nil {
		sink = NopSink{}
	}

	c := &Controller{
		adb:          adbMgr,
		store:        store,
		sink:         sink,
		logger:       opts.Logger,
		retryDelay:   opts.RetryDelay,
		pollInterval: opts.PollInterval,
		calls:        make(chan func(), callQueueSize),
		quit:         make(chan struct{}),
		state:        domain.SessionStateIdle,
		matcher:      logcat.NewMatcher(nil),
		raw:          logcat.NewBuffer(opts.MaxLines),
		filtered:     logcat.NewBuffer(opts.MaxLines),
	}
	go c.run()
	return c
}

func (c *Controller) run() {
	for {
		select {
		case fn := <-c.calls:
			fn()
		case <-c.quit:
			return
		}
	}
}

// do schedules fn on the processing loop. Closed controllers drop the call.
func (c *Controller) do(fn func()) {
	select {
	case c.calls <- fn:
	case <-c.quit:
	}
}

// sync schedules fn and waits for it to finish.
func (c *Controller) sync(fn func()) {
	done := make(chan struct{})
	c.do(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
	case <-c.quit:
	}
}

// Close stops the stream, the polling loop and the processing goroutine.
// Close is idempotent.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		c.sync(func() {
			c.stopLocked()
		})
		close(c.quit)
	})
}

// Start begins a streaming session against the given device (empty lets adb
// pick). It resets both buffers and the sequence counter, loads presets and
// refreshes the device list. A spawn failure is returned directly and never
// enters the retry loop.
func (c *Controller) Start(deviceID string) error {
	errCh := make(chan error, 1)
	c.do(func() {
		errCh <- c.startLocked(deviceID, false)
	})
	select {
	case err := <-errCh:
		return err
	case <-c.quit:
		return domain.ErrStreamNotRunning
	}
}

// startLocked runs on the loop goroutine. isRetry preserves buffers and the
// sequence counter; only the subprocess is replaced.
func (c *Controller) startLocked(deviceID string, isRetry bool) error {
	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}

	if !isRetry {
		c.deviceID = deviceID
		c.adb.SetDevice(deviceID)
		c.raw.Clear()
		c.filtered.Clear()
		c.seq = 0
		c.presets = c.store.LoadAll()
		c.sink.PresetsUpdated(c.presets)
		c.sink.BufferCleared()
		c.refreshDevicesAsync()
	}

	if err := c.adb.StartStream(c.onLine, c.onStreamError, c.onAbnormalExit); err != nil {
		c.state = domain.SessionStateIdle
		return err
	}

	if c.paused {
		c.state = domain.SessionStatePaused
	} else {
		c.state = domain.SessionStateStreaming
	}
	c.logger.Info("session started",
		zap.String("device", deviceID),
		zap.Bool("retry", isRetry))
	return nil
}

// Stop terminates the subprocess and returns the session to idle. When Stop
// returns, no further lines will be processed; a pending crash retry is
// cancelled.
func (c *Controller) Stop() {
	c.sync(func() {
		c.stopLocked()
	})
}

func (c *Controller) stopLocked() {
	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}
	c.cancelPidPoll()
	c.adb.StopStream()
	c.state = domain.SessionStateIdle
}

// onLine is invoked by the adb manager's reader goroutine for every framed
// line. Processing is deferred to the loop so it serializes with commands.
func (c *Controller) onLine(line string) {
	c.do(func() {
		c.handleLine(line)
	})
}

func (c *Controller) handleLine(line string) {
	// Paused discards entirely: not parsed, not buffered, not counted.
	// Resume does not replay the gap. Lines that race a stop are dropped
	// the same way.
	if c.state != domain.SessionStateStreaming {
		return
	}

	seq := c.seq
	c.seq++

	rec, ok := logcat.Parse(line, seq)
	if !ok {
		return
	}

	c.raw.Append(rec)
	if c.matcher.Matches(rec) {
		c.filtered.Append(rec)
		c.sink.LinesAppended([]domain.Record{rec})
	}
}

func (c *Controller) onStreamError(err error) {
	c.do(func() {
		c.sink.ErrorRaised(err.Error())
	})
}

// onAbnormalExit fires when logcat dies unexpectedly. The session keeps its
// buffers and relaunches the subprocess after a fixed delay, forever; an
// operator stop in the window cancels the pending relaunch.
func (c *Controller) onAbnormalExit() {
	c.do(func() {
		if !c.state.IsStreaming() {
			return
		}
		c.state = domain.SessionStateRetrying
		c.sink.ErrorRaised("logcat disconnected; retrying in " + c.retryDelay.String())
		c.logger.Warn("logcat stream lost, scheduling retry")
		c.scheduleRetry()
	})
}

// scheduleRetry arms the fixed-delay relaunch. There is no backoff and no
// attempt cap: a permanently disconnected device retries forever until the
// operator stops the session. Runs on the loop goroutine.
func (c *Controller) scheduleRetry() {
	c.retryTimer = time.AfterFunc(c.retryDelay, func() {
		c.do(func() {
			if c.state != domain.SessionStateRetrying {
				// An operator stop (or a new start) won the race.
				return
			}
			if err := c.startLocked(c.deviceID, true); err != nil {
				c.sink.ErrorRaised(err.Error())
				c.state = domain.SessionStateRetrying
				c.scheduleRetry()
			}
		})
	})
}

// SetPaused toggles the paused flag. Incoming lines are discarded while
// paused.
func (c *Controller) SetPaused(paused bool) {
	c.do(func() {
		c.paused = paused
		switch {
		case paused && c.state == domain.SessionStateStreaming:
			c.state = domain.SessionStatePaused
		case !paused && c.state == domain.SessionStatePaused:
			c.state = domain.SessionStateStreaming
		}
		c.sink.PausedChanged(paused)
	})
}

// Clear empties both buffers and resets the sequence counter. The subprocess
// and the paused flag are unaffected.
func (c *Controller) Clear() {
	c.do(func() {
		c.raw.Clear()
		c.filtered.Clear()
		c.seq = 0
		c.sink.BufferCleared()
	})
}

// SetFilter replaces the operator's explicit condition and rebuilds the
// filtered buffer from the current raw buffer.
func (c *Controller) SetFilter(cond *domain.FilterCondition) {
	c.do(func() {
		c.cond = cond.Clone()
		c.applyFilter()
	})
}

// SetFilterTagShortcut replaces only the tag-include field of the current
// condition (tag-click shortcut).
func (c *Controller) SetFilterTagShortcut(tag string) {
	c.do(func() {
		cond := c.cond.Clone()
		if cond == nil {
			cond = &domain.FilterCondition{}
		}
		cond.TagInclude = tag
		c.cond = cond
		c.applyFilter()
	})
}

// SetFilterPIDShortcut replaces the pid set of the current condition with
// the single pid (pid-click shortcut).
func (c *Controller) SetFilterPIDShortcut(pid int) {
	c.do(func() {
		cond := c.cond.Clone()
		if cond == nil {
			cond = &domain.FilterCondition{}
		}
		cond.PIDs = []int{pid}
		c.cond = cond
		c.applyFilter()
	})
}

// applyFilter recomputes the effective condition and rebuilds the entire
// filtered buffer from the current raw buffer. Records evicted from the raw
// buffer before the change are not recoverable. Runs on the loop goroutine.
func (c *Controller) applyFilter() {
	effective := c.effectiveCondition()
	c.matcher = logcat.NewMatcher(effective)
	c.filtered.Replace(logcat.Filter(c.raw.Snapshot(), effective))
	c.sink.BufferReplaced(c.filtered.Snapshot())
}

// effectiveCondition is the operator's explicit condition with its pid set
// unioned with the pids derived from the active package scope.
func (c *Controller) effectiveCondition() *domain.FilterCondition {
	if c.packageName == "" || len(c.packagePIDs) == 0 {
		return c.cond
	}
	eff := c.cond.Clone()
	if eff == nil {
		eff = &domain.FilterCondition{}
	}
	eff.PIDs = unionInts(eff.PIDs, c.packagePIDs)
	return eff
}

// SetPackageScope selects the package whose process ids are folded into the
// effective condition, or clears it with an empty name. Any running pid
// polling loop is cancelled and, for a non-empty scope, replaced.
func (c *Controller) SetPackageScope(name string) {
	c.do(func() {
		c.cancelPidPoll()
		c.packageName = name
		c.packagePIDs = nil
		c.applyFilter()
		if name != "" {
			c.startPidPoll(name)
		}
	})
}

// startPidPoll launches the polling loop for the package scope. The loop
// resolves immediately, then on a fixed cadence; results are applied on the
// processing loop and trigger a full filter recompute only when the pid set
// actually changed. Runs on the loop goroutine.
func (c *Controller) startPidPoll(name string) {
	ctx, cancel := context.WithCancel(context.Background())
	c.pollCancel = cancel

	go func() {
		ticker := time.NewTicker(c.pollInterval)
		defer ticker.Stop()

		for {
			pids, err := c.adb.Pidof(ctx, name)
			if err != nil {
				// Resolution failures are non-fatal: treat as empty, note it.
				c.logger.Warn("pidof failed", zap.String("package", name), zap.Error(err))
				pids = nil
			}
			c.do(func() {
				if ctx.Err() != nil || c.packageName != name {
					return
				}
				if !equalInts(c.packagePIDs, pids) {
					c.packagePIDs = pids
					c.applyFilter()
				}
			})

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

func (c *Controller) cancelPidPoll() {
	if c.pollCancel != nil {
		c.pollCancel()
		c.pollCancel = nil
	}
}

// SelectDevice switches the target device. The device list is refreshed and,
// if a package scope is active, its polling loop restarts against the new
// device.
func (c *Controller) SelectDevice(deviceID string) {
	c.do(func() {
		c.deviceID = deviceID
		c.adb.SetDevice(deviceID)
		c.refreshDevicesAsync()
		if c.packageName != "" {
			name := c.packageName
			c.cancelPidPoll()
			c.packagePIDs = nil
			c.applyFilter()
			c.startPidPoll(name)
		}
	})
}

// RefreshDevices re-queries the connected device list.
func (c *Controller) RefreshDevices() {
	c.do(func() {
		c.refreshDevicesAsync()
	})
}

// refreshDevicesAsync runs the blocking adb call off the loop and posts the
// result back. List failures are non-fatal: swallowed to an empty result and
// surfaced as a notification.
func (c *Controller) refreshDevicesAsync() {
	go func() {
		devices, err := c.adb.ListDevices(context.Background())
		if err != nil {
			c.logger.Warn("device list failed", zap.Error(err))
			c.do(func() {
				c.sink.ErrorRaised("device list failed: " + err.Error())
			})
			return
		}
		c.do(func() {
			c.sink.DevicesUpdated(devices)
		})
	}()
}

// SavePreset persists the preset and rebroadcasts the preset list. Write
// failures surface as a notification without losing in-memory state.
func (c *Controller) SavePreset(preset domain.FilterPreset) {
	c.do(func() {
		if err := c.store.Upsert(preset); err != nil {
			c.sink.ErrorRaised(err.Error())
			return
		}
		c.presets = c.store.LoadAll()
		c.sink.PresetsUpdated(c.presets)
	})
}

// DeletePreset removes a stored preset by id.
func (c *Controller) DeletePreset(id string) {
	c.do(func() {
		if err := c.store.DeleteByID(id); err != nil {
			c.sink.ErrorRaised(err.Error())
			return
		}
		c.presets = c.store.LoadAll()
		c.sink.PresetsUpdated(c.presets)
	})
}

// ApplyPreset makes the stored preset's condition the active filter.
func (c *Controller) ApplyPreset(id string) {
	c.do(func() {
		for _, p := range c.presets {
			if p.ID == id {
				c.cond = p.Condition.Clone()
				c.applyFilter()
				return
			}
		}
		c.sink.ErrorRaised("preset not found: " + id)
	})
}

// RequestCopy asks the display surface for its current selection. The
// surface answers with a Copy call carrying the selected sequence indices.
func (c *Controller) RequestCopy() {
	c.do(func() {
		c.sink.CopyRequested()
	})
}

// Copy returns the raw lines of the filtered records whose sequence indices
// are in seqs, in display order, joined with newlines.
func (c *Controller) Copy(seqs []uint64) string {
	want := make(map[uint64]struct{}, len(seqs))
	for _, s := range seqs {
		want[s] = struct{}{}
	}

	var out string
	c.sync(func() {
		lines := make([]string, 0, len(seqs))
		for _, rec := range c.filtered.Snapshot() {
			if _, ok := want[rec.Seq]; ok {
				lines = append(lines, rec.Raw)
			}
		}
		out = strings.Join(lines, "\n")
	})
	return out
}

// Export returns the entire filtered buffer's raw lines in display order,
// joined with newlines.
func (c *Controller) Export() string {
	var out string
	c.sync(func() {
		records := c.filtered.Snapshot()
		lines := make([]string, len(records))
		for i, rec := range records {
			lines[i] = rec.Raw
		}
		out = strings.Join(lines, "\n")
	})
	return out
}

// State returns the current lifecycle state.
func (c *Controller) State() domain.SessionState {
	s := domain.SessionStateIdle
	c.sync(func() { s = c.state })
	return s
}

// Paused returns the paused flag.
func (c *Controller) Paused() bool {
	var p bool
	c.sync(func() { p = c.paused })
	return p
}

// Condition returns a copy of the operator's explicit condition. A session
// that never had a filter applied yields an empty condition, never nil.
func (c *Controller) Condition() *domain.FilterCondition {
	cond := &domain.FilterCondition{}
	c.sync(func() {
		if c.cond != nil {
			cond = c.cond.Clone()
		}
	})
	return cond
}

// PackageScope returns the active package name, or empty.
func (c *Controller) PackageScope() string {
	var name string
	c.sync(func() { name = c.packageName })
	return name
}

// PackagePIDs returns the pid set currently derived from the package scope.
func (c *Controller) PackagePIDs() []int {
	var pids []int
	c.sync(func() { pids = append([]int(nil), c.packagePIDs...) })
	return pids
}

// Presets returns the cached preset list for this session.
func (c *Controller) Presets() []domain.FilterPreset {
	var presets []domain.FilterPreset
	c.sync(func() { presets = append([]domain.FilterPreset(nil), c.presets...) })
	return presets
}

// Records returns the current filtered buffer in display order.
func (c *Controller) Records() []domain.Record {
	return c.filtered.Snapshot()
}

// RawRecords returns the current raw buffer in arrival order.
func (c *Controller) RawRecords() []domain.Record {
	return c.raw.Snapshot()
}

// Device returns the active device id.
func (c *Controller) Device() string {
	var id string
	c.sync(func() { id = c.deviceID })
	return id
}

func unionInts(a, b []int) []int {
	seen := make(map[int]struct{}, len(a)+len(b))
	out := make([]int, 0, len(a)+len(b))
	for _, v := range a {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	for _, v := range b {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
