package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loglens/loglens/internal/domain"
)

// fakeAdb is an in-memory Adb collaborator. Tests drive the stream by
// calling EmitLine and Crash.
type fakeAdb struct {
	mu      sync.Mutex
	device  string
	devices []domain.Device
	pids    []int
	pidsErr error

	startErr   error
	startCount int
	stopCount  int

	onLine func(string)
	onErr  func(error)
	onExit func()
}

func (f *fakeAdb) SetDevice(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.device = id
}

func (f *fakeAdb) Device() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.device
}

func (f *fakeAdb) ListDevices(context.Context) ([]domain.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Device(nil), f.devices...), nil
}

func (f *fakeAdb) Pidof(context.Context, string) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pidsErr != nil {
		return nil, f.pidsErr
	}
	return append([]int(nil), f.pids...), nil
}

func (f *fakeAdb) SetPids(pids []int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pids = pids
}

func (f *fakeAdb) ClearBuffer(context.Context) error { return nil }

func (f *fakeAdb) StartStream(onLine func(string), onErr func(error), onExit func()) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.startCount++
	f.onLine = onLine
	f.onErr = onErr
	f.onExit = onExit
	return nil
}

func (f *fakeAdb) StopStream() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopCount++
}

func (f *fakeAdb) StartCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.startCount
}

func (f *fakeAdb) EmitLine(line string) {
	f.mu.Lock()
	onLine := f.onLine
	f.mu.Unlock()
	if onLine != nil {
		onLine(line)
	}
}

func (f *fakeAdb) Crash() {
	f.mu.Lock()
	onExit := f.onExit
	f.mu.Unlock()
	if onExit != nil {
		onExit()
	}
}

// fakeStore is an in-memory PresetStore.
type fakeStore struct {
	mu      sync.Mutex
	presets []domain.FilterPreset
	saveErr error
}

func (s *fakeStore) LoadAll() []domain.FilterPreset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.FilterPreset(nil), s.presets...)
}

func (s *fakeStore) SaveAll(presets []domain.FilterPreset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.presets = append([]domain.FilterPreset(nil), presets...)
	return nil
}

func (s *fakeStore) Upsert(preset domain.FilterPreset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	for i, p := range s.presets {
		if p.ID == preset.ID {
			s.presets[i] = preset
			return nil
		}
	}
	s.presets = append(s.presets, preset)
	return nil
}

func (s *fakeStore) DeleteByID(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	kept := s.presets[:0]
	for _, p := range s.presets {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	s.presets = kept
	return nil
}

// recordingSink captures emitted display events.
type recordingSink struct {
	mu         sync.Mutex
	appended   []domain.Record
	replaced   [][]domain.Record
	cleared    int
	paused     []bool
	devices    [][]domain.Device
	errors     []string
	presetSets [][]domain.FilterPreset
	copyAsks   int
}

func (s *recordingSink) LinesAppended(records []domain.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appended = append(s.appended, records...)
}

func (s *recordingSink) BufferReplaced(records []domain.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaced = append(s.replaced, records)
}

func (s *recordingSink) BufferCleared() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleared++
}

func (s *recordingSink) PausedChanged(p bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = append(s.paused, p)
}

func (s *recordingSink) DevicesUpdated(d []domain.Device) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.devices = append(s.devices, d)
}

func (s *recordingSink) ErrorRaised(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, msg)
}

func (s *recordingSink) PresetsUpdated(p []domain.FilterPreset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presetSets = append(s.presetSets, p)
}

func (s *recordingSink) CopyRequested() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.copyAsks++
}

func (s *recordingSink) AppendedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.appended)
}

func (s *recordingSink) Errors() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.errors...)
}

func line(pid int, level, tag, msg string) string {
	return fmt.Sprintf("03-05 10:00:00.000  %d  %d %s %s: %s", pid, pid, level, tag, msg)
}

func newTestController(t *testing.T, maxLines int) (*Controller, *fakeAdb, *fakeStore, *recordingSink) {
	t.Helper()
	adb := &fakeAdb{}
	store := &fakeStore{}
	sink := &recordingSink{}
	c := New(adb, store, sink, Options{
		MaxLines:     maxLines,
		RetryDelay:   20 * time.Millisecond,
		PollInterval: 10 * time.Millisecond,
	})
	t.Cleanup(c.Close)
	return c, adb, store, sink
}

func TestController_StartAndStream(t *testing.T) {
	c, adb, _, _ := newTestController(t, 10)

	require.NoError(t, c.Start("emulator-5554"))
	assert.Equal(t, domain.SessionStateStreaming, c.State())
	assert.Equal(t, "emulator-5554", adb.Device())

	adb.EmitLine(line(100, "D", "Tag", "hello"))
	adb.EmitLine("not a log line")
	adb.EmitLine(line(100, "E", "Tag", "world"))

	c.sync(func() {})
	records := c.Records()
	require.Len(t, records, 2)
	assert.Equal(t, uint64(0), records[0].Seq)
	// The unparseable line consumed index 1.
	assert.Equal(t, uint64(2), records[1].Seq)
}

func TestController_SpawnFailureIsFatalNotRetried(t *testing.T) {
	c, adb, _, _ := newTestController(t, 10)
	adb.startErr = &domain.SpawnError{Path: "adb", Err: errors.New("not found")}

	err := c.Start("")
	require.Error(t, err)
	assert.Equal(t, domain.SessionStateIdle, c.State())

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 0, adb.StartCount())
}

func TestController_EvictionAndLateFilter(t *testing.T) {
	// Buffer cap 3, five lines alternating D and E. The raw buffer keeps
	// the last three; a filter applied afterwards sees only those three.
	c, adb, _, _ := newTestController(t, 3)
	require.NoError(t, c.Start(""))

	levels := []string{"D", "E", "D", "E", "D"}
	for i, lv := range levels {
		adb.EmitLine(line(100, lv, "Tag", fmt.Sprintf("line %d", i)))
	}
	c.sync(func() {})

	raw := c.RawRecords()
	require.Len(t, raw, 3)
	assert.Equal(t, "line 2", raw[0].Message)
	assert.Equal(t, "line 3", raw[1].Message)
	assert.Equal(t, "line 4", raw[2].Message)

	c.SetFilter(&domain.FilterCondition{Levels: []domain.Level{domain.LevelError}})
	c.sync(func() {})

	filtered := c.Records()
	require.Len(t, filtered, 1)
	assert.Equal(t, "line 3", filtered[0].Message)

	// Evicted E-lines (line 1) are not recoverable.
	for _, rec := range filtered {
		assert.NotEqual(t, "line 1", rec.Message)
	}
}

func TestController_PackageScopeEffectiveCondition(t *testing.T) {
	c, adb, _, _ := newTestController(t, 100)
	adb.SetPids([]int{100, 200})

	require.NoError(t, c.Start(""))
	c.SetFilter(&domain.FilterCondition{Levels: []domain.Level{domain.LevelError}})
	c.SetPackageScope("com.example.app")

	require.Eventually(t, func() bool {
		return len(c.PackagePIDs()) == 2
	}, time.Second, 5*time.Millisecond)

	adb.EmitLine(line(100, "E", "Tag", "match pid 100"))
	adb.EmitLine(line(300, "E", "Tag", "wrong pid"))
	adb.EmitLine(line(200, "D", "Tag", "wrong level"))
	adb.EmitLine(line(200, "E", "Tag", "match pid 200"))
	c.sync(func() {})

	records := c.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "match pid 100", records[0].Message)
	assert.Equal(t, "match pid 200", records[1].Message)

	// Simulate a process restart: {100,200} -> {200,300}. The filtered
	// buffer is recomputed from the unchanged raw buffer.
	rawBefore := c.RawRecords()
	adb.SetPids([]int{200, 300})

	require.Eventually(t, func() bool {
		recs := c.Records()
		return len(recs) == 2 && recs[0].Message == "wrong pid"
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, rawBefore, c.RawRecords())
	records = c.Records()
	assert.Equal(t, "wrong pid", records[0].Message)
	assert.Equal(t, "match pid 200", records[1].Message)
}

func TestController_ClearingScopeStopsPolling(t *testing.T) {
	c, adb, _, _ := newTestController(t, 10)
	adb.SetPids([]int{100})
	require.NoError(t, c.Start(""))

	c.SetPackageScope("com.example.app")
	require.Eventually(t, func() bool {
		return len(c.PackagePIDs()) == 1
	}, time.Second, 5*time.Millisecond)

	c.SetPackageScope("")
	c.sync(func() {})
	assert.Empty(t, c.PackagePIDs())

	// With the loop cancelled, later pid changes are never picked up.
	adb.SetPids([]int{999})
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, c.PackagePIDs())
}

func TestController_RetryAfterAbnormalExit(t *testing.T) {
	t.Run("one relaunch after the delay, buffers preserved", func(t *testing.T) {
		c, adb, _, _ := newTestController(t, 10)
		require.NoError(t, c.Start(""))

		adb.EmitLine(line(100, "D", "Tag", "before crash"))
		c.sync(func() {})
		require.Len(t, c.RawRecords(), 1)

		adb.Crash()
		c.sync(func() {})
		assert.Equal(t, domain.SessionStateRetrying, c.State())

		require.Eventually(t, func() bool {
			return adb.StartCount() == 2
		}, time.Second, 5*time.Millisecond)
		assert.Equal(t, domain.SessionStateStreaming, c.State())

		// The retry path preserves buffers and the sequence counter.
		require.Len(t, c.RawRecords(), 1)
		adb.EmitLine(line(100, "D", "Tag", "after retry"))
		c.sync(func() {})
		records := c.RawRecords()
		require.Len(t, records, 2)
		assert.Equal(t, uint64(1), records[1].Seq)
	})

	t.Run("stop during the retry window cancels the relaunch", func(t *testing.T) {
		c, adb, _, _ := newTestController(t, 10)
		require.NoError(t, c.Start(""))

		adb.Crash()
		c.sync(func() {})
		require.Equal(t, domain.SessionStateRetrying, c.State())

		c.Stop()
		assert.Equal(t, domain.SessionStateIdle, c.State())

		time.Sleep(60 * time.Millisecond)
		assert.Equal(t, 1, adb.StartCount())
	})

	t.Run("abnormal exit after stop is ignored", func(t *testing.T) {
		c, adb, _, _ := newTestController(t, 10)
		require.NoError(t, c.Start(""))
		c.Stop()

		adb.Crash()
		c.sync(func() {})
		assert.Equal(t, domain.SessionStateIdle, c.State())
	})
}

func TestController_PauseDiscardsLines(t *testing.T) {
	c, adb, _, sink := newTestController(t, 10)
	require.NoError(t, c.Start(""))

	adb.EmitLine(line(100, "D", "Tag", "first"))
	c.SetPaused(true)
	adb.EmitLine(line(100, "D", "Tag", "while paused"))
	adb.EmitLine(line(100, "D", "Tag", "also dropped"))
	c.SetPaused(false)
	adb.EmitLine(line(100, "D", "Tag", "after resume"))
	c.sync(func() {})

	records := c.RawRecords()
	require.Len(t, records, 2)
	assert.Equal(t, "first", records[0].Message)
	assert.Equal(t, "after resume", records[1].Message)

	// Paused lines do not consume sequence indices.
	assert.Equal(t, uint64(0), records[0].Seq)
	assert.Equal(t, uint64(1), records[1].Seq)

	assert.Equal(t, []bool{true, false}, sink.paused)
	assert.Equal(t, domain.SessionStateStreaming, c.State())
}

func TestController_Clear(t *testing.T) {
	c, adb, _, sink := newTestController(t, 10)
	require.NoError(t, c.Start(""))

	adb.EmitLine(line(100, "D", "Tag", "one"))
	adb.EmitLine(line(100, "D", "Tag", "two"))
	c.Clear()
	adb.EmitLine(line(100, "D", "Tag", "three"))
	c.sync(func() {})

	records := c.RawRecords()
	require.Len(t, records, 1)
	assert.Equal(t, "three", records[0].Message)
	// The sequence counter restarts at zero.
	assert.Equal(t, uint64(0), records[0].Seq)
	assert.GreaterOrEqual(t, sink.cleared, 1)
}

func TestController_FilterShortcuts(t *testing.T) {
	c, adb, _, _ := newTestController(t, 10)
	require.NoError(t, c.Start(""))

	adb.EmitLine(line(100, "D", "ActivityManager", "am"))
	adb.EmitLine(line(200, "D", "PowerManager", "pm"))

	c.SetFilterTagShortcut("Activity")
	c.sync(func() {})
	records := c.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "ActivityManager", records[0].Tag)

	// The pid shortcut replaces the pid set but keeps the tag filter.
	c.SetFilterPIDShortcut(200)
	c.sync(func() {})
	assert.Empty(t, c.Records())

	cond := c.Condition()
	assert.Equal(t, "Activity", cond.TagInclude)
	assert.Equal(t, []int{200}, cond.PIDs)
}

func TestController_InvalidRegexAcceptsAll(t *testing.T) {
	c, adb, _, _ := newTestController(t, 10)
	require.NoError(t, c.Start(""))

	adb.EmitLine(line(100, "D", "Tag", "anything"))
	c.SetFilter(&domain.FilterCondition{Regex: "(unbalanced"})
	c.sync(func() {})

	assert.Len(t, c.Records(), 1)
}

func TestController_CopyAndExport(t *testing.T) {
	c, adb, _, _ := newTestController(t, 10)
	require.NoError(t, c.Start(""))

	l0 := line(100, "D", "Tag", "zero")
	l1 := line(100, "D", "Tag", "one")
	l2 := line(100, "D", "Tag", "two")
	adb.EmitLine(l0)
	adb.EmitLine(l1)
	adb.EmitLine(l2)

	assert.Equal(t, l0+"\n"+l2, c.Copy([]uint64{0, 2}))
	assert.Equal(t, l0+"\n"+l1+"\n"+l2, c.Export())
	assert.Equal(t, "", c.Copy([]uint64{99}))
}

func TestController_ConditionNeverNil(t *testing.T) {
	c, _, _, _ := newTestController(t, 10)

	// A fresh session has no explicit condition yet; callers still get a
	// usable empty condition to build on.
	cond := c.Condition()
	require.NotNil(t, cond)
	assert.True(t, cond.IsEmpty())

	cond.Text = "boot"
	c.SetFilter(cond)
	assert.Equal(t, "boot", c.Condition().Text)
}

func TestController_RequestCopyReachesSink(t *testing.T) {
	c, _, _, sink := newTestController(t, 10)

	c.RequestCopy()
	c.sync(func() {})

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Equal(t, 1, sink.copyAsks)
}

func TestController_Presets(t *testing.T) {
	c, adb, store, sink := newTestController(t, 10)
	store.presets = []domain.FilterPreset{{
		ID:      "p1",
		Name:    "errors",
		Enabled: true,
		Condition: domain.FilterCondition{
			Levels: []domain.Level{domain.LevelError},
		},
	}}

	require.NoError(t, c.Start(""))
	require.Len(t, c.Presets(), 1)

	adb.EmitLine(line(100, "D", "Tag", "debug"))
	adb.EmitLine(line(100, "E", "Tag", "error"))

	c.ApplyPreset("p1")
	c.sync(func() {})
	records := c.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "error", records[0].Message)

	c.SavePreset(domain.FilterPreset{ID: "p2", Name: "warnings", Enabled: true})
	c.sync(func() {})
	assert.Len(t, c.Presets(), 2)

	c.DeletePreset("p1")
	c.sync(func() {})
	presets := c.Presets()
	require.Len(t, presets, 1)
	assert.Equal(t, "p2", presets[0].ID)

	c.ApplyPreset("missing")
	c.sync(func() {})
	assert.Contains(t, sink.Errors(), "preset not found: missing")
}

func TestController_SavePresetFailureKeepsState(t *testing.T) {
	c, _, store, sink := newTestController(t, 10)
	require.NoError(t, c.Start(""))

	store.saveErr = errors.New("disk full")
	c.SavePreset(domain.FilterPreset{ID: "p1", Name: "x", Enabled: true})
	c.sync(func() {})

	assert.NotEmpty(t, sink.Errors())
	assert.Empty(t, c.Presets())
}

func TestController_RestartResetsBuffers(t *testing.T) {
	c, adb, _, _ := newTestController(t, 10)
	require.NoError(t, c.Start(""))
	adb.EmitLine(line(100, "D", "Tag", "old session"))
	c.Stop()

	require.NoError(t, c.Start(""))
	c.sync(func() {})
	assert.Empty(t, c.RawRecords())

	adb.EmitLine(line(100, "D", "Tag", "new session"))
	c.sync(func() {})
	records := c.RawRecords()
	require.Len(t, records, 1)
	assert.Equal(t, uint64(0), records[0].Seq)
}

func TestController_DeviceListUpdates(t *testing.T) {
	c, adb, _, sink := newTestController(t, 10)
	adb.devices = []domain.Device{
		{ID: "emulator-5554", Status: "device"},
		{ID: "dead", Status: "offline"},
	}

	require.NoError(t, c.Start(""))
	require.Eventually(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return len(sink.devices) > 0
	}, time.Second, 5*time.Millisecond)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Len(t, sink.devices[0], 2)
}

func TestController_StreamErrorSurfacesAsNotification(t *testing.T) {
	c, adb, _, sink := newTestController(t, 10)
	require.NoError(t, c.Start(""))

	adb.mu.Lock()
	onErr := adb.onErr
	adb.mu.Unlock()
	onErr(errors.New("device offline"))
	c.sync(func() {})

	assert.Contains(t, sink.Errors(), "device offline")
}
