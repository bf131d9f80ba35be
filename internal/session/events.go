// Package session implements the stream controller: it owns the raw and
// filtered record buffers, drives the logcat subprocess through its
// lifecycle, and reconciles the incoming line stream with the operator's
// filter condition.
package session

import (
	"context"

	"github.com/loglens/loglens/internal/domain"
)

// EventSink receives view updates from the controller. The TUI implements it
// by translating each event into a bubbletea message. Calls arrive from the
// controller's processing goroutine and must not block for long.
type EventSink interface {
	// LinesAppended delivers newly matched records on the steady-state fast
	// path. The surface appends them to its rendered set.
	LinesAppended(records []domain.Record)
	// BufferReplaced delivers the full filtered buffer after a filter or
	// scope change. The surface discards its rendered set and re-renders.
	BufferReplaced(records []domain.Record)
	// BufferCleared signals that both buffers were emptied.
	BufferCleared()
	// PausedChanged reports the new paused flag.
	PausedChanged(paused bool)
	// DevicesUpdated delivers a refreshed device list.
	DevicesUpdated(devices []domain.Device)
	// ErrorRaised surfaces a non-fatal error as an operator notification.
	ErrorRaised(message string)
	// PresetsUpdated delivers the current preset list.
	PresetsUpdated(presets []domain.FilterPreset)
	// CopyRequested asks the surface to copy its current selection. The
	// surface answers by calling Copy with the selected sequence indices.
	CopyRequested()
}

// NopSink discards all events. Useful for tests and headless runs.
type NopSink struct{}

func (NopSink) LinesAppended([]domain.Record)        {}
func (NopSink) BufferReplaced([]domain.Record)       {}
func (NopSink) BufferCleared()                       {}
func (NopSink) PausedChanged(bool)                   {}
func (NopSink) DevicesUpdated([]domain.Device)       {}
func (NopSink) ErrorRaised(string)                   {}
func (NopSink) PresetsUpdated([]domain.FilterPreset) {}
func (NopSink) CopyRequested()                       {}

// Adb is the process-supervisor contract the controller consumes. It is
// satisfied by *adb.Manager; tests substitute a fake.
type Adb interface {
	SetDevice(deviceID string)
	Device() string
	ListDevices(ctx context.Context) ([]domain.Device, error)
	Pidof(ctx context.Context, packageName string) ([]int, error)
	ClearBuffer(ctx context.Context) error
	StartStream(onLine func(string), onErr func(error), onAbnormalExit func()) error
	StopStream()
}

// PresetStore is the persistence contract for filter presets. Reads fail
// soft; write failures surface as notifications.
type PresetStore interface {
	LoadAll() []domain.FilterPreset
	SaveAll(presets []domain.FilterPreset) error
	Upsert(preset domain.FilterPreset) error
	DeleteByID(id string) error
}
