package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/loglens/loglens/internal/domain"
	"github.com/loglens/loglens/internal/session"
)

// maxErrorDisplayLen is the maximum length of notifications in the status bar
const maxErrorDisplayLen = 80

// defaultExportPath is offered when the export prompt is left empty
const defaultExportPath = "logcat.txt"

// Mode represents the current TUI input mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeText
	ModeTag
	ModeTagExclude
	ModeRegex
	ModePID
	ModePackage
	ModeExport
	ModeSavePreset
	ModePresets
	ModeHelp
)

// Model is the bubbletea model for the TUI
type Model struct {
	// Dependencies
	controller *session.Controller

	// State mirrored from the controller
	records      []domain.Record
	devices      []domain.Device
	presets      []domain.FilterPreset
	state        domain.SessionState
	paused       bool
	device       string
	packageScope string
	packagePIDs  []int

	// UI components
	viewport  viewport.Model
	textInput textinput.Model

	// Mode
	mode Mode

	// Preset picker delete arming: after 'x', the next digit deletes
	deleteArmed bool

	// Minimum level pushed into the filter condition by the L key;
	// levelFloorAll when no level constraint is active
	levelFloor domain.Level

	// Auto-scroll
	followMode bool

	// Transient status bar notification
	notification string

	// Rendered set cap, mirrors the controller's buffer capacity
	maxRecords int

	// Dimensions
	width  int
	height int
	ready  bool
}

// NewModel creates a new TUI model bound to a running controller
func NewModel(controller *session.Controller, maxRecords int) Model {
	ti := textinput.New()
	ti.CharLimit = 200
	ti.Width = 40

	return Model{
		controller: controller,
		records:    controller.Records(),
		presets:    controller.Presets(),
		state:      controller.State(),
		device:     controller.Device(),
		textInput:  ti,
		mode:       ModeNormal,
		levelFloor: levelFloorAll,
		followMode: true,
		maxRecords: maxRecords,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// LinesMsg delivers newly matched records on the fast path
type LinesMsg []domain.Record

// BufferMsg replaces the rendered set after a filter or scope change
type BufferMsg []domain.Record

// ClearedMsg is sent when both buffers were emptied
type ClearedMsg struct{}

// PausedMsg reports the new paused flag
type PausedMsg bool

// DevicesMsg delivers a refreshed device list
type DevicesMsg []domain.Device

// PresetsMsg delivers the current preset list
type PresetsMsg []domain.FilterPreset

// CopyRequestedMsg asks the view to copy its current selection
type CopyRequestedMsg struct{}

// NotifyMsg shows a transient message in the status bar
type NotifyMsg string

// NotifyClearMsg clears the notification after a delay
type NotifyClearMsg struct{}

// TickMsg is sent periodically
type TickMsg time.Time

// notifyClearDelay is how long a notification stays visible
const notifyClearDelay = 4 * time.Second

// notifyClearCmd returns a command that clears the notification after a delay
func notifyClearCmd() tea.Cmd {
	return tea.Tick(notifyClearDelay, func(t time.Time) tea.Msg {
		return NotifyClearMsg{}
	})
}

// tickCmd returns a command that ticks periodically
func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
