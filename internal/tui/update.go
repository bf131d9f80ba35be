package tui

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/loglens/loglens/internal/domain"
	"github.com/loglens/loglens/internal/session"
)

// nearBottomThreshold is the scroll percentage (0.0-1.0) at which we consider
// the viewport to be "near" the bottom for auto-follow purposes.
const nearBottomThreshold = 0.98

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.handleWindowSize(msg)
		m.updateViewport()

	case LinesMsg:
		m.appendRecords(msg)

	case BufferMsg:
		m.records = msg
		m.updateViewport()
		if m.followMode {
			m.viewport.GotoBottom()
		}

	case ClearedMsg:
		m.records = nil
		m.updateViewport()

	case PausedMsg:
		m.paused = bool(msg)

	case DevicesMsg:
		m.devices = msg

	case PresetsMsg:
		m.presets = msg

	case CopyRequestedMsg:
		// The view has no multi-select; the selection is the whole
		// visible set.
		return m, copyCmd(m.controller)

	case NotifyMsg:
		m.notification = string(msg)
		cmds = append(cmds, notifyClearCmd())

	case NotifyClearMsg:
		m.notification = ""

	case TickMsg:
		m.state = m.controller.State()
		m.paused = m.controller.Paused()
		m.device = m.controller.Device()
		m.packageScope = m.controller.PackageScope()
		m.packagePIDs = m.controller.PackagePIDs()
		cmds = append(cmds, tickCmd())
	}

	// Handle viewport updates
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	// Handle text input if in an input mode
	if m.mode.wantsInput() {
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// wantsInput reports whether the mode routes keystrokes to the text input
func (mode Mode) wantsInput() bool {
	switch mode {
	case ModeText, ModeTag, ModeTagExclude, ModeRegex, ModePID,
		ModePackage, ModeExport, ModeSavePreset:
		return true
	}
	return false
}

// handleKey processes keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Handle mode-specific keys first
	switch {
	case m.mode == ModeHelp:
		m.mode = ModeNormal
		return m, nil
	case m.mode == ModePresets:
		return m.handlePresetKey(msg)
	case m.mode.wantsInput():
		return m.handleInputKey(msg)
	}

	// Normal mode keys
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case " ":
		m.controller.SetPaused(!m.paused)
		return m, nil

	case "c":
		m.controller.Clear()
		return m, nil

	case "/":
		return m.enterInput(ModeText, "match text", m.controller.Condition().Text), nil

	case "t":
		return m.enterInput(ModeTag, "tag", m.controller.Condition().TagInclude), nil

	case "T":
		return m.enterInput(ModeTagExclude, "exclude tag substring", m.controller.Condition().TagExclude), nil

	case "r":
		return m.enterInput(ModeRegex, "regex", m.controller.Condition().Regex), nil

	case "i":
		return m.enterInput(ModePID, "pid", ""), nil

	case "p":
		return m.enterInput(ModePackage, "package name", m.packageScope), nil

	case "e":
		return m.enterInput(ModeExport, defaultExportPath, ""), nil

	case "S":
		return m.enterInput(ModeSavePreset, "preset name", ""), nil

	case "P":
		m.mode = ModePresets
		m.deleteArmed = false
		m.presets = m.controller.Presets()
		return m, nil

	case "L":
		m.cycleLevelFloor()
		return m, nil

	case "d":
		m.cycleDevice()
		return m, nil

	case "D":
		m.controller.RefreshDevices()
		return m, nil

	case "y":
		m.controller.RequestCopy()
		return m, nil

	case "?":
		m.mode = ModeHelp
		return m, nil

	case "esc":
		// Clear all filters and the package scope
		m.levelFloor = levelFloorAll
		m.controller.SetFilter(&domain.FilterCondition{})
		m.controller.SetPackageScope("")
		return m, nil

	case "up", "k":
		m.viewport.LineUp(1)
		m.followMode = false
		return m, nil

	case "down", "j":
		m.viewport.LineDown(1)
		return m, nil

	case "pgup":
		m.viewport.HalfViewUp()
		m.followMode = false
		return m, nil

	case "pgdown":
		m.viewport.HalfViewDown()
		return m, nil

	case "home", "g":
		m.viewport.GotoTop()
		m.followMode = false
		return m, nil

	case "end", "G":
		m.viewport.GotoBottom()
		m.followMode = true
		return m, nil

	case "F":
		m.followMode = !m.followMode
		if m.followMode {
			m.viewport.GotoBottom()
		}
		return m, nil
	}

	return m, nil
}

// enterInput switches to an input mode with the prompt prefilled
func (m Model) enterInput(mode Mode, placeholder, value string) Model {
	m.mode = mode
	m.textInput.Placeholder = placeholder
	m.textInput.SetValue(value)
	m.textInput.CursorEnd()
	m.textInput.Focus()
	return m
}

// handleInputKey handles keys while an input prompt is active
func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = ModeNormal
		m.textInput.Blur()
		return m, nil

	case "enter":
		value := strings.TrimSpace(m.textInput.Value())
		mode := m.mode
		m.mode = ModeNormal
		m.textInput.Blur()
		return m.commitInput(mode, value)
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

// commitInput applies a confirmed input prompt value
func (m Model) commitInput(mode Mode, value string) (tea.Model, tea.Cmd) {
	switch mode {
	case ModeText:
		cond := m.controller.Condition()
		cond.Text = value
		m.controller.SetFilter(cond)

	case ModeTag:
		m.controller.SetFilterTagShortcut(value)

	case ModeTagExclude:
		cond := m.controller.Condition()
		cond.TagExclude = value
		m.controller.SetFilter(cond)

	case ModeRegex:
		cond := m.controller.Condition()
		cond.Regex = value
		m.controller.SetFilter(cond)

	case ModePID:
		if value == "" {
			cond := m.controller.Condition()
			cond.PIDs = nil
			m.controller.SetFilter(cond)
			return m, nil
		}
		pid, err := strconv.Atoi(value)
		if err != nil {
			return m, notify("not a pid: " + value)
		}
		m.controller.SetFilterPIDShortcut(pid)

	case ModePackage:
		m.controller.SetPackageScope(value)

	case ModeExport:
		if value == "" {
			value = defaultExportPath
		}
		return m, exportCmd(m.controller, value)

	case ModeSavePreset:
		if value == "" {
			return m, notify("preset name required")
		}
		m.controller.SavePreset(domain.FilterPreset{
			Name:      value,
			Enabled:   true,
			Condition: *m.controller.Condition(),
		})
		return m, notify("saved preset: " + value)
	}

	return m, nil
}

// handlePresetKey handles keys in the preset picker
func (m Model) handlePresetKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "esc", "q", "P":
		m.mode = ModeNormal
		m.deleteArmed = false
		return m, nil

	case "x":
		m.deleteArmed = !m.deleteArmed
		return m, nil
	}

	if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
		idx := int(key[0] - '1')
		if idx >= len(m.presets) {
			return m, nil
		}
		preset := m.presets[idx]
		if m.deleteArmed {
			m.controller.DeletePreset(preset.ID)
			m.deleteArmed = false
			return m, notify("deleted preset: " + preset.Name)
		}
		m.controller.ApplyPreset(preset.ID)
		m.mode = ModeNormal
		m.levelFloor = levelFloorAll
		return m, notify("applied preset: " + preset.Name)
	}

	return m, nil
}

// levelFloorAll means no level constraint is active
const levelFloorAll = domain.Level(-1)

// cycleLevelFloor advances the minimum displayed level and pushes the
// resulting level set into the filter condition.
func (m *Model) cycleLevelFloor() {
	switch m.levelFloor {
	case levelFloorAll:
		m.levelFloor = domain.LevelDebug
	case domain.LevelDebug:
		m.levelFloor = domain.LevelInfo
	case domain.LevelInfo:
		m.levelFloor = domain.LevelWarn
	case domain.LevelWarn:
		m.levelFloor = domain.LevelError
	default:
		m.levelFloor = levelFloorAll
	}

	cond := m.controller.Condition()
	if m.levelFloor == levelFloorAll {
		cond.Levels = nil
	} else {
		cond.Levels = nil
		for lvl := m.levelFloor; lvl <= domain.LevelSilent; lvl++ {
			cond.Levels = append(cond.Levels, lvl)
		}
	}
	m.controller.SetFilter(cond)
}

// cycleDevice selects the next connected device
func (m *Model) cycleDevice() {
	connected := domain.ConnectedDevices(m.devices)
	if len(connected) == 0 {
		return
	}
	next := 0
	for i, d := range connected {
		if d.ID == m.device {
			next = (i + 1) % len(connected)
			break
		}
	}
	m.device = connected[next].ID
	m.controller.SelectDevice(m.device)
}

// appendRecords adds matched records to the rendered set, trimming to the cap
func (m *Model) appendRecords(records []domain.Record) {
	// Check if we're at/near bottom BEFORE adding new content
	wasNearBottom := m.isNearBottom()

	m.records = append(m.records, records...)
	// Keep only last entries - create new slice to release memory from old entries
	if m.maxRecords > 0 && len(m.records) > m.maxRecords {
		trimmed := make([]domain.Record, m.maxRecords)
		copy(trimmed, m.records[len(m.records)-m.maxRecords:])
		m.records = trimmed
	}
	m.updateViewport()

	// If user was at bottom, re-enable follow mode and stay at bottom
	if wasNearBottom {
		m.followMode = true
		m.viewport.GotoBottom()
	} else if m.followMode {
		m.viewport.GotoBottom()
	}
}

// isNearBottom checks if the viewport is at or near the bottom
func (m *Model) isNearBottom() bool {
	if m.viewport.AtBottom() {
		return true
	}
	return m.viewport.ScrollPercent() >= nearBottomThreshold
}

// handleWindowSize handles window resize messages
func (m *Model) handleWindowSize(msg tea.WindowSizeMsg) {
	m.width = msg.Width
	m.height = msg.Height

	footerHeight := 2 // Status bar
	viewportHeight := msg.Height - footerHeight
	if viewportHeight < 1 {
		viewportHeight = 1
	}

	if !m.ready {
		m.viewport = viewport.New(msg.Width, viewportHeight)
		m.ready = true
	} else {
		m.viewport.Width = msg.Width
		m.viewport.Height = viewportHeight
	}
}

// updateViewport updates the viewport content
func (m *Model) updateViewport() {
	lines := make([]string, 0, len(m.records))
	for _, record := range m.records {
		lines = append(lines, formatRecord(record))
	}
	m.viewport.SetContent(strings.Join(lines, "\n"))
}

// notify returns a command that posts a status bar notification
func notify(message string) tea.Cmd {
	return func() tea.Msg {
		return NotifyMsg(message)
	}
}

// copyCmd copies the visible buffer to the system clipboard
func copyCmd(controller *session.Controller) tea.Cmd {
	return func() tea.Msg {
		text := controller.Export()
		if text == "" {
			return NotifyMsg("nothing to copy")
		}
		if err := clipboard.WriteAll(text); err != nil {
			return NotifyMsg("copy failed: " + err.Error())
		}
		return NotifyMsg(fmt.Sprintf("copied %d lines", strings.Count(text, "\n")+1))
	}
}

// exportCmd writes the visible buffer to a file
func exportCmd(controller *session.Controller, path string) tea.Cmd {
	return func() tea.Msg {
		text := controller.Export()
		if text == "" {
			return NotifyMsg("nothing to export")
		}
		if err := os.WriteFile(path, []byte(text+"\n"), 0o644); err != nil {
			return NotifyMsg("export failed: " + err.Error())
		}
		return NotifyMsg("exported to " + path)
	}
}
