package tui

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/loglens/loglens/internal/domain"
)

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	switch m.mode {
	case ModeHelp:
		return m.helpView()
	case ModePresets:
		return m.presetView()
	default:
		var sb strings.Builder
		sb.WriteString(m.viewport.View())
		sb.WriteString("\n")
		sb.WriteString(m.statusBar())
		return sb.String()
	}
}

// statusBar renders the bottom status bar
func (m Model) statusBar() string {
	var left, right string

	// Left side: prompt or session summary
	if m.mode.wantsInput() {
		left = inputLabel(m.mode) + ": " + m.textInput.View()
	} else if m.notification != "" {
		left = notifyStyle.Render(" " + truncate(m.notification, maxErrorDisplayLen) + " ")
	} else {
		parts := []string{string(m.state)}
		if m.device != "" {
			parts = append(parts, m.device)
		}
		if m.packageScope != "" {
			scope := m.packageScope
			if len(m.packagePIDs) > 0 {
				scope += fmt.Sprintf(" %v", m.packagePIDs)
			}
			parts = append(parts, scope)
		}
		if summary := conditionSummary(m.controller.Condition()); summary != "" {
			parts = append(parts, summary)
		}
		parts = append(parts, "? for help")
		left = strings.Join(parts, " | ")
	}

	// Right side: pause, follow and count
	pauseIndicator := ""
	if m.paused {
		pauseIndicator = "[PAUSED] "
	}
	followIndicator := "[FOLLOW]"
	if !m.followMode {
		followIndicator = "[SCROLL]"
	}
	right = fmt.Sprintf("%s%s %d lines", pauseIndicator, followIndicator, len(m.records))

	// Calculate widths
	leftWidth := m.width - lipgloss.Width(right) - 4
	if leftWidth < 0 {
		leftWidth = 0
	}

	leftPart := statusStyle.Width(leftWidth).Render(left)
	rightPart := statusStyle.Render(right)

	return lipgloss.JoinHorizontal(lipgloss.Top, leftPart, "  ", rightPart)
}

// inputLabel names the active input prompt
func inputLabel(mode Mode) string {
	switch mode {
	case ModeText:
		return "Text"
	case ModeTag:
		return "Tag"
	case ModeTagExclude:
		return "Exclude tags"
	case ModeRegex:
		return "Regex"
	case ModePID:
		return "PID"
	case ModePackage:
		return "Package"
	case ModeExport:
		return "Export to"
	case ModeSavePreset:
		return "Preset name"
	}
	return "Input"
}

// conditionSummary renders the active explicit filter condition in short form
func conditionSummary(cond *domain.FilterCondition) string {
	if cond.IsEmpty() {
		return ""
	}
	var parts []string
	if len(cond.Levels) > 0 {
		min := cond.Levels[0]
		for _, lvl := range cond.Levels[1:] {
			if lvl < min {
				min = lvl
			}
		}
		parts = append(parts, min.Letter()+"+")
	}
	if cond.TagInclude != "" {
		parts = append(parts, "tag:"+cond.TagInclude)
	}
	if cond.TagExclude != "" {
		parts = append(parts, "-tag:"+cond.TagExclude)
	}
	if len(cond.PIDs) > 0 {
		parts = append(parts, fmt.Sprintf("pid:%v", cond.PIDs))
	}
	if cond.Text != "" {
		parts = append(parts, "text:"+cond.Text)
	}
	if cond.Regex != "" {
		parts = append(parts, "re:"+cond.Regex)
	}
	return strings.Join(parts, " ")
}

// formatRecord formats a single record for display
func formatRecord(record domain.Record) string {
	// Unparseable lines carry only the raw text
	if record.Time == "" {
		return dimStyle.Render(record.Raw)
	}

	level := levelStyle(record.Level).Render(record.Level.Letter())
	tag := tagStyle(record.Tag).Render(record.Tag)

	return fmt.Sprintf("%s %s %s %s: %s",
		dimStyle.Render(record.Time),
		dimStyle.Render(fmt.Sprintf("%5d", record.PID)),
		level,
		tag,
		record.Message,
	)
}

// levelStyle returns the style for a severity level
func levelStyle(level domain.Level) lipgloss.Style {
	switch level {
	case domain.LevelVerbose:
		return verboseStyle
	case domain.LevelDebug:
		return debugStyle
	case domain.LevelInfo:
		return infoStyle
	case domain.LevelWarn:
		return warnStyle
	case domain.LevelError:
		return errStyle
	case domain.LevelFatal:
		return fatalStyle
	default:
		return defaultLevelStyle
	}
}

// tagStyle returns a stable color for a tag name
func tagStyle(tag string) lipgloss.Style {
	h := fnv.New32a()
	h.Write([]byte(tag))
	return tagStyles[int(h.Sum32())%len(tagStyles)]
}

// presetView renders the preset picker
func (m Model) presetView() string {
	var sb strings.Builder
	sb.WriteString("Filter Presets\n\n")

	if len(m.presets) == 0 {
		sb.WriteString("  No presets saved. Press S in the log view to save one.\n")
	}
	for i, preset := range m.presets {
		if i >= 9 {
			break
		}
		summary := conditionSummary(&preset.Condition)
		if summary == "" {
			summary = "(matches everything)"
		}
		sb.WriteString(fmt.Sprintf("  %d  %-20s %s\n", i+1, preset.Name, dimStyle.Render(summary)))
	}

	sb.WriteString("\n")
	if m.deleteArmed {
		sb.WriteString(notifyStyle.Render(" 1-9 deletes the preset (x to disarm) "))
	} else {
		sb.WriteString("1-9: apply  x: arm delete  ESC: close")
	}

	return helpStyle.Render(sb.String())
}

// helpView renders the help overlay
func (m Model) helpView() string {
	help := `
LogLens - logcat viewer

Navigation:
  j/↓        Scroll down
  k/↑        Scroll up (pauses auto-follow)
  g/Home     Go to top (pauses auto-follow)
  G/End      Go to bottom (resumes auto-follow)
  PgUp/PgDn  Page up/down
  F          Toggle auto-follow mode

Filtering:
  /          Text filter (substring)
  r          Regex filter
  t          Tag filter
  T          Tag exclusion list
  i          PID filter
  L          Cycle minimum level (D/I/W/E)
  p          Package scope (pid tracking)
  ESC        Clear filters and package scope

Session:
  Space      Pause/resume display
  c          Clear buffers
  d          Cycle device
  D          Refresh device list
  y          Copy visible lines to clipboard
  e          Export visible lines to a file
  S          Save current filter as preset
  P          Preset picker

Other:
  ?          Toggle help
  q/Ctrl+C   Quit

Press any key to close help...
`
	return helpStyle.Render(help)
}

// truncate shortens a string to maxLen runes
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}
