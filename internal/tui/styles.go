package tui

import "github.com/charmbracelet/lipgloss"

// Colors
var (
	// Log level colors
	verboseColor = lipgloss.Color("8")   // Gray
	debugColor   = lipgloss.Color("14")  // Cyan
	infoColor    = lipgloss.Color("10")  // Green
	warnColor    = lipgloss.Color("11")  // Yellow
	errorColor   = lipgloss.Color("9")   // Red
	fatalColor   = lipgloss.Color("13")  // Magenta

	// UI colors
	statusBg = lipgloss.Color("236")
	helpBg   = lipgloss.Color("234")
	dimColor = lipgloss.Color("8")

	// Tag colors (for log lines)
	tagColorList = []lipgloss.Color{
		lipgloss.Color("14"),  // Cyan
		lipgloss.Color("13"),  // Magenta
		lipgloss.Color("12"),  // Blue
		lipgloss.Color("11"),  // Yellow
		lipgloss.Color("10"),  // Green
		lipgloss.Color("208"), // Orange
		lipgloss.Color("207"), // Pink
		lipgloss.Color("159"), // Light blue
		lipgloss.Color("156"), // Light green
	}
)

// Styles
var (
	// Level styles
	verboseStyle = lipgloss.NewStyle().
			Foreground(verboseColor)

	debugStyle = lipgloss.NewStyle().
			Foreground(debugColor)

	infoStyle = lipgloss.NewStyle().
			Foreground(infoColor)

	warnStyle = lipgloss.NewStyle().
			Foreground(warnColor)

	errStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)

	fatalStyle = lipgloss.NewStyle().
			Foreground(fatalColor).
			Bold(true)

	defaultLevelStyle = lipgloss.NewStyle()

	// Status bar style
	statusStyle = lipgloss.NewStyle().
			Background(statusBg).
			Padding(0, 1)

	// Help overlay style
	helpStyle = lipgloss.NewStyle().
			Background(helpBg).
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240"))

	// Notification style
	notifyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Background(errorColor).
			Bold(true)

	// Dim style for timestamps and pids
	dimStyle = lipgloss.NewStyle().
			Foreground(dimColor)

	// Tag styles for log lines
	tagStyles []lipgloss.Style
)

func init() {
	// Initialize tag color styles
	for _, color := range tagColorList {
		tagStyles = append(tagStyles, lipgloss.NewStyle().Foreground(color))
	}
}
