package tui

import "github.com/charmbracelet/lipgloss"

// Palette shared by every view.
const (
	ColorHeader    = lipgloss.Color("39")
	ColorBorder    = lipgloss.Color("240")
	ColorLabel     = lipgloss.Color("245")
	ColorValue     = lipgloss.Color("252")
	ColorMuted     = lipgloss.Color("241")
	ColorHighlight = lipgloss.Color("212")
	ColorOK        = lipgloss.Color("42")
	ColorWarning   = lipgloss.Color("214")
	ColorCritical  = lipgloss.Color("196")
)

// Icons used in status lines.
const (
	IconCheck   = "✓"
	IconCross   = "✗"
	IconPause   = "⏸"
	IconPointer = "›"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorHeader).
			Border(lipgloss.NormalBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)
	labelStyle    = lipgloss.NewStyle().Foreground(ColorLabel)
	valueStyle    = lipgloss.NewStyle().Foreground(ColorValue).Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(ColorMuted).Italic(true)
	okStyle       = lipgloss.NewStyle().Foreground(ColorOK).Bold(true)
	warningStyle  = lipgloss.NewStyle().Foreground(ColorWarning).Bold(true)
	criticalStyle = lipgloss.NewStyle().Foreground(ColorCritical).Bold(true)
	spinnerStyle  = lipgloss.NewStyle().Foreground(ColorHighlight)
)
