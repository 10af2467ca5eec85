package tui

import "github.com/charmbracelet/lipgloss"

const (
	colorUser      = "#7D56F4"
	colorAssistant = "#04B575"
	colorSystem    = "#F2A93B"
	colorNotice    = "#FF5F87"
	colorSubtle    = "#6C6C6C"
)

var (
	userLabelStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorUser))
	assistantLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorAssistant))
	systemLabelStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorSystem))
	noticeStyle         = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color(colorNotice))
	indexStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color(colorSubtle))
	statusStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color(colorSubtle))
	inputBorderStyle    = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color(colorUser))
)
