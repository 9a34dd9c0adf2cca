package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/TheSilvered/Cursors/internal/pipeline"
)

var (
	// Colors
	colorActive  = lipgloss.Color("3")  // yellow
	colorDone    = lipgloss.Color("2")  // green
	colorFailed  = lipgloss.Color("1")  // red
	colorSkipped = lipgloss.Color("8")  // dim gray
	colorHeader  = lipgloss.Color("12") // bright blue
	colorMuted   = lipgloss.Color("8")  // dim

	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorHeader)

	nameStyle = lipgloss.NewStyle().
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(colorActive)

	footerStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	errDetailStyle = lipgloss.NewStyle().
			Foreground(colorMuted)
)

// statusStyle returns the style for a pipeline status.
func statusStyle(status pipeline.Status) lipgloss.Style {
	switch status {
	case pipeline.StatusRendering, pipeline.StatusAssembling:
		return lipgloss.NewStyle().Foreground(colorActive)
	case pipeline.StatusDone:
		return lipgloss.NewStyle().Foreground(colorDone)
	case pipeline.StatusFailed:
		return lipgloss.NewStyle().Foreground(colorFailed).Bold(true)
	case pipeline.StatusSkipped:
		return lipgloss.NewStyle().Foreground(colorSkipped)
	default:
		return lipgloss.NewStyle().Foreground(colorMuted)
	}
}
