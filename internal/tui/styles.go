package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary   = lipgloss.Color("12")  // bright blue
	colorSecondary = lipgloss.Color("10")  // bright green
	colorDim       = lipgloss.Color("240") // gray
	colorHighlight = lipgloss.Color("11")  // bright yellow
	colorError     = lipgloss.Color("9")   // bright red
	colorBorder    = lipgloss.Color("238") // dark gray

	// Query box
	styleInput       = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	styleInputPrompt = styleInput

	// Result rows
	styleListSelected = lipgloss.NewStyle().Foreground(colorHighlight).Bold(true)
	styleSourceClaude = lipgloss.NewStyle().Foreground(colorPrimary)
	styleSourceCodex  = lipgloss.NewStyle().Foreground(colorSecondary)
	styleTitle        = lipgloss.NewStyle().Foreground(colorDim).Bold(true)

	stylePanelBorder = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorBorder)

	styleActiveBorder = stylePanelBorder.BorderForeground(colorPrimary)

	styleStatusBar   = lipgloss.NewStyle().Foreground(colorDim).Padding(0, 1)
	styleStatusBusy  = lipgloss.NewStyle().Foreground(colorHighlight)
	styleStatusError = lipgloss.NewStyle().Foreground(colorError).Bold(true)
)
