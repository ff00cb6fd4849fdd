package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Header renders the title bar.
type Header struct {
	width int
	model string
}

// NewHeader creates a new Header showing the model in use.
func NewHeader(model string) *Header {
	return &Header{
		width: 80,
		model: model,
	}
}

// SetWidth sets the header width.
func (h *Header) SetWidth(width int) {
	h.width = width
}

// View renders the header.
func (h *Header) View() string {
	title := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#4ECDC4")).
		Bold(true).
		Render("subtasker")

	subtitle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("243")).
		Italic(true).
		Render("  task decomposition assistant")

	line := title + subtitle
	if h.model != "" {
		line += lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render("  · " + h.model)
	}

	return lipgloss.NewStyle().
		Width(h.width).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(lipgloss.Color("236")).
		Render(line)
}

// Height returns the header height in lines.
func (h *Header) Height() int {
	return 2 // title + bottom border
}
