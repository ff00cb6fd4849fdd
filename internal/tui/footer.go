package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/sd155/subtasker/internal/chat"
)

// Usage reports accumulated token usage. *llm.TokenTracker implements it.
type Usage interface {
	Total() (input, output int64)
	Calls() int
	Failures() int
}

// Footer renders the status bar and keyboard hints.
type Footer struct {
	state   chat.TurnState
	queued  int
	message string
	isError bool
	stopped bool
	usage   Usage
	width   int

	// Styles
	stateStyle     lipgloss.Style
	errorStyle     lipgloss.Style
	hintStyle      lipgloss.Style
	separatorStyle lipgloss.Style
}

// NewFooter creates a new Footer. usage may be nil.
func NewFooter(usage Usage) *Footer {
	return &Footer{
		usage: usage,

		stateStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")),

		errorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true),

		hintStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),

		separatorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("236")),
	}
}

// SetState sets the turn state shown on the left.
func (f *Footer) SetState(state chat.TurnState) {
	f.state = state
}

// SetQueued sets the number of prompts waiting behind the running turn.
func (f *Footer) SetQueued(n int) {
	f.queued = n
}

// SetMessage sets a transient status message.
func (f *Footer) SetMessage(message string, isError bool) {
	f.message = message
	f.isError = isError
}

// SetStopped marks the session as stopped for good.
func (f *Footer) SetStopped(message string) {
	f.stopped = true
	f.message = message
	f.isError = true
}

// SetWidth sets the footer width.
func (f *Footer) SetWidth(width int) {
	f.width = width
}

// View renders the footer.
func (f *Footer) View() string {
	sep := f.separatorStyle.Render(" │ ")

	left := f.stateStyle.Render(stateLabel(f.state))
	if f.queued > 0 {
		left += fmt.Sprintf(" (+%d queued)", f.queued)
	}
	if f.message != "" {
		style := f.hintStyle
		if f.isError {
			style = f.errorStyle
		}
		left += sep + style.Render(f.message)
	}

	if usage := f.usageText(); usage != "" {
		left += sep + f.hintStyle.Render(usage)
	}

	return left + sep + f.keyboardHints()
}

func (f *Footer) usageText() string {
	if f.usage == nil || f.usage.Calls() == 0 {
		return ""
	}
	input, output := f.usage.Total()
	text := fmt.Sprintf("%d calls, %d in / %d out tokens", f.usage.Calls(), input, output)
	if failures := f.usage.Failures(); failures > 0 {
		text += fmt.Sprintf(", %d failed", failures)
	}
	return text
}

// keyboardHints returns context-sensitive keyboard hints.
func (f *Footer) keyboardHints() string {
	if f.stopped {
		return f.hintStyle.Render("esc quit")
	}
	return f.hintStyle.Render("enter send │ pgup/pgdn scroll │ esc quit")
}

func stateLabel(s chat.TurnState) string {
	switch s {
	case chat.StateAwaitingDecomposition:
		return "decomposing"
	case chat.StateAwaitingValidation:
		return "checking"
	default:
		return "ready"
	}
}
