package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// PromptSubmittedMsg is sent when the user submits a prompt.
type PromptSubmittedMsg struct {
	Text string
}

// DefaultInputLimit is the character limit used when none is configured.
const DefaultInputLimit = 4000

// InputField is a text input component for entering prompts.
type InputField struct {
	input textinput.Model
	width int
}

// NewInputField creates a new InputField accepting up to limit characters.
func NewInputField(limit int) *InputField {
	if limit <= 0 {
		limit = DefaultInputLimit
	}
	ti := textinput.New()
	ti.Placeholder = "Describe a task and press Enter..."
	ti.Focus()
	ti.CharLimit = limit
	ti.Width = 60

	return &InputField{
		input: ti,
		width: 80,
	}
}

// SetWidth sets the width of the input field.
func (f *InputField) SetWidth(width int) {
	f.width = width
	f.input.Width = width - 4 // prompt and padding
}

// SetPlaceholder replaces the placeholder text.
func (f *InputField) SetPlaceholder(text string) {
	f.input.Placeholder = text
}

// Value returns the current text.
func (f *InputField) Value() string {
	return f.input.Value()
}

// Update handles messages for the input field.
func (f *InputField) Update(msg tea.Msg) (*InputField, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEnter {
		text := f.input.Value()
		if strings.TrimSpace(text) == "" {
			return f, nil
		}
		f.input.Reset()
		return f, func() tea.Msg {
			return PromptSubmittedMsg{Text: text}
		}
	}

	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	return f, cmd
}

// View renders the input field.
func (f *InputField) View() string {
	promptStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("39")).
		Bold(true)

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1).
		Width(f.width - 2)

	return boxStyle.Render(promptStyle.Render("> ") + f.input.View())
}

// Focus sets focus on the input field.
func (f *InputField) Focus() tea.Cmd {
	return f.input.Focus()
}

// Blur removes focus from the input field.
func (f *InputField) Blur() {
	f.input.Blur()
}

// Focused reports whether the field accepts keys.
func (f *InputField) Focused() bool {
	return f.input.Focused()
}
