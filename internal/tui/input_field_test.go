package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestNewInputField(t *testing.T) {
	field := NewInputField(0)

	if field == nil {
		t.Fatal("NewInputField returned nil")
	}
	if field.width != 80 {
		t.Errorf("Default width = %d, want 80", field.width)
	}
	if field.input.CharLimit != DefaultInputLimit {
		t.Errorf("CharLimit = %d, want %d", field.input.CharLimit, DefaultInputLimit)
	}
	if NewInputField(10).input.CharLimit != 10 {
		t.Error("explicit limit should be used")
	}
}

func TestInputField_SetWidth(t *testing.T) {
	field := NewInputField(0)

	field.SetWidth(120)

	if field.width != 120 {
		t.Errorf("Width after SetWidth(120) = %d, want 120", field.width)
	}
	if field.input.Width != 116 {
		t.Errorf("Input width = %d, want 116", field.input.Width)
	}
}

func TestInputField_Update_Enter_EmptyInput(t *testing.T) {
	for _, value := range []string{"", "   "} {
		field := NewInputField(0)
		field.input.SetValue(value)

		_, cmd := field.Update(tea.KeyMsg{Type: tea.KeyEnter})

		if cmd != nil {
			if _, ok := cmd().(PromptSubmittedMsg); ok {
				t.Errorf("Should not submit blank input %q", value)
			}
		}
	}
}

func TestInputField_Update_Enter_WithInput(t *testing.T) {
	field := NewInputField(0)
	field.input.SetValue("plan a birthday party")

	_, cmd := field.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("Expected command from enter with text")
	}

	submitted, ok := cmd().(PromptSubmittedMsg)
	if !ok {
		t.Fatal("Expected PromptSubmittedMsg")
	}
	if submitted.Text != "plan a birthday party" {
		t.Errorf("Text = %q, want %q", submitted.Text, "plan a birthday party")
	}
	if field.input.Value() != "" {
		t.Errorf("Input should be reset after submit, got %q", field.input.Value())
	}
}

func TestInputField_FocusBlur(t *testing.T) {
	field := NewInputField(0)

	field.Blur()
	if field.Focused() {
		t.Error("Field should not be focused after Blur")
	}
	field.Focus()
	if !field.Focused() {
		t.Error("Field should be focused after Focus")
	}
}

func TestInputField_View(t *testing.T) {
	field := NewInputField(0)
	if field.View() == "" {
		t.Error("View should not be empty")
	}
}
