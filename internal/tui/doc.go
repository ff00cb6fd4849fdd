// Package tui provides the interactive terminal chat screen of subtasker.
//
// The screen shows the visible log of a chat session and an input field.
// Submitting a prompt hands it to the session; the session reports progress
// through its Updates channel, which the app listens on through tea commands.
// While an agent works the last log entry is a Typing placeholder, drawn as
// a spinner. Decompositions are rendered as nested lists with glamour.
//
// Usage:
//
//	program, app := tui.NewChatProgram(session, tui.Options{Model: model})
//	_ = app
//	if _, err := program.Run(); err != nil {
//	    return err
//	}
//
// The user quits with Ctrl+C or Esc.
package tui
