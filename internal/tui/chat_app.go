package tui

import (
	"errors"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sd155/subtasker/internal/chat"
)

// Session is what the chat screen needs from a chat session.
type Session interface {
	SubmitPrompt(text string) error
	Messages() []chat.Message
	Updates() <-chan chat.Event
	Pending() int
}

// Options configures the chat screen.
type Options struct {
	// Model is shown in the header.
	Model string
	// InputLimit caps the prompt length.
	InputLimit int
	// Usage feeds the token counters in the footer. May be nil.
	Usage Usage
}

// SessionEventMsg carries one session event into the update loop.
type SessionEventMsg struct {
	Event chat.Event
}

// SessionClosedMsg is sent once the session's update channel is closed.
type SessionClosedMsg struct{}

// ChatApp is the bubbletea model of the chat screen.
type ChatApp struct {
	session  Session
	updates  <-chan chat.Event
	input    *InputField
	viewport viewport.Model
	spinner  spinner.Model
	renderer *renderer
	header   *Header
	footer   *Footer

	width    int
	height   int
	ready    bool
	stopped  bool
	quitting bool
}

// NewChatApp creates the chat screen for session.
func NewChatApp(session Session, opts Options) *ChatApp {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))

	return &ChatApp{
		session:  session,
		updates:  session.Updates(),
		input:    NewInputField(opts.InputLimit),
		viewport: viewport.New(80, 20),
		spinner:  sp,
		renderer: newRenderer(80),
		header:   NewHeader(opts.Model),
		footer:   NewFooter(opts.Usage),
	}
}

// Init implements tea.Model.
func (a *ChatApp) Init() tea.Cmd {
	return tea.Batch(a.input.Focus(), a.spinner.Tick, listen(a.updates))
}

// listen waits for the next session event.
func listen(updates <-chan chat.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-updates
		if !ok {
			return SessionClosedMsg{}
		}
		return SessionEventMsg{Event: ev}
	}
}

// Update implements tea.Model.
func (a *ChatApp) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			a.quitting = true
			return a, tea.Quit
		case "pgup", "pgdown", "up", "down":
			var cmd tea.Cmd
			a.viewport, cmd = a.viewport.Update(msg)
			return a, cmd
		}
		if a.stopped {
			return a, nil
		}
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		return a, cmd

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.updateSizes()
		a.refresh()
		return a, nil

	case PromptSubmittedMsg:
		if err := a.session.SubmitPrompt(msg.Text); err != nil {
			a.footer.SetMessage(submitErrorText(err), true)
			return a, nil
		}
		a.footer.SetMessage("", false)
		a.footer.SetQueued(a.session.Pending())
		return a, nil

	case SessionEventMsg:
		a.handleEvent(msg.Event)
		return a, listen(a.updates)

	case SessionClosedMsg:
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		if a.typing() {
			a.refresh()
		}
		return a, cmd
	}

	return a, nil
}

func (a *ChatApp) handleEvent(ev chat.Event) {
	switch ev.Type {
	case chat.EventLogChanged:
		a.refresh()
	case chat.EventTurnState:
		a.footer.SetState(ev.State)
		a.footer.SetQueued(a.session.Pending())
	case chat.EventTurnDone:
		a.footer.SetState(chat.StateIdle)
		a.footer.SetQueued(a.session.Pending())
	case chat.EventFatal:
		a.stopped = true
		a.input.Blur()
		a.input.SetPlaceholder("Session stopped")
		a.footer.SetStopped("session stopped: " + errorText(ev.Error))
		a.refresh()
	}
}

func submitErrorText(err error) string {
	switch {
	case errors.Is(err, chat.ErrEmptyPrompt):
		return "prompt is empty"
	case errors.Is(err, chat.ErrSessionClosed):
		return "session is closed"
	default:
		return err.Error()
	}
}

func errorText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}

// typing reports whether an agent placeholder is on screen.
func (a *ChatApp) typing() bool {
	messages := a.session.Messages()
	if len(messages) == 0 {
		return false
	}
	_, ok := messages[len(messages)-1].(chat.Typing)
	return ok
}

// refresh re-renders the log into the viewport and scrolls to the end.
func (a *ChatApp) refresh() {
	a.viewport.SetContent(a.renderer.log(a.session.Messages(), a.spinner.View()))
	a.viewport.GotoBottom()
}

// updateSizes updates the sizes of child components based on terminal size.
func (a *ChatApp) updateSizes() {
	inputHeight := 3 // border + content
	footerHeight := 1
	vpHeight := a.height - a.header.Height() - inputHeight - footerHeight
	if vpHeight < 1 {
		vpHeight = 1
	}

	a.header.SetWidth(a.width)
	a.footer.SetWidth(a.width)
	a.input.SetWidth(a.width)
	a.viewport.Width = a.width
	a.viewport.Height = vpHeight
	a.renderer.resize(a.width)
}

// View implements tea.Model.
func (a *ChatApp) View() string {
	if a.quitting {
		return "Goodbye!\n"
	}
	if !a.ready {
		return "Starting..."
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		a.header.View(),
		a.viewport.View(),
		a.input.View(),
		a.footer.View(),
	)
}

// NewChatProgram creates a new bubbletea program for the chat screen.
func NewChatProgram(session Session, opts Options) (*tea.Program, *ChatApp) {
	app := NewChatApp(session, opts)
	p := tea.NewProgram(app, tea.WithAltScreen())
	return p, app
}
