package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/sd155/subtasker/internal/chat"
	"github.com/sd155/subtasker/pkg/models"
)

// ErrorText is shown for a failed agent turn.
const ErrorText = "AI request failed"

// HandoffText is shown when a decomposition goes to the checker.
const HandoffText = "Decomposition ready, checking it..."

var (
	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)
	agentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("213")).
			Bold(true)
	handoffStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Italic(true)
	errorBubbleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("196")).
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("196")).
				Padding(0, 1)
	validStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("28")).
			Bold(true)
	invalidStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)
)

// SubtaskMarkdown renders a decomposition as a nested markdown list.
func SubtaskMarkdown(nodes []models.SubtaskNode) string {
	var b strings.Builder
	models.Walk(nodes, func(n models.SubtaskNode, depth int) bool {
		fmt.Fprintf(&b, "%s- **%s %s**: %s\n", strings.Repeat("  ", depth), n.ID, n.Name, n.Instruction)
		return true
	})
	return b.String()
}

// SubtaskOutline renders a decomposition as indented plain text.
func SubtaskOutline(nodes []models.SubtaskNode) string {
	var b strings.Builder
	models.Walk(nodes, func(n models.SubtaskNode, depth int) bool {
		fmt.Fprintf(&b, "%s%s %s: %s\n", strings.Repeat("  ", depth), n.ID, n.Name, n.Instruction)
		return true
	})
	return b.String()
}

// Valid reports whether a result description marks an accepted decomposition.
func Valid(r chat.AgentResult) bool {
	return r.Description == chat.DescriptionValid
}

// renderer turns log entries into terminal text.
type renderer struct {
	markdown *glamour.TermRenderer
	width    int
}

func newRenderer(width int) *renderer {
	r := &renderer{}
	r.resize(width)
	return r
}

// resize rebuilds the markdown renderer for a new wrap width.
func (r *renderer) resize(width int) {
	if width < 20 {
		width = 20
	}
	r.width = width
	md, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width-4),
	)
	if err != nil {
		r.markdown = nil
		return
	}
	r.markdown = md
}

func (r *renderer) subtasks(nodes []models.SubtaskNode) string {
	source := SubtaskMarkdown(nodes)
	if r.markdown == nil {
		return SubtaskOutline(nodes)
	}
	out, err := r.markdown.Render(source)
	if err != nil {
		return SubtaskOutline(nodes)
	}
	return strings.TrimRight(out, "\n")
}

// entry renders one log entry. spinner is drawn for a Typing placeholder.
func (r *renderer) entry(m chat.Message, spinner string) string {
	return chat.MatchMessage(m, chat.MessageHandlers[string]{
		User: func(u chat.UserMessage) string {
			return userStyle.Render("You") + "\n" + lipgloss.NewStyle().Width(r.width).Render(u.Text)
		},
		Typing: func(chat.Typing) string {
			return agentStyle.Render("Assistant") + "\n" + spinner + " thinking..."
		},
		Question: func(q chat.AgentQuestion) string {
			return agentStyle.Render("Assistant") + "\n" + lipgloss.NewStyle().Width(r.width).Render(q.Question)
		},
		Handoff: func(chat.AgentHandoff) string {
			return handoffStyle.Render(HandoffText)
		},
		Result: func(res chat.AgentResult) string {
			style := invalidStyle
			if Valid(res) {
				style = validStyle
			}
			return agentStyle.Render("Assistant") + "\n" +
				style.Render(res.Description) + "\n" +
				r.subtasks(res.Subtasks)
		},
		Error: func(chat.AgentError) string {
			return errorBubbleStyle.Render(ErrorText)
		},
	})
}

// log renders the whole log, one blank line between entries.
func (r *renderer) log(messages []chat.Message, spinner string) string {
	parts := make([]string, 0, len(messages))
	for _, m := range messages {
		parts = append(parts, r.entry(m, spinner))
	}
	return strings.Join(parts, "\n\n")
}
