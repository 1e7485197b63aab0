package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/legalintel/counsel/pkg/chat"
)

var (
	userLabelStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	assistantLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	failedStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	pendingStyle        = lipgloss.NewStyle().Faint(true)
)

// Renderer turns transcript entries into terminal lines.
type Renderer struct {
	width    int
	markdown *MarkdownFormatter
}

func NewRenderer(width int) *Renderer {
	if width <= 0 {
		width = 80
	}
	return &Renderer{
		width:    width,
		markdown: NewMarkdownFormatter(width),
	}
}

// RenderEntry formats one entry, label line plus body.
func (r *Renderer) RenderEntry(e chat.Entry) string {
	var b strings.Builder

	switch {
	case e.IsUser():
		b.WriteString(userLabelStyle.Render("You"))
	default:
		b.WriteString(assistantLabelStyle.Render("Assistant"))
	}
	b.WriteString("\n")

	switch e.Status {
	case chat.StatusPending:
		b.WriteString(pendingStyle.Render("…"))
	case chat.StatusFailed:
		b.WriteString(failedStyle.Render(e.Content))
	default:
		if e.IsAssistant() {
			b.WriteString(r.markdown.Format(e.Content))
		} else {
			b.WriteString(e.Content)
		}
	}

	return b.String()
}

// RenderTranscript formats the whole view with blank lines between
// entries.
func (r *Renderer) RenderTranscript(t chat.Transcript) string {
	parts := make([]string, 0, len(t))
	for _, e := range t {
		parts = append(parts, r.RenderEntry(e))
	}
	return strings.Join(parts, "\n\n")
}

// RenderNotice formats a transient out-of-band message, such as the
// stream-failure toast.
func RenderNotice(msg string) string {
	return failedStyle.Render(fmt.Sprintf("! %s", msg))
}
