package tui

import (
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
)

var (
	headingStyle    = lipgloss.NewStyle().Bold(true).Underline(true)
	subheadingStyle = lipgloss.NewStyle().Bold(true)
	bulletStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	boldStyle       = lipgloss.NewStyle().Bold(true)
)

// MarkdownFormatter renders the assistant's markdown answers for the
// terminal: styled headings and bullets, syntax-highlighted code fences.
// It is line-based so partially streamed content renders sensibly.
type MarkdownFormatter struct {
	width int
}

func NewMarkdownFormatter(width int) *MarkdownFormatter {
	return &MarkdownFormatter{width: width}
}

func (f *MarkdownFormatter) Format(content string) string {
	var out []string

	inCode := false
	var codeLines []string
	var codeLang string

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") {
			if inCode {
				out = append(out, f.highlight(strings.Join(codeLines, "\n"), codeLang))
				codeLines = nil
				inCode = false
			} else {
				inCode = true
				codeLang = strings.TrimPrefix(trimmed, "```")
			}
			continue
		}

		if inCode {
			codeLines = append(codeLines, line)
			continue
		}

		out = append(out, f.formatLine(line))
	}

	// An unterminated fence is normal mid-stream; show what we have.
	if inCode && len(codeLines) > 0 {
		out = append(out, f.highlight(strings.Join(codeLines, "\n"), codeLang))
	}

	return strings.Join(out, "\n")
}

func (f *MarkdownFormatter) formatLine(line string) string {
	trimmed := strings.TrimSpace(line)

	switch {
	case strings.HasPrefix(trimmed, "### "):
		return subheadingStyle.Render(strings.TrimPrefix(trimmed, "### "))
	case strings.HasPrefix(trimmed, "## "):
		return headingStyle.Render(strings.TrimPrefix(trimmed, "## "))
	case strings.HasPrefix(trimmed, "# "):
		return headingStyle.Render(strings.TrimPrefix(trimmed, "# "))
	case strings.HasPrefix(trimmed, "- "), strings.HasPrefix(trimmed, "* "):
		return "  " + bulletStyle.Render("•") + " " + formatInline(trimmed[2:])
	default:
		return formatInline(line)
	}
}

// formatInline renders **bold** spans; other inline markdown passes
// through untouched.
func formatInline(line string) string {
	var b strings.Builder
	for {
		start := strings.Index(line, "**")
		if start < 0 {
			b.WriteString(line)
			break
		}
		end := strings.Index(line[start+2:], "**")
		if end < 0 {
			b.WriteString(line)
			break
		}
		b.WriteString(line[:start])
		b.WriteString(boldStyle.Render(line[start+2 : start+2+end]))
		line = line[start+4+end:]
	}
	return b.String()
}

func (f *MarkdownFormatter) highlight(code, lang string) string {
	if lang == "" {
		lang = "text"
	}

	var b strings.Builder
	if err := quick.Highlight(&b, code, lang, "terminal256", "monokai"); err != nil {
		return code
	}
	return b.String()
}
