package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/PabloGalante/counsel-agent/internal/app/conversation"
	"github.com/PabloGalante/counsel-agent/internal/domain"
)

// Tokyo Night color palette.
var (
	colorBlue   = lipgloss.Color("#7aa2f7")
	colorGreen  = lipgloss.Color("#9ece6a")
	colorYellow = lipgloss.Color("#e0af68")
	colorRed    = lipgloss.Color("#f7768e")
	colorGray   = lipgloss.Color("#565f89")
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorBlue)
	mutedStyle = lipgloss.NewStyle().Foreground(colorGray)
	userStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorBlue)
	botStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorGreen)
	errorStyle = lipgloss.NewStyle().Foreground(colorRed)

	severityStyles = map[domain.Severity]lipgloss.Style{
		domain.SeverityInfo:  lipgloss.NewStyle().Bold(true).Foreground(colorGreen),
		domain.SeverityWarn:  lipgloss.NewStyle().Bold(true).Foreground(colorYellow),
		domain.SeverityBlock: lipgloss.NewStyle().Bold(true).Foreground(colorRed),
	}
	findingBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBlue).
			Padding(0, 1)
)

func severityLabel(s domain.Severity) string {
	style, ok := severityStyles[s]
	if !ok {
		style = mutedStyle
	}
	return style.Render(fmt.Sprintf("%-5s", strings.ToUpper(string(s))))
}

func renderFindings(w io.Writer, findings []domain.Finding) {
	lines := make([]string, 0, len(findings))
	for _, f := range findings {
		lines = append(lines, fmt.Sprintf("%s %s", severityLabel(f.Severity), f.Message))
	}
	_, _ = fmt.Fprintln(w, titleStyle.Render("Result"))
	_, _ = fmt.Fprintln(w, findingBox.Render(strings.Join(lines, "\n")))
}

func renderMessage(w io.Writer, m *domain.Message) {
	label := userStyle.Render("you")
	if m.Role == domain.RoleAssistant {
		label = botStyle.Render("counsel")
	}

	text := m.Text
	switch {
	case m.Pending:
		text = mutedStyle.Render("thinking...")
	case m.Failed:
		text = errorStyle.Render(m.Text)
	}

	_, _ = fmt.Fprintf(w, "%s %s\n", label, mutedStyle.Render(m.CreatedAt.Format("2006-01-02 15:04")))
	if text != "" {
		_, _ = fmt.Fprintln(w, text)
	}
	if m.AttachmentURL != "" {
		kind := "attachment"
		if conversation.IsDisplayableImage(m.AttachmentURL) {
			kind = "image"
		}
		_, _ = fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("[%s: %s]", kind, m.AttachmentURL)))
	}
	_, _ = fmt.Fprintln(w)
}
