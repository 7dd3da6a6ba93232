package llm

import (
	"fmt"
	"strings"

	"github.com/PabloGalante/counsel-agent/internal/domain"
)

const systemPrompt = `
You are a virtual lawyer specialized in copyright and trademark law, helping
creative teams decide whether they may use a piece of content commercially.

Your role:
- Analyze the user's question and any attached file (image, audio, video, link) from a legal point of view.
- Identify who likely owns the rights, what license would be needed, and what could go wrong.
- Flag derivative-work risk, trademark use, and the need for releases from identifiable people.
- You do NOT replace a licensed attorney; say so when the stakes are high.

Style guidelines:
- Answer in the SAME LANGUAGE as the user.
- Start with a one-line verdict, then short bullet points: risks, what to verify, next steps.
- Be concrete; avoid generic disclaimers beyond one closing sentence.
- Use the conversation so far for context, but answer the newest question.
`

// Prompt is the system instruction plus the user content for one turn.
type Prompt struct {
	System string
	User   string
}

// BuildPrompt renders a request as a single user message, for backends that
// take no structured history.
func BuildPrompt(req domain.AnalysisRequest) Prompt {
	var b strings.Builder
	if h := HistoryText(req.History); h != "" {
		b.WriteString("Conversation so far:\n")
		b.WriteString(h)
		b.WriteString("\n\n")
	}
	b.WriteString(userTurn(req))

	return Prompt{
		System: strings.TrimSpace(systemPrompt),
		User:   b.String(),
	}
}

// HistoryText renders history as "question:"/"answer:" lines.
func HistoryText(history []domain.HistoryEntry) string {
	lines := make([]string, 0, len(history))
	for _, h := range history {
		label := "question"
		if h.Role == domain.RoleAssistant {
			label = "answer"
		}
		line := label + ": " + h.Text
		if h.AttachmentURL != "" {
			line += " [attachment: " + h.AttachmentURL + "]"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func userTurn(req domain.AnalysisRequest) string {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		text = "Please analyze the attached file for commercial use."
	}
	if req.AttachmentURL == "" {
		return "Question: " + text
	}
	return fmt.Sprintf("Question: %s\nAttached file: %s", text, req.AttachmentURL)
}
