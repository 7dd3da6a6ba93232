package httpadapter

import (
	"time"

	"github.com/PabloGalante/counsel-agent/internal/app/conversation"
	"github.com/PabloGalante/counsel-agent/internal/domain"
)

// ─────────────────────────────────────────────
// Requests
// ─────────────────────────────────────────────

type createThreadRequest struct {
	Name string `json:"name"`
}

type renameThreadRequest struct {
	Name string `json:"name" binding:"required"`
}

type submitRequest struct {
	Text          string `json:"text" form:"text"`
	AttachmentURL string `json:"attachment_url" form:"attachment_url"`
}

type selectThreadRequest struct {
	ThreadID string `json:"thread_id" binding:"required"`
}

type draftRequest struct {
	Text          string `json:"text"`
	AttachmentURL string `json:"attachment_url"`
}

type identifyRequest struct {
	URL string `json:"url" binding:"required,url"`
}

// ─────────────────────────────────────────────
// Responses
// ─────────────────────────────────────────────

type threadResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	Active    bool      `json:"active"`
	Pending   bool      `json:"pending"`
}

type listThreadsResponse struct {
	Threads        []threadResponse `json:"threads"`
	ActiveThreadID string           `json:"active_thread_id"`
}

type messageResponse struct {
	ID               string    `json:"id"`
	ThreadID         string    `json:"thread_id"`
	Role             string    `json:"role"`
	Text             string    `json:"text"`
	AttachmentURL    string    `json:"attachment_url,omitempty"`
	DisplayableImage bool      `json:"displayable_image"`
	Pending          bool      `json:"pending"`
	Failed           bool      `json:"failed"`
	CreatedAt        time.Time `json:"created_at"`
}

type timelineResponse struct {
	ThreadID string            `json:"thread_id"`
	Pending  bool              `json:"pending"`
	Messages []messageResponse `json:"messages"`
}

type submitResponse struct {
	UserMessage      messageResponse `json:"user_message"`
	AssistantMessage messageResponse `json:"assistant_message"`
	Error            string          `json:"error,omitempty"`
}

type findingsResponse struct {
	Findings []domain.Finding `json:"findings"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toThreadResponse(t *domain.Thread, svc *conversation.Service) threadResponse {
	return threadResponse{
		ID:        string(t.ID),
		Name:      t.Name,
		CreatedAt: t.CreatedAt,
		Active:    svc.ActiveThread() == t.ID,
		Pending:   svc.IsPending(t.ID),
	}
}

func toMessageResponse(m *domain.Message) messageResponse {
	return messageResponse{
		ID:               string(m.ID),
		ThreadID:         string(m.ThreadID),
		Role:             string(m.Role),
		Text:             m.Text,
		AttachmentURL:    m.AttachmentURL,
		DisplayableImage: conversation.IsDisplayableImage(m.AttachmentURL),
		Pending:          m.Pending,
		Failed:           m.Failed,
		CreatedAt:        m.CreatedAt,
	}
}

func toMessagesResponse(msgs []*domain.Message) []messageResponse {
	out := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessageResponse(m))
	}
	return out
}

func toSubmitResponse(out *conversation.SubmitOutput) submitResponse {
	return submitResponse{
		UserMessage:      toMessageResponse(out.UserMessage),
		AssistantMessage: toMessageResponse(out.AssistantMessage),
	}
}
