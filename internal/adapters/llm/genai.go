package llm

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/url"
	"path"
	"strings"

	"google.golang.org/genai"

	"github.com/PabloGalante/counsel-agent/internal/domain"
)

// GenAIAnalyzer implements domain.AnalysisService with Gemini, either through
// Vertex AI or the Gemini API.
type GenAIAnalyzer struct {
	client    *genai.Client
	modelName string
	// Vertex accepts remote file URIs as parts, the Gemini API does not.
	attachFiles bool
}

var _ domain.AnalysisService = (*GenAIAnalyzer)(nil)

// NewVertexAnalyzer creates an analyzer backed by Vertex AI.
func NewVertexAnalyzer(ctx context.Context, projectID, location, modelName string) (*GenAIAnalyzer, error) {
	if projectID == "" || location == "" {
		return nil, errors.New("vertex analyzer: project and location are required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Vertex AI client: %w", err)
	}

	return &GenAIAnalyzer{client: client, modelName: modelName, attachFiles: true}, nil
}

// NewGeminiAnalyzer creates an analyzer backed by the Gemini API.
func NewGeminiAnalyzer(ctx context.Context, apiKey, modelName string) (*GenAIAnalyzer, error) {
	if apiKey == "" {
		return nil, errors.New("gemini analyzer: api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Gemini API client: %w", err)
	}

	return &GenAIAnalyzer{client: client, modelName: modelName}, nil
}

func (a *GenAIAnalyzer) Analyze(ctx context.Context, req domain.AnalysisRequest) (*domain.AnalysisResult, error) {
	contents := buildContents(req, a.attachFiles)

	temp := float32(0.4)
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(strings.TrimSpace(systemPrompt), genai.RoleUser),
		Temperature:       &temp,
		MaxOutputTokens:   4096,
	}

	res, err := a.client.Models.GenerateContent(ctx, a.modelName, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("genai generate content: %w", err)
	}

	text := strings.TrimSpace(res.Text())
	if text == "" {
		return nil, errors.New("genai returned empty text")
	}
	return &domain.AnalysisResult{Summary: text}, nil
}

// buildContents maps history to alternating user/model contents and appends
// the current turn.
func buildContents(req domain.AnalysisRequest, attachFiles bool) []*genai.Content {
	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, h := range req.History {
		role := genai.Role(genai.RoleUser)
		if h.Role == domain.RoleAssistant {
			role = genai.RoleModel
		}
		text := h.Text
		if h.AttachmentURL != "" {
			text += "\n[attachment: " + h.AttachmentURL + "]"
		}
		contents = append(contents, genai.NewContentFromText(text, role))
	}

	parts := []*genai.Part{genai.NewPartFromText(userTurn(req))}
	if attachFiles && req.AttachmentURL != "" {
		if mimeType := mimeTypeOf(req.AttachmentURL); mimeType != "" {
			parts = append(parts, genai.NewPartFromURI(req.AttachmentURL, mimeType))
		}
	}
	return append(contents, genai.NewContentFromParts(parts, genai.RoleUser))
}

// mimeTypeOf guesses a media type from the URL path extension.
func mimeTypeOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	t := mime.TypeByExtension(strings.ToLower(path.Ext(u.Path)))
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = t[:i]
	}
	switch {
	case strings.HasPrefix(t, "image/"), strings.HasPrefix(t, "audio/"), strings.HasPrefix(t, "video/"):
		return t
	default:
		return ""
	}
}
