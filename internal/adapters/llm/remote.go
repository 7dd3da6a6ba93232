package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"resty.dev/v3"

	"github.com/PabloGalante/counsel-agent/internal/adapters/httpclient"
	"github.com/PabloGalante/counsel-agent/internal/domain"
)

// RemoteAnalyzer posts the turn to an external legal-analysis endpoint as
// form fields prompt, image and history, and reads {summary} or {error}.
type RemoteAnalyzer struct {
	client   *resty.Client
	endpoint string
}

var _ domain.AnalysisService = (*RemoteAnalyzer)(nil)

type remoteResponse struct {
	Summary string `json:"summary"`
	Error   string `json:"error"`
}

func NewRemoteAnalyzer(endpoint, apiKey string, timeout time.Duration) *RemoteAnalyzer {
	client := httpclient.NewClient("legal-analysis", timeout)
	if apiKey != "" {
		client.SetHeader("Authorization", "Bearer "+apiKey)
	}
	return &RemoteAnalyzer{client: client, endpoint: endpoint}
}

func (r *RemoteAnalyzer) Analyze(ctx context.Context, req domain.AnalysisRequest) (*domain.AnalysisResult, error) {
	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetMultipartFormData(map[string]string{
			"prompt":  req.Text,
			"image":   req.AttachmentURL,
			"history": HistoryText(req.History),
		}).
		Post(r.endpoint)
	if err != nil {
		return nil, fmt.Errorf("legal analysis call failed: %w", err)
	}

	var body remoteResponse
	parseErr := json.Unmarshal(resp.Bytes(), &body)

	if resp.IsError() || resp.StatusCode() >= 300 {
		msg := strings.TrimSpace(body.Error)
		if parseErr != nil || msg == "" {
			msg = resp.String()
		}
		return nil, fmt.Errorf("legal analysis returned status %d: %s", resp.StatusCode(), msg)
	}
	if parseErr != nil {
		return nil, fmt.Errorf("decode legal analysis response: %w", parseErr)
	}

	summary := strings.TrimSpace(body.Summary)
	if summary == "" {
		return nil, errors.New("legal analysis returned no summary")
	}
	return &domain.AnalysisResult{Summary: summary}, nil
}
