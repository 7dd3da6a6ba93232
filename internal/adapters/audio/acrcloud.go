package audio

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

// ACRCloud status codes.
const (
	statusSuccess  = 0
	statusNoResult = 1001
)

// ErrInvalidURL is returned for a missing or non-http audio URL.
var ErrInvalidURL = errors.New("missing or invalid audio url")

// Recognizer identifies recordings through the ACRCloud identify API.
type Recognizer struct {
	client   *resty.Client
	endpoint string
}

var _ domain.AudioRecognizer = (*Recognizer)(nil)

// NewRecognizer builds a recognizer for baseURL, e.g.
// https://identify-eu-west-1.acrcloud.com.
func NewRecognizer(baseURL, accessKey, secretKey string, timeout time.Duration) *Recognizer {
	client := httpclient.NewClient("acrcloud", timeout).
		SetHeader("access-key", accessKey).
		SetHeader("secret-key", secretKey)

	return &Recognizer{
		client:   client,
		endpoint: strings.TrimSuffix(baseURL, "/") + "/v1/identify",
	}
}

type identifyResponse struct {
	Status struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	} `json:"status"`
	Message  string `json:"message"`
	Metadata struct {
		Music []struct {
			Title   string `json:"title"`
			Artists []struct {
				Name string `json:"name"`
			} `json:"artists"`
			ExternalMetadata struct {
				YouTube struct {
					VID string `json:"vid"`
				} `json:"youtube"`
			} `json:"external_metadata"`
		} `json:"music"`
	} `json:"metadata"`
}

func (r *Recognizer) Identify(ctx context.Context, audioURL string) (*domain.Recognition, error) {
	audioURL = strings.TrimSpace(audioURL)
	if !strings.HasPrefix(audioURL, "http://") && !strings.HasPrefix(audioURL, "https://") {
		return nil, ErrInvalidURL
	}

	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"url": audioURL}).
		Post(r.endpoint)
	if err != nil {
		return nil, fmt.Errorf("acrcloud identify: %w", err)
	}

	var body identifyResponse
	parseErr := json.Unmarshal(resp.Bytes(), &body)
	if resp.IsError() {
		msg := body.Message
		if parseErr != nil || msg == "" {
			msg = resp.String()
		}
		return nil, fmt.Errorf("acrcloud returned status %d: %s", resp.StatusCode(), msg)
	}
	if parseErr != nil {
		return nil, fmt.Errorf("decode acrcloud response: %w", parseErr)
	}

	switch body.Status.Code {
	case statusSuccess:
	case statusNoResult:
		return &domain.Recognition{Matched: false}, nil
	default:
		return nil, fmt.Errorf("acrcloud status %d: %s", body.Status.Code, body.Status.Msg)
	}

	if len(body.Metadata.Music) == 0 {
		return &domain.Recognition{Matched: false}, nil
	}

	track := body.Metadata.Music[0]
	out := &domain.Recognition{
		Matched:        true,
		Title:          track.Title,
		YouTubeVideoID: track.ExternalMetadata.YouTube.VID,
	}
	for _, a := range track.Artists {
		out.Artists = append(out.Artists, a.Name)
	}
	return out, nil
}
