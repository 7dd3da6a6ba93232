package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"resty.dev/v3"

	"github.com/PabloGalante/counsel-agent/internal/adapters/httpclient"
	"github.com/PabloGalante/counsel-agent/internal/domain"
	"github.com/PabloGalante/counsel-agent/internal/observability"
)

const defaultBaseURL = "https://api.cloudinary.com"

// CloudinaryUploader re-hosts attachments on Cloudinary through an unsigned
// upload preset and returns the secure URL.
type CloudinaryUploader struct {
	client    *resty.Client
	baseURL   string
	cloudName string
	preset    string
	maxBytes  int64
}

var _ domain.AttachmentUploader = (*CloudinaryUploader)(nil)

type Option func(*CloudinaryUploader)

// WithBaseURL points the uploader at another API host.
func WithBaseURL(u string) Option {
	return func(c *CloudinaryUploader) { c.baseURL = strings.TrimSuffix(u, "/") }
}

func NewCloudinaryUploader(cloudName, preset string, maxBytes int64, timeout time.Duration, opts ...Option) *CloudinaryUploader {
	c := &CloudinaryUploader{
		client:    httpclient.NewClient("cloudinary", timeout),
		baseURL:   defaultBaseURL,
		cloudName: cloudName,
		preset:    preset,
		maxBytes:  maxBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload sends a local file as multipart or asks Cloudinary to fetch a
// remote URL. Every failure wraps domain.ErrUploadFailed.
func (c *CloudinaryUploader) Upload(ctx context.Context, att domain.Attachment) (string, error) {
	log := observability.LoggerFromContext(ctx)
	endpoint := fmt.Sprintf("%s/v1_1/%s/auto/upload", c.baseURL, c.cloudName)

	req := c.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json")

	switch {
	case att.File != nil:
		data, contentType, err := c.readFile(att.File)
		if err != nil {
			return "", fmt.Errorf("%w: %w", domain.ErrUploadFailed, err)
		}
		req.SetMultipartField("file", att.File.Name, contentType, bytes.NewReader(data)).
			SetMultipartFormData(map[string]string{"upload_preset": c.preset})
	case att.URL != "":
		req.SetHeader("Content-Type", "application/json").
			SetBody(map[string]string{"file": att.URL, "upload_preset": c.preset})
	default:
		return "", fmt.Errorf("%w: empty attachment", domain.ErrUploadFailed)
	}

	resp, err := req.Post(endpoint)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrUploadFailed, err)
	}

	var body uploadResponse
	parseErr := json.Unmarshal(resp.Bytes(), &body)
	if resp.IsError() || parseErr != nil || body.SecureURL == "" {
		detail := resp.String()
		if parseErr == nil && body.Error != nil && body.Error.Message != "" {
			detail = body.Error.Message
		}
		log.Error().
			Int("status", resp.StatusCode()).
			Str("detail", detail).
			Msg("cloudinary upload failed")
		return "", fmt.Errorf("%w: status %d: %s", domain.ErrUploadFailed, resp.StatusCode(), detail)
	}

	log.Debug().Str("url", body.SecureURL).Msg("attachment uploaded")
	return body.SecureURL, nil
}

// readFile buffers the file, enforcing the size limit and the accepted
// media types (image, audio, video).
func (c *CloudinaryUploader) readFile(f *domain.LocalFile) ([]byte, string, error) {
	if f.Data == nil {
		return nil, "", fmt.Errorf("file %q has no data", f.Name)
	}
	if c.maxBytes > 0 && f.Size > c.maxBytes {
		return nil, "", fmt.Errorf("%w: %d bytes", domain.ErrAttachmentTooLarge, f.Size)
	}

	r := f.Data
	if c.maxBytes > 0 {
		r = io.LimitReader(f.Data, c.maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", fmt.Errorf("read %q: %w", f.Name, err)
	}
	if c.maxBytes > 0 && int64(len(data)) > c.maxBytes {
		return nil, "", fmt.Errorf("%w: more than %d bytes", domain.ErrAttachmentTooLarge, c.maxBytes)
	}

	contentType := DetectContentType(f.Name, f.ContentType, data)
	if !Supported(contentType) {
		return nil, "", fmt.Errorf("%w: %s", domain.ErrUnsupportedAttachment, contentType)
	}
	return data, contentType, nil
}

// DetectContentType prefers the declared type, then the file extension,
// then content sniffing.
func DetectContentType(name, declared string, data []byte) string {
	if t, _, err := mime.ParseMediaType(declared); err == nil && t != "application/octet-stream" {
		return t
	}
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); t != "" {
		if mt, _, err := mime.ParseMediaType(t); err == nil {
			return mt
		}
	}
	mt, _, _ := mime.ParseMediaType(http.DetectContentType(data))
	return mt
}

// Supported reports whether a media type can be uploaded.
func Supported(contentType string) bool {
	for _, prefix := range []string{"image/", "audio/", "video/"} {
		if strings.HasPrefix(contentType, prefix) {
			return true
		}
	}
	return false
}
