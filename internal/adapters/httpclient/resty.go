package httpclient

import (
	"context"
	"time"

	"resty.dev/v3"

	"github.com/PabloGalante/counsel-agent/internal/observability"
)

type startedAtKey struct{}

// NewClient returns a resty client that logs every exchange at debug level
// and forwards the request id. Retries are disabled.
func NewClient(name string, timeout time.Duration) *resty.Client {
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetRetryCount(0)

	client.AddRequestMiddleware(func(_ *resty.Client, r *resty.Request) error {
		ctx := context.WithValue(r.Context(), startedAtKey{}, time.Now())
		r.SetContext(ctx)
		if reqID := observability.RequestIDFromContext(ctx); reqID != "" {
			r.SetHeader("X-Request-ID", reqID)
		}
		return nil
	})

	client.AddResponseMiddleware(func(_ *resty.Client, r *resty.Response) error {
		ctx := r.Request.Context()
		startedAt, _ := ctx.Value(startedAtKey{}).(time.Time)

		log := observability.LoggerFromContext(ctx)
		ev := log.Debug().
			Str("client", name).
			Int("status", r.StatusCode()).
			Dur("latency", time.Since(startedAt))
		if raw := r.Request.RawRequest; raw != nil {
			ev = ev.Str("method", raw.Method).Str("path", raw.URL.Path)
		}
		ev.Msg("HTTP client request")
		return nil
	})

	return client
}
