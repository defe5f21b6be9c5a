package logger

import (
	"log/slog"
	"net/http"
	"time"
)

// transport logs every outgoing request
type transport struct {
	next   http.RoundTripper
	logger *slog.Logger
}

// NewTransport wraps next (http.DefaultTransport when nil) with request logging.
//
// Successful and client-error responses are logged at debug level, 5xx responses at error level
// and transport failures at warn level.
func NewTransport(logger *slog.Logger, next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &transport{next: next, logger: logger}
}

func (t *transport) RoundTrip(r *http.Request) (*http.Response, error) {
	start := time.Now()

	resp, err := t.next.RoundTrip(r)

	attrs := []slog.Attr{
		slog.String("method", r.Method),
		slog.String("url", r.URL.String()),
		slog.Duration("duration", time.Since(start)),
	}

	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		t.logger.LogAttrs(r.Context(), slog.LevelWarn, "HTTP", attrs...)
		return resp, err
	}

	// ContentLength is -1 when unknown
	attrs = append(attrs,
		slog.Int("status", resp.StatusCode),
		slog.Int64("bytes_in", max(0, resp.ContentLength)),
	)

	level := slog.LevelDebug
	if resp.StatusCode >= http.StatusInternalServerError {
		level = slog.LevelError
	}

	// Log with constant message - let structured fields tell the story
	t.logger.LogAttrs(r.Context(), level, "HTTP", attrs...)
	return resp, nil
}
