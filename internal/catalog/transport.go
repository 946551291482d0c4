package catalog

import (
	"log/slog"
	"net/http"
	"time"
)

// loggingTransport logs outgoing request URLs, which is most of what is
// needed to debug API calls.
type loggingTransport struct {
	next http.RoundTripper
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	slog.Debug("Outgoing request", "method", req.Method, "url", req.URL.String())

	resp, err := t.next.RoundTrip(req)
	if err != nil {
		slog.Debug("Request failed", "url", req.URL.String(), "err", err, "duration", time.Since(start))
		return nil, err
	}
	slog.Debug("Response received", "url", req.URL.String(), "status", resp.StatusCode, "duration", time.Since(start))
	return resp, nil
}
