// Package httputil builds the HTTP clients used for Gemini REST calls. It
// centralizes timeout defaults and tracing so every caller is configured
// the same way.
package httputil

import (
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
)

// DefaultReportTimeout bounds one report request. Report generation reads a
// whole transcript, so it gets a generous budget.
const DefaultReportTimeout = 60 * time.Second

// NewHTTPClient returns an *http.Client configured with the given timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// NewTracedClient returns a client whose requests create client spans and
// carry trace context. A nil tp uses the global provider.
func NewTracedClient(timeout time.Duration, tp trace.TracerProvider) *http.Client {
	var opts []otelhttp.Option
	if tp != nil {
		opts = append(opts, otelhttp.WithTracerProvider(tp))
	}
	client := NewHTTPClient(timeout)
	client.Transport = otelhttp.NewTransport(http.DefaultTransport, opts...)
	return client
}
