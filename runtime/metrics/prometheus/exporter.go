package prometheus

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// defaultReadHeaderTimeout is the timeout for reading request headers.
	defaultReadHeaderTimeout = 10 * time.Second

	// shutdownTimeout bounds the graceful stop performed by Serve.
	shutdownTimeout = 5 * time.Second
)

// ErrExporterStarted is returned when Serve is called on a running exporter.
var ErrExporterStarted = errors.New("metrics exporter already started")

// Exporter serves Prometheus metrics over HTTP.
type Exporter struct {
	addr     string
	registry *prometheus.Registry

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// NewExporter creates an exporter with every rehearsal metric plus the Go
// runtime and process collectors registered.
func NewExporter(addr string) *Exporter {
	reg := prometheus.NewRegistry()
	for _, collector := range allMetrics {
		reg.MustRegister(collector)
	}
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return NewExporterWithRegistry(addr, reg)
}

// NewExporterWithRegistry creates an exporter over a caller-owned registry.
func NewExporterWithRegistry(addr string, registry *prometheus.Registry) *Exporter {
	return &Exporter{addr: addr, registry: registry}
}

// Registry returns the underlying Prometheus registry.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// Handler returns an http.Handler for the metrics endpoint.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

func (e *Exporter) mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", e.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Listen binds the configured address. It is split from Serve so callers
// (and tests using ":0") can read Addr before serving.
func (e *Exporter) Listen() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.listener != nil {
		return ErrExporterStarted
	}
	ln, err := net.Listen("tcp", e.addr)
	if err != nil {
		return err
	}
	e.listener = ln
	return nil
}

// Addr returns the bound address, or the configured one before Listen.
func (e *Exporter) Addr() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.listener != nil {
		return e.listener.Addr().String()
	}
	return e.addr
}

// Serve serves /metrics and /health until ctx is cancelled, then shuts the
// server down gracefully. Listen is called if it has not been already.
// It returns nil on a clean shutdown.
func (e *Exporter) Serve(ctx context.Context) error {
	e.mu.Lock()
	if e.server != nil {
		e.mu.Unlock()
		return ErrExporterStarted
	}
	e.mu.Unlock()

	if e.listenerOrNil() == nil {
		if err := e.Listen(); err != nil {
			return err
		}
	}

	e.mu.Lock()
	e.server = &http.Server{
		Handler:           e.mux(),
		ReadHeaderTimeout: defaultReadHeaderTimeout,
	}
	srv, ln := e.server, e.listener
	e.mu.Unlock()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	}
}

func (e *Exporter) listenerOrNil() net.Listener {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.listener
}

// MustRegister registers additional collectors. Panics if registration fails.
func (e *Exporter) MustRegister(cs ...prometheus.Collector) {
	e.registry.MustRegister(cs...)
}

// Register registers an additional collector.
func (e *Exporter) Register(c prometheus.Collector) error {
	return e.registry.Register(c)
}
