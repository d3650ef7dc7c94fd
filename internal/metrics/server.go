package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"happycat-dpi/internal/core"
)

// Server serves /metrics and /healthz on a local listener.
type Server struct {
	httpServer *http.Server
}

// NewServer creates a metrics server for the collector's registry.
func NewServer(listen string, c *Collector) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(c.Registry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return &Server{
		httpServer: &http.Server{
			Addr:              listen,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start begins serving in the background.
func (s *Server) Start() {
	go func() {
		core.Log.Infof("Metrics", "Serving on http://%s/metrics", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			core.Log.Errorf("Metrics", "Server failed: %v", err)
		}
	}()
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) {
	_ = s.httpServer.Shutdown(ctx)
}
