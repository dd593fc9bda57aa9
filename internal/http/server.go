// Package http exposes the service surface: liveness and readiness probes,
// prometheus metrics and a small JSON API over the pipeline.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"tunepipe/internal/core"
)

// Resolver is the pipeline surface the API handlers need.
type Resolver interface {
	GetInfo(ctx context.Context, rawURL string) (*core.ResolvedTrack, error)
	Search(ctx context.Context, query string) (*core.CollectionBatch, error)
	GetTrack(ctx context.Context, idOrURL string) (*core.ResolvedTrack, error)
	DownloadTrack(ctx context.Context, track *core.ResolvedTrack, wantVideo bool) (string, error)
}

type Server struct {
	config   *core.ServerConfig
	logger   *zap.Logger
	server   *http.Server
	metrics  *Metrics
	resolver Resolver
}

type Metrics struct {
	ResolutionsTotal    *prometheus.CounterVec
	AcquisitionsTotal   *prometheus.CounterVec
	UpstreamErrorsTotal *prometheus.CounterVec
	AcquisitionDuration *prometheus.HistogramVec
	LedgerSize          prometheus.Gauge
}

func NewServer(config *core.ServerConfig, logger *zap.Logger) *Server {
	metrics := &Metrics{
		ResolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tunepipe_resolutions_total",
				Help: "Total number of metadata resolutions",
			},
			[]string{"kind", "status"},
		),
		AcquisitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tunepipe_acquisitions_total",
				Help: "Total number of media acquisitions",
			},
			[]string{"mode", "status"},
		),
		UpstreamErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tunepipe_upstream_errors_total",
				Help: "Total number of upstream source errors",
			},
			[]string{"source"},
		),
		AcquisitionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tunepipe_acquisition_duration_seconds",
				Help:    "Time spent acquiring media files",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"mode"},
		),
		LedgerSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tunepipe_ledger_size",
				Help: "Current number of entries in the download ledger",
			},
		),
	}

	// A dedicated registry keeps repeated construction (tests included) from
	// colliding on duplicate collector registration.
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		metrics.ResolutionsTotal,
		metrics.AcquisitionsTotal,
		metrics.UpstreamErrorsTotal,
		metrics.AcquisitionDuration,
		metrics.LedgerSize,
	)

	s := &Server{
		config:  config,
		logger:  logger,
		metrics: metrics,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "tunepipe"})
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if s.resolver == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "starting", "service": "tunepipe"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready", "service": "tunepipe"})
	})

	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	mux.HandleFunc("/api/info", s.handleInfo)
	mux.HandleFunc("/api/search", s.handleSearch)
	mux.HandleFunc("/api/track", s.handleTrack)
	mux.HandleFunc("/api/download", s.handleDownload)

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      mux,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}

	return s
}

// SetResolver wires the pipeline in after construction. The server is built
// first so the pipeline can use it as its metrics sink.
func (s *Server) SetResolver(r Resolver) {
	s.resolver = r
}

func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting HTTP server",
		zap.String("addr", s.server.Addr))

	go func() {
		<-ctx.Done()
		s.logger.Info("Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Failed to shutdown HTTP server gracefully", zap.Error(err))
		}
	}()

	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET only")
		return
	}
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "missing q parameter")
		return
	}

	track, err := s.resolver.GetInfo(r.Context(), query)
	if err != nil {
		s.writeResolveError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, track)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET only")
		return
	}
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "missing q parameter")
		return
	}

	batch, err := s.resolver.Search(r.Context(), query)
	if err != nil {
		s.writeResolveError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": batch.Tracks})
}

func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET only")
		return
	}
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing id parameter")
		return
	}

	track, err := s.resolver.GetTrack(r.Context(), id)
	if err != nil {
		s.writeResolveError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, track)
}

type downloadRequest struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Video bool   `json:"video"`
}

type downloadResponse struct {
	Path  string              `json:"path"`
	Track *core.ResolvedTrack `json:"track"`
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}

	var req downloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	ref := req.ID
	if ref == "" {
		ref = req.URL
	}
	if ref == "" {
		writeError(w, http.StatusBadRequest, "missing id or url")
		return
	}

	track, err := s.resolver.GetTrack(r.Context(), ref)
	if err != nil {
		s.writeResolveError(w, err)
		return
	}

	path, err := s.resolver.DownloadTrack(r.Context(), track, req.Video)
	if err != nil {
		if errors.Is(err, core.ErrAcquisitionExhausted) {
			writeError(w, http.StatusBadGateway, "all acquisition sources failed")
			return
		}
		s.logger.Error("Download failed",
			zap.String("ref", ref),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, "download failed")
		return
	}

	writeJSON(w, http.StatusOK, downloadResponse{Path: path, Track: track})
}

func (s *Server) writeResolveError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNoResults):
		writeError(w, http.StatusNotFound, "no results")
	case errors.Is(err, core.ErrUpstreamUnavailable):
		writeError(w, http.StatusBadGateway, "upstream unavailable")
	default:
		s.logger.Error("Resolution failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// RecordResolution implements the pipeline metrics hook.
func (s *Server) RecordResolution(kind, status string) {
	s.metrics.ResolutionsTotal.WithLabelValues(kind, status).Inc()
}

func (s *Server) RecordAcquisition(mode, status string) {
	s.metrics.AcquisitionsTotal.WithLabelValues(mode, status).Inc()
}

func (s *Server) ObserveAcquisition(mode string, elapsed time.Duration) {
	s.metrics.AcquisitionDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
}

func (s *Server) RecordUpstreamError(source string) {
	s.metrics.UpstreamErrorsTotal.WithLabelValues(source).Inc()
}

func (s *Server) SetLedgerSize(size int) {
	s.metrics.LedgerSize.Set(float64(size))
}
