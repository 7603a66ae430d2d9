// Package metrics exposes Prometheus instrumentation for the chart engine:
// ingest volume, store change classification, recompute cost and frame
// output, plus the HTTP server that serves /metrics and /healthz.
package metrics

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the chart engine.
type Metrics struct {
	// Data path
	CandlesIngested prometheus.Counter     // realtime candles fed to the store
	CandlesLoaded   prometheus.Counter     // historical candles loaded
	StoreChanges    *prometheus.CounterVec // labels: kind (append/update/prepend/reset)

	// Recompute path
	StudyRecomputeDur prometheus.Histogram
	PriceScaleRecalcs prometheus.Counter

	// Render path
	FramesRendered  prometheus.Counter
	RenderRequests  prometheus.Counter // raw requests before coalescing
	GatewayClients  prometheus.Gauge
	FrameBytesTotal prometheus.Counter
	FrameEncodeDur  prometheus.Histogram
	FeedReconnects  prometheus.Counter
	DroppedCandles  prometheus.Counter // ring buffer overflow between feed and engine
	SQLiteCommitDur prometheus.Histogram
}

// New creates and registers all metrics on a fresh registry.
func New() (*Metrics, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		CandlesIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chart_candles_ingested_total",
			Help: "Realtime candles fed into the time series store.",
		}),
		CandlesLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chart_candles_loaded_total",
			Help: "Historical candles loaded from the data manager.",
		}),
		StoreChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chart_store_changes_total",
			Help: "Store mutations by change kind.",
		}, []string{"kind"}),
		StudyRecomputeDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "chart_study_recompute_seconds",
			Help:    "Duration of study recomputation passes.",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
		PriceScaleRecalcs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chart_price_scale_recalcs_total",
			Help: "Visible-slice price scale recalculations.",
		}),
		FramesRendered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chart_frames_rendered_total",
			Help: "Frames actually drawn after coalescing.",
		}),
		RenderRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chart_render_requests_total",
			Help: "Render requests before coalescing.",
		}),
		GatewayClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chart_gateway_clients",
			Help: "Connected websocket frame consumers.",
		}),
		FrameBytesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chart_frame_bytes_total",
			Help: "Encoded frame bytes broadcast to clients.",
		}),
		FrameEncodeDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "chart_frame_encode_seconds",
			Help:    "Duration of frame JSON encoding.",
			Buckets: prometheus.ExponentialBuckets(1e-5, 4, 8),
		}),
		FeedReconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chart_feed_reconnects_total",
			Help: "Realtime feed reconnections.",
		}),
		DroppedCandles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chart_dropped_candles_total",
			Help: "Candles dropped between feed and engine (full buffer).",
		}),
		SQLiteCommitDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "chart_sqlite_commit_seconds",
			Help:    "Duration of SQLite batch commits.",
			Buckets: prometheus.ExponentialBuckets(1e-4, 4, 8),
		}),
	}
	reg.MustRegister(
		m.CandlesIngested, m.CandlesLoaded, m.StoreChanges,
		m.StudyRecomputeDur, m.PriceScaleRecalcs,
		m.FramesRendered, m.RenderRequests, m.GatewayClients,
		m.FrameBytesTotal, m.FrameEncodeDur, m.FeedReconnects,
		m.DroppedCandles, m.SQLiteCommitDur,
	)
	return m, reg
}

// Health is the liveness snapshot served at /healthz.
type Health struct {
	StartedAt    time.Time
	LastCandleAt time.Time
	FeedOK       bool
	Clients      int
}

// ServeHTTP writes the health snapshot as JSON.
func (h *Health) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	status := "ok"
	code := http.StatusOK
	if !h.FeedOK {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(struct {
		Status       string `json:"status"`
		Uptime       string `json:"uptime"`
		LastCandleAt string `json:"last_candle_at"`
		Clients      int    `json:"clients"`
	}{
		Status:       status,
		Uptime:       time.Since(h.StartedAt).Round(time.Second).String(),
		LastCandleAt: h.LastCandleAt.Format(time.RFC3339),
		Clients:      h.Clients,
	})
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	addr string
	srv  *http.Server
}

// NewServer creates a metrics and health server over a registry.
func NewServer(addr string, reg *prometheus.Registry, health *Health) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	if health != nil {
		mux.HandleFunc("/healthz", health.ServeHTTP)
	}
	return &Server{
		addr: addr,
		srv:  &http.Server{Addr: addr, Handler: mux},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[metrics] server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
