// Package metrics exposes terrain build and per-frame statistics to Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Tomius/LoD-sub000/internal/logger"
)

const modeLabel = "mode"

// Metrics holds the terrain collectors registered on one registry.
type Metrics struct {
	buildSeconds  prometheus.Histogram
	nodes         prometheus.Gauge
	depth         prometheus.Gauge
	selectSeconds prometheus.Histogram
	patches       prometheus.Gauge
	culledTotal   prometheus.Counter
	visitedTotal  prometheus.Counter
	drawCalls     *prometheus.GaugeVec
	framesTotal   prometheus.Counter
}

// Frame is what one rendered frame reports.
type Frame struct {
	Mode       string
	Visited    int
	Culled     int
	Patches    int
	DrawCalls  int
	SelectTime time.Duration
}

// New registers the terrain collectors on reg. Pass prometheus.DefaultRegisterer to expose
// them through promhttp.Handler.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		buildSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "terrain_build_seconds",
			Help:    "Time spent building the quadtree.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		nodes: f.NewGauge(prometheus.GaugeOpts{
			Name: "terrain_nodes",
			Help: "The number of quadtree nodes.",
		}),
		depth: f.NewGauge(prometheus.GaugeOpts{
			Name: "terrain_depth",
			Help: "The quadtree depth.",
		}),
		selectSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "terrain_select_seconds",
			Help:    "Time spent selecting patches for a frame.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
		}),
		patches: f.NewGauge(prometheus.GaugeOpts{
			Name: "terrain_patches",
			Help: "The number of patches selected for the last frame.",
		}),
		culledTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "terrain_nodes_culled_total",
			Help: "The total number of nodes rejected by the frustum.",
		}),
		visitedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "terrain_nodes_visited_total",
			Help: "The total number of nodes tested during selection.",
		}),
		drawCalls: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "terrain_draw_calls",
			Help: "The number of draw calls issued for the last frame.",
		}, []string{modeLabel}),
		framesTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "terrain_frames_total",
			Help: "The total number of rendered frames.",
		}),
	}
}

// ObserveBuild records a finished tree build.
func (m *Metrics) ObserveBuild(elapsed time.Duration, nodes, depth int) {
	m.buildSeconds.Observe(elapsed.Seconds())
	m.nodes.Set(float64(nodes))
	m.depth.Set(float64(depth))
}

// ObserveFrame records one frame.
func (m *Metrics) ObserveFrame(f Frame) {
	m.framesTotal.Inc()
	m.selectSeconds.Observe(f.SelectTime.Seconds())
	m.patches.Set(float64(f.Patches))
	m.culledTotal.Add(float64(f.Culled))
	m.visitedTotal.Add(float64(f.Visited))
	m.drawCalls.With(prometheus.Labels{modeLabel: f.Mode}).Set(float64(f.DrawCalls))
}

// Handler returns a mux serving /metrics from g and a /health check.
func Handler(g prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

// Serve listens on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           Handler(g),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("serving metrics", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
