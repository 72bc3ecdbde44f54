// Package metrics provides Prometheus instrumentation for the valuation engine.
package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ValuationsTotal counts completed valuations, partitioned by recommendation.
	ValuationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "valuation_engine_valuations_total",
		Help: "Total number of valuations computed",
	}, []string{"recommendation"})

	// ValuationDuration tracks engine time per valuation, by category.
	ValuationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "valuation_engine_valuation_duration_seconds",
		Help:    "Valuation pipeline latency in seconds",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	}, []string{"category"})

	// MethodInvalidTotal counts methods that produced no usable value.
	MethodInvalidTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "valuation_engine_method_invalid_total",
		Help: "Valuation methods that yielded a value ≤ 0",
	}, []string{"method"})

	// FairValueZeroTotal counts valuations that degraded to a zero fair value.
	FairValueZeroTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "valuation_engine_fair_value_zero_total",
		Help: "Valuations with insufficient data for any method",
	})

	// WebSocketClients tracks connected WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "valuation_engine_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "valuation_engine_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "valuation_engine_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// ObserveValuation records one completed valuation.
func ObserveValuation(recommendation, category string, invalidMethods []string, fairValue float64, elapsed time.Duration) {
	ValuationsTotal.WithLabelValues(recommendation).Inc()
	ValuationDuration.WithLabelValues(category).Observe(elapsed.Seconds())
	for _, m := range invalidMethods {
		MethodInvalidTotal.WithLabelValues(m).Inc()
	}
	if fairValue <= 0 {
		FairValueZeroTotal.Inc()
	}
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		path := routePattern(r)
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// routePattern labels by the matched chi pattern (e.g.
// /api/v1/valuations/{valuationID}) to keep cardinality bounded.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack lets WebSocket upgrades pass through the middleware.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("metrics: %T does not implement http.Hijacker", w.ResponseWriter)
	}
	conn, rw, err := h.Hijack()
	if err == nil {
		w.status = http.StatusSwitchingProtocols
	}
	return conn, rw, err
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
