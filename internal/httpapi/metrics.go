package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "airquality"

// Metrics owns the dashboard's prometheus registry. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern and status code.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"method", "route"}),
	}
	reg.MustRegister(
		m.requests,
		m.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// TrackDataset exports the served snapshot's row count, skipped rows and
// load time. Before the first load all three read 0.
func (m *Metrics) TrackDataset(state DatasetState) {
	if m == nil || state == nil {
		return
	}
	gauge := func(name, help string, value func() float64) prometheus.GaugeFunc {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "dataset",
			Name:      name,
			Help:      help,
		}, value)
	}
	m.registry.MustRegister(
		gauge("rows", "Rows in the dataset currently served.", func() float64 {
			if snap := state.Loaded(); snap != nil {
				return float64(snap.Rows)
			}
			return 0
		}),
		gauge("skipped_rows", "Dataset rows dropped as implausible at load.", func() float64 {
			if snap := state.Loaded(); snap != nil {
				return float64(snap.Skipped)
			}
			return 0
		}),
		gauge("loaded_timestamp_seconds", "Unix time of the last dataset load.", func() float64 {
			if snap := state.Loaded(); snap != nil {
				return float64(snap.LoadedAt.UnixNano()) / 1e9
			}
			return 0
		}),
	)
}

// RegisterRoutes adds GET /metrics.
func (m *Metrics) RegisterRoutes(mux *http.ServeMux) {
	if m == nil {
		return
	}
	mux.Handle("GET /metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

// observe labels requests by the matched ServeMux pattern; requests no
// pattern matched share the "unmatched" route.
func (m *Metrics) observe(r *http.Request, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	route := r.Pattern
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())
}
