package metric

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "worldsnap"

// Result label values.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Registry holds all application metrics.
type Registry struct {
	reg *prometheus.Registry

	// Snapshot metrics
	SnapshotOps      *prometheus.CounterVec
	SnapshotDuration *prometheus.HistogramVec

	// Process metrics
	ProcessTransitions *prometheus.CounterVec
	RestartWarnings    prometheus.Counter
	ServerUp           prometheus.Gauge

	// Request metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewRegistry creates a registry with Go runtime and process collectors
// and all worldsnap instruments registered.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		SnapshotOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "operations_total",
			Help:      "Snapshot create and restore operations by result.",
		}, []string{"op", "result"}),
		SnapshotDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "operation_duration_seconds",
			Help:      "Duration of the full stop, operate, start sequence.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"op"}),
		ProcessTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "process",
			Name:      "transitions_total",
			Help:      "Managed process start and stop attempts by result.",
		}, []string{"action", "result"}),
		RestartWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "process",
			Name:      "restart_warnings_total",
			Help:      "Operations whose trailing restart of the server failed.",
		}),
		ServerUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "process",
			Name:      "server_up",
			Help:      "1 when the managed server was last seen running.",
		}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.SnapshotOps,
		r.SnapshotDuration,
		r.ProcessTransitions,
		r.RestartWarnings,
		r.ServerUp,
		r.RequestsTotal,
		r.RequestDuration,
	)
	return r
}

// Register adds extra collectors to the registry.
func (r *Registry) Register(cs ...prometheus.Collector) error {
	if r == nil {
		return nil
	}
	for _, c := range cs {
		if err := r.reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Gatherer exposes the underlying registry for tests and custom handlers.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// ObserveSnapshotOp records one create or restore sequence.
func (r *Registry) ObserveSnapshotOp(op string, err error, d time.Duration) {
	if r == nil {
		return
	}
	r.SnapshotOps.WithLabelValues(op, result(err)).Inc()
	r.SnapshotDuration.WithLabelValues(op).Observe(d.Seconds())
}

// ObserveProcess records a start or stop attempt.
func (r *Registry) ObserveProcess(action string, err error) {
	if r == nil {
		return
	}
	r.ProcessTransitions.WithLabelValues(action, result(err)).Inc()
}

// IncRestartWarning counts a failed trailing restart.
func (r *Registry) IncRestartWarning() {
	if r == nil {
		return
	}
	r.RestartWarnings.Inc()
}

// SetServerUp records the last observed server state.
func (r *Registry) SetServerUp(up bool) {
	if r == nil {
		return
	}
	if up {
		r.ServerUp.Set(1)
	} else {
		r.ServerUp.Set(0)
	}
}

// ObserveRequest records one HTTP request.
func (r *Registry) ObserveRequest(method, route string, status int, d time.Duration) {
	if r == nil {
		return
	}
	r.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.RequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}
