// Package metrics exposes Prometheus instrumentation for the monitor. The
// listener is optional; the collectors are always registered so tests and the
// app layer never special-case a nil registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Metrics bundles the monitor's collectors.
type Metrics struct {
	registry *prometheus.Registry

	CyclesTotal        prometheus.Counter
	FetchErrorsTotal   *prometheus.CounterVec
	NotificationsTotal *prometheus.CounterVec
	FlapsRejected      prometheus.Counter
	CyclesSuppressed   prometheus.Counter
	TokenRefreshes     prometheus.Counter
	LastCycleUnix      prometheus.Gauge
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "monitor_cycles_total",
			Help: "Total number of poll cycles run",
		}),
		FetchErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "monitor_fetch_errors_total",
			Help: "Fetch failures per category and class",
		}, []string{"category", "class"}),
		NotificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "monitor_notifications_total",
			Help: "Notifications emitted per category",
		}, []string{"category"}),
		FlapsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "monitor_flaps_rejected_total",
			Help: "Schedule changes rejected by the stability verifier",
		}),
		CyclesSuppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "monitor_spam_suppressions_total",
			Help: "Cycles in which the spam guard suppressed notifications",
		}),
		TokenRefreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "monitor_token_refreshes_total",
			Help: "Token refreshes triggered by auth failures or expiry",
		}),
		LastCycleUnix: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "monitor_last_cycle_timestamp_seconds",
			Help: "Unix time the last poll cycle finished",
		}),
	}

	registry.MustRegister(
		m.CyclesTotal,
		m.FetchErrorsTotal,
		m.NotificationsTotal,
		m.FlapsRejected,
		m.CyclesSuppressed,
		m.TokenRefreshes,
		m.LastCycleUnix,
	)
	return m
}

// Serve starts the /metrics listener. Blocks; intended for a goroutine.
func (m *Metrics) Serve(addr string, log *logrus.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.WithField("addr", addr).Info("Metrics listener started")
	return srv.ListenAndServe()
}
