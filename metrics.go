package main

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// refreshMetrics records coordinator refresh outcomes
type refreshMetrics struct {
	total       *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	lastSuccess *prometheus.GaugeVec
}

func newRefreshMetrics(reg prometheus.Registerer) *refreshMetrics {
	m := &refreshMetrics{
		total: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "solaredge_refresh_total",
			Help: "Number of inverter data refreshes by result",
		}, []string{"inverter_name", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "solaredge_refresh_duration_seconds",
			Help:    "Duration of inverter data refreshes",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"inverter_name"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "solaredge_last_successful_refresh_timestamp_seconds",
			Help: "Unix time of the last successful inverter data refresh",
		}, []string{"inverter_name"}),
	}
	if reg != nil {
		reg.MustRegister(m.total, m.duration, m.lastSuccess)
	}
	return m
}

func (m *refreshMetrics) observe(name string, started time.Time, err error) {
	if m == nil {
		return
	}
	m.total.WithLabelValues(name, errorKind(err)).Inc()
	m.duration.WithLabelValues(name).Observe(time.Since(started).Seconds())
	if err == nil {
		m.lastSuccess.WithLabelValues(name).SetToCurrentTime()
	}
}
