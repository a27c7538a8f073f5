package internal

import (
	"context"
	"time"

	"curator/pkg/curation"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// PassMetrics records cleanup pass results and optionally pushes them to a
// Prometheus Pushgateway.
type PassMetrics struct {
	cfg        MetricsConfig
	registry   *prometheus.Registry
	removed    *prometheus.CounterVec
	backfilled prometheus.Counter
	healed     prometheus.Counter
	graced     prometheus.Counter
	evaluated  prometheus.Counter
	authors    prometheus.Gauge
	duration   prometheus.Gauge
	lastRun    prometheus.Gauge
}

func NewPassMetrics(cfg MetricsConfig) *PassMetrics {
	m := &PassMetrics{
		cfg:      cfg,
		registry: prometheus.NewRegistry(),
		removed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "curator_removed_repositories_total",
			Help: "Repositories removed from the index.",
		}, []string{"removal_type"}),
		backfilled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "curator_backfilled_records_total",
			Help: "Ledger records added by reconciliation.",
		}),
		healed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "curator_healed_entries_total",
			Help: "Blacklisted repositories dropped from a category.",
		}),
		graced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "curator_graced_skips_total",
			Help: "Repositories skipped because of an active grace period.",
		}),
		evaluated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "curator_evaluated_repositories_total",
			Help: "Repositories whose metadata was fetched and evaluated.",
		}),
		authors: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "curator_notified_authors",
			Help: "Authors notified by the last pass.",
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "curator_pass_duration_seconds",
			Help: "Duration of the last pass.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "curator_last_success_timestamp_seconds",
			Help: "Completion time of the last successful pass.",
		}),
	}
	m.registry.MustRegister(m.removed, m.backfilled, m.healed, m.graced, m.evaluated, m.authors, m.duration, m.lastRun)
	return m
}

// Registry exposes the collectors for tests and custom exporters.
func (m *PassMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Observe records the report and pushes when a Pushgateway is configured.
func (m *PassMetrics) Observe(ctx context.Context, report *curation.Report) error {
	for _, record := range report.Removed {
		m.removed.WithLabelValues(string(record.RemovalType)).Inc()
	}
	m.backfilled.Add(float64(len(report.Backfilled)))
	m.healed.Add(float64(len(report.Healed)))
	m.graced.Add(float64(report.Graced))
	m.evaluated.Add(float64(report.Evaluated))
	m.authors.Set(float64(len(report.Authors)))
	finished := report.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	m.duration.Set(finished.Sub(report.StartedAt).Seconds())
	m.lastRun.Set(float64(finished.Unix()))

	if m.cfg.PushgatewayURL == "" {
		return nil
	}
	return push.New(m.cfg.PushgatewayURL, m.cfg.Job).
		Gatherer(m.registry).
		PushContext(ctx)
}
