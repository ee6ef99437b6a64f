package triage

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for the triage pipeline.
type Metrics struct {
	CyclesTotal     *prometheus.CounterVec
	CycleDuration   prometheus.Histogram
	ItemsTotal      *prometheus.CounterVec
	AlertsCreated   *prometheus.CounterVec
	FeedFetches     *prometheus.CounterVec
	FeedItems       *prometheus.HistogramVec
	ClassifierCalls *prometheus.CounterVec
	NotifyTotal     *prometheus.CounterVec
	NotifyFailures  prometheus.Counter
}

// NewMetrics registers and returns pipeline metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pulse_cycles_total",
			Help: "Total monitoring cycles by trigger (timer or manual).",
		}, []string{"trigger"}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pulse_cycle_duration_seconds",
			Help:    "Duration of monitoring cycles in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10), // 0.5s .. ~256s
		}),
		ItemsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pulse_items_processed_total",
			Help: "Total items processed by source and per-item outcome.",
		}, []string{"source", "outcome"}),
		AlertsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pulse_alerts_created_total",
			Help: "Total alerts created by source and urgency tier.",
		}, []string{"source", "urgency"}),
		FeedFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pulse_feed_fetch_total",
			Help: "Total feed fetches by source and outcome.",
		}, []string{"source", "outcome"}),
		FeedItems: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pulse_feed_items",
			Help:    "Items returned per feed fetch.",
			Buckets: prometheus.LinearBuckets(0, 2, 11), // 0 .. 20
		}, []string{"source"}),
		ClassifierCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pulse_classifier_calls_total",
			Help: "Total Classify calls by outcome (ok, error, or skipped).",
		}, []string{"outcome"}),
		NotifyTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pulse_notify_total",
			Help: "Total notification attempts by channel and outcome.",
		}, []string{"channel", "outcome"}),
		NotifyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pulse_notify_all_channels_failed_total",
			Help: "Qualifying alerts where no channel delivered.",
		}),
	}

	reg.MustRegister(
		m.CyclesTotal,
		m.CycleDuration,
		m.ItemsTotal,
		m.AlertsCreated,
		m.FeedFetches,
		m.FeedItems,
		m.ClassifierCalls,
		m.NotifyTotal,
		m.NotifyFailures,
	)
	return m
}
